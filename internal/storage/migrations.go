package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS runs (
					id TEXT PRIMARY KEY,
					input TEXT NOT NULL DEFAULT '',
					strictness REAL NOT NULL DEFAULT 0,
					tau_high REAL NOT NULL DEFAULT 0,
					tau_low REAL NOT NULL DEFAULT 0,
					started_at DATETIME NOT NULL,
					finished_at DATETIME,
					row_count INTEGER NOT NULL DEFAULT 0,
					error_rows INTEGER NOT NULL DEFAULT 0,
					malformed INTEGER NOT NULL DEFAULT 0,
					interrupted BOOLEAN NOT NULL DEFAULT 0,
					summary TEXT
				)`,

				`CREATE TABLE IF NOT EXISTS labels (
					run_id TEXT NOT NULL,
					comment_id INTEGER NOT NULL,
					user_id TEXT,
					gmap_id TEXT,
					name TEXT,
					rating INTEGER,
					time TEXT,
					category TEXT,
					robot_review BOOLEAN NOT NULL DEFAULT 0,
					text TEXT,
					len_tok,
					len_char,
					entity_count,
					emoji_count,
					caps_ratio,
					word_repetition_ratio,
					non_alnum_ratio,
					brand_mentions,
					is_food,
					has_url,
					has_phone,
					p_untrust,
					score,
					final_label,
					label_str TEXT NOT NULL,
					lf_outputs TEXT,
					error TEXT,
					PRIMARY KEY (run_id, comment_id),
					FOREIGN KEY (run_id) REFERENCES runs(id)
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Index labels by decision",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE INDEX IF NOT EXISTS idx_labels_run_label ON labels(run_id, label_str)`,
				`CREATE INDEX IF NOT EXISTS idx_labels_gmap ON labels(gmap_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
}

// Migrate brings the schema up to ExpectedSchemaVersion. The version lives
// in PRAGMA user_version; each migration commits on its own.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := requireContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if currentVersion > ExpectedSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", currentVersion, ExpectedSchemaVersion)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Debug("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion reports the current PRAGMA user_version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return v, nil
}

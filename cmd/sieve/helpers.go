package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/sieve/internal/common"
	"github.com/Veraticus/sieve/internal/config"
	"github.com/Veraticus/sieve/internal/engine"
	"github.com/Veraticus/sieve/internal/export"
	"github.com/Veraticus/sieve/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const stdio = "-"

// loadConfig binds the command's flags to their viper keys and loads the
// configuration. Binding happens per invocation because several commands
// share keys such as weights.strictness_level.
func loadConfig(cmd *cobra.Command, keys map[string]string) (*config.Config, error) {
	for flag, key := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return nil, fmt.Errorf("failed to bind --%s: %w", flag, err)
		}
	}

	cfg, err := config.Load(nil)
	if err != nil {
		return nil, common.NewUserError("configuration is invalid", err)
	}
	return cfg, nil
}

func isStdio(path string) bool {
	return path == "" || path == stdio
}

// openInput opens a JSONL source. For regular files it also returns the line
// count so progress can show percentages; stdin reports 0.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, int, error) {
	if isStdio(path) {
		return io.NopCloser(cmd.InOrStdin()), 0, nil
	}

	f, err := os.Open(config.ExpandPath(path))
	if err != nil {
		return nil, 0, common.NewUserError("cannot open input", err)
	}

	total, err := engine.CountLines(f)
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%w: %w", common.ErrInputRead, err)
	}
	common.LogDebug("Counted input lines", common.Fields{"path": path, "lines": total})
	return f, total, nil
}

// createOutput opens path for writing, creating parent directories. Stdout
// is returned without its Close so writers cannot close it.
func createOutput(cmd *cobra.Command, path string) (io.Writer, error) {
	if isStdio(path) {
		return struct{ io.Writer }{cmd.OutOrStdout()}, nil
	}

	path = config.ExpandPath(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, common.NewUserError("cannot create output", err)
	}
	return f, nil
}

// sink is the row writer for one run plus, for SQLite output, the store
// that records the run itself.
type sink struct {
	engine.RowWriter
	store *storage.SQLiteStorage
}

type runInfo struct {
	id     string
	input  string
	config *config.Config
}

func openSink(ctx context.Context, cmd *cobra.Command, path string, format export.Format, run runInfo) (*sink, error) {
	switch format {
	case export.FormatSQLite:
		if isStdio(path) {
			return nil, common.NewUserError("sqlite output needs a file path", common.ErrUnsupportedFormat)
		}
		store, err := storage.NewSQLiteStorage(config.ExpandPath(path))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		err = store.BeginRun(ctx, storage.Run{
			ID:         run.id,
			Input:      run.input,
			Strictness: run.config.Strictness,
			TauHigh:    run.config.Decision.TauHigh,
			TauLow:     run.config.Decision.TauLow,
		})
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		return &sink{RowWriter: storage.NewSQLiteWriter(store, run.id, true), store: store}, nil

	case export.FormatCSV:
		w, err := createOutput(cmd, path)
		if err != nil {
			return nil, err
		}
		return &sink{RowWriter: export.NewCSVWriter(w)}, nil

	default:
		w, err := createOutput(cmd, path)
		if err != nil {
			return nil, err
		}
		return &sink{RowWriter: export.NewJSONLWriter(w)}, nil
	}
}

// finish records the run totals (SQLite only) and closes the writer.
func (s *sink) finish(ctx context.Context, summary *engine.Summary) error {
	var finishErr error
	if s.store != nil && summary != nil {
		data, err := json.Marshal(summary)
		if err != nil {
			finishErr = fmt.Errorf("failed to encode run summary: %w", err)
		} else {
			finishErr = s.store.FinishRun(ctx, storage.RunResult{
				ID:          summary.RunID,
				FinishedAt:  time.Now(),
				Summary:     data,
				Rows:        summary.Rows,
				ErrorRows:   summary.ErrorRows,
				Malformed:   summary.Malformed,
				Interrupted: summary.Interrupted,
			})
		}
	}

	if err := s.Close(); err != nil {
		common.LogError(err, "Failed to close output", common.Fields{"run_id": summaryID(summary)})
		if finishErr == nil {
			finishErr = fmt.Errorf("%w: close: %w", common.ErrOutputWrite, err)
		}
	}
	return finishErr
}

func summaryID(s *engine.Summary) string {
	if s == nil {
		return ""
	}
	return s.RunID
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Veraticus/sieve/internal/model"
)

const insertLabelSQL = `
	INSERT INTO labels (
		run_id, comment_id, user_id, gmap_id, name, rating, time, category, robot_review, text,
		len_tok, len_char, entity_count, emoji_count, caps_ratio, word_repetition_ratio,
		non_alnum_ratio, brand_mentions, is_food, has_url, has_phone,
		p_untrust, score, final_label, label_str, lf_outputs, error
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLiteWriter writes the rows of one run into the labels table. Each
// Write commits its rows in a single transaction.
type SQLiteWriter struct {
	store *SQLiteStorage
	runID string
	owned bool
}

// NewSQLiteWriter writes rows for runID, which must already exist. When
// owned is true Close also closes the store.
func NewSQLiteWriter(store *SQLiteStorage, runID string, owned bool) *SQLiteWriter {
	return &SQLiteWriter{store: store, runID: runID, owned: owned}
}

// Write inserts rows atomically.
func (w *SQLiteWriter) Write(ctx context.Context, rows []model.OutputRow) error {
	if err := requireContext(ctx); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := w.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertLabelSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, row := range rows {
		args, err := labelArgs(w.runID, row)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", row.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rows: %w", err)
	}
	return nil
}

// Flush is a no-op; rows are durable once Write returns.
func (w *SQLiteWriter) Flush() error {
	return nil
}

// Close releases the store when the writer owns it.
func (w *SQLiteWriter) Close() error {
	if w.owned {
		return w.store.Close()
	}
	return nil
}

// labelArgs maps a row onto the labels columns. Derived columns of error
// rows hold model.ErrorMarker.
func labelArgs(runID string, row model.OutputRow) ([]any, error) {
	var rating any
	if row.Record.Rating != 0 {
		rating = row.Record.Rating
	}
	var category any
	if !row.Record.Category.IsUnknown() {
		category = row.Record.Category.String()
	}

	args := []any{
		runID, row.Seq, row.Record.UserID, row.Record.GmapID, row.Record.Name, rating,
		row.Record.Time, category, row.Record.RobotReview, row.Preview,
	}

	if row.Failed() {
		for range 15 {
			args = append(args, model.ErrorMarker)
		}
		return append(args, model.ErrorMarker, row.Error), nil
	}

	f := row.Labeled.Features
	res := row.Labeled.Result
	votes, err := json.Marshal(row.Labeled.Votes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode votes for row %d: %w", row.Seq, err)
	}

	return append(args,
		f.TokenCount, f.CharCount, f.EntityCount, f.EmojiCount, f.UppercaseRatio, f.RepeatedWordRatio,
		f.NonAlphanumRatio, f.BrandMentions, f.IsFood, f.HasURL, f.HasPhone,
		res.Probability, res.RawScore, int(row.Labeled.Decision), row.Labeled.Decision.String(),
		string(votes), nil,
	), nil
}

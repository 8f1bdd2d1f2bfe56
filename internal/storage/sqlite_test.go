package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/sieve/internal/model"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func testRows() []model.OutputRow {
	labeled := model.Labeled{
		Decision: model.DecisionUntrustworthy,
		Votes:    model.VoteSet{model.Untrust("promo", 0.95)},
		Result:   model.AggregationResult{Probability: 0.87, RawScore: 1.9},
		Features: model.FeatureSet{TokenCount: 9, HasURL: true},
	}
	return []model.OutputRow{
		model.NewOutputRow(1, model.Record{UserID: "u1", GmapID: "g1", Rating: 5, Text: "buy now"}, labeled, 200),
		model.NewErrorRow(2, model.Record{UserID: "u2"}, errors.New("bad rating"), 200),
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
	v, err := store.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if v != ExpectedSchemaVersion {
		t.Errorf("expected schema version %d, got %d", ExpectedSchemaVersion, v)
	}
}

func TestMigrate_NewerSchemaRejected(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.db.ExecContext(ctx, "PRAGMA user_version = 99"); err != nil {
		t.Fatalf("failed to bump version: %v", err)
	}
	if err := store.Migrate(ctx); err == nil {
		t.Error("expected error for newer schema")
	}
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	if _, err := NewSQLiteStorage("  "); !errors.Is(err, ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
}

func TestInMemory(t *testing.T) {
	store, err := NewSQLiteStorage(MemoryPath)
	if err != nil {
		t.Fatalf("Failed to open in-memory storage: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	runs, err := store.ListRuns(context.Background())
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestRunLifecycle(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := store.BeginRun(ctx, Run{ID: "run-1", Input: "reviews.jsonl", Strictness: 0.5, TauHigh: 0.3, TauLow: 0.7, StartedAt: started}); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}

	run, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.FinishedAt != nil {
		t.Error("unfinished run should have no finish time")
	}
	if run.Input != "reviews.jsonl" || run.Strictness != 0.5 {
		t.Errorf("unexpected run: %+v", run)
	}

	err = store.FinishRun(ctx, RunResult{
		ID:          "run-1",
		Rows:        2,
		ErrorRows:   1,
		Malformed:   3,
		Interrupted: true,
		Summary:     []byte(`{"rows":2}`),
		FinishedAt:  started.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.Rows != 2 || got.ErrorRows != 1 || got.Malformed != 3 || !got.Interrupted {
		t.Errorf("unexpected totals: %+v", got)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(started.Add(time.Minute)) {
		t.Errorf("unexpected finish time: %v", got.FinishedAt)
	}
	if got.Summary != `{"rows":2}` {
		t.Errorf("unexpected summary: %q", got.Summary)
	}
}

func TestRunNotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.GetRun(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun: expected ErrRunNotFound, got %v", err)
	}
	if err := store.FinishRun(ctx, RunResult{ID: "missing"}); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("FinishRun: expected ErrRunNotFound, got %v", err)
	}
}

func TestSQLiteWriter(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.BeginRun(ctx, Run{ID: "run-1"}); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}

	w := NewSQLiteWriter(store, "run-1", false)
	if err := w.Write(ctx, testRows()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if err := w.Write(ctx, nil); err != nil {
		t.Fatalf("empty Write failed: %v", err)
	}

	counts, err := store.LabelCounts(ctx, "run-1")
	if err != nil {
		t.Fatalf("LabelCounts failed: %v", err)
	}
	if counts["untrustworthy"] != 1 || counts[model.ErrorMarker] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}

	var (
		pUntrust  any
		lfOutputs string
		rating    any
	)
	err = store.db.QueryRowContext(ctx,
		`SELECT p_untrust, lf_outputs, rating FROM labels WHERE run_id = ? AND comment_id = 1`, "run-1").
		Scan(&pUntrust, &lfOutputs, &rating)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if p, ok := pUntrust.(float64); !ok || p != 0.87 {
		t.Errorf("unexpected p_untrust: %v", pUntrust)
	}
	if lfOutputs != `{"promo":[1,0.95]}` {
		t.Errorf("unexpected lf_outputs: %s", lfOutputs)
	}

	var errorPUntrust, errMsg string
	err = store.db.QueryRowContext(ctx,
		`SELECT p_untrust, error FROM labels WHERE run_id = ? AND comment_id = 2`, "run-1").
		Scan(&errorPUntrust, &errMsg)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if errorPUntrust != model.ErrorMarker || errMsg != "bad rating" {
		t.Errorf("unexpected error row: %s %s", errorPUntrust, errMsg)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := store.ListRuns(ctx); err != nil {
		t.Errorf("store should stay open for a non-owning writer: %v", err)
	}
}

func TestSQLiteWriter_DuplicateRowsRollBack(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.BeginRun(ctx, Run{ID: "run-1"}); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	w := NewSQLiteWriter(store, "run-1", false)

	rows := testRows()
	rows = append(rows, rows[0])
	if err := w.Write(ctx, rows); err == nil {
		t.Fatal("expected primary key violation")
	}

	counts, err := store.LabelCounts(ctx, "run-1")
	if err != nil {
		t.Fatalf("LabelCounts failed: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("failed chunk should leave no rows, got %v", counts)
	}
}

func TestSQLiteWriter_UnknownRun(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	w := NewSQLiteWriter(store, "no-such-run", false)
	if err := w.Write(context.Background(), testRows()); err == nil {
		t.Error("expected foreign key violation for an unknown run")
	}
}

func TestRunArgumentValidation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.BeginRun(ctx, Run{ID: " "}); !errors.Is(err, ErrMissingArgument) {
		t.Errorf("BeginRun: expected ErrMissingArgument, got %v", err)
	}
	if _, err := store.LabelCounts(ctx, ""); !errors.Is(err, ErrMissingArgument) {
		t.Errorf("LabelCounts: expected ErrMissingArgument, got %v", err)
	}
	//nolint:staticcheck // nil context is the case under test
	if _, err := store.ListRuns(nil); !errors.Is(err, ErrNilContext) {
		t.Errorf("ListRuns: expected ErrNilContext, got %v", err)
	}
}

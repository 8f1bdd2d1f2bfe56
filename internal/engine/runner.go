package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/Veraticus/sieve/internal/common"
	"github.com/Veraticus/sieve/internal/config"
	"github.com/Veraticus/sieve/internal/model"
	"github.com/Veraticus/sieve/internal/report"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// chunkBuffer bounds how many chunks the reader may run ahead.
const chunkBuffer = 2

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options configures a run.
type Options struct {
	ChunkSize     int // records per chunk
	Workers       int // 0 means GOMAXPROCS
	PreviewLength int
	TopCategories int
	TotalLines    int    // input line count for percentages; <= 0 when unknown
	RunID         string // generated when empty
}

// DefaultOptions returns the built-in batch settings.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// OptionsFromConfig copies the batch settings out of cfg.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		ChunkSize:     cfg.Batch.ChunkSize,
		Workers:       cfg.Batch.Workers,
		PreviewLength: cfg.Batch.PreviewLength,
		TopCategories: cfg.TopCategories,
	}
}

// Summary describes a finished (or interrupted) run.
type Summary struct {
	StartedAt   time.Time     `json:"started_at"`
	RunID       string        `json:"run_id"`
	Report      report.Report `json:"report"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	Rows        int           `json:"rows"`
	ErrorRows   int           `json:"error_rows"`
	Malformed   int           `json:"malformed_lines"`
	Blank       int           `json:"blank_lines"`
	Chunks      int           `json:"chunks"`
	Throughput  float64       `json:"records_per_second"`
	Strictness  float64       `json:"strictness"`
	Interrupted bool          `json:"interrupted"`
}

// item is one syntactically valid input line.
type item struct {
	fields map[string]json.RawMessage
	seq    int
	line   int
}

// Runner streams records through a Scorer in fixed-size chunks.
type Runner struct {
	scorer   *Scorer
	score    func(model.Record) model.Labeled
	metrics  *Metrics
	progress ProgressReporter
	logger   *slog.Logger
	opts     Options
}

// NewRunner creates a runner. Non-positive chunk sizes fall back to the
// default.
func NewRunner(scorer *Scorer, opts Options) *Runner {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = config.Default().Batch.ChunkSize
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{
		scorer: scorer,
		score:  scorer.Score,
		opts:   opts,
		logger: slog.Default(),
	}
}

// WithMetrics attaches run metrics.
func (r *Runner) WithMetrics(m *Metrics) *Runner {
	r.metrics = m
	return r
}

// WithProgress attaches a progress reporter advanced at chunk boundaries.
func (r *Runner) WithProgress(p ProgressReporter) *Runner {
	r.progress = p
	return r
}

// WithLogger replaces the default logger.
func (r *Runner) WithLogger(l *slog.Logger) *Runner {
	if l != nil {
		r.logger = l
	}
	return r
}

// Run reads JSONL records from src and writes one row per valid line to
// sink, in input order. Canceling ctx stops reading; the chunk being scored
// is still written and flushed and the summary is marked interrupted.
// Only input and output failures abort the run.
func (r *Runner) Run(ctx context.Context, src io.Reader, sink RowWriter) (*Summary, error) {
	runID := r.opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	summary := &Summary{
		RunID:      runID,
		StartedAt:  time.Now(),
		Strictness: r.scorer.Weights().Strictness(),
	}
	builder := report.NewBuilder()

	r.scorer.Policy().Warn(r.logger)
	r.logger.Info("Starting labeling run",
		"run_id", summary.RunID,
		"chunk_size", r.opts.ChunkSize,
		"workers", r.opts.Workers,
		"strictness", summary.Strictness)

	readCtx, cancelRead := context.WithCancel(ctx)
	defer cancelRead()

	rd := &chunkReader{
		chunkSize: r.opts.ChunkSize,
		metrics:   r.metrics,
		logger:    r.logger,
	}
	chunks := make(chan []item, chunkBuffer)

	g, gctx := errgroup.WithContext(readCtx)
	g.Go(func() error {
		defer close(chunks)
		return rd.read(gctx, src, chunks)
	})

	var writeErr error
	for chunk := range chunks {
		start := time.Now()
		rows := r.scoreChunk(chunk)

		for _, row := range rows {
			builder.Add(row)
			r.metrics.ObserveRow(row)
			if row.Failed() {
				summary.ErrorRows++
			}
		}

		// The in-flight chunk is always written, even after cancellation.
		if err := sink.Write(context.WithoutCancel(ctx), rows); err != nil {
			writeErr = fmt.Errorf("%w: %w", common.ErrOutputWrite, err)
			break
		}
		if err := sink.Flush(); err != nil {
			writeErr = fmt.Errorf("%w: flush: %w", common.ErrOutputWrite, err)
			break
		}

		summary.Rows += len(rows)
		summary.Chunks++
		r.metrics.ObserveChunk(time.Since(start))
		if r.progress != nil {
			r.progress.Add(len(rows))
		}
		r.logProgress(summary)

		if ctx.Err() != nil {
			break
		}
	}

	cancelRead()
	readErr := g.Wait()

	summary.Malformed = rd.malformed
	summary.Blank = rd.blank
	summary.Interrupted = ctx.Err() != nil && writeErr == nil && readErr == nil
	summary.Elapsed = time.Since(summary.StartedAt)
	if secs := summary.Elapsed.Seconds(); secs > 0 {
		summary.Throughput = float64(summary.Rows) / secs
	}
	summary.Report = builder.Build(r.opts.TopCategories)

	if r.progress != nil {
		r.progress.Finish()
	}

	if err := errors.Join(writeErr, readErr); err != nil {
		r.logger.Error("Labeling run aborted",
			"run_id", summary.RunID,
			"rows", summary.Rows,
			"error", err)
		return summary, err
	}

	r.logger.Info("Labeling run finished",
		"run_id", summary.RunID,
		"rows", summary.Rows,
		"error_rows", summary.ErrorRows,
		"malformed_lines", summary.Malformed,
		"blank_lines", summary.Blank,
		"interrupted", summary.Interrupted,
		"duration", summary.Elapsed)
	return summary, nil
}

func (r *Runner) logProgress(s *Summary) {
	elapsed := time.Since(s.StartedAt).Seconds()
	attrs := []any{"processed", s.Rows, "chunks", s.Chunks}
	if r.opts.TotalLines > 0 {
		attrs = append(attrs, "percent", fmt.Sprintf("%.1f%%", float64(s.Rows)/float64(r.opts.TotalLines)*100))
	}
	if elapsed > 0 {
		attrs = append(attrs, "records_per_sec", fmt.Sprintf("%.0f", float64(s.Rows)/elapsed))
	}
	r.logger.Info("Labeling progress", attrs...)
}

// scoreChunk scores every item on a bounded worker pool. Each worker writes
// only its own index, so rows come back in input order.
func (r *Runner) scoreChunk(items []item) []model.OutputRow {
	rows := make([]model.OutputRow, len(items))

	var g errgroup.Group
	g.SetLimit(r.opts.Workers)
	for i, it := range items {
		g.Go(func() error {
			rows[i] = r.scoreItem(it)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	return rows
}

// scoreItem turns one line into a row. Decode failures and panics become
// error rows and never escape the record.
func (r *Runner) scoreItem(it item) (row model.OutputRow) {
	rec, err := model.DecodeRecord(it.fields)

	defer func() {
		if p := recover(); p != nil {
			row = r.errorRow(it, rec, fmt.Errorf("%w: panic: %v", common.ErrMalformedRecord, p))
		}
	}()

	if err != nil {
		return r.errorRow(it, rec, fmt.Errorf("%w: %w", common.ErrMalformedRecord, err))
	}
	return model.NewOutputRow(it.seq, rec, r.score(rec), r.opts.PreviewLength)
}

func (r *Runner) errorRow(it item, rec model.Record, err error) model.OutputRow {
	recErr := &model.RecordError{Line: it.line, Err: err}
	r.logger.Warn("Record failed, emitting error row",
		"line", it.line,
		"comment_id", it.seq,
		"error", err)
	return model.NewErrorRow(it.seq, rec, recErr, r.opts.PreviewLength)
}

// chunkReader turns a line stream into chunks of valid items. Its counters
// are read only after the reader goroutine has exited.
type chunkReader struct {
	metrics   *Metrics
	logger    *slog.Logger
	chunkSize int
	malformed int
	blank     int
}

func (c *chunkReader) read(ctx context.Context, src io.Reader, out chan<- []item) error {
	br := bufio.NewReaderSize(src, 64*1024)
	chunk := make([]item, 0, c.chunkSize)
	lineNo, seq := 0, 0

	send := func() bool {
		select {
		case out <- chunk:
			chunk = make([]item, 0, c.chunkSize)
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		raw, err := br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: line %d: %w", common.ErrInputRead, lineNo+1, err)
		}
		atEOF := err != nil

		if len(raw) > 0 {
			lineNo++
			line := bytes.TrimSpace(raw)
			if lineNo == 1 {
				line = bytes.TrimPrefix(line, utf8BOM)
			}

			switch {
			case len(line) == 0:
				c.blank++
			default:
				fields, perr := model.ParseObject(line)
				if perr != nil {
					c.malformed++
					c.metrics.ObserveMalformed()
					c.logger.Warn("Skipping malformed line",
						"line", lineNo,
						"error", perr)
					break
				}
				seq++
				chunk = append(chunk, item{fields: fields, seq: seq, line: lineNo})
				if len(chunk) == c.chunkSize && !send() {
					return nil
				}
			}
		}

		if atEOF {
			if len(chunk) > 0 {
				send()
			}
			return nil
		}
	}
}

// CountLines counts newline-terminated lines plus a trailing partial line.
// It is used to report percentages when the input is a regular file.
func CountLines(r io.Reader) (int, error) {
	buf := make([]byte, 64*1024)
	count := 0
	var last byte = '\n'
	for {
		n, err := r.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}
		if errors.Is(err, io.EOF) {
			if last != '\n' {
				count++
			}
			return count, nil
		}
		if err != nil {
			return count, fmt.Errorf("%w: %w", common.ErrInputRead, err)
		}
	}
}

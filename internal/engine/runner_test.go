package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/Veraticus/sieve/internal/common"
	"github.com/Veraticus/sieve/internal/config"
	"github.com/Veraticus/sieve/internal/labeling"
	"github.com/Veraticus/sieve/internal/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink struct {
	writeErr error
	rows     []model.OutputRow
	flushes  int
	closed   bool
}

func (m *memSink) Write(_ context.Context, rows []model.OutputRow) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.rows = append(m.rows, rows...)
	return nil
}

func (m *memSink) Flush() error {
	m.flushes++
	return nil
}

func (m *memSink) Close() error {
	m.closed = true
	return nil
}

type countingProgress struct {
	onAdd    func(total int)
	total    int
	finished bool
}

func (p *countingProgress) Add(n int) {
	p.total += n
	if p.onAdd != nil {
		p.onAdd(p.total)
	}
}

func (p *countingProgress) Finish() { p.finished = true }

func newTestRunner(t *testing.T, opts Options) *Runner {
	t.Helper()
	cfg := config.Default()
	scorer, err := NewScorerFromConfig(&cfg)
	require.NoError(t, err)
	if opts.ChunkSize == 0 {
		opts.ChunkSize = 3
	}
	if opts.PreviewLength == 0 {
		opts.PreviewLength = 200
	}
	return NewRunner(scorer, opts)
}

func jsonLines(n int) string {
	var b strings.Builder
	for i := range n {
		fmt.Fprintf(&b, `{"user_id":"u%d","gmap_id":"g%d","rating":4,"category":"Restaurant","text":"review number %d was fine"}`+"\n", i, i%3, i)
	}
	return b.String()
}

func voteOf(t *testing.T, votes model.VoteSet, name string) model.Vote {
	t.Helper()
	for _, v := range votes {
		if v.Source == name {
			return v
		}
	}
	t.Fatalf("no vote from %s", name)
	return model.Vote{}
}

func TestScorer_Scenarios(t *testing.T) {
	cfg := config.Default()
	scorer, err := NewScorerFromConfig(&cfg)
	require.NoError(t, err)

	t.Run("generic praise is untrustworthy", func(t *testing.T) {
		got := scorer.Score(model.Record{
			Text:     "great food, highly recommend to everyone",
			Rating:   5,
			Category: model.SingleCategory("restaurant"),
		})
		tmpl := voteOf(t, got.Votes, labeling.Template)
		assert.Equal(t, model.LabelUntrust, tmpl.Label)
		assert.InDelta(t, 0.80, tmpl.Confidence, 1e-9)
		assert.Greater(t, got.Result.RawScore, 0.0)
		assert.Greater(t, got.Result.Probability, 0.5)
		assert.Equal(t, model.DecisionUntrustworthy, got.Decision)
	})

	t.Run("entity rich review is trustworthy", func(t *testing.T) {
		got := scorer.Score(model.Record{
			Text:     "Paid $45 for a table of 4 on Saturday at 7:00 pm, great service",
			Category: model.SingleCategory("restaurant"),
		})
		assert.GreaterOrEqual(t, got.Features.EntityCount, 3)
		assert.Equal(t, model.LabelAbstain, voteOf(t, got.Votes, labeling.Promo).Label)
		trust := voteOf(t, got.Votes, labeling.TrustSignal)
		assert.Equal(t, model.LabelTrust, trust.Label)
		assert.InDelta(t, 0.70, trust.Confidence, 1e-9)
		assert.Less(t, got.Result.Probability, 0.5)
		assert.Equal(t, model.DecisionTrustworthy, got.Decision)
	})

	t.Run("promotion with a link is untrustworthy", func(t *testing.T) {
		got := scorer.Score(model.Record{
			Text: "Contact me on WhatsApp for a discount code, https://example.com",
		})
		promo := voteOf(t, got.Votes, labeling.Promo)
		assert.Equal(t, model.LabelUntrust, promo.Label)
		assert.InDelta(t, 0.95, promo.Confidence, 1e-9)
		assert.Equal(t, model.DecisionUntrustworthy, got.Decision)
	})
}

func TestScorerFromConfig_BadDetector(t *testing.T) {
	cfg := config.Default()
	cfg.OffTopic = config.OffTopic{Detector: config.DetectorExternal, KeywordsFile: "/does/not/exist.yaml"}
	_, err := NewScorerFromConfig(&cfg)
	assert.Error(t, err)
}

func TestRun_MalformedLineIsSkipped(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(jsonLines(10)), "\n")
	input := strings.Join(lines[:4], "\n") + "\n{not json\n" + strings.Join(lines[4:], "\n") + "\n"

	metrics, err := NewMetrics()
	require.NoError(t, err)
	sink := &memSink{}
	summary, err := newTestRunner(t, Options{}).WithMetrics(metrics).Run(context.Background(), strings.NewReader(input), sink)
	require.NoError(t, err)

	assert.Len(t, sink.rows, 10)
	assert.Equal(t, 10, summary.Rows)
	assert.Equal(t, 1, summary.Malformed)
	assert.Zero(t, summary.ErrorRows)
	assert.False(t, summary.Interrupted)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.malformed), 0)
	assert.InDelta(t, 10, testutil.ToFloat64(metrics.records.WithLabelValues(OutcomeScored)), 0)
}

func TestRun_OrderAndChunks(t *testing.T) {
	sink := &memSink{}
	progress := &countingProgress{}
	summary, err := newTestRunner(t, Options{ChunkSize: 4, Workers: 3}).
		WithProgress(progress).
		Run(context.Background(), strings.NewReader(jsonLines(10)), sink)
	require.NoError(t, err)

	require.Len(t, sink.rows, 10)
	for i, row := range sink.rows {
		assert.Equal(t, i+1, row.Seq)
		assert.Equal(t, fmt.Sprintf("u%d", i), row.Record.UserID)
	}
	assert.Equal(t, 3, summary.Chunks)
	assert.Equal(t, 3, sink.flushes)
	assert.Equal(t, 10, progress.total)
	assert.True(t, progress.finished)
	assert.Equal(t, 10, summary.Report.Overall.Total)
	assert.NotEmpty(t, summary.RunID)
}

func TestRun_BlankLinesAndMissingNewline(t *testing.T) {
	input := "\n" + `{"text":"first"}` + "\n   \n\r\n" + `{"text":"second"}`
	sink := &memSink{}
	summary, err := newTestRunner(t, Options{}).Run(context.Background(), strings.NewReader(input), sink)
	require.NoError(t, err)

	require.Len(t, sink.rows, 2)
	assert.Equal(t, "second", sink.rows[1].Record.Text)
	assert.Equal(t, 3, summary.Blank)
	assert.Zero(t, summary.Malformed)
}

func TestRun_ByteOrderMark(t *testing.T) {
	input := "\xEF\xBB\xBF" + `{"text":"bom"}` + "\n"
	sink := &memSink{}
	_, err := newTestRunner(t, Options{}).Run(context.Background(), strings.NewReader(input), sink)
	require.NoError(t, err)
	require.Len(t, sink.rows, 1)
	assert.Equal(t, "bom", sink.rows[0].Record.Text)
}

func TestRun_EmptyInput(t *testing.T) {
	sink := &memSink{}
	summary, err := newTestRunner(t, Options{}).Run(context.Background(), strings.NewReader(""), sink)
	require.NoError(t, err)
	assert.Empty(t, sink.rows)
	assert.Zero(t, summary.Rows)
	assert.Zero(t, summary.Chunks)
}

func TestRun_FieldTypeErrorBecomesErrorRow(t *testing.T) {
	input := `{"user_id":"u1","rating":"five","text":"hello there friend"}` + "\n" +
		`{"user_id":"u2","rating":5,"text":"hello there friend"}` + "\n"
	sink := &memSink{}
	summary, err := newTestRunner(t, Options{}).Run(context.Background(), strings.NewReader(input), sink)
	require.NoError(t, err)

	require.Len(t, sink.rows, 2)
	assert.True(t, sink.rows[0].Failed())
	assert.Equal(t, "u1", sink.rows[0].Record.UserID, "identifiers survive into error rows")
	assert.Contains(t, sink.rows[0].Error, "line 1")
	assert.Contains(t, sink.rows[0].Error, "rating")
	assert.False(t, sink.rows[1].Failed())
	assert.Equal(t, 1, summary.ErrorRows)
	assert.Equal(t, 1, summary.Report.Overall.Errors)
}

func TestRun_OutOfRangeRatingBecomesErrorRow(t *testing.T) {
	input := `{"user_id":"u1","text":"this is a long enough sentence here","rating":1e20}` + "\n"
	sink := &memSink{}
	summary, err := newTestRunner(t, Options{}).Run(context.Background(), strings.NewReader(input), sink)
	require.NoError(t, err)

	require.Len(t, sink.rows, 1)
	assert.True(t, sink.rows[0].Failed())
	assert.Contains(t, sink.rows[0].Error, "out of range")
	assert.Zero(t, sink.rows[0].Record.Rating)
	assert.Equal(t, 1, summary.ErrorRows)
}

func TestRun_PanicBecomesErrorRow(t *testing.T) {
	r := newTestRunner(t, Options{})
	score := r.score
	r.score = func(rec model.Record) model.Labeled {
		if rec.UserID == "boom" {
			panic("voter exploded")
		}
		return score(rec)
	}

	input := `{"user_id":"ok","text":"fine"}` + "\n" + `{"user_id":"boom","text":"fine"}` + "\n"
	sink := &memSink{}
	summary, err := r.Run(context.Background(), strings.NewReader(input), sink)
	require.NoError(t, err)

	require.Len(t, sink.rows, 2)
	assert.False(t, sink.rows[0].Failed())
	assert.True(t, sink.rows[1].Failed())
	assert.Contains(t, sink.rows[1].Error, "voter exploded")
	assert.Equal(t, 1, summary.ErrorRows)
}

func TestRun_Deterministic(t *testing.T) {
	line := `{"user_id":"u1","rating":5,"category":"restaurant","text":"great food, highly recommend to everyone"}`
	sink := &memSink{}
	_, err := newTestRunner(t, Options{Workers: 4}).Run(context.Background(), strings.NewReader(line+"\n"+line+"\n"), sink)
	require.NoError(t, err)
	require.Len(t, sink.rows, 2)

	a, b := sink.rows[0], sink.rows[1]
	assert.Equal(t, 1, a.Seq)
	assert.Equal(t, 2, b.Seq)
	b.Seq = a.Seq
	assert.Equal(t, a, b)
}

func TestRun_CancelFlushesInFlightChunk(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &memSink{}
	progress := &countingProgress{onAdd: func(int) { cancel() }}
	summary, err := newTestRunner(t, Options{ChunkSize: 2}).
		WithProgress(progress).
		Run(ctx, strings.NewReader(jsonLines(20)), sink)
	require.NoError(t, err)

	assert.True(t, summary.Interrupted)
	assert.Len(t, sink.rows, 2)
	assert.Equal(t, 1, sink.flushes)
	assert.Equal(t, 2, summary.Rows)
}

func TestRun_WriteErrorIsFatal(t *testing.T) {
	sink := &memSink{writeErr: errors.New("disk full")}
	_, err := newTestRunner(t, Options{ChunkSize: 2}).Run(context.Background(), strings.NewReader(jsonLines(10)), sink)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrOutputWrite)
	assert.True(t, common.IsFatal(err))
}

type failingReader struct {
	data string
	read bool
}

func (f *failingReader) Read(p []byte) (int, error) {
	if !f.read {
		f.read = true
		return copy(p, f.data), nil
	}
	return 0, errors.New("connection reset")
}

func TestRun_ReadErrorIsFatal(t *testing.T) {
	sink := &memSink{}
	summary, err := newTestRunner(t, Options{ChunkSize: 2}).
		Run(context.Background(), &failingReader{data: jsonLines(4)}, sink)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInputRead)
	assert.False(t, summary.Interrupted)
}

func TestRun_LongLine(t *testing.T) {
	text := strings.Repeat("word ", 50000)
	input := `{"text":"` + text + `"}` + "\n"
	sink := &memSink{}
	_, err := newTestRunner(t, Options{PreviewLength: 10}).Run(context.Background(), strings.NewReader(input), sink)
	require.NoError(t, err)
	require.Len(t, sink.rows, 1)
	assert.Equal(t, "word word ...", sink.rows[0].Preview)
	assert.Equal(t, 50000, sink.rows[0].Labeled.Features.TokenCount)
}

func TestRun_ConcurrentRunsShareScorer(t *testing.T) {
	r := newTestRunner(t, Options{ChunkSize: 5, Workers: 2})

	var wg sync.WaitGroup
	results := make([][]model.OutputRow, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink := &memSink{}
			_, err := NewRunner(r.scorer, r.opts).Run(context.Background(), strings.NewReader(jsonLines(25)), sink)
			assert.NoError(t, err)
			results[i] = sink.rows
		}()
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		assert.Equal(t, results[0], results[i])
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"a\n", 1},
		{"a\nb", 2},
		{"a\nb\n\n", 3},
	}
	for _, tt := range tests {
		got, err := CountLines(strings.NewReader(tt.input))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

var _ io.Reader = (*failingReader)(nil)

package engine

import (
	"fmt"
	"time"

	"github.com/Veraticus/sieve/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricRecordsTotal   = "sieve_records_total"
	MetricLabelsTotal    = "sieve_labels_total"
	MetricVoterFires     = "sieve_voter_fires_total"
	MetricMalformedLines = "sieve_malformed_lines_total"
	MetricChunkDuration  = "sieve_chunk_duration_seconds"
)

// Record outcomes for MetricRecordsTotal.
const (
	OutcomeScored = "scored"
	OutcomeError  = "error"
)

// Metrics holds per-run Prometheus collectors. All operations are
// thread-safe, and every method is a no-op on a nil receiver.
type Metrics struct {
	registry      *prometheus.Registry
	records       *prometheus.CounterVec
	labels        *prometheus.CounterVec
	voterFires    *prometheus.CounterVec
	malformed     prometheus.Counter
	chunkDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with a fresh
// registry owned by the run.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRecordsTotal,
			Help: "Rows emitted, by outcome",
		}, []string{"outcome"}),
		labels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricLabelsTotal,
			Help: "Final decisions, by label",
		}, []string{"label"}),
		voterFires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricVoterFires,
			Help: "Non-abstaining votes, by voter",
		}, []string{"voter"}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricMalformedLines,
			Help: "Input lines skipped because they were not JSON objects",
		}),
		chunkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricChunkDuration,
			Help:    "Time to score and write one chunk, in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
	if err := m.Register(m.registry); err != nil {
		return nil, err
	}
	return m, nil
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.records,
		m.labels,
		m.voterFires,
		m.malformed,
		m.chunkDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Registry returns the run's registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRow counts one emitted row.
func (m *Metrics) ObserveRow(row model.OutputRow) {
	if m == nil {
		return
	}
	if row.Failed() {
		m.records.WithLabelValues(OutcomeError).Inc()
		return
	}
	m.records.WithLabelValues(OutcomeScored).Inc()
	m.labels.WithLabelValues(row.Labeled.Decision.String()).Inc()
	for _, v := range row.Labeled.Votes {
		if v.Fired() {
			m.voterFires.WithLabelValues(v.Source).Inc()
		}
	}
}

// ObserveMalformed counts one skipped line.
func (m *Metrics) ObserveMalformed() {
	if m == nil {
		return
	}
	m.malformed.Inc()
}

// ObserveChunk records how long a chunk took.
func (m *Metrics) ObserveChunk(d time.Duration) {
	if m == nil {
		return
	}
	m.chunkDuration.Observe(d.Seconds())
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

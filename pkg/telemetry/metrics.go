// Package telemetry exposes runtime health as Prometheus metrics and
// OpenTelemetry traces. Metrics implements reactive.Observer, so wiring
// it into a runtime is one option at construction time.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/weft-ui/weft/pkg/reactive"
)

// Config configures metric registration.
type Config struct {
	// Namespace prefixes every metric name (default "weft").
	Namespace string

	// ConstLabels are added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets for the flush duration histogram.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry to register against.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// Option configures metrics collection.
type Option func(*Config)

// WithNamespace sets the metric name prefix.
func WithNamespace(ns string) Option {
	return func(c *Config) { c.Namespace = ns }
}

// WithConstLabels adds constant labels to every metric.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) { c.ConstLabels = labels }
}

// WithBuckets sets the flush duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) { c.Buckets = buckets }
}

// WithRegistry registers metrics against a non-default registry.
func WithRegistry(r prometheus.Registerer) Option {
	return func(c *Config) { c.Registry = r }
}

// Metrics holds the runtime's Prometheus instruments.
type Metrics struct {
	flushesTotal       prometheus.Counter
	flushDuration      prometheus.Histogram
	flushRounds        prometheus.Histogram
	fragmentsEvaluated prometheus.Counter
	evalErrorsTotal    prometheus.Counter
	overflowsTotal     prometheus.Counter

	sessionsActive prometheus.Gauge
	sessionsTotal  prometheus.Counter
	eventsTotal    *prometheus.CounterVec
	opsSentTotal   prometheus.Counter
	opBytesTotal   prometheus.Counter

	flushStart time.Time
}

var _ reactive.Observer = (*Metrics)(nil)

// New registers the weft instrument set and returns it.
func New(opts ...Option) *Metrics {
	cfg := Config{
		Namespace: "weft",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := promauto.With(cfg.Registry)

	return &Metrics{
		flushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "flushes_total",
			Help:        "Total scheduler flushes",
			ConstLabels: cfg.ConstLabels,
		}),
		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Name:        "flush_duration_seconds",
			Help:        "Scheduler flush duration in seconds",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}),
		flushRounds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Name:        "flush_rounds",
			Help:        "Re-flush rounds needed per flush",
			ConstLabels: cfg.ConstLabels,
			Buckets:     []float64{1, 2, 3, 5, 8, 16, 32},
		}),
		fragmentsEvaluated: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "fragments_evaluated_total",
			Help:        "Total fragment re-evaluations",
			ConstLabels: cfg.ConstLabels,
		}),
		evalErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "evaluation_errors_total",
			Help:        "Total fragment evaluation failures",
			ConstLabels: cfg.ConstLabels,
		}),
		overflowsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "scheduler_overflows_total",
			Help:        "Flushes aborted by the re-flush cap",
			ConstLabels: cfg.ConstLabels,
		}),
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Name:        "sessions_active",
			Help:        "Live WebSocket sessions",
			ConstLabels: cfg.ConstLabels,
		}),
		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "sessions_total",
			Help:        "Total sessions accepted",
			ConstLabels: cfg.ConstLabels,
		}),
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "events_total",
			Help:        "Client events by outcome",
			ConstLabels: cfg.ConstLabels,
		}, []string{"status"}),
		opsSentTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "ops_sent_total",
			Help:        "Surface operations sent to clients",
			ConstLabels: cfg.ConstLabels,
		}),
		opBytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "op_bytes_total",
			Help:        "Encoded op batch bytes sent to clients",
			ConstLabels: cfg.ConstLabels,
		}),
	}
}

// FlushStart implements reactive.Observer.
func (m *Metrics) FlushStart() {
	m.flushStart = time.Now()
}

// FlushEnd implements reactive.Observer.
func (m *Metrics) FlushEnd(fragments, rounds int, elapsed time.Duration) {
	m.flushesTotal.Inc()
	m.flushDuration.Observe(elapsed.Seconds())
	m.flushRounds.Observe(float64(rounds))
	m.fragmentsEvaluated.Add(float64(fragments))
}

// EvaluationError implements reactive.Observer.
func (m *Metrics) EvaluationError(fragment uint64, err error) {
	m.evalErrorsTotal.Inc()
}

// Overflow implements reactive.Observer.
func (m *Metrics) Overflow() {
	m.overflowsTotal.Inc()
}

// SessionOpened records a new live session.
func (m *Metrics) SessionOpened() {
	m.sessionsActive.Inc()
	m.sessionsTotal.Inc()
}

// SessionClosed records a session ending.
func (m *Metrics) SessionClosed() {
	m.sessionsActive.Dec()
}

// EventHandled records one client event with its outcome,
// "ok" or "error".
func (m *Metrics) EventHandled(status string) {
	m.eventsTotal.WithLabelValues(status).Inc()
}

// OpsSent records an encoded op batch leaving the server.
func (m *Metrics) OpsSent(count, bytes int) {
	m.opsSentTotal.Add(float64(count))
	m.opBytesTotal.Add(float64(bytes))
}

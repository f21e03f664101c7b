package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Proton-105/weva-assistant/internal/state"
)

var (
	botUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Total number of Telegram updates handled labeled by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)
	updateDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_update_duration_seconds",
			Help:    "Duration of Telegram update handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
	intentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_intents_total",
			Help: "Total number of widget intents labeled by intent and outcome",
		},
		[]string{"intent", "status"},
	)
	stepTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_step_transitions_total",
			Help: "Total number of conversation step transitions",
		},
		[]string{"from", "to"},
	)
	catalogRequestSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_request_duration_seconds",
			Help:    "Catalog API request latency labeled by endpoint and outcome",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "outcome"},
	)
	circuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_circuit_state",
			Help: "Catalog circuit breaker state (1 for the current state)",
		},
		[]string{"state"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by code and severity",
		},
		[]string{"code", "severity"},
	)
	activeWidgets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assistant_active_widgets",
			Help: "Current number of tracked widgets",
		},
	)
	widgetsByStep = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "assistant_widgets_by_step",
			Help: "Number of widgets per conversation step",
		},
		[]string{"step"},
	)
)

func init() {
	state.RegisterTransitionRecorder(RecordStepTransition)
}

// RecordUpdate increments update counters and records duration.
func RecordUpdate(endpoint, status string, duration time.Duration) {
	if endpoint == "" {
		endpoint = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botUpdatesTotal.WithLabelValues(endpoint, status).Inc()
	updateDurationSeconds.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordStepTransition tracks conversation step changes.
func RecordStepTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	stepTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(code, severity string) {
	if code == "" {
		code = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(code, severity).Inc()
}

// RecordCircuitState marks the current catalog circuit breaker state.
func RecordCircuitState(current string) {
	for _, label := range []string{"closed", "open", "half_open"} {
		value := 0.0
		if label == current {
			value = 1
		}
		circuitState.WithLabelValues(label).Set(value)
	}
}

// Sink adapts the package recorders to the widget and catalog observer interfaces.
type Sink struct{}

// IntentProcessed counts one dispatched intent.
func (Sink) IntentProcessed(intent, status string) {
	intentsTotal.WithLabelValues(intent, status).Inc()
}

// ObserveCatalogRequest records one catalog call.
func (Sink) ObserveCatalogRequest(endpoint, outcome string, seconds float64) {
	catalogRequestSeconds.WithLabelValues(endpoint, outcome).Observe(seconds)
}

// WidgetSource exposes widget counts for the collector.
type WidgetSource interface {
	Len() int
	StepCounts() map[state.Step]int
}

// WidgetCollector periodically gathers widget counts and emits gauge metrics.
type WidgetCollector struct {
	source   WidgetSource
	interval time.Duration
}

// NewWidgetCollector builds a collector bound to the provided source.
func NewWidgetCollector(source WidgetSource, interval time.Duration) *WidgetCollector {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &WidgetCollector{source: source, interval: interval}
}

// Run polls the source every interval until ctx is cancelled.
func (c *WidgetCollector) Run(ctx context.Context) {
	if c == nil || c.source == nil {
		return
	}

	for {
		c.collect()

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.interval):
		}
	}
}

func (c *WidgetCollector) collect() {
	activeWidgets.Set(float64(c.source.Len()))

	counts := c.source.StepCounts()
	widgetsByStep.Reset()
	for _, step := range state.Steps() {
		widgetsByStep.WithLabelValues(string(step)).Set(float64(counts[step]))
	}
}

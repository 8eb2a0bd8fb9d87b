// Package metrics exposes Prometheus instrumentation for ledger commands.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/splitledger/internal/models"
)

const namespace = "splitledger"

// Metrics holds the collectors for one server. All methods are safe on a nil
// *Metrics, which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	events          *prometheus.CounterVec
	publishFailures prometheus.Counter
}

// New creates a Metrics with its own registry, including Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_commands_total",
			Help:      "Ledger commands by command name and outcome.",
		}, []string{"command", "outcome"}),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ledger_command_duration_seconds",
			Help:      "Time spent executing ledger commands, lock wait included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_events_total",
			Help:      "Committed ledger events by type.",
		}, []string{"type"}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_publish_failures_total",
			Help:      "Event batches the publisher failed to deliver.",
		}),
	}

	reg.MustRegister(
		m.commands,
		m.commandDuration,
		m.events,
		m.publishFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCommand records one finished command.
func (m *Metrics) ObserveCommand(command string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, Outcome(err)).Inc()
	m.commandDuration.WithLabelValues(command).Observe(time.Since(started).Seconds())
}

// ObserveEvents counts committed events by type.
func (m *Metrics) ObserveEvents(events []models.Event) {
	if m == nil {
		return
	}
	for _, ev := range events {
		m.events.WithLabelValues(string(ev.Type)).Inc()
	}
}

// PublishFailed counts an event batch that could not be delivered.
func (m *Metrics) PublishFailed() {
	if m == nil {
		return
	}
	m.publishFailures.Inc()
}

// Registry returns the underlying registry, or nil for a nil Metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Outcome classifies a command error into a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidExpense),
		errors.Is(err, models.ErrInvalidSettlement):
		return "invalid"
	case errors.Is(err, models.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrExceedsDebt),
		errors.Is(err, models.ErrInvalidStateTransition),
		errors.Is(err, models.ErrUnsettledBalance):
		return "rejected"
	case errors.Is(err, models.ErrConcurrentUpdate):
		return "conflict"
	case errors.Is(err, models.ErrLedgerInconsistent):
		return "inconsistent"
	default:
		return "error"
	}
}

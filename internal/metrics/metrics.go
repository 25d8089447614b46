// Package metrics exposes pipeline activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jittakal/ticketbuffer/internal/queue"
)

// Ensure implementation satisfies interface at compile time.
var _ queue.Recorder = (*Collector)(nil)

// Collector holds Prometheus metrics collectors
type Collector struct {
	ticketsProduced       *prometheus.CounterVec
	ticketsConsumed       *prometheus.CounterVec
	queueWaits            *prometheus.CounterVec
	queueDepth            prometheus.Gauge
	schedulerHintFailures *prometheus.CounterVec
	reportErrors          *prometheus.CounterVec
	runDuration           prometheus.Histogram
}

// NewCollector creates a new metrics collector registered with registry
func NewCollector(registry prometheus.Registerer) *Collector {
	factory := promauto.With(registry)

	return &Collector{
		ticketsProduced: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticketbuffer_tickets_produced_total",
				Help: "Total number of tickets enqueued",
			},
			[]string{"producer"},
		),
		ticketsConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticketbuffer_tickets_consumed_total",
				Help: "Total number of tickets dequeued",
			},
			[]string{"consumer"},
		),
		queueWaits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticketbuffer_queue_waits_total",
				Help: "Total number of times an agent suspended inside the queue",
			},
			[]string{"role", "agent"},
		),
		queueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ticketbuffer_queue_depth",
				Help: "Current number of buffered tickets",
			},
		),
		schedulerHintFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticketbuffer_scheduler_hint_failures_total",
				Help: "Total number of scheduler hints that could not be applied",
			},
			[]string{"consumer"},
		),
		reportErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticketbuffer_report_errors_total",
				Help: "Total number of tickets that could not be written to the report",
			},
			[]string{"consumer"},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ticketbuffer_run_duration_seconds",
				Help:    "Duration of a pipeline run in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// TicketProduced increments the tickets produced counter
func (c *Collector) TicketProduced(producerID string) {
	c.ticketsProduced.WithLabelValues(producerID).Inc()
}

// TicketConsumed increments the tickets consumed counter
func (c *Collector) TicketConsumed(consumerID string) {
	c.ticketsConsumed.WithLabelValues(consumerID).Inc()
}

// Waited increments the queue waits counter
func (c *Collector) Waited(role queue.Role, agentID string) {
	c.queueWaits.WithLabelValues(string(role), agentID).Inc()
}

// Depth sets the queue depth gauge
func (c *Collector) Depth(n int) {
	c.queueDepth.Set(float64(n))
}

// IncSchedulerHintFailures increments the scheduler hint failures counter
func (c *Collector) IncSchedulerHintFailures(consumerID string) {
	c.schedulerHintFailures.WithLabelValues(consumerID).Inc()
}

// IncReportErrors increments the report errors counter
func (c *Collector) IncReportErrors(consumerID string) {
	c.reportErrors.WithLabelValues(consumerID).Inc()
}

// ObserveRunDuration records the duration of a pipeline run
func (c *Collector) ObserveRunDuration(seconds float64) {
	c.runDuration.Observe(seconds)
}

package agent

import (
	"go.uber.org/zap"

	"github.com/jittakal/ticketbuffer/internal/errors"
	"github.com/jittakal/ticketbuffer/internal/report"
	"github.com/jittakal/ticketbuffer/internal/sched"
	"github.com/jittakal/ticketbuffer/pkg/queue"
)

// Metrics records consumer failures.
type Metrics interface {
	IncSchedulerHintFailures(consumerID string)
	IncReportErrors(consumerID string)
}

type nopMetrics struct{}

func (nopMetrics) IncSchedulerHintFailures(string) {}
func (nopMetrics) IncReportErrors(string)          {}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithHinter applies a scheduler hint for the consumer's priority when it
// starts.
func WithHinter(h sched.Hinter) ConsumerOption {
	return func(c *Consumer) {
		c.hinter = h
	}
}

// WithMetrics sets the failure recorder.
func WithMetrics(m Metrics) ConsumerOption {
	return func(c *Consumer) {
		if m != nil {
			c.metrics = m
		}
	}
}

// Consumer drains the queue on behalf of one consumer id.
type Consumer struct {
	id       string
	priority int
	queue    queue.Consumer
	sink     report.Sink
	hinter   sched.Hinter
	metrics  Metrics
	logger   *zap.Logger
}

// NewConsumer creates a consumer agent. priority is only used as the
// scheduler hint level.
func NewConsumer(id string, priority int, q queue.Consumer, sink report.Sink, logger *zap.Logger, opts ...ConsumerOption) *Consumer {
	if sink == nil {
		sink = report.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Consumer{
		id:       id,
		priority: priority,
		queue:    q,
		sink:     sink,
		metrics:  nopMetrics{},
		logger:   logger.Named("consumer").With(zap.String("id", id)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the consumer id.
func (c *Consumer) ID() string {
	return c.id
}

// Priority returns the configured priority level.
func (c *Consumer) Priority() int {
	return c.priority
}

// Run takes tickets off the queue and reports each one until the queue
// signals termination. It returns how many tickets this consumer took.
//
// Run must be called on the goroutine dedicated to this consumer: the
// scheduler hint binds to the calling thread.
func (c *Consumer) Run() int {
	c.applyHint()

	consumed := 0
	for {
		t, ok := c.queue.Get(c.id, c.onWait)
		if !ok {
			break
		}
		consumed++

		if err := c.sink.Report(c.id, t); err != nil {
			c.metrics.IncReportErrors(c.id)
			c.logger.Error("failed to report ticket",
				zap.Error(&errors.ReportError{ConsumerID: c.id, TicketID: t.ID, Err: err}))
		}
	}

	c.logger.Info("consumer terminated", zap.Int("consumed", consumed))
	return consumed
}

func (c *Consumer) applyHint() {
	if c.hinter == nil {
		return
	}

	if err := c.hinter.Apply(c.priority); err != nil {
		c.metrics.IncSchedulerHintFailures(c.id)
		c.logger.Warn("scheduler hint not applied, running at default priority",
			zap.Error(&errors.SchedulerHintError{
				AgentID: c.id,
				Policy:  c.hinter.Policy(),
				Level:   c.priority,
				Err:     err,
			}))
		return
	}

	c.logger.Debug("scheduler hint applied",
		zap.String("policy", c.hinter.Policy()),
		zap.Int("priority", c.priority))
}

func (c *Consumer) onWait(depth int) {
	c.logger.Info("consumer waiting for producers", zap.Int("rest", depth))
}

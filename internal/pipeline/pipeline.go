// Package pipeline wires producers, consumers and the shared queue into a
// single run and waits for every agent to finish.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jittakal/ticketbuffer/internal/agent"
	"github.com/jittakal/ticketbuffer/internal/errors"
	"github.com/jittakal/ticketbuffer/internal/queue"
	"github.com/jittakal/ticketbuffer/internal/report"
	"github.com/jittakal/ticketbuffer/internal/sched"
	"github.com/jittakal/ticketbuffer/internal/stats"
)

// ConsumerSpec describes one consumer agent.
type ConsumerSpec struct {
	ID       string
	Priority int
}

// Config fixes the shape of a run. It cannot change once the pipeline is
// built.
type Config struct {
	Capacity    int
	MaxProduced int
	Producers   int
	Consumers   []ConsumerSpec
}

// Result summarises a completed run.
type Result struct {
	// Stats lists every configured consumer in configuration order.
	Stats stats.Snapshot

	// Produced maps producer id to the number of tickets it created.
	Produced map[string]int

	TotalProduced int
	Remaining     int
	Drained       bool
	Elapsed       time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger handed to every agent.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithSink sets the report sink shared by consumers.
func WithSink(sink report.Sink) Option {
	return func(p *Pipeline) {
		if sink != nil {
			p.sink = sink
		}
	}
}

// WithHinter makes every consumer apply a scheduler hint at start.
func WithHinter(h sched.Hinter) Option {
	return func(p *Pipeline) {
		p.hinter = h
	}
}

// WithFactory sets the ticket factory used by the queue.
func WithFactory(f queue.Factory) Option {
	return func(p *Pipeline) {
		p.queueOpts = append(p.queueOpts, queue.WithFactory(f))
	}
}

// WithRecorder observes queue activity.
func WithRecorder(r queue.Recorder) Option {
	return func(p *Pipeline) {
		p.queueOpts = append(p.queueOpts, queue.WithRecorder(r))
	}
}

// WithMetrics records consumer failures.
func WithMetrics(m agent.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// Run phases reported by GetStatus.
const (
	PhaseIdle    = "idle"
	PhaseRunning = "running"
	PhaseDone    = "done"
	PhaseAborted = "aborted"
)

// Pipeline runs one batch of tickets from producers to consumers.
type Pipeline struct {
	config    Config
	logger    *zap.Logger
	sink      report.Sink
	hinter    sched.Hinter
	metrics   agent.Metrics
	queueOpts []queue.Option

	queue     *queue.BoundedQueue
	producers []*agent.Producer
	consumers []*agent.Consumer

	started atomic.Bool
	phase   atomic.Value
}

// New validates config and builds the queue and agents. Nothing runs
// until Run is called.
func New(config Config, opts ...Option) (*Pipeline, error) {
	if err := validate(config); err != nil {
		return nil, err
	}

	p := &Pipeline{
		config: config,
		logger: zap.NewNop(),
		sink:   report.Discard,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.phase.Store(PhaseIdle)

	q, err := queue.New(config.Capacity, config.MaxProduced, p.queueOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue: %w", err)
	}
	p.queue = q

	for i := 1; i <= config.Producers; i++ {
		p.producers = append(p.producers, agent.NewProducer(strconv.Itoa(i), q, p.logger))
	}

	consumerOpts := []agent.ConsumerOption{agent.WithMetrics(p.metrics)}
	if p.hinter != nil {
		consumerOpts = append(consumerOpts, agent.WithHinter(p.hinter))
	}
	for _, c := range config.Consumers {
		p.consumers = append(p.consumers, agent.NewConsumer(c.ID, c.Priority, q, p.sink, p.logger, consumerOpts...))
	}

	return p, nil
}

func validate(config Config) error {
	if config.Producers < 0 || (config.Producers == 0 && config.MaxProduced > 0) {
		return &errors.ConfigError{Field: "producers", Value: config.Producers, Err: errors.ErrInvalidAgentCount}
	}
	if len(config.Consumers) == 0 {
		return &errors.ConfigError{Field: "consumers", Value: 0, Err: errors.ErrInvalidAgentCount}
	}

	seen := make(map[string]bool, len(config.Consumers))
	for _, c := range config.Consumers {
		if c.ID == "" {
			return &errors.ConfigError{Field: "consumers.id", Value: c.ID, Err: errors.ErrInvalidSetting}
		}
		if seen[c.ID] {
			return &errors.ConfigError{Field: "consumers.id", Value: c.ID, Err: errors.ErrInvalidSetting}
		}
		seen[c.ID] = true
	}
	return nil
}

// Run starts every agent and blocks until all of them have returned.
//
// ctx bounds only how long Run waits. When it is done first Run returns
// ErrWaitAborted; the agents keep running because they cannot be
// cancelled. A pipeline runs once.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	if !p.started.CompareAndSwap(false, true) {
		return Result{}, errors.ErrAlreadyStarted
	}
	p.phase.Store(PhaseRunning)

	p.logger.Info("starting pipeline",
		zap.Int("capacity", p.config.Capacity),
		zap.Int("max_produced", p.config.MaxProduced),
		zap.Int("producers", len(p.producers)),
		zap.Int("consumers", len(p.consumers)),
	)

	start := time.Now()
	produced := make([]int, len(p.producers))

	var wg sync.WaitGroup
	for i, pr := range p.producers {
		i, pr := i, pr
		wg.Add(1)
		go func() {
			defer wg.Done()
			produced[i] = pr.Run()
		}()
	}
	for _, c := range p.consumers {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Run()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		p.phase.Store(PhaseAborted)
		p.logger.Warn("stopped waiting for agents",
			zap.Int("total_produced", p.queue.TotalProduced()),
			zap.Int("remaining", p.queue.Len()),
			zap.Error(ctx.Err()),
		)
		return Result{}, fmt.Errorf("%w: %w", errors.ErrWaitAborted, ctx.Err())
	}

	result := Result{
		Stats:         p.queue.Stats().Ordered(p.consumerIDs()),
		Produced:      make(map[string]int, len(p.producers)),
		TotalProduced: p.queue.TotalProduced(),
		Remaining:     p.queue.Len(),
		Drained:       p.queue.Done(),
		Elapsed:       time.Since(start),
	}
	for i, pr := range p.producers {
		result.Produced[pr.ID()] = produced[i]
	}
	p.phase.Store(PhaseDone)

	p.logger.Info("pipeline finished",
		zap.Int("total_produced", result.TotalProduced),
		zap.Int("consumed", result.Stats.Total()),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func (p *Pipeline) consumerIDs() []string {
	ids := make([]string, 0, len(p.consumers))
	for _, c := range p.consumers {
		ids = append(ids, c.ID())
	}
	return ids
}

// Liveness reports whether the process is alive.
func (p *Pipeline) Liveness() bool {
	return true
}

// Readiness reports whether the pipeline has started.
func (p *Pipeline) Readiness(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	return p.started.Load()
}

// IsHealthy reports whether the run has not been abandoned.
func (p *Pipeline) IsHealthy() bool {
	return p.phase.Load() != PhaseAborted
}

// GetStatus returns the run's progress. It reads only lock-free counters,
// so it answers even while an agent is stalled inside the queue.
func (p *Pipeline) GetStatus() map[string]string {
	return map[string]string{
		"phase":          p.phase.Load().(string),
		"capacity":       strconv.Itoa(p.queue.Capacity()),
		"max_produced":   strconv.Itoa(p.queue.MaxProduced()),
		"total_produced": strconv.Itoa(p.queue.TotalProduced()),
		"buffered":       strconv.Itoa(p.queue.Len()),
		"drained":        strconv.FormatBool(p.queue.Done()),
	}
}

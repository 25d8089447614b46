// Package generator stamps and identifies the tickets producers create.
package generator

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jaswdr/faker"
	"go.uber.org/zap"

	"github.com/jittakal/ticketbuffer/internal/config/dto"
	"github.com/jittakal/ticketbuffer/pkg/ticket"
)

// Generator generates tickets
type Generator struct {
	config dto.GeneratorConfig
	now    func() time.Time
	logger *zap.Logger

	// faker is not safe for concurrent use.
	mu    sync.Mutex
	faker faker.Faker
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGenerator creates a new ticket generator
func NewGenerator(config dto.GeneratorConfig, logger *zap.Logger, opts ...Option) *Generator {
	if config.TimeLayout == "" {
		config.TimeLayout = ticket.TimeLayout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Generator{
		config: config,
		now:    time.Now,
		logger: logger,
		faker:  faker.New(),
	}
	for _, opt := range opts {
		opt(g)
	}

	logger.Debug("ticket generator ready",
		zap.String("layout", config.TimeLayout),
		zap.Bool("holders", config.Holders),
		zap.Bool("utc", config.UTC),
	)
	return g
}

// Now returns the current time formatted with the configured layout.
func (g *Generator) Now() string {
	t := g.now()
	if g.config.UTC {
		t = t.UTC()
	}
	return t.Format(g.config.TimeLayout)
}

// NewTicket creates ticket seq for producerID. Its signature matches
// queue.Factory.
func (g *Generator) NewTicket(producerID string, seq int) ticket.Ticket {
	t := ticket.New(seq, uuid.New().String(), g.Now(), producerID)
	if g.config.Holders {
		t = t.WithHolder(g.holderName())
	}
	return t
}

func (g *Generator) holderName() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.faker.Person().Name()
}

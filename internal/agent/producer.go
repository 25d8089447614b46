package agent

import (
	"go.uber.org/zap"

	"github.com/jittakal/ticketbuffer/pkg/queue"
)

// Producer fills the queue on behalf of one producer id.
type Producer struct {
	id     string
	queue  queue.Producer
	logger *zap.Logger
}

// NewProducer creates a producer agent.
func NewProducer(id string, q queue.Producer, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{
		id:     id,
		queue:  q,
		logger: logger.Named("producer").With(zap.String("id", id)),
	}
}

// ID returns the producer id.
func (p *Producer) ID() string {
	return p.id
}

// Run enqueues tickets until the production cap is reached and returns
// how many of them this producer created.
func (p *Producer) Run() int {
	produced := p.queue.Put(p.id, p.onWait)
	p.logger.Info("producer terminated", zap.Int("produced", produced))
	return produced
}

func (p *Producer) onWait(depth int) {
	p.logger.Info("producer waiting for consumers", zap.Int("rest", depth))
}

package queue

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jittakal/ticketbuffer/internal/errors"
	"github.com/jittakal/ticketbuffer/internal/stats"
	"github.com/jittakal/ticketbuffer/pkg/queue"
	"github.com/jittakal/ticketbuffer/pkg/ticket"
)

// Ensure implementation satisfies interface at compile time.
var _ queue.Queue = (*BoundedQueue)(nil)

// Role names the side of the queue an agent works on.
type Role string

const (
	RoleProducer Role = "producer"
	RoleConsumer Role = "consumer"
)

// Factory builds the ticket with sequence number seq for producerID.
// It runs inside the producer's critical section.
type Factory func(producerID string, seq int) ticket.Ticket

// Recorder observes queue activity. Every method is called while the
// queue lock is held, so implementations must be fast and must not call
// back into the queue.
type Recorder interface {
	TicketProduced(producerID string)
	TicketConsumed(consumerID string)
	Waited(role Role, agentID string)
	Depth(n int)
}

type nopRecorder struct{}

func (nopRecorder) TicketProduced(string) {}
func (nopRecorder) TicketConsumed(string) {}
func (nopRecorder) Waited(Role, string)   {}
func (nopRecorder) Depth(int)             {}

// Option configures a BoundedQueue.
type Option func(*BoundedQueue)

// WithFactory sets the ticket factory.
func WithFactory(f Factory) Option {
	return func(q *BoundedQueue) {
		if f != nil {
			q.factory = f
		}
	}
}

// WithRecorder sets the activity recorder.
func WithRecorder(r Recorder) Option {
	return func(q *BoundedQueue) {
		if r != nil {
			q.recorder = r
		}
	}
}

// BoundedQueue is a fixed-capacity FIFO of tickets with a global
// production cap.
//
// All fields below mu are guarded by it. notFull and notEmpty are bound
// to mu once, in New. produced and depth mirror totalProduced and size;
// they are written under mu and read without it, so observers never wait
// behind an agent stalled in the critical section.
type BoundedQueue struct {
	maxSize     int
	maxProduced int
	factory     Factory
	recorder    Recorder

	produced atomic.Int64
	depth    atomic.Int64

	mu            sync.Mutex
	notFull       *sync.Cond
	notEmpty      *sync.Cond
	items         []ticket.Ticket
	head          int
	size          int
	totalProduced int
	tally         *stats.Tally
}

// New creates a queue holding at most maxSize tickets that will create
// exactly maxProduced tickets over its lifetime.
func New(maxSize, maxProduced int, opts ...Option) (*BoundedQueue, error) {
	if maxSize < 1 {
		return nil, &errors.ConfigError{Field: "capacity", Value: maxSize, Err: errors.ErrInvalidCapacity}
	}
	if maxProduced < 0 {
		return nil, &errors.ConfigError{Field: "max_produced", Value: maxProduced, Err: errors.ErrInvalidProductionCap}
	}

	q := &BoundedQueue{
		maxSize:     maxSize,
		maxProduced: maxProduced,
		factory:     defaultFactory,
		recorder:    nopRecorder{},
		items:       make([]ticket.Ticket, maxSize),
		tally:       stats.NewTally(),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)

	return q, nil
}

func defaultFactory(producerID string, seq int) ticket.Ticket {
	return ticket.New(seq, strconv.Itoa(seq), time.Now().Format(ticket.TimeLayout), producerID)
}

// Put enqueues tickets on behalf of producerID until the production cap
// is reached and returns how many tickets this call created.
//
// While the buffer is full the producer waits on notFull; onWait, if
// set, is called before each wait. Once the cap has been reached a
// producer never waits for room again, so every Put returns.
func (q *BoundedQueue) Put(producerID string, onWait queue.WaitFunc) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	produced := 0
	for {
		for q.size == q.maxSize && q.totalProduced < q.maxProduced {
			q.waiting(RoleProducer, producerID, onWait)
			q.notFull.Wait()
		}

		if q.totalProduced >= q.maxProduced {
			break
		}

		q.totalProduced++
		q.produced.Store(int64(q.totalProduced))
		q.push(q.factory(producerID, q.totalProduced))
		produced++

		q.recorder.TicketProduced(producerID)
		q.recorder.Depth(q.size)

		// Wake every consumer: which one runs first is the scheduler's call.
		q.notEmpty.Broadcast()

		if q.totalProduced == q.maxProduced {
			// Release producers still parked on a full buffer.
			q.notFull.Broadcast()
		}
	}

	// Consumers parked on an empty buffer must observe the cap.
	q.notEmpty.Broadcast()
	return produced
}

// Get removes the oldest ticket on behalf of consumerID and counts it in
// the consumer's tally.
//
// While the buffer is empty and production is unfinished the consumer
// waits on notEmpty; onWait, if set, is called before each wait. ok is
// false once the cap has been reached and the buffer is drained; from
// then on every call returns immediately.
func (q *BoundedQueue) Get(consumerID string, onWait queue.WaitFunc) (ticket.Ticket, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == 0 && q.totalProduced < q.maxProduced {
		q.waiting(RoleConsumer, consumerID, onWait)
		q.notEmpty.Wait()
	}

	if q.size == 0 {
		return ticket.Ticket{}, false
	}

	t := q.pop()
	q.tally.Inc(consumerID)

	q.recorder.TicketConsumed(consumerID)
	q.recorder.Depth(q.size)

	// Exactly one slot was freed.
	q.notFull.Signal()
	return t, true
}

func (q *BoundedQueue) waiting(role Role, agentID string, onWait queue.WaitFunc) {
	q.recorder.Waited(role, agentID)
	if onWait != nil {
		onWait(q.size)
	}
}

func (q *BoundedQueue) push(t ticket.Ticket) {
	q.items[(q.head+q.size)%q.maxSize] = t
	q.size++
	q.depth.Store(int64(q.size))
}

func (q *BoundedQueue) pop() ticket.Ticket {
	t := q.items[q.head]
	q.items[q.head] = ticket.Ticket{}
	q.head = (q.head + 1) % q.maxSize
	q.size--
	q.depth.Store(int64(q.size))
	return t
}

// Len returns the number of buffered tickets. It never blocks.
func (q *BoundedQueue) Len() int {
	return int(q.depth.Load())
}

// TotalProduced returns the number of tickets created so far. It never
// blocks.
func (q *BoundedQueue) TotalProduced() int {
	return int(q.produced.Load())
}

// Capacity returns the maximum number of buffered tickets.
func (q *BoundedQueue) Capacity() int {
	return q.maxSize
}

// MaxProduced returns the production cap.
func (q *BoundedQueue) MaxProduced() int {
	return q.maxProduced
}

// Done reports whether production is finished and the buffer drained.
// It never blocks; while agents are running the answer may already be
// stale.
func (q *BoundedQueue) Done() bool {
	return q.TotalProduced() >= q.maxProduced && q.Len() == 0
}

// Stats returns a snapshot of the per-consumer tally. It is only final
// once every consumer has received the terminal signal.
func (q *BoundedQueue) Stats() stats.Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tally.Snapshot()
}

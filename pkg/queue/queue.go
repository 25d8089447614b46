// Package queue defines the contract of the shared ticket buffer.
//
// Producers and consumers only ever talk to the buffer through these
// interfaces; the buffer owns every piece of shared mutable state.
package queue

import "github.com/jittakal/ticketbuffer/pkg/ticket"

// WaitFunc is called each time an agent is about to suspend inside the
// queue. depth is the number of buffered tickets at that moment. It runs
// while the queue lock is held and must not call back into the queue.
type WaitFunc func(depth int)

// Producer is the producer-side view of the buffer.
type Producer interface {
	// Put enqueues tickets for producerID until the production cap is
	// reached, blocking while the buffer is full. It returns the number
	// of tickets this call enqueued.
	Put(producerID string, onWait WaitFunc) int
}

// Consumer is the consumer-side view of the buffer.
type Consumer interface {
	// Get removes the oldest ticket, blocking while the buffer is empty
	// and production is unfinished. ok is false once no ticket will ever
	// arrive again.
	Get(consumerID string, onWait WaitFunc) (t ticket.Ticket, ok bool)
}

// Queue is a bounded buffer shared by producers and consumers.
// All implementations must be safe for concurrent use.
type Queue interface {
	Producer
	Consumer

	// Len returns the number of buffered tickets.
	Len() int

	// TotalProduced returns the number of tickets created so far.
	TotalProduced() int
}

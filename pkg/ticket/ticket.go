// Package ticket defines the work item exchanged between producers and consumers.
package ticket

import "fmt"

// TimeLayout is the display layout of ProducedAt, e.g. 2020-10-10-21.04.05.
const TimeLayout = "2006-01-02-15.04.05"

// Ticket is a unit of work stamped with its production time and the
// producer that created it. Tickets are passed by value and are never
// modified after creation.
type Ticket struct {
	// Seq is the ticket's position in production order, starting at 1.
	Seq int `json:"seq"`

	// ID uniquely identifies the ticket within and across runs.
	ID string `json:"id"`

	// ProducedAt is the display timestamp taken when the ticket was enqueued.
	ProducedAt string `json:"producedAt"`

	// ProducerID identifies the producer agent that created the ticket.
	ProducerID string `json:"producerId"`

	// Holder is an optional display name attached by the generator.
	Holder string `json:"holder,omitempty"`
}

// New creates a ticket.
func New(seq int, id, producedAt, producerID string) Ticket {
	return Ticket{
		Seq:        seq,
		ID:         id,
		ProducedAt: producedAt,
		ProducerID: producerID,
	}
}

// WithHolder returns a copy of the ticket carrying the given holder name.
func (t Ticket) WithHolder(holder string) Ticket {
	t.Holder = holder
	return t
}

// IsZero reports whether t is the zero ticket.
func (t Ticket) IsZero() bool {
	return t == Ticket{}
}

// String returns a short representation in the format "#seq producer/id@time".
func (t Ticket) String() string {
	return fmt.Sprintf("#%d %s/%s@%s", t.Seq, t.ProducerID, t.ID, t.ProducedAt)
}

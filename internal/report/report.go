// Package report writes consumed tickets to an output stream.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/jittakal/ticketbuffer/internal/errors"
	"github.com/jittakal/ticketbuffer/pkg/ticket"
)

// Supported report formats.
const (
	FormatText        = "text"
	FormatCloudEvents = "cloudevents"
	FormatNone        = "none"
)

// CloudEvent attributes of a consumed ticket.
const (
	EventTypeTicketConsumed = "com.ticketbuffer.ticket.consumed"
	EventSource             = "ticketbuffer/consumer"
)

const footer = "==========================================================="

// Sink receives every ticket a consumer takes off the queue.
// Implementations must be safe for concurrent use.
type Sink interface {
	Report(consumerID string, t ticket.Ticket) error
}

// NewSink returns the sink for format writing to w.
func NewSink(format string, w io.Writer) (Sink, error) {
	switch strings.ToLower(format) {
	case FormatText, "":
		return NewTextSink(w), nil
	case FormatCloudEvents:
		return NewCloudEventSink(w), nil
	case FormatNone:
		return Discard, nil
	default:
		return nil, &errors.ConfigError{Field: "report.format", Value: format, Err: errors.ErrInvalidSetting}
	}
}

// Discard is a Sink that drops every ticket.
var Discard Sink = discard{}

type discard struct{}

func (discard) Report(string, ticket.Ticket) error { return nil }

// TextSink writes one framed block per ticket.
type TextSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextSink creates a TextSink writing to w.
func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

// Report writes the block for t. Blocks from different consumers never
// interleave.
func (s *TextSink) Report(consumerID string, t ticket.Ticket) error {
	var b strings.Builder
	fmt.Fprintf(&b, "================ Consumer %s got the ticket =================\n", consumerID)
	fmt.Fprintf(&b, " ProducedTime:\t\t%s\n", t.ProducedAt)
	fmt.Fprintf(&b, " ProducerId:\t\t%s\n", t.ProducerID)
	if t.Holder != "" {
		fmt.Fprintf(&b, " Holder:\t\t%s\n", t.Holder)
	}
	b.WriteString(footer + "\n")

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, b.String())
	return err
}

// CloudEventSink writes one CloudEvents JSON document per line.
type CloudEventSink struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewCloudEventSink creates a CloudEventSink writing to w.
func NewCloudEventSink(w io.Writer) *CloudEventSink {
	return &CloudEventSink{w: w, now: time.Now}
}

// Report writes t as a ticket consumed event.
func (s *CloudEventSink) Report(consumerID string, t ticket.Ticket) error {
	event := cloudevents.NewEvent()
	event.SetSpecVersion(cloudevents.VersionV1)
	event.SetID(t.ID)
	event.SetType(EventTypeTicketConsumed)
	event.SetSource(EventSource)
	event.SetSubject(consumerID)
	event.SetTime(s.now())

	if err := event.SetData(cloudevents.ApplicationJSON, t); err != nil {
		return fmt.Errorf("failed to set event data: %w", err)
	}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(data)
	return err
}

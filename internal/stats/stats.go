// Package stats tallies tickets per consumer and renders the end-of-run report.
package stats

import (
	"fmt"
	"io"
	"strings"
)

// Tally counts consumed tickets per consumer.
//
// Tally is not synchronised. The owning queue mutates it only while
// holding its own lock and hands out copies through Snapshot.
type Tally struct {
	counts map[string]int
	order  []string
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[string]int)}
}

// Inc records one ticket consumed by consumerID.
func (t *Tally) Inc(consumerID string) {
	if _, seen := t.counts[consumerID]; !seen {
		t.order = append(t.order, consumerID)
	}
	t.counts[consumerID]++
}

// Snapshot returns a copy of the tally in first-seen order.
func (t *Tally) Snapshot() Snapshot {
	entries := make([]Entry, 0, len(t.order))
	for _, id := range t.order {
		entries = append(entries, Entry{ConsumerID: id, Count: t.counts[id]})
	}
	return Snapshot{Entries: entries}
}

// Entry is one consumer's count.
type Entry struct {
	ConsumerID string
	Count      int
}

// Snapshot is an immutable copy of a tally.
type Snapshot struct {
	Entries []Entry
}

// Total returns the sum of all counts.
func (s Snapshot) Total() int {
	total := 0
	for _, e := range s.Entries {
		total += e.Count
	}
	return total
}

// Count returns the count for consumerID, zero if it consumed nothing.
func (s Snapshot) Count(consumerID string) int {
	for _, e := range s.Entries {
		if e.ConsumerID == consumerID {
			return e.Count
		}
	}
	return 0
}

// Ordered returns a snapshot listing exactly the given consumers, in the
// given order, with zero counts for consumers that never got a ticket.
// Consumers present in s but missing from ids are appended after them.
func (s Snapshot) Ordered(ids []string) Snapshot {
	listed := make(map[string]bool, len(ids))
	entries := make([]Entry, 0, len(ids)+len(s.Entries))
	for _, id := range ids {
		if listed[id] {
			continue
		}
		listed[id] = true
		entries = append(entries, Entry{ConsumerID: id, Count: s.Count(id)})
	}
	for _, e := range s.Entries {
		if !listed[e.ConsumerID] {
			entries = append(entries, e)
		}
	}
	return Snapshot{Entries: entries}
}

// Ratio returns count/maxProduced, or 0 when maxProduced is 0.
func Ratio(count, maxProduced int) float64 {
	if maxProduced <= 0 {
		return 0
	}
	return float64(count) / float64(maxProduced)
}

const (
	header = "================== consumer statistics =================="
	footer = "========================================================="
)

// Render writes each consumer's count and its share of maxProduced,
// formatted to three decimal places.
func Render(w io.Writer, s Snapshot, maxProduced int) error {
	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	for _, e := range s.Entries {
		fmt.Fprintf(&b, " Consumer %s:\t%d(%.3f)\n", e.ConsumerID, e.Count, Ratio(e.Count, maxProduced))
	}
	b.WriteString(footer)
	b.WriteByte('\n')

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write statistics: %w", err)
	}
	return nil
}

// Package agent implements the producer and consumer loops that run
// against the shared ticket queue.
//
// Each agent runs on its own goroutine and touches shared state only
// through the queue. A producer makes a single Put call that returns once
// the production cap is reached; a consumer calls Get until the queue
// reports that no ticket will ever arrive again.
//
// Agents are not individually cancellable. Production stops when the cap
// is reached and consumption stops when the drained queue says so.
package agent

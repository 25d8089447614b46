// Package errors defines application-specific error types and sentinel errors.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	ErrInvalidCapacity      = errors.New("buffer capacity must be at least 1")
	ErrInvalidProductionCap = errors.New("production cap must not be negative")
	ErrInvalidAgentCount    = errors.New("invalid agent count")
	ErrInvalidSetting       = errors.New("invalid setting")
	ErrUnsupported          = errors.New("scheduler hints are not supported on this platform")
	ErrWaitAborted          = errors.New("stopped waiting for agents to finish")
	ErrAlreadyStarted       = errors.New("pipeline already started")
)

// ConfigError represents a configuration value that prevents the pipeline
// from being built. Configuration errors are always fatal.
type ConfigError struct {
	Field string
	Value any
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: field=%s value=%v: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// SchedulerHintError represents a failed attempt to apply a scheduler hint.
// It is advisory: callers log it and carry on.
type SchedulerHintError struct {
	AgentID string
	Policy  string
	Level   int
	Err     error
}

func (e *SchedulerHintError) Error() string {
	return fmt.Sprintf("scheduler hint error: agent=%s policy=%s level=%d: %v",
		e.AgentID, e.Policy, e.Level, e.Err)
}

func (e *SchedulerHintError) Unwrap() error {
	return e.Err
}

// ReportError represents a failure to write a consumed ticket to the
// reporting sink.
type ReportError struct {
	ConsumerID string
	TicketID   string
	Err        error
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("report error: consumer=%s ticket=%s: %v",
		e.ConsumerID, e.TicketID, e.Err)
}

func (e *ReportError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err must stop the run. Only configuration
// errors are fatal; scheduler hint and report failures are local to the
// agent that hit them.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return true
	}

	return errors.Is(err, ErrInvalidCapacity) ||
		errors.Is(err, ErrInvalidProductionCap) ||
		errors.Is(err, ErrInvalidAgentCount) ||
		errors.Is(err, ErrInvalidSetting)
}

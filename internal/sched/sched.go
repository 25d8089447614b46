// Package sched applies best-effort scheduling priority hints to the
// calling goroutine's OS thread.
package sched

import (
	"fmt"
	"strings"

	"github.com/jittakal/ticketbuffer/internal/errors"
)

// Supported policies.
const (
	PolicyRoundRobin = "rr"
	PolicyNice       = "nice"
)

// Level ranges accepted by each policy: real-time priority for rr, nice
// value for nice.
const (
	MinRoundRobinLevel = 1
	MaxRoundRobinLevel = 99
	MinNiceLevel       = -20
	MaxNiceLevel       = 19
)

// ParsePolicy returns the canonical name of policy. Matching is
// case-insensitive and ignores surrounding spaces.
func ParsePolicy(policy string) (string, error) {
	switch p := strings.ToLower(strings.TrimSpace(policy)); p {
	case PolicyRoundRobin, PolicyNice:
		return p, nil
	default:
		return "", &errors.ConfigError{Field: "scheduler.policy", Value: policy, Err: errors.ErrInvalidSetting}
	}
}

// ValidateLevel checks that level is in range for the canonical policy.
func ValidateLevel(policy string, level int) error {
	lo, hi := MinNiceLevel, MaxNiceLevel
	if policy == PolicyRoundRobin {
		lo, hi = MinRoundRobinLevel, MaxRoundRobinLevel
	}
	if level < lo || level > hi {
		return fmt.Errorf("%w: %s priority %d outside %d..%d", errors.ErrInvalidSetting, policy, level, lo, hi)
	}
	return nil
}

// Hinter requests a scheduling priority for the calling agent.
//
// Apply must be called from the goroutine that should receive the hint.
// A failed hint is advisory; the caller keeps running at default priority.
type Hinter interface {
	Apply(level int) error
	Policy() string
}

// NewHinter returns the Hinter for policy.
func NewHinter(policy string) (Hinter, error) {
	p, err := ParsePolicy(policy)
	if err != nil {
		return nil, err
	}
	return &threadHinter{policy: p}, nil
}

type threadHinter struct {
	policy string
}

func (h *threadHinter) Policy() string {
	return h.policy
}

func (h *threadHinter) Apply(level int) error {
	if err := ValidateLevel(h.policy, level); err != nil {
		return err
	}
	if err := apply(h.policy, level); err != nil {
		return fmt.Errorf("apply %s priority %d: %w", h.policy, level, err)
	}
	return nil
}

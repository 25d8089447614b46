//go:build !linux

package sched

import "github.com/jittakal/ticketbuffer/internal/errors"

func apply(string, int) error {
	return errors.ErrUnsupported
}

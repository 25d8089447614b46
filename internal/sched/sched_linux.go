//go:build linux

package sched

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// apply pins the goroutine to its thread and sets that thread's priority.
// On success the thread is never unlocked, so it exits with the goroutine
// instead of carrying the priority back into the runtime's pool.
func apply(policy string, level int) error {
	runtime.LockOSThread()

	var err error
	switch policy {
	case PolicyRoundRobin:
		err = unix.SchedSetAttr(0, &unix.SchedAttr{
			Policy:   unix.SCHED_RR,
			Priority: uint32(level),
		}, 0)
	case PolicyNice:
		err = unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), level)
	}

	if err != nil {
		runtime.UnlockOSThread()
	}
	return err
}

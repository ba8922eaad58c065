//go:build !windows

// Package shutdown routes the platform's termination signals to one channel
// so the event loop keeps a single exit path.
package shutdown

import (
	"os"
	"os/signal"
	"syscall"
)

// Notify subscribes ch to interrupt, terminate, and hangup. SIGHUP matters
// here: losing the terminal must still flush the transcript log.
func Notify(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
}

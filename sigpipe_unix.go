//go:build !windows

// Process-wide SIGPIPE handling: a no-op SIGPIPE handler so a write to a
// peer that has already reset the connection surfaces as a socket error
// return instead of terminating the process.

package wsclient

import (
	"os/signal"
	"sync"
	"syscall"
)

var sigpipeOnce sync.Once

// installSigpipeHandler installs a no-op SIGPIPE handler exactly once per
// process, guarded against repeated installation across multiple Handles.
func installSigpipeHandler() {
	sigpipeOnce.Do(func() {
		signal.Ignore(syscall.SIGPIPE)
	})
}

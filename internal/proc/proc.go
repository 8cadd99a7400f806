// Package proc abstracts external process execution behind small
// interfaces so callers can be tested without spawning real binaries.
package proc

import (
	"context"
	"time"
)

// Runner executes external commands.
type Runner interface {
	// Run executes a command to completion and returns its stdout.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// Start launches a command and streams its stderr line by line.
	Start(ctx context.Context, name string, args ...string) (Process, error)
}

// Process is a handle on a command started with Runner.Start.
type Process interface {
	// Lines delivers stderr output as it arrives, one line per receive.
	// The channel closes when the stream ends. Callers must drain it;
	// Wait does not return until the stream is consumed.
	Lines() <-chan string
	// Wait blocks until the process exits and returns its exit error.
	Wait() error
	// Stop terminates the process group: SIGTERM first, then SIGKILL if
	// it is still running after grace. Returns the exit error.
	Stop(grace time.Duration) error
}

package proc

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes a command and returns its stdout. On a non-zero exit the
// returned error is an *exec.ExitError carrying the captured stderr.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Start launches a command in its own process group and begins streaming
// its stderr.
func (ExecRunner) Start(ctx context.Context, name string, args ...string) (Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// Negative pid addresses the whole group, so helpers the
		// command forked die with it.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	p := &execProcess{
		cmd:   cmd,
		lines: make(chan string, 64),
		done:  make(chan struct{}),
	}
	go func() {
		sc := bufio.NewScanner(stderr)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		sc.Split(scanConsoleLines)
		for sc.Scan() {
			p.lines <- sc.Text()
		}
		close(p.lines)
		p.err = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

type execProcess struct {
	cmd   *exec.Cmd
	lines chan string
	done  chan struct{}
	err   error // written once, before done closes
}

func (p *execProcess) Lines() <-chan string { return p.lines }

func (p *execProcess) Wait() error {
	<-p.done
	return p.err
}

func (p *execProcess) Stop(grace time.Duration) error {
	select {
	case <-p.done:
		return p.err
	default:
	}

	p.signal(syscall.SIGTERM)
	select {
	case <-p.done:
	case <-time.After(grace):
		p.signal(syscall.SIGKILL)
		<-p.done
	}
	return p.err
}

func (p *execProcess) signal(sig syscall.Signal) {
	_ = syscall.Kill(-p.cmd.Process.Pid, sig)
}

// scanConsoleLines is a bufio.SplitFunc that accepts \r, \n, and \r\n as
// line terminators. ffmpeg rewrites its status line with bare carriage
// returns, so a plain line scanner would sit on the whole run.
func scanConsoleLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	i := bytes.IndexAny(data, "\r\n")
	if i < 0 {
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
	if data[i] == '\n' {
		return i + 1, data[:i], nil
	}
	if i+1 < len(data) {
		if data[i+1] == '\n' {
			return i + 2, data[:i], nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return i + 1, data[:i], nil
	}
	// A \r at the buffer edge: wait for one more byte to see if \n follows.
	return 0, nil, nil
}

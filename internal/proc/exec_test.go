package proc

import (
	"bufio"
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestScanConsoleLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"newlines", "a\nb\nc", []string{"a", "b", "c"}},
		{"carriage returns", "frame=1\rframe=2\rframe=3", []string{"frame=1", "frame=2", "frame=3"}},
		{"crlf pairs", "a\r\nb\r\n", []string{"a", "b"}},
		{"mixed", "one\rtwo\nthree\r\nfour", []string{"one", "two", "three", "four"}},
		{"trailing cr", "done\r", []string{"done"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := bufio.NewScanner(strings.NewReader(tt.input))
			sc.Split(scanConsoleLines)

			var got []string
			for sc.Scan() {
				got = append(got, sc.Text())
			}
			if err := sc.Err(); err != nil {
				t.Fatalf("scan: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d lines %v, want %v", len(got), got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExecRunner_Run(t *testing.T) {
	out, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "printf hello")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if string(out) != "hello" {
		t.Errorf("out = %q, want %q", out, "hello")
	}
}

func TestExecRunner_Run_ExitError(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo oops >&2; exit 3")
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %v, want *exec.ExitError", err)
	}
	if !strings.Contains(string(exitErr.Stderr), "oops") {
		t.Errorf("stderr = %q, want it to contain %q", exitErr.Stderr, "oops")
	}
}

func TestExecRunner_Start_StreamsStderr(t *testing.T) {
	p, err := ExecRunner{}.Start(context.Background(), "sh", "-c", `printf 'a\rb\nc' >&2`)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	var lines []string
	for line := range p.Lines() {
		lines = append(lines, line)
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}

	want := []string{"a", "b", "c"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range lines {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestExecRunner_Stop(t *testing.T) {
	p, err := ExecRunner{}.Start(context.Background(), "sh", "-c", "sleep 30")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	go func() {
		for range p.Lines() {
		}
	}()

	start := time.Now()
	stopErr := p.Stop(2 * time.Second)
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("stop took %v, want prompt termination", elapsed)
	}
	if stopErr == nil {
		t.Error("stop err = nil, want exit error from signal")
	}
}

func TestExecRunner_Stop_AfterExit(t *testing.T) {
	p, err := ExecRunner{}.Start(context.Background(), "sh", "-c", "true")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for range p.Lines() {
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}

	if err := p.Stop(time.Second); err != nil {
		t.Errorf("stop after exit = %v, want nil", err)
	}
}

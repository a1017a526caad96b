package hostexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Result holds the captured outcome of one external-process invocation.
type Result struct {
	Stdout   string
	Stderr   string
	Code     int
	Duration time.Duration
}

// Succeeded reports whether the process exited zero.
func (r *Result) Succeeded() bool {
	return r != nil && r.Code == 0
}

// Runner is the host command provider. Everything that shells out goes
// through it so the orchestration logic stays testable without a real
// target machine.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*Result, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, name string, args ...string) (*Result, error)

func (fn RunnerFunc) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	return fn(ctx, name, args...)
}

// SafeExecutor runs external commands with a timeout, an output cap, and a
// command blocklist. A non-zero exit code is not an error; it is reported in
// Result.Code so callers can branch on it.
type SafeExecutor struct {
	Timeout   time.Duration
	MaxOutput int
	Blocklist []string
}

func (e *SafeExecutor) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	if name == "" {
		return nil, errors.New("command is required")
	}
	if e.isBlocked(name) {
		return nil, fmt.Errorf("command blocked: %s", name)
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	command := exec.CommandContext(ctx, name, args...)

	stdoutBuf := &limitedBuffer{limit: e.MaxOutput}
	stderrBuf := &limitedBuffer{limit: e.MaxOutput}
	command.Stdout = stdoutBuf
	command.Stderr = stderrBuf

	start := time.Now()
	err := command.Run()
	res := &Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Duration: time.Since(start),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.Code = exitErr.ExitCode()
		} else {
			return nil, err
		}
	}

	if stdoutBuf.truncated || stderrBuf.truncated {
		return res, OutputTruncatedError{Limit: e.MaxOutput}
	}
	return res, nil
}

// OutputTruncatedError signals that a command produced more output than the
// executor's cap. The accompanying Result holds the truncated prefix.
type OutputTruncatedError struct {
	Limit int
}

func (e OutputTruncatedError) Error() string {
	return fmt.Sprintf("output truncated at %d bytes", e.Limit)
}

func (e *SafeExecutor) isBlocked(name string) bool {
	if len(e.Blocklist) == 0 {
		return false
	}
	base := filepath.Base(name)
	for _, blocked := range e.Blocklist {
		if strings.EqualFold(blocked, name) || strings.EqualFold(blocked, base) {
			return true
		}
	}
	return false
}

type limitedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (l *limitedBuffer) Write(p []byte) (int, error) {
	if l.limit <= 0 {
		return l.buf.Write(p)
	}
	remaining := l.limit - l.buf.Len()
	if remaining <= 0 {
		l.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		l.truncated = true
		_, _ = l.buf.Write(p[:remaining])
		return len(p), nil
	}
	return l.buf.Write(p)
}

func (l *limitedBuffer) String() string {
	return l.buf.String()
}

var _ io.Writer = (*limitedBuffer)(nil)
var _ Runner = (*SafeExecutor)(nil)
var _ Runner = (RunnerFunc)(nil)

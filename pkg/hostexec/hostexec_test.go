package hostexec

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestSafeExecutorBlocklist(t *testing.T) {
	e := &SafeExecutor{Blocklist: []string{"rm"}}
	_, err := e.Run(context.Background(), "/bin/rm", "-f", "/tmp/nope")
	if err == nil {
		t.Fatalf("expected blocklist error")
	}
	if !strings.Contains(strings.ToLower(err.Error()), "blocked") {
		t.Fatalf("expected blocked error, got %v", err)
	}
}

func TestSafeExecutorTimeout(t *testing.T) {
	e := &SafeExecutor{Timeout: 50 * time.Millisecond}
	start := time.Now()
	res, err := e.Run(context.Background(), "sleep", "1")
	if err == nil && res.Succeeded() {
		t.Fatalf("expected timeout failure, got %+v", res)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("timeout did not trigger quickly")
	}
}

func TestSafeExecutorOutputTruncation(t *testing.T) {
	e := &SafeExecutor{MaxOutput: 10}
	res, err := e.Run(context.Background(), "printf", "123456789012345")
	if err == nil {
		t.Fatalf("expected truncation error")
	}
	if _, ok := err.(OutputTruncatedError); !ok {
		t.Fatalf("expected OutputTruncatedError, got %T", err)
	}
	if len(res.Stdout) != 10 {
		t.Fatalf("expected truncated stdout length 10, got %d", len(res.Stdout))
	}
}

func TestSafeExecutorExitCode(t *testing.T) {
	e := &SafeExecutor{Timeout: 2 * time.Second}
	res, err := e.Run(context.Background(), "sh", "-c", "exit 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Code != 3 {
		t.Fatalf("expected exit code 3, got %d", res.Code)
	}
	if res.Succeeded() {
		t.Fatalf("non-zero exit must not report success")
	}
}

func TestSafeExecutorSuccess(t *testing.T) {
	e := &SafeExecutor{Timeout: 2 * time.Second}
	res, err := e.Run(context.Background(), "echo", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Stdout, "hello") {
		t.Fatalf("unexpected stdout: %q", res.Stdout)
	}
	if !res.Succeeded() {
		t.Fatalf("expected success, got code %d", res.Code)
	}
}

func TestRunnerFunc(t *testing.T) {
	var got string
	fn := RunnerFunc(func(ctx context.Context, name string, args ...string) (*Result, error) {
		got = name
		return &Result{Code: 0}, nil
	})
	if _, err := fn.Run(context.Background(), "modprobe", "ath9k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "modprobe" {
		t.Fatalf("expected modprobe, got %q", got)
	}
}

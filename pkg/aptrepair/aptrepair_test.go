package aptrepair

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sameehj/wifidoctor/pkg/hostexec"
)

// call is one recorded invocation.
type call struct {
	name string
	args []string
}

func (c call) String() string {
	return strings.TrimSpace(c.name + " " + strings.Join(c.args, " "))
}

// recorder captures invocations and answers them from a script: the result
// function decides each call's exit code.
type recorder struct {
	calls  []call
	result func(name string, args ...string) *hostexec.Result
}

func (r *recorder) Run(ctx context.Context, name string, args ...string) (*hostexec.Result, error) {
	r.calls = append(r.calls, call{name: name, args: args})
	if r.result != nil {
		return r.result(name, args...), nil
	}
	return &hostexec.Result{Code: 0}, nil
}

func (r *recorder) commandLines() []string {
	lines := make([]string, len(r.calls))
	for i, c := range r.calls {
		lines[i] = c.String()
	}
	return lines
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func newTestRepairer(t *testing.T, rec *recorder) *Repairer {
	t.Helper()
	r := NewRepairer(rec, testLogger(), t.TempDir())
	r.SourcesPath = filepath.Join(t.TempDir(), "sources.list")
	r.LockFiles = nil
	return r
}

func TestRemoveLockFiles(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "lock")
	if err := os.WriteFile(present, nil, 0o644); err != nil {
		t.Fatalf("write lock: %v", err)
	}
	missing := filepath.Join(dir, "lock-frontend")

	r := newTestRepairer(t, &recorder{})
	r.LockFiles = []string{present, missing}

	removed := r.RemoveLockFiles()
	if len(removed) != 1 || removed[0] != present {
		t.Fatalf("unexpected removals: %v", removed)
	}
	if _, err := os.Stat(present); !os.IsNotExist(err) {
		t.Fatalf("lock file still present")
	}
}

func TestInstallFallbackChain(t *testing.T) {
	attempts := 0
	rec := &recorder{result: func(name string, args ...string) *hostexec.Result {
		attempts++
		if attempts < 3 {
			return &hostexec.Result{Code: 100}
		}
		return &hostexec.Result{Code: 0}
	}}
	r := newTestRepairer(t, rec)

	if !r.Install(context.Background(), "firmware-atheros") {
		t.Fatalf("third fallback succeeded, install must report success")
	}
	lines := rec.commandLines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 attempts, got %v", lines)
	}
	if !strings.Contains(lines[1], "--fix-broken") {
		t.Fatalf("second attempt must use --fix-broken: %v", lines)
	}
	if !strings.Contains(lines[2], "--allow-downgrades") {
		t.Fatalf("third attempt must use --allow-downgrades: %v", lines)
	}
}

func TestInstallStopsAtFirstSuccess(t *testing.T) {
	rec := &recorder{}
	r := newTestRepairer(t, rec)
	if !r.Install(context.Background(), "iw") {
		t.Fatalf("install failed")
	}
	if len(rec.calls) != 1 {
		t.Fatalf("success on first attempt must not retry: %v", rec.commandLines())
	}
}

func TestInstallAllFailuresDoNotAbort(t *testing.T) {
	rec := &recorder{result: func(name string, args ...string) *hostexec.Result {
		for _, a := range args {
			if a == "badpkg" {
				return &hostexec.Result{Code: 100}
			}
		}
		return &hostexec.Result{Code: 0}
	}}
	r := newTestRepairer(t, rec)

	n := r.InstallAll(context.Background(), []string{"goodpkg", "badpkg", "otherpkg"})
	if n != 2 {
		t.Fatalf("expected 2 successes, got %d", n)
	}
}

func TestRewriteSourcesBacksUpFirst(t *testing.T) {
	rec := &recorder{}
	r := newTestRepairer(t, rec)
	if err := os.WriteFile(r.SourcesPath, []byte("deb http://old.example/ old main\n"), 0o644); err != nil {
		t.Fatalf("seed sources: %v", err)
	}

	if err := r.RewriteSources(context.Background()); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	// The backup holds the pre-modification content.
	entries, err := os.ReadDir(r.BackupDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one backup, got %v (%v)", entries, err)
	}
	saved, err := os.ReadFile(filepath.Join(r.BackupDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if !strings.Contains(string(saved), "old.example") {
		t.Fatalf("backup must hold the old content, got %q", saved)
	}

	current, _ := os.ReadFile(r.SourcesPath)
	if !strings.Contains(string(current), "kali-rolling") {
		t.Fatalf("sources.list must hold the kali stanza, got %q", current)
	}
}

func TestEmergencyRepairOrdering(t *testing.T) {
	dir := t.TempDir()
	lock := filepath.Join(dir, "lock")
	if err := os.WriteFile(lock, nil, 0o644); err != nil {
		t.Fatalf("write lock: %v", err)
	}

	var lockGoneAtReconfigure bool
	rec := &recorder{}
	rec.result = func(name string, args ...string) *hostexec.Result {
		if name == "dpkg" {
			_, err := os.Stat(lock)
			lockGoneAtReconfigure = os.IsNotExist(err)
		}
		return &hostexec.Result{Code: 0}
	}

	r := NewRepairer(rec, testLogger(), t.TempDir())
	r.LockFiles = []string{lock}
	if err := r.EmergencyRepair(context.Background()); err != nil {
		t.Fatalf("emergency repair: %v", err)
	}

	if !lockGoneAtReconfigure {
		t.Fatalf("lock file must be removed before dpkg --configure runs")
	}

	lines := rec.commandLines()
	if len(lines) < 3 || !strings.HasPrefix(lines[0], "pkill -f apt") || !strings.HasPrefix(lines[1], "pkill -f dpkg") {
		t.Fatalf("stuck processes must be killed first: %v", lines)
	}
	var sawForce bool
	for _, l := range lines {
		if strings.Contains(l, "--force-all") {
			sawForce = true
		}
	}
	if !sawForce {
		t.Fatalf("recovery must force reconfigure: %v", lines)
	}
}

func TestEmergencyRepairContinuesPastFailures(t *testing.T) {
	rec := &recorder{result: func(name string, args ...string) *hostexec.Result {
		if name == "apt-get" && args[0] == "update" {
			return &hostexec.Result{Code: 100}
		}
		return &hostexec.Result{Code: 0}
	}}
	r := newTestRepairer(t, rec)

	_ = r.EmergencyRepair(context.Background())

	var sawDistUpgrade bool
	for _, l := range rec.commandLines() {
		if strings.Contains(l, "dist-upgrade") {
			sawDistUpgrade = true
		}
	}
	if !sawDistUpgrade {
		t.Fatalf("a failing step must not halt the remaining repairs: %v", rec.commandLines())
	}
}

package sysinfo

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/sameehj/wifidoctor/pkg/hostexec"
)

func TestDetectUsesRunnerForKernel(t *testing.T) {
	run := hostexec.RunnerFunc(func(ctx context.Context, name string, args ...string) (*hostexec.Result, error) {
		if name == "uname" {
			return &hostexec.Result{Stdout: "6.6.9-amd64\n"}, nil
		}
		return &hostexec.Result{Code: 1}, nil
	})

	p := Detect(context.Background(), run)
	if p.Kernel != "6.6.9-amd64" {
		t.Fatalf("unexpected kernel: %q", p.Kernel)
	}
	if p.OS != runtime.GOOS {
		t.Fatalf("unexpected OS: %q", p.OS)
	}
}

func TestParseOSRelease(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "os-release")
	data := "PRETTY_NAME=\"Kali GNU/Linux Rolling\"\nID=kali\nVERSION_ID=\"2024.1\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write os-release: %v", err)
	}

	distro, version := parseOSRelease(path)
	if distro != "kali" {
		t.Fatalf("unexpected distro: %q", distro)
	}
	if version != "2024.1" {
		t.Fatalf("unexpected version: %q", version)
	}
}

func TestReadUptime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "uptime")
	if err := os.WriteFile(path, []byte("7305.12 14000.00\n"), 0o644); err != nil {
		t.Fatalf("write uptime: %v", err)
	}
	if got := readUptime(path); got != "2h" {
		t.Fatalf("unexpected uptime: %q", got)
	}
	if got := readUptime(filepath.Join(dir, "missing")); got != "unknown" {
		t.Fatalf("missing file must read unknown, got %q", got)
	}
}

package health

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sameehj/wifidoctor/pkg/hostexec"
	"github.com/sameehj/wifidoctor/pkg/sysinfo"
)

// scriptRunner returns canned results keyed by the command name.
func scriptRunner(t *testing.T, outputs map[string]*hostexec.Result) hostexec.Runner {
	t.Helper()
	return hostexec.RunnerFunc(func(ctx context.Context, name string, args ...string) (*hostexec.Result, error) {
		if res, ok := outputs[name]; ok {
			return res, nil
		}
		return &hostexec.Result{Code: 1}, nil
	})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func TestMemoryOK(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meminfo")
	data := "MemTotal:       16000000 kB\nMemFree:         1000000 kB\nMemAvailable:    2097152 kB\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write meminfo: %v", err)
	}

	c := NewChecker(scriptRunner(t, nil), testLogger())
	c.MeminfoPath = path

	if !c.MemoryOK() {
		t.Fatalf("2 GiB available must satisfy a 1 GiB floor")
	}

	c.MinMemMB = 4096
	if c.MemoryOK() {
		t.Fatalf("2 GiB available must fail a 4 GiB floor")
	}
}

func TestSourcesValid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.list")

	c := NewChecker(scriptRunner(t, nil), testLogger())
	c.SourcesPath = path

	if c.SourcesValid() {
		t.Fatalf("missing sources.list must be invalid")
	}

	if err := os.WriteFile(path, []byte("deb http://deb.debian.org/debian stable main\n"), 0o644); err != nil {
		t.Fatalf("write sources: %v", err)
	}
	if c.SourcesValid() {
		t.Fatalf("non-kali sources must be invalid")
	}

	if err := os.WriteFile(path, []byte("deb http://http.kali.org/kali kali-rolling main contrib non-free\n"), 0o644); err != nil {
		t.Fatalf("write sources: %v", err)
	}
	if !c.SourcesValid() {
		t.Fatalf("kali-rolling sources must be valid")
	}
}

func TestNoBrokenPackages(t *testing.T) {
	clean := scriptRunner(t, map[string]*hostexec.Result{
		"dpkg": {Stdout: "", Code: 0},
	})
	c := NewChecker(clean, testLogger())
	if !c.NoBrokenPackages(context.Background()) {
		t.Fatalf("empty audit output means no broken packages")
	}

	dirty := scriptRunner(t, map[string]*hostexec.Result{
		"dpkg": {Stdout: "The following packages are only half configured:\n somepkg\n", Code: 0},
	})
	c = NewChecker(dirty, testLogger())
	if c.NoBrokenPackages(context.Background()) {
		t.Fatalf("audit output must flag broken packages")
	}
}

func TestWirelessInterfaces(t *testing.T) {
	out := "wlan0     IEEE 802.11  ESSID:off/any\n" +
		"          Mode:Managed  Access Point: Not-Associated\n" +
		"lo        no wireless extensions.\n" +
		"eth0      no wireless extensions.\n"
	run := scriptRunner(t, map[string]*hostexec.Result{
		"iwconfig": {Stdout: out, Code: 0},
	})
	c := NewChecker(run, testLogger())
	ifaces := c.WirelessInterfaces(context.Background())
	if len(ifaces) != 1 || ifaces[0] != "wlan0" {
		t.Fatalf("unexpected interfaces: %v", ifaces)
	}
}

func TestWirelessModules(t *testing.T) {
	out := "Module                  Size  Used by\n" +
		"iwlmvm               1234  0\n" +
		"ath9k                 456  0\n" +
		"ext4                 9999  1\n" +
		"rtl8xxxu              111  0\n"
	run := scriptRunner(t, map[string]*hostexec.Result{
		"lsmod": {Stdout: out, Code: 0},
	})
	c := NewChecker(run, testLogger())
	mods := c.WirelessModules(context.Background())
	if len(mods) != 3 {
		t.Fatalf("expected 3 wireless modules, got %v", mods)
	}
}

func TestWifiDevices(t *testing.T) {
	run := scriptRunner(t, map[string]*hostexec.Result{
		"lspci": {Stdout: "02:00.0 Network controller: Intel Corporation Wireless-AC 9260\n03:00.0 Ethernet controller: Realtek\n", Code: 0},
		"lsusb": {Stdout: "Bus 001 Device 004: ID 0bda:8176 Realtek 802.11n WLAN Adapter\n", Code: 0},
	})
	c := NewChecker(run, testLogger())
	devices := c.WifiDevices(context.Background())
	if len(devices) != 2 {
		t.Fatalf("expected 2 wifi devices, got %v", devices)
	}
	if !c.WifiHardwarePresent(context.Background()) {
		t.Fatalf("devices found but hardware reported absent")
	}
}

func TestNetworkServicesRunning(t *testing.T) {
	run := scriptRunner(t, map[string]*hostexec.Result{
		"systemctl": {Stdout: "active\n", Code: 0},
	})
	c := NewChecker(run, testLogger())
	if !c.NetworkServicesRunning(context.Background()) {
		t.Fatalf("active service must be detected")
	}

	run = scriptRunner(t, map[string]*hostexec.Result{
		"systemctl": {Stdout: "inactive\n", Code: 3},
	})
	c = NewChecker(run, testLogger())
	if c.NetworkServicesRunning(context.Background()) {
		t.Fatalf("inactive services must not count as running")
	}
}

func TestPrintReport(t *testing.T) {
	run := scriptRunner(t, nil)
	c := NewChecker(run, testLogger())
	c.MeminfoPath = filepath.Join(t.TempDir(), "missing")
	c.SourcesPath = filepath.Join(t.TempDir(), "missing")

	report := c.Report(context.Background())
	var buf bytes.Buffer
	PrintReport(&buf, &sysinfo.Profile{Distro: "kali", Version: "2024.1", Kernel: "6.6", Arch: "amd64", Uptime: "2h"}, report)

	out := buf.String()
	if !strings.Contains(out, "SYSTEM HEALTH REPORT") {
		t.Fatalf("missing header: %s", out)
	}
	if !strings.Contains(out, "kali 2024.1") {
		t.Fatalf("missing host line: %s", out)
	}
}

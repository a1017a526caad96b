package health

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/sameehj/wifidoctor/pkg/hostexec"
	"github.com/sameehj/wifidoctor/pkg/types"
)

// Repository hosts probed for reachability, in preference order.
var repoHosts = []string{"http.kali.org", "kali.download", "archive-4.kali.org"}

// sourcesPatterns identify a usable Kali sources.list.
var sourcesPatterns = []string{"kali-rolling", "http.kali.org", "kali.download"}

// wirelessModulePrefixes identify wifi drivers in lsmod output.
var wirelessModulePrefixes = []string{"ath", "rtl", "iwl", "brcm", "rt2", "b43", "wl", "cfg80211", "mac80211"}

// Checker runs the read-only host inspections. All external state comes in
// through the Runner or the overridable paths, so every check is scriptable
// in tests.
type Checker struct {
	Run hostexec.Runner
	Log *slog.Logger

	MinDiskMB uint64
	MinMemMB  uint64

	RootPath    string
	SourcesPath string
	MeminfoPath string
	AptListsDir string
}

// NewChecker builds a Checker with the production defaults: 2 GB free disk
// for overall health, 1 GB available memory.
func NewChecker(run hostexec.Runner, log *slog.Logger) *Checker {
	return &Checker{
		Run:         run,
		Log:         log,
		MinDiskMB:   2048,
		MinMemMB:    1024,
		RootPath:    "/",
		SourcesPath: "/etc/apt/sources.list",
		MeminfoPath: "/proc/meminfo",
		AptListsDir: "/var/lib/apt/lists",
	}
}

// Report runs every check and aggregates the results. Overall health hinges
// on the checks a repair run cannot proceed without: disk space, a working
// package manager, and a reachable repository.
func (c *Checker) Report(ctx context.Context) *types.HealthReport {
	r := &types.HealthReport{}

	r.System.DiskSpaceOK = c.DiskSpaceOK()
	r.System.MemoryOK = c.MemoryOK()
	r.System.Kernel = c.kernelVersion(ctx)
	r.System.Uptime = c.uptime()

	r.Packages.AptWorking = c.AptWorking(ctx)
	r.Packages.SourcesValid = c.SourcesValid()
	r.Packages.KeyringInstalled = c.KeyringInstalled(ctx)
	r.Packages.NoBrokenPackages = c.NoBrokenPackages(ctx)
	r.Packages.CacheFresh = c.CacheFresh()

	r.Network.RepoReachable = c.RepoReachable(ctx)
	r.Network.DNSWorking = c.DNSWorking(ctx)
	r.Network.ServicesRunning = c.NetworkServicesRunning(ctx)

	r.Hardware.WirelessInterfaces = c.WirelessInterfaces(ctx)
	r.Hardware.WirelessModules = c.WirelessModules(ctx)
	r.Hardware.WifiDevices = c.WifiDevices(ctx)
	r.Network.WifiHardware = len(r.Hardware.WifiDevices) > 0

	r.Overall = r.System.DiskSpaceOK && r.Packages.AptWorking && r.Network.RepoReachable
	return r
}

// DiskSpaceOK reports whether the root filesystem has at least MinDiskMB
// free for the unprivileged user.
func (c *Checker) DiskSpaceOK() bool {
	return c.DiskSpaceAtLeast(c.MinDiskMB)
}

// DiskSpaceAtLeast checks the root filesystem against an explicit floor.
// Package operations use a lower floor than overall health.
func (c *Checker) DiskSpaceAtLeast(minMB uint64) bool {
	var st unix.Statfs_t
	if err := unix.Statfs(c.RootPath, &st); err != nil {
		c.Log.Error("statfs failed", "path", c.RootPath, "error", err)
		return false
	}
	freeMB := st.Bavail * uint64(st.Bsize) / (1 << 20)
	return freeMB >= minMB
}

// MemoryOK parses MemAvailable from /proc/meminfo.
func (c *Checker) MemoryOK() bool {
	file, err := os.Open(c.MeminfoPath)
	if err != nil {
		c.Log.Error("meminfo unavailable", "error", err)
		return false
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemAvailable:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return false
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return false
		}
		return kb/1024 >= c.MinMemMB
	}
	return false
}

// AptWorking probes the package manager binary itself.
func (c *Checker) AptWorking(ctx context.Context) bool {
	res, err := c.Run.Run(ctx, "apt-get", "--version")
	return err == nil && res.Succeeded()
}

// SourcesValid checks sources.list for a known-good Kali stanza.
func (c *Checker) SourcesValid() bool {
	data, err := os.ReadFile(c.SourcesPath)
	if err != nil {
		return false
	}
	content := string(data)
	for _, pattern := range sourcesPatterns {
		if strings.Contains(content, pattern) {
			return true
		}
	}
	return false
}

// KeyringInstalled checks the archive keyring package.
func (c *Checker) KeyringInstalled(ctx context.Context) bool {
	res, err := c.Run.Run(ctx, "dpkg", "-s", "kali-archive-keyring")
	return err == nil && res.Succeeded()
}

// NoBrokenPackages runs dpkg --audit; a clean audit prints nothing.
func (c *Checker) NoBrokenPackages(ctx context.Context) bool {
	res, err := c.Run.Run(ctx, "dpkg", "--audit")
	return err == nil && res.Succeeded() && strings.TrimSpace(res.Stdout) == ""
}

// CacheFresh reports whether any apt list file was refreshed in the last day.
func (c *Checker) CacheFresh() bool {
	entries, err := os.ReadDir(c.AptListsDir)
	if err != nil {
		return false
	}
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			return true
		}
	}
	return false
}

// RepoReachable pings the package mirrors; one responsive host is enough.
func (c *Checker) RepoReachable(ctx context.Context) bool {
	for _, host := range repoHosts {
		res, err := c.Run.Run(ctx, "ping", "-c", "1", "-W", "3", host)
		if err == nil && res.Succeeded() {
			return true
		}
	}
	return false
}

// DNSWorking resolves a well-known name.
func (c *Checker) DNSWorking(ctx context.Context) bool {
	res, err := c.Run.Run(ctx, "getent", "hosts", "http.kali.org")
	return err == nil && res.Succeeded()
}

// WifiHardwarePresent scans the PCI and USB buses for wireless controllers.
func (c *Checker) WifiHardwarePresent(ctx context.Context) bool {
	return len(c.WifiDevices(ctx)) > 0
}

// WifiDevices lists the wireless controllers found on the PCI and USB buses.
func (c *Checker) WifiDevices(ctx context.Context) []string {
	var devices []string
	if res, err := c.Run.Run(ctx, "lspci"); err == nil && res.Succeeded() {
		for _, line := range strings.Split(res.Stdout, "\n") {
			if strings.Contains(line, "Network controller") || strings.Contains(strings.ToLower(line), "wireless") {
				devices = append(devices, strings.TrimSpace(line))
			}
		}
	}
	if res, err := c.Run.Run(ctx, "lsusb"); err == nil && res.Succeeded() {
		for _, line := range strings.Split(res.Stdout, "\n") {
			if strings.Contains(line, "Wireless") || strings.Contains(line, "802.11") {
				devices = append(devices, strings.TrimSpace(line))
			}
		}
	}
	return devices
}

// WirelessInterfaces lists interfaces reporting IEEE 802.11 support.
func (c *Checker) WirelessInterfaces(ctx context.Context) []string {
	res, err := c.Run.Run(ctx, "iwconfig")
	if err != nil {
		return nil
	}
	var ifaces []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		if strings.Contains(line, "IEEE 802.11") {
			fields := strings.Fields(line)
			if len(fields) > 0 {
				ifaces = append(ifaces, fields[0])
			}
		}
	}
	return ifaces
}

// WirelessModules lists loaded kernel modules that look like wifi drivers.
func (c *Checker) WirelessModules(ctx context.Context) []string {
	res, err := c.Run.Run(ctx, "lsmod")
	if err != nil || !res.Succeeded() {
		return nil
	}
	var modules []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		for _, prefix := range wirelessModulePrefixes {
			if strings.HasPrefix(name, prefix) {
				modules = append(modules, name)
				break
			}
		}
	}
	return modules
}

// NetworkServicesRunning reports whether at least one network manager
// service is active.
func (c *Checker) NetworkServicesRunning(ctx context.Context) bool {
	for _, service := range []string{"NetworkManager", "networking"} {
		res, err := c.Run.Run(ctx, "systemctl", "is-active", service)
		if err == nil && strings.TrimSpace(res.Stdout) == "active" {
			return true
		}
	}
	return false
}

func (c *Checker) kernelVersion(ctx context.Context) string {
	res, err := c.Run.Run(ctx, "uname", "-r")
	if err != nil || !res.Succeeded() {
		return "unknown"
	}
	return strings.TrimSpace(res.Stdout)
}

func (c *Checker) uptime() string {
	data, err := os.ReadFile("/proc/uptime")
	if err != nil {
		return "unknown"
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "unknown"
	}
	seconds, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return "unknown"
	}
	return (time.Duration(seconds) * time.Second).Truncate(time.Minute).String()
}

package sysinfo

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/sameehj/wifidoctor/pkg/hostexec"
)

const osReleasePath = "/etc/os-release"
const uptimePath = "/proc/uptime"

// Profile describes the host this run is repairing.
type Profile struct {
	OS      string
	Distro  string
	Version string
	Kernel  string
	Arch    string
	Uptime  string
}

// Detect builds a host profile. Kernel version comes through the command
// runner so callers without a real host can script it.
func Detect(ctx context.Context, run hostexec.Runner) *Profile {
	p := &Profile{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}
	p.Distro, p.Version = parseOSRelease(osReleasePath)
	p.Uptime = readUptime(uptimePath)

	if res, err := run.Run(ctx, "uname", "-r"); err == nil && res.Succeeded() {
		p.Kernel = strings.TrimSpace(res.Stdout)
	}
	return p
}

func parseOSRelease(path string) (string, string) {
	file, err := os.Open(path)
	if err != nil {
		return "", ""
	}
	defer file.Close()

	var distro, version string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "ID=") {
			distro = trimValue(strings.TrimPrefix(line, "ID="))
		}
		if strings.HasPrefix(line, "VERSION_ID=") {
			version = trimValue(strings.TrimPrefix(line, "VERSION_ID="))
		}
	}
	return distro, version
}

func readUptime(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "unknown"
	}
	var seconds float64
	if _, err := fmt.Sscanf(fields[0], "%f", &seconds); err != nil {
		return "unknown"
	}
	return fmt.Sprintf("%dh", int(seconds/3600))
}

func trimValue(v string) string {
	return strings.Trim(v, `"`)
}

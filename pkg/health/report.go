package health

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sameehj/wifidoctor/pkg/sysinfo"
	"github.com/sameehj/wifidoctor/pkg/types"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sectionStyle = lipgloss.NewStyle().Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	badStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// PrintReport renders the health report for the terminal.
func PrintReport(w io.Writer, profile *sysinfo.Profile, r *types.HealthReport) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, headerStyle.Render("SYSTEM HEALTH REPORT"))
	fmt.Fprintln(w, rule)

	if profile != nil {
		fmt.Fprintf(w, "Host: %s %s (kernel %s, %s), up %s\n",
			profile.Distro, profile.Version, profile.Kernel, profile.Arch, profile.Uptime)
	}

	fmt.Fprintln(w, sectionStyle.Render("\nSystem"))
	printCheck(w, "Disk space", r.System.DiskSpaceOK)
	printCheck(w, "Memory", r.System.MemoryOK)

	fmt.Fprintln(w, sectionStyle.Render("\nPackage manager"))
	printCheck(w, "apt functional", r.Packages.AptWorking)
	printCheck(w, "sources.list valid", r.Packages.SourcesValid)
	printCheck(w, "Archive keyring", r.Packages.KeyringInstalled)
	printCheck(w, "No broken packages", r.Packages.NoBrokenPackages)
	printCheck(w, "Package lists fresh", r.Packages.CacheFresh)

	fmt.Fprintln(w, sectionStyle.Render("\nNetwork"))
	printCheck(w, "Repository reachable", r.Network.RepoReachable)
	printCheck(w, "DNS resolution", r.Network.DNSWorking)
	printCheck(w, "Wireless hardware", r.Network.WifiHardware)
	printCheck(w, "Network services", r.Network.ServicesRunning)

	fmt.Fprintln(w, sectionStyle.Render("\nHardware"))
	fmt.Fprintf(w, "  Wireless interfaces: %d\n", len(r.Hardware.WirelessInterfaces))
	for _, iface := range r.Hardware.WirelessInterfaces {
		fmt.Fprintf(w, "    - %s\n", iface)
	}
	fmt.Fprintf(w, "  Wireless modules loaded: %d\n", len(r.Hardware.WirelessModules))
	fmt.Fprintf(w, "  Wifi devices on bus: %d\n", len(r.Hardware.WifiDevices))

	fmt.Fprintln(w, rule)
	if r.Overall {
		fmt.Fprintln(w, okStyle.Render("Overall: healthy"))
	} else {
		fmt.Fprintln(w, badStyle.Render("Overall: needs attention"))
	}
}

func printCheck(w io.Writer, label string, ok bool) {
	mark := okStyle.Render("ok")
	if !ok {
		mark = badStyle.Render("FAIL")
	}
	fmt.Fprintf(w, "  %-24s %s\n", label, mark)
}

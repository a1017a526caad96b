package network

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sameehj/wifidoctor/pkg/hostexec"
)

var ifaceRe = regexp.MustCompile(`(?m)^(\w+)\s+IEEE`)

// Resetter restarts network services and toggles wireless link state.
type Resetter struct {
	Run hostexec.Runner
	Log *slog.Logger
}

// NewResetter builds a Resetter.
func NewResetter(run hostexec.Runner, log *slog.Logger) *Resetter {
	return &Resetter{Run: run, Log: log}
}

// WirelessInterfaces lists interface names reporting IEEE 802.11 support.
func (n *Resetter) WirelessInterfaces(ctx context.Context) []string {
	res, err := n.Run.Run(ctx, "iwconfig")
	if err != nil {
		return nil
	}
	var ifaces []string
	for _, match := range ifaceRe.FindAllStringSubmatch(res.Stdout, -1) {
		ifaces = append(ifaces, match[1])
	}
	return ifaces
}

// EnableInterface brings the first wireless interface up and returns its
// name, or an empty string when no wireless interface exists.
func (n *Resetter) EnableInterface(ctx context.Context) string {
	ifaces := n.WirelessInterfaces(ctx)
	if len(ifaces) == 0 {
		return ""
	}
	iface := ifaces[0]
	if res, err := n.Run.Run(ctx, "ip", "link", "set", iface, "up"); err != nil || !res.Succeeded() {
		n.Log.Warn("could not bring interface up", "interface", iface)
		return iface
	}
	n.Log.Info("enabled wifi interface", "interface", iface)
	return iface
}

// Scan brings the wireless interface up and scans for networks, returning
// the deduplicated SSIDs in discovery order.
func (n *Resetter) Scan(ctx context.Context) ([]string, error) {
	iface := n.EnableInterface(ctx)

	args := []string{"scan"}
	if iface != "" {
		args = []string{iface, "scan"}
	}
	res, err := n.Run.Run(ctx, "iwlist", args...)
	if err != nil {
		return nil, fmt.Errorf("iwlist scan: %w", err)
	}
	if !res.Succeeded() {
		return nil, fmt.Errorf("iwlist scan exited %d", res.Code)
	}
	return ParseScan(res.Stdout), nil
}

// ParseScan extracts SSIDs from iwlist output, skipping hidden networks and
// duplicates while preserving order.
func ParseScan(output string) []string {
	var networks []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, "ESSID:")
		if idx < 0 {
			continue
		}
		essid := strings.Trim(strings.TrimSpace(line[idx+len("ESSID:"):]), `"`)
		if essid == "" || seen[essid] {
			continue
		}
		seen[essid] = true
		networks = append(networks, essid)
	}
	return networks
}

// RestartServices bounces the network stack. Each restart is best-effort.
func (n *Resetter) RestartServices(ctx context.Context) error {
	var lastErr error
	for _, service := range []string{"NetworkManager", "wpa_supplicant"} {
		res, err := n.Run.Run(ctx, "systemctl", "restart", service)
		if err != nil {
			lastErr = fmt.Errorf("restart %s: %w", service, err)
			n.Log.Warn("service restart failed", "service", service, "error", err)
			continue
		}
		if !res.Succeeded() {
			lastErr = fmt.Errorf("restart %s exited %d", service, res.Code)
			n.Log.Warn("service restart failed", "service", service, "code", res.Code)
			continue
		}
		n.Log.Info("restarted service", "service", service)
	}
	return lastErr
}

// UnblockRadios lifts all software RF-kill blocks.
func (n *Resetter) UnblockRadios(ctx context.Context) error {
	res, err := n.Run.Run(ctx, "rfkill", "unblock", "all")
	if err != nil {
		return fmt.Errorf("rfkill: %w", err)
	}
	if !res.Succeeded() {
		return fmt.Errorf("rfkill exited %d", res.Code)
	}
	return nil
}

// Reset is the full network-reset action: bounce services, lift RF-kill,
// bring the wireless link up.
func (n *Resetter) Reset(ctx context.Context) error {
	err := n.RestartServices(ctx)
	if uerr := n.UnblockRadios(ctx); err == nil {
		err = uerr
	}
	n.EnableInterface(ctx)
	return err
}

// Verify reports whether an active wireless interface is present. This is
// the final check after an installation run.
func (n *Resetter) Verify(ctx context.Context) bool {
	return len(n.WirelessInterfaces(ctx)) > 0
}

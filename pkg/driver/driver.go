package driver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sameehj/wifidoctor/pkg/aptrepair"
	"github.com/sameehj/wifidoctor/pkg/hostexec"
	"github.com/sameehj/wifidoctor/pkg/types"
)

// Manager detects wireless hardware and drives firmware installation and
// kernel module loading for it.
type Manager struct {
	Run     hostexec.Runner
	Log     *slog.Logger
	Apt     *aptrepair.Repairer
	Catalog []types.DriverProfile
}

// NewManager builds a Manager over the built-in profile catalog.
func NewManager(run hostexec.Runner, log *slog.Logger, apt *aptrepair.Repairer) *Manager {
	return &Manager{
		Run:     run,
		Log:     log,
		Apt:     apt,
		Catalog: DefaultCatalog(),
	}
}

// DetectHardware lists wireless controllers on the PCI and USB buses.
func (m *Manager) DetectHardware(ctx context.Context) []string {
	var found []string
	if res, err := m.Run.Run(ctx, "lspci"); err == nil && res.Succeeded() {
		for _, line := range strings.Split(res.Stdout, "\n") {
			if strings.Contains(line, "Network controller") || strings.Contains(strings.ToLower(line), "wireless") {
				found = append(found, strings.TrimSpace(line))
			}
		}
	}
	if res, err := m.Run.Run(ctx, "lsusb"); err == nil && res.Succeeded() {
		for _, line := range strings.Split(res.Stdout, "\n") {
			if strings.Contains(line, "Wireless") || strings.Contains(line, "802.11") {
				found = append(found, strings.TrimSpace(line))
			}
		}
	}
	for _, dev := range found {
		m.Log.Info("found wifi device", "device", dev)
	}
	return found
}

// MatchProfile picks the first catalog profile whose device substrings
// appear in the hardware description. Nil when nothing matches.
func (m *Manager) MatchProfile(hardware []string) *types.DriverProfile {
	joined := strings.Join(hardware, ", ")
	for i := range m.Catalog {
		if m.Catalog[i].Matches(joined) {
			return &m.Catalog[i]
		}
	}
	return nil
}

// LoadModule loads one kernel module. Failure is expected for modules that
// do not apply to this host.
func (m *Manager) LoadModule(ctx context.Context, module string) bool {
	res, err := m.Run.Run(ctx, "modprobe", module)
	if err != nil || !res.Succeeded() {
		m.Log.Debug("could not load module", "module", module)
		return false
	}
	m.Log.Info("loaded module", "module", module)
	return true
}

// LoadModules loads each module best-effort and returns the success count.
func (m *Manager) LoadModules(ctx context.Context, modules []string) int {
	n := 0
	for _, module := range modules {
		if m.LoadModule(ctx, module) {
			n++
		}
	}
	return n
}

// UnloadModules removes modules before a replacement driver takes over.
func (m *Manager) UnloadModules(ctx context.Context, modules []string) {
	args := append([]string{"-r"}, modules...)
	if res, err := m.Run.Run(ctx, "modprobe", args...); err != nil || !res.Succeeded() {
		m.Log.Debug("module unload incomplete", "modules", modules)
	}
}

// InstallForHardware is the main driver-installation sequence: detect the
// chipset, install its firmware packages with the apt fallback chain, load
// its modules, and degrade through existing-module activation, source
// compilation, and finally the generic package set. Every stage is
// best-effort; the return value reports whether any stage took.
func (m *Manager) InstallForHardware(ctx context.Context) error {
	hardware := m.DetectHardware(ctx)
	if len(hardware) == 0 {
		m.Log.Warn("no wifi hardware detected, installing generic drivers")
		m.InstallGeneric(ctx)
		return nil
	}

	profile := m.MatchProfile(hardware)
	packages := append([]string{}, basePackages...)
	modules := []string{}
	if profile != nil {
		m.Log.Info("matched driver profile", "profile", profile.Name)
		packages = append(packages, profile.Packages...)
		modules = append(modules, profile.Modules...)
	}
	packages = dedupe(packages)

	installed := m.Apt.InstallAll(ctx, packages)
	loaded := m.LoadModules(ctx, append(modules, emergencyModules...))

	// Half the packages landing is good enough for firmware sets where
	// some members are alternates for other kernels.
	if installed*2 >= len(packages) && loaded > 0 {
		return nil
	}

	if profile != nil {
		if m.ActivateExisting(ctx, profile) {
			return nil
		}
		if m.CompileFromSource(ctx, profile) {
			return nil
		}
	}

	m.InstallGeneric(ctx)
	if m.LoadModules(ctx, emergencyModules) == 0 {
		return fmt.Errorf("no wireless module could be loaded")
	}
	return nil
}

// ActivateExisting tries the profile's modules against firmware already on
// disk; useful when the package install failed but a prior run left the
// firmware behind.
func (m *Manager) ActivateExisting(ctx context.Context, profile *types.DriverProfile) bool {
	return m.LoadModules(ctx, profile.Modules) > 0
}

// CompileFromSource builds out-of-tree drivers for chipsets with known
// source fallbacks. Realtek USB chips build from the lwfinger tree;
// Broadcom uses the dkms package.
func (m *Manager) CompileFromSource(ctx context.Context, profile *types.DriverProfile) bool {
	m.Log.Info("attempting source build", "profile", profile.Name)

	buildDeps := []string{"build-essential", "linux-headers-generic", "git", "dkms"}
	m.Apt.InstallAll(ctx, buildDeps)

	switch profile.Name {
	case "realtek":
		steps := [][]string{
			{"git", "clone", "--depth=1", "https://github.com/lwfinger/rtl8188eu.git", "/tmp/rtl8188eu"},
			{"make", "-C", "/tmp/rtl8188eu"},
			{"make", "-C", "/tmp/rtl8188eu", "install"},
			{"modprobe", "8188eu"},
		}
		for _, step := range steps {
			res, err := m.Run.Run(ctx, step[0], step[1:]...)
			if err != nil || !res.Succeeded() {
				m.Log.Warn("source build step failed", "step", step[0])
				return false
			}
		}
		return true
	case "broadcom":
		if !m.Apt.Install(ctx, "broadcom-sta-dkms") {
			return false
		}
		m.UnloadModules(ctx, []string{"b44", "b43", "bcma"})
		return m.LoadModule(ctx, "wl")
	default:
		return false
	}
}

// InstallGeneric installs the generic wireless stack and loads the whole
// candidate module list.
func (m *Manager) InstallGeneric(ctx context.Context) {
	m.Log.Info("installing generic wifi packages")
	m.Apt.InstallAll(ctx, genericPackages)
	m.LoadModules(ctx, emergencyModules)
}

// EmergencyLoadAll loads every candidate module. Last-resort path for the
// recovery entry point.
func (m *Manager) EmergencyLoadAll(ctx context.Context) int {
	m.Log.Warn("emergency module load: trying every candidate driver")
	return m.LoadModules(ctx, emergencyModules)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

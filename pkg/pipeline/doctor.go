package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sameehj/wifidoctor/pkg/aptrepair"
	"github.com/sameehj/wifidoctor/pkg/driver"
	"github.com/sameehj/wifidoctor/pkg/health"
	"github.com/sameehj/wifidoctor/pkg/hostexec"
	"github.com/sameehj/wifidoctor/pkg/network"
	"github.com/sameehj/wifidoctor/pkg/sysinfo"
	"github.com/sameehj/wifidoctor/pkg/types"
)

// Doctor binds the maintenance components and maps each mode to its fixed
// action list. Actions are independent; nothing flows between them beyond
// success or failure.
type Doctor struct {
	Health  *health.Checker
	Apt     *aptrepair.Repairer
	Drivers *driver.Manager
	Net     *network.Resetter
	Run     hostexec.Runner
	Log     *slog.Logger
	Out     io.Writer
}

// NewDoctor wires the components over one shared command runner.
func NewDoctor(run hostexec.Runner, log *slog.Logger, backupDir string) *Doctor {
	apt := aptrepair.NewRepairer(run, log, backupDir)
	return &Doctor{
		Health:  health.NewChecker(run, log),
		Apt:     apt,
		Drivers: driver.NewManager(run, log, apt),
		Net:     network.NewResetter(run, log),
		Run:     run,
		Log:     log,
		Out:     os.Stdout,
	}
}

// Execute gates on root privileges, then runs the mode's action list.
// Without privileges no action runs at all.
func (d *Doctor) Execute(ctx context.Context, mode types.Mode) (*types.PipelineRun, error) {
	if err := RequireRoot(); err != nil {
		return nil, err
	}
	orch := &Orchestrator{Log: d.Log}
	return orch.Execute(ctx, mode, d.Plan(mode)), nil
}

// Plan returns the fixed, ordered action list for a mode.
func (d *Doctor) Plan(mode types.Mode) []Action {
	switch mode {
	case types.ModeScanOnly:
		return []Action{d.scanAction(true)}
	case types.ModeInstallDrivers:
		return []Action{d.installDriversAction(), d.verifyAction()}
	case types.ModeFixErrors:
		return d.fixErrorsActions()
	case types.ModeHealthCheck:
		return []Action{d.healthReportAction()}
	case types.ModeSystemRepair:
		return d.systemRepairActions()
	case types.ModeRecover:
		return d.recoverActions()
	case types.ModeInstall:
		return d.installActions()
	default: // full run
		actions := []Action{d.healthReportAction(), d.scanAction(false), d.installDriversAction()}
		return append(actions, d.verifyAction())
	}
}

func (d *Doctor) healthReportAction() Action {
	return Action{ID: "health-report", Name: "System health report", Run: func(ctx context.Context) error {
		profile := sysinfo.Detect(ctx, d.Run)
		report := d.Health.Report(ctx)
		health.PrintReport(d.Out, profile, report)
		if !report.Overall {
			return fmt.Errorf("host needs attention")
		}
		return nil
	}}
}

func (d *Doctor) scanAction(detailed bool) Action {
	return Action{ID: "scan-networks", Name: "Scan for wireless networks", Run: func(ctx context.Context) error {
		networks, err := d.Net.Scan(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(d.Out, "Found %d wireless networks\n", len(networks))
		if detailed {
			for i, ssid := range networks {
				fmt.Fprintf(d.Out, "%3d. %s\n", i+1, ssid)
			}
		}
		return nil
	}}
}

func (d *Doctor) installDriversAction() Action {
	return Action{ID: "install-drivers", Name: "Install wireless drivers", Run: func(ctx context.Context) error {
		return d.Drivers.InstallForHardware(ctx)
	}}
}

// verifyAction checks for an active wireless interface and, when the check
// fails, runs the troubleshoot sequence once before reporting the failure.
func (d *Doctor) verifyAction() Action {
	return Action{ID: "verify-wifi", Name: "Verify wireless interface", Run: func(ctx context.Context) error {
		if d.Net.Verify(ctx) {
			fmt.Fprintln(d.Out, "Wireless interface is active")
			return nil
		}
		d.Log.Warn("no active wireless interface, troubleshooting")
		_ = d.Net.Reset(ctx)
		d.Drivers.EmergencyLoadAll(ctx)
		if d.Net.Verify(ctx) {
			fmt.Fprintln(d.Out, "Wireless interface is active after troubleshooting")
			return nil
		}
		return fmt.Errorf("wireless interface not found or inactive")
	}}
}

func (d *Doctor) fixErrorsActions() []Action {
	return []Action{
		{ID: "restart-services", Name: "Restart network services", Run: d.Net.RestartServices},
		{ID: "reload-modules", Name: "Reload wireless kernel modules", Run: func(ctx context.Context) error {
			if d.Drivers.EmergencyLoadAll(ctx) == 0 {
				return fmt.Errorf("no wireless module could be loaded")
			}
			return nil
		}},
		{ID: "unblock-radios", Name: "Lift RF-kill blocks", Run: d.Net.UnblockRadios},
		{ID: "link-up", Name: "Bring wireless link up", Run: func(ctx context.Context) error {
			if d.Net.EnableInterface(ctx) == "" {
				return fmt.Errorf("no wireless interface present")
			}
			return nil
		}},
	}
}

func (d *Doctor) systemRepairActions() []Action {
	return []Action{
		{ID: "remove-locks", Name: "Remove package-manager lock files", Run: func(ctx context.Context) error {
			d.Apt.RemoveLockFiles()
			return nil
		}},
		{ID: "reconfigure", Name: "Finish pending package configuration", Run: d.Apt.Reconfigure},
		{ID: "fix-broken", Name: "Fix broken package state", Run: d.Apt.FixBroken},
		{ID: "clean-cache", Name: "Clean package cache", Run: d.Apt.CleanCache},
		{ID: "update-lists", Name: "Refresh package lists", Run: d.Apt.UpdateLists},
		{ID: "fix-missing", Name: "Retry missing archives", Run: d.Apt.FixMissing},
	}
}

func (d *Doctor) recoverActions() []Action {
	return []Action{
		{ID: "emergency-apt-repair", Name: "Emergency package-manager repair", Run: d.Apt.EmergencyRepair},
		{ID: "fix-sources", Name: "Restore known-good apt sources", Run: func(ctx context.Context) error {
			if d.Health.SourcesValid() {
				return nil
			}
			if err := d.Apt.RewriteSources(ctx); err != nil {
				return err
			}
			return d.Apt.UpdateLists(ctx)
		}},
		{ID: "fix-keyring", Name: "Restore archive keyring", Run: func(ctx context.Context) error {
			if d.Apt.PackageInstalled(ctx, "kali-archive-keyring") {
				return nil
			}
			return d.Apt.ReinstallKeyring(ctx)
		}},
		{ID: "emergency-modules", Name: "Load all candidate wifi modules", Run: func(ctx context.Context) error {
			d.Drivers.EmergencyLoadAll(ctx)
			return nil
		}},
		{ID: "network-reset", Name: "Reset network stack", Run: d.Net.Reset},
	}
}

func (d *Doctor) installActions() []Action {
	actions := []Action{
		d.healthReportAction(),
		{ID: "free-disk-space", Name: "Reclaim disk space", Run: func(ctx context.Context) error {
			// 500 MB is the floor for package operations; the health
			// report's 2 GB floor is about headroom, not feasibility.
			if d.Health.DiskSpaceAtLeast(500) {
				return nil
			}
			return d.Apt.FreeDiskSpace(ctx)
		}},
	}
	actions = append(actions, d.systemRepairActions()...)
	actions = append(actions,
		d.installDriversAction(),
		Action{ID: "network-reset", Name: "Reset network stack", Run: d.Net.Reset},
		d.verifyAction(),
	)
	return actions
}

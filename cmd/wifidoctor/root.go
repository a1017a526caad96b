package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sameehj/wifidoctor/pkg/config"
	"github.com/sameehj/wifidoctor/pkg/driver"
	"github.com/sameehj/wifidoctor/pkg/hostexec"
	"github.com/sameehj/wifidoctor/pkg/logging"
	"github.com/sameehj/wifidoctor/pkg/pipeline"
	"github.com/sameehj/wifidoctor/pkg/types"
	"github.com/sameehj/wifidoctor/pkg/version"
)

func newRootCmd() *cobra.Command {
	var (
		cfgFile        string
		scanOnly       bool
		installDrivers bool
		fixErrors      bool
		healthCheck    bool
		systemRepair   bool
	)

	cmd := &cobra.Command{
		Use:   "wifidoctor",
		Short: "Detect, install, and repair wireless drivers",
		Long: `wifidoctor runs a fixed pipeline of host-maintenance actions against a
Debian-family system: package-manager repair, firmware installation, kernel
module loading, and network resets. Actions are best-effort; a failing step
is logged and the pipeline continues.

It assumes no concurrent run of itself or the package manager is in
progress; the repair paths remove apt lock files.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := selectMode(scanOnly, installDrivers, fixErrors, healthCheck, systemRepair)
			return runPipeline(cmd.Context(), cfgFile, mode)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: /etc/wifidoctor/config.yaml)")
	cmd.Flags().BoolVar(&scanOnly, "scan-only", false, "only scan for wireless networks")
	cmd.Flags().BoolVar(&installDrivers, "install-drivers", false, "only install wireless drivers")
	cmd.Flags().BoolVar(&fixErrors, "fix-errors", false, "fix common wireless errors")
	cmd.Flags().BoolVar(&healthCheck, "health-check", false, "print the system health report")
	cmd.Flags().BoolVar(&systemRepair, "system-repair", false, "repair the package manager")
	return cmd
}

// selectMode maps the mode flags to a pipeline mode. The flags are checked
// in a fixed priority order; with none set the full pipeline runs.
func selectMode(scanOnly, installDrivers, fixErrors, healthCheck, systemRepair bool) types.Mode {
	switch {
	case scanOnly:
		return types.ModeScanOnly
	case installDrivers:
		return types.ModeInstallDrivers
	case fixErrors:
		return types.ModeFixErrors
	case healthCheck:
		return types.ModeHealthCheck
	case systemRepair:
		return types.ModeSystemRepair
	}
	return types.ModeFull
}

// runPipeline wires the components and executes one mode. The exit contract
// is fixed: action failures never surface as a non-zero exit; only the
// privilege gate (and setup errors) do.
func runPipeline(ctx context.Context, cfgFile string, mode types.Mode) error {
	if cfgFile == "" {
		if path := config.DefaultConfigPath(); fileExists(path) {
			cfgFile = path
		}
	}
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return err
	}

	logger, closeLog := logging.Setup(cfg.LogLevel, cfg.LogFormat, cfg.LogDir)
	defer closeLog()

	runner := &hostexec.SafeExecutor{
		Timeout:   cfg.ExecTimeout(),
		MaxOutput: cfg.Exec.MaxOutput,
		Blocklist: cfg.Exec.Blocklist,
	}

	doctor := pipeline.NewDoctor(runner, logger, cfg.BackupDir)
	if cfg.DriverProfiles != "" {
		catalog, err := driver.LoadCatalog(cfg.DriverProfiles)
		if err != nil {
			return err
		}
		doctor.Drivers.Catalog = catalog
	}

	run, err := doctor.Execute(ctx, mode)
	if err != nil {
		return err
	}
	fmt.Println(run.Summary)
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

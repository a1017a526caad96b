// wifidoctor-install runs the full installation subset: health precheck,
// package-manager repair, driver installation, network reset, and a final
// verification. It takes no flags. Exit status is 0 on success, 1 without
// root privileges, and 2 when the final verification finds no active
// wireless interface.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sameehj/wifidoctor/pkg/config"
	"github.com/sameehj/wifidoctor/pkg/hostexec"
	"github.com/sameehj/wifidoctor/pkg/logging"
	"github.com/sameehj/wifidoctor/pkg/pipeline"
	"github.com/sameehj/wifidoctor/pkg/types"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	logger, closeLog := logging.Setup(cfg.LogLevel, cfg.LogFormat, cfg.LogDir)
	defer closeLog()

	runner := &hostexec.SafeExecutor{
		Timeout:   cfg.ExecTimeout(),
		MaxOutput: cfg.Exec.MaxOutput,
		Blocklist: cfg.Exec.Blocklist,
	}
	doctor := pipeline.NewDoctor(runner, logger, cfg.BackupDir)

	run, err := doctor.Execute(ctx, types.ModeInstall)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	fmt.Println(run.Summary)

	// Verification is the one fatal check: the pipeline itself is
	// best-effort, but an install that leaves no active wireless
	// interface has failed.
	last := run.Actions[len(run.Actions)-1]
	if last.ID == "verify-wifi" && last.State == types.ActionStateFailed {
		fmt.Fprintln(os.Stderr, "Error: installation finished but no wireless interface is active")
		os.Exit(2)
	}
}

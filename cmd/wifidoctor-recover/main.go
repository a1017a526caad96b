// wifidoctor-recover is the emergency entry point for a host whose package
// manager is wedged: it kills stuck apt/dpkg processes, removes their lock
// files, force-reconfigures packages, loads every candidate wifi module,
// and resets the network stack. It takes no flags and never aborts on an
// individual failure.
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

	run, err := doctor.Execute(ctx, types.ModeRecover)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	fmt.Println(run.Summary)
}

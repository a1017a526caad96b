package types

// Mode selects which subset of maintenance actions a run executes.
type Mode string

const (
	ModeFull           Mode = "full"
	ModeScanOnly       Mode = "scan-only"
	ModeInstallDrivers Mode = "install-drivers"
	ModeFixErrors      Mode = "fix-errors"
	ModeHealthCheck    Mode = "health-check"
	ModeSystemRepair   Mode = "system-repair"

	// Entry-point modes. Not reachable through flags on the main binary.
	ModeInstall Mode = "install"
	ModeRecover Mode = "recover"
)

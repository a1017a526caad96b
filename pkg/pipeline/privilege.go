package pipeline

import (
	"errors"
	"os"
)

// euid is swapped in tests; package-manager and module operations need
// real root otherwise.
var euid = os.Geteuid

// ErrNotRoot is returned when the process lacks elevated privileges. The
// caller reports it and exits 1 before any action runs.
var ErrNotRoot = errors.New("root privileges required, re-run with sudo")

// RequireRoot gates every pipeline behind an effective-uid check.
func RequireRoot() error {
	if euid() != 0 {
		return ErrNotRoot
	}
	return nil
}

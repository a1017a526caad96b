package aptrepair

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sameehj/wifidoctor/pkg/backup"
	"github.com/sameehj/wifidoctor/pkg/hostexec"
)

// defaultLockFiles are the apt/dpkg lock files removed on the repair paths.
// Removal assumes no overlapping package-manager run is in progress.
var defaultLockFiles = []string{
	"/var/lib/dpkg/lock",
	"/var/lib/dpkg/lock-frontend",
	"/var/lib/apt/lists/lock",
	"/var/cache/apt/archives/lock",
}

const kaliSources = `# Kali Linux repositories
deb http://http.kali.org/kali kali-rolling main contrib non-free
# deb-src http://http.kali.org/kali kali-rolling main contrib non-free
`

// Repairer fixes a wedged Debian-family package manager: stale locks,
// half-configured packages, broken dependency state, bad sources.
type Repairer struct {
	Run hostexec.Runner
	Log *slog.Logger

	BackupDir   string
	SourcesPath string
	LockFiles   []string
}

// NewRepairer builds a Repairer with the production lock file set.
func NewRepairer(run hostexec.Runner, log *slog.Logger, backupDir string) *Repairer {
	return &Repairer{
		Run:         run,
		Log:         log,
		BackupDir:   backupDir,
		SourcesPath: "/etc/apt/sources.list",
		LockFiles:   defaultLockFiles,
	}
}

// RemoveLockFiles deletes stale package-manager lock files and returns the
// paths it removed.
func (r *Repairer) RemoveLockFiles() []string {
	var removed []string
	for _, path := range r.LockFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := os.Remove(path); err != nil {
			r.Log.Warn("could not remove lock file", "path", path, "error", err)
			continue
		}
		r.Log.Info("removed lock file", "path", path)
		removed = append(removed, path)
	}
	return removed
}

// Reconfigure finishes interrupted package configuration.
func (r *Repairer) Reconfigure(ctx context.Context) error {
	return r.run(ctx, "dpkg", "--configure", "-a")
}

// ForceReconfigure is the recovery variant of Reconfigure.
func (r *Repairer) ForceReconfigure(ctx context.Context) error {
	return r.run(ctx, "dpkg", "--configure", "-a", "--force-all")
}

// FixBroken repairs dependency state.
func (r *Repairer) FixBroken(ctx context.Context) error {
	return r.run(ctx, "apt-get", "install", "--fix-broken", "-y")
}

// FixMissing retries installs whose archives went missing.
func (r *Repairer) FixMissing(ctx context.Context) error {
	return r.run(ctx, "apt-get", "install", "--fix-missing", "-y")
}

// UpdateLists refreshes the package lists.
func (r *Repairer) UpdateLists(ctx context.Context) error {
	return r.run(ctx, "apt-get", "update")
}

// CleanCache drops cached archives and orphaned packages.
func (r *Repairer) CleanCache(ctx context.Context) error {
	if err := r.run(ctx, "apt-get", "clean"); err != nil {
		return err
	}
	if err := r.run(ctx, "apt-get", "autoclean"); err != nil {
		return err
	}
	return r.run(ctx, "apt-get", "autoremove", "-y")
}

// FreeDiskSpace reclaims space before large installs: cache cleanup plus a
// journal vacuum.
func (r *Repairer) FreeDiskSpace(ctx context.Context) error {
	err := r.CleanCache(ctx)
	if jerr := r.run(ctx, "journalctl", "--vacuum-size=100M"); err == nil {
		err = jerr
	}
	return err
}

// PackageInstalled reports whether the package is present per dpkg.
func (r *Repairer) PackageInstalled(ctx context.Context, name string) bool {
	res, err := r.Run.Run(ctx, "dpkg", "-s", name)
	return err == nil && res.Succeeded()
}

// Install installs one package, walking a fallback chain: a plain install,
// then --fix-broken, then --allow-downgrades. The first variant that exits
// zero wins.
func (r *Repairer) Install(ctx context.Context, name string) bool {
	variants := [][]string{
		{"install", "-y", name},
		{"install", "-y", "--fix-broken", name},
		{"install", "-y", "--allow-downgrades", name},
	}
	for _, args := range variants {
		res, err := r.Run.Run(ctx, "apt-get", args...)
		if err != nil {
			r.Log.Warn("install attempt errored", "package", name, "error", err)
			continue
		}
		if res.Succeeded() {
			r.Log.Info("installed package", "package", name)
			return true
		}
	}
	r.Log.Warn("all install methods failed", "package", name)
	return false
}

// InstallAll installs each package best-effort and returns how many
// succeeded.
func (r *Repairer) InstallAll(ctx context.Context, names []string) int {
	n := 0
	for _, name := range names {
		if r.Install(ctx, name) {
			n++
		}
	}
	return n
}

// RewriteSources backs up sources.list, then writes the known-good Kali
// rolling stanza. The backup always lands before the write.
func (r *Repairer) RewriteSources(ctx context.Context) error {
	dest, err := backup.Snapshot(r.BackupDir, r.SourcesPath)
	if err != nil {
		return fmt.Errorf("backup sources.list: %w", err)
	}
	if dest != "" {
		r.Log.Info("backed up sources.list", "backup", dest)
	}
	if err := os.WriteFile(r.SourcesPath, []byte(kaliSources), 0o644); err != nil {
		return fmt.Errorf("write sources.list: %w", err)
	}
	r.Log.Info("rewrote sources.list with kali-rolling stanza")
	return nil
}

// ReinstallKeyring refreshes the archive keyring package. The keyring
// package is the supported path for key rotation; fetching keys over the
// wire and piping them into apt-key is not.
func (r *Repairer) ReinstallKeyring(ctx context.Context) error {
	return r.run(ctx, "apt-get", "install", "--reinstall", "-y", "kali-archive-keyring")
}

// KillStuckManagers terminates wedged apt/dpkg processes. Recovery only;
// a live, healthy apt run would be collateral damage.
func (r *Repairer) KillStuckManagers(ctx context.Context) {
	for _, pattern := range []string{"apt", "dpkg"} {
		if _, err := r.Run.Run(ctx, "pkill", "-f", pattern); err != nil {
			r.Log.Warn("pkill failed", "pattern", pattern, "error", err)
		}
	}
}

// EmergencyRepair is the aggressive remediation path used by the recovery
// entry point: kill stuck processes, clear every lock, force reconfigure,
// then walk the repair installs.
func (r *Repairer) EmergencyRepair(ctx context.Context) error {
	r.KillStuckManagers(ctx)
	r.RemoveLockFiles()
	if err := r.ForceReconfigure(ctx); err != nil {
		r.Log.Warn("force reconfigure failed", "error", err)
	}
	steps := [][]string{
		{"update"},
		{"install", "--fix-broken", "-y", "--allow-downgrades"},
		{"dist-upgrade", "-y"},
	}
	var lastErr error
	for _, args := range steps {
		if err := r.run(ctx, "apt-get", args...); err != nil {
			r.Log.Warn("emergency repair step failed", "args", args, "error", err)
			lastErr = err
		}
	}
	return lastErr
}

func (r *Repairer) run(ctx context.Context, name string, args ...string) error {
	res, err := r.Run.Run(ctx, name, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if !res.Succeeded() {
		return fmt.Errorf("%s exited %d: %s", name, res.Code, firstLine(res.Stderr))
	}
	return nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}

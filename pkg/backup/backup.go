package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// timeNow is swapped in tests to pin the backup suffix.
var timeNow = time.Now

// Snapshot copies path into dir under a timestamped name and returns the
// backup's location. It is called before any destructive modification of a
// system configuration file. A missing source is not an error; there is
// nothing to preserve and Snapshot returns an empty path.
func Snapshot(dir, path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := fmt.Sprintf("%s.%d", filepath.Base(path), timeNow().Unix())
	dest := filepath.Join(dir, name)

	dst, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("copy %s: %w", path, err)
	}
	return dest, nil
}

// Package atomicfile provides the temp-file+rename write primitive every
// other coordinator component builds on: locks, journals, secrets, and
// worktree side-channel files are all published this way so a reader never
// observes a partially-written file.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hansjm10/jeeves-coordinator/internal/coreerr"
)

// Write creates path's parent directory if needed, writes data to a
// per-PID, per-millisecond-unique temp file with the requested mode, then
// renames it onto path. If the rename fails because the target already
// exists (Windows rename semantics), the target is removed and the rename
// retried once. Any failure removes the temp file before returning.
func Write(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return coreerr.IOTransient("IO_MKDIR_FAILED", fmt.Sprintf("failed to create directory %s", dir), err)
	}

	tmpPath := tempName(path)
	if err := os.WriteFile(tmpPath, data, mode); err != nil {
		return coreerr.IOTransient("IO_WRITE_FAILED", fmt.Sprintf("failed to write temp file %s", tmpPath), err)
	}

	// Create-mode is ignored on some platforms (notably when the umask
	// clamps permissions); chmod explicitly so callers can rely on mode.
	if err := os.Chmod(tmpPath, mode); err != nil {
		_ = os.Remove(tmpPath)
		return coreerr.IOTransient("IO_CHMOD_FAILED", fmt.Sprintf("failed to chmod temp file %s", tmpPath), err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		if os.IsExist(err) {
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				_ = os.Remove(tmpPath)
				return coreerr.IOTransient("IO_RENAME_FAILED", fmt.Sprintf("failed to remove existing target %s", path), rmErr)
			}
			if err := os.Rename(tmpPath, path); err != nil {
				_ = os.Remove(tmpPath)
				return coreerr.IOTransient("IO_RENAME_FAILED", fmt.Sprintf("failed to rename %s onto %s", tmpPath, path), err)
			}
			return nil
		}
		_ = os.Remove(tmpPath)
		return coreerr.IOTransient("IO_RENAME_FAILED", fmt.Sprintf("failed to rename %s onto %s", tmpPath, path), err)
	}

	return nil
}

// tempName returns a path.<pid>.<monotonic-ms>.tmp name, unique across
// concurrent writers to the same path within the same process (the
// monotonic component) and across processes (the PID component).
func tempName(path string) string {
	return fmt.Sprintf("%s.%d.%d.tmp", path, os.Getpid(), time.Now().UnixNano()/int64(time.Millisecond))
}

// ReapTemps removes path itself (tolerating absence) and any sibling temp
// file left behind by a crashed Write: either the generic "<basename>*.tmp"
// shape or the precise "<basename>.<pid>.<ms>.tmp" shape this package
// produces. Called by delete operations and by startup recovery so an
// orphaned temp file never leaks plaintext secrets.
func ReapTemps(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return coreerr.IOTransient("IO_REMOVE_FAILED", fmt.Sprintf("failed to remove %s", path), err)
	}
	return ReapTempsOnly(path)
}

// ReapTempsOnly removes any sibling temp file left behind by a crashed
// Write, leaving path itself untouched. Used on reconcile entry to clear
// leftovers from an interrupted write without disturbing a file that
// successfully published.
func ReapTempsOnly(path string) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return coreerr.IOTransient("IO_READDIR_FAILED", fmt.Sprintf("failed to read directory %s", dir), err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if name == base {
			continue
		}
		if !isTempSibling(name, base) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return coreerr.IOTransient("IO_REMOVE_FAILED", fmt.Sprintf("failed to remove temp file %s", name), err)
		}
	}
	return nil
}

func isTempSibling(name, base string) bool {
	if len(name) <= len(base) || name[:len(base)] != base {
		return false
	}
	return strings.HasSuffix(name, ".tmp")
}

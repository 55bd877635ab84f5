package oplock

import (
	"os"
	"path/filepath"
	"strings"
)

// CleanupResult reports what startup cleanup actually removed, for
// observability only.
type CleanupResult struct {
	LockRemoved       bool
	JournalRemoved    bool
	TempFilesRemoved  int
}

// CleanupStaleArtifacts performs three idempotent actions in order: drop a
// stale lock, delete a completed journal, and sweep leftover *.tmp files
// inside .ops/. It never removes an in-flight (uncompleted) journal.
func CleanupStaleArtifacts(issueDir string) (CleanupResult, error) {
	var result CleanupResult

	lock, ok, err := ReadLock(issueDir)
	if err != nil {
		return result, err
	}
	if ok && isStale(lock) {
		if err := ReleaseLock(issueDir); err != nil {
			return result, err
		}
		result.LockRemoved = true
	}

	journal, ok, err := ReadJournal(issueDir)
	if err != nil {
		return result, err
	}
	if ok && journal.CompletedAt != nil {
		if err := DeleteJournal(issueDir); err != nil {
			return result, err
		}
		result.JournalRemoved = true
	}

	removed, err := sweepTempFiles(opsDir(issueDir))
	if err != nil {
		return result, err
	}
	result.TempFilesRemoved = removed

	return result, nil
}

func sweepTempFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".tmp") {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Package oplock is the coordinator's core of the core: a crash-safe
// per-issue mutual-exclusion lock and a resumable operation journal, both
// published through atomicfile so a reader never observes a torn write.
package oplock

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/hansjm10/jeeves-coordinator/internal/atomicfile"
	"github.com/hansjm10/jeeves-coordinator/internal/canonjson"
	"github.com/hansjm10/jeeves-coordinator/internal/coreerr"
	"github.com/hansjm10/jeeves-coordinator/internal/eventlog"
	"github.com/hansjm10/jeeves-coordinator/internal/procutil"
)

const (
	schemaVersion      = 1
	defaultTimeoutMs   = 30_000
	opsDirName         = ".ops"
	lockFileName       = "provider-operation.lock"
	journalFileName    = "provider-operation.json"
	fileMode           = os.FileMode(0o600)
)

var (
	operationIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{8,128}$`)
	issueRefPattern    = regexp.MustCompile(`^[^\s/]+/[^\s/]+#\d+$`)
)

// Lock is the on-disk lease one operation holds over an issue directory.
type Lock struct {
	SchemaVersion int    `json:"schemaVersion"`
	OperationID   string `json:"operation_id"`
	IssueRef      string `json:"issue_ref"`
	AcquiredAt    string `json:"acquired_at"`
	ExpiresAt     string `json:"expires_at"`
	PID           int    `json:"pid"`
}

// AcquireRequest is the input to AcquireLock.
type AcquireRequest struct {
	OperationID string
	IssueRef    string
	TimeoutMs   int
}

// AcquireResult reports whether the lock was obtained and, if not, why.
type AcquireResult struct {
	Acquired    bool
	OperationID string
	Reason      string // "busy" | "stale_cleaned", set only when Acquired is false
}

func opsDir(issueDir string) string {
	return filepath.Join(issueDir, opsDirName)
}

func lockPath(issueDir string) string {
	return filepath.Join(opsDir(issueDir), lockFileName)
}

// AcquireLock validates the request, creates .ops/ if needed, and either
// takes the lock, reports it busy, or clears a stale lock and tells the
// caller to retry. It never retries automatically: a stale lock is removed
// but the slot is left open for the caller's own retry/backoff.
func AcquireLock(issueDir string, req AcquireRequest) (AcquireResult, error) {
	if !operationIDPattern.MatchString(req.OperationID) {
		return AcquireResult{}, coreerr.Validation("LOCK_INVALID_OPERATION_ID", "operation_id", req.OperationID, "operation id must match the required pattern")
	}
	if !issueRefPattern.MatchString(req.IssueRef) {
		return AcquireResult{}, coreerr.Validation("LOCK_INVALID_ISSUE_REF", "issue_ref", req.IssueRef, "issue ref must match the required pattern")
	}
	timeoutMs := req.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = defaultTimeoutMs
	}

	if err := os.MkdirAll(opsDir(issueDir), 0o755); err != nil {
		return AcquireResult{}, coreerr.IOTransient("IO_MKDIR_FAILED", "failed to create ops directory", err)
	}

	existing, ok, err := ReadLock(issueDir)
	if err != nil {
		return AcquireResult{}, err
	}
	if ok {
		if !isStale(existing) {
			appendEvent(issueDir, eventlog.ComponentLock, "lock_busy", eventlog.LevelWarn,
				eventlog.WithIssueRef(req.IssueRef), eventlog.WithData(map[string]any{"operation_id": req.OperationID}))
			return AcquireResult{Acquired: false, Reason: "busy"}, nil
		}
		if err := ReleaseLock(issueDir); err != nil {
			return AcquireResult{}, err
		}
		appendEvent(issueDir, eventlog.ComponentLock, "lock_stale_cleaned", eventlog.LevelWarn,
			eventlog.WithIssueRef(req.IssueRef), eventlog.WithData(map[string]any{"operation_id": req.OperationID, "prior_operation_id": existing.OperationID}))
		return AcquireResult{Acquired: false, Reason: "stale_cleaned"}, nil
	}

	now := time.Now().UTC()
	lock := Lock{
		SchemaVersion: schemaVersion,
		OperationID:   req.OperationID,
		IssueRef:      req.IssueRef,
		AcquiredAt:    now.Format(time.RFC3339),
		ExpiresAt:     now.Add(time.Duration(timeoutMs) * time.Millisecond).Format(time.RFC3339),
		PID:           os.Getpid(),
	}
	if err := writeLock(issueDir, lock); err != nil {
		return AcquireResult{}, err
	}
	appendEvent(issueDir, eventlog.ComponentLock, "lock_acquired", eventlog.LevelInfo,
		eventlog.WithIssueRef(req.IssueRef), eventlog.WithData(map[string]any{"operation_id": req.OperationID}))
	return AcquireResult{Acquired: true, OperationID: req.OperationID}, nil
}

// RefreshLock extends the current lock's expires_at. Returns false if no
// lock exists; it does not check ownership beyond presence, matching the
// distilled contract.
func RefreshLock(issueDir string, timeoutMs int) (bool, error) {
	if timeoutMs <= 0 {
		timeoutMs = defaultTimeoutMs
	}
	lock, ok, err := ReadLock(issueDir)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	lock.ExpiresAt = time.Now().UTC().Add(time.Duration(timeoutMs) * time.Millisecond).Format(time.RFC3339)
	if err := writeLock(issueDir, lock); err != nil {
		return false, err
	}
	return true, nil
}

// ReleaseLock removes the lock file. Idempotent: releasing an absent lock
// is not an error.
func ReleaseLock(issueDir string) error {
	existing, had, _ := ReadLock(issueDir)
	if err := atomicfile.ReapTemps(lockPath(issueDir)); err != nil {
		return err
	}
	if had {
		appendEvent(issueDir, eventlog.ComponentLock, "lock_released", eventlog.LevelInfo,
			eventlog.WithIssueRef(existing.IssueRef), eventlog.WithData(map[string]any{"operation_id": existing.OperationID}))
	}
	return nil
}

// ReadLock returns the current lock, tolerating absence and tolerating a
// malformed file by reporting it simply as "no lock" — a reader must never
// raise on a torn or corrupt lease.
func ReadLock(issueDir string) (Lock, bool, error) {
	data, err := os.ReadFile(lockPath(issueDir))
	if err != nil {
		if os.IsNotExist(err) {
			return Lock{}, false, nil
		}
		return Lock{}, false, coreerr.IOTransient("IO_READ_FAILED", "failed to read lock file", err)
	}

	var lock Lock
	if err := json.Unmarshal(data, &lock); err != nil {
		return Lock{}, false, nil
	}
	if lock.SchemaVersion != schemaVersion {
		return Lock{}, false, nil
	}
	return lock, true, nil
}

func writeLock(issueDir string, lock Lock) error {
	data, err := canonjson.Marshal(lock)
	if err != nil {
		return coreerr.Schema("LOCK_ENCODE_FAILED", "lock could not be encoded")
	}
	return atomicfile.Write(lockPath(issueDir), data, fileMode)
}

// isStale reports whether lock has expired or its owning process is gone.
// Any error probing liveness is itself "not alive" — see procutil.Alive.
func isStale(lock Lock) bool {
	expires, err := time.Parse(time.RFC3339, lock.ExpiresAt)
	if err != nil {
		return true
	}
	if time.Now().UTC().After(expires) {
		return true
	}
	return !procutil.Alive(lock.PID)
}

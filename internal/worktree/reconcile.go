// Package worktree reconciles a working tree's side-channel files against
// a desired in-memory state: one managed env file and a bag of managed
// files, each idempotently materialized or removed, with VCS exclusion
// kept in lockstep so a crash can never leave a secret un-ignored.
package worktree

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hansjm10/jeeves-coordinator/internal/atomicfile"
	"github.com/hansjm10/jeeves-coordinator/internal/eventlog"
	"github.com/hansjm10/jeeves-coordinator/internal/util"
)

// SyncStatus is the outcome taxonomy surfaced to callers; only in_sync is
// success, everything else is a returned status, not a raised error.
type SyncStatus string

const (
	StatusInSync                  SyncStatus = "in_sync"
	StatusDeferredWorktreeAbsent  SyncStatus = "deferred_worktree_absent"
	StatusFailedConflict          SyncStatus = "failed_conflict"
	StatusFailedLinkCreate        SyncStatus = "failed_link_create"
	StatusFailedSourceMissing     SyncStatus = "failed_source_missing"
	StatusFailedExclude           SyncStatus = "failed_exclude"
	StatusFailedEnvWrite          SyncStatus = "failed_env_write"
	StatusFailedEnvDelete         SyncStatus = "failed_env_delete"
	StatusFailedSecretRead        SyncStatus = "failed_secret_read"
	StatusNeverAttempted          SyncStatus = "never_attempted"
)

// DesiredFile is one file the reconciler should materialize at
// relativePath, with a display Name used only in status reporting.
type DesiredFile struct {
	RelativePath string
	Name         string
	Contents     []byte
	Mode         os.FileMode
	IsEnvFile    bool
}

// Request is the reconciler's full input: the worktree to act on, the set
// of files that should exist, and the VCS exclude patterns that must cover
// them.
type Request struct {
	// IssueDir is the coordinator's own state directory for the issue this
	// worktree belongs to — distinct from WorktreeDir — used only to mirror
	// this call's outcome to the operation event log. Left empty, no event
	// is recorded.
	IssueDir        string
	IssueRef        string
	WorktreeDir     string
	Desired         []DesiredFile
	ExcludePatterns []string
	// PreviouslyManaged lists relative paths the reconciler materialized on
	// an earlier call. Any of them not matched by an entry of Desired is
	// removed; the reconciler only ever removes files named here, so a
	// caller expresses "remove anything previously managed but no longer
	// desired" by listing the earlier managed set.
	PreviouslyManaged []string
}

// Result is the outcome of one reconcile call.
type Result struct {
	Status    SyncStatus
	LastError string
}

const excludeFileRelPath = ".git/info/exclude"

// Reconcile runs the five-step precondition/action sequence. It is
// idempotent: calling it twice with identical inputs leaves the filesystem
// unchanged after the second call.
func Reconcile(req Request) Result {
	info, err := os.Stat(req.WorktreeDir)
	if err != nil || !info.IsDir() {
		return logResult(req, Result{Status: StatusDeferredWorktreeAbsent})
	}

	if !hasVCSMarker(req.WorktreeDir) {
		return logResult(req, Result{Status: StatusDeferredWorktreeAbsent})
	}

	for _, f := range req.Desired {
		if util.IsRootPath(f.RelativePath) {
			return logResult(req, Result{Status: StatusFailedConflict, LastError: "desired file " + f.Name + " targets the worktree root"})
		}
	}

	reapLeftoverTemps(req)

	if err := updateExcludeList(req.WorktreeDir, req.ExcludePatterns); err != nil {
		removeAllDesired(req)
		return logResult(req, Result{Status: StatusFailedExclude, LastError: err.Error()})
	}

	for _, f := range req.Desired {
		target := filepath.Join(req.WorktreeDir, f.RelativePath)
		if err := atomicfile.Write(target, f.Contents, f.Mode); err != nil {
			if f.IsEnvFile {
				return logResult(req, Result{Status: StatusFailedEnvWrite, LastError: err.Error()})
			}
			return logResult(req, Result{Status: StatusFailedLinkCreate, LastError: err.Error()})
		}
	}

	for _, rel := range req.PreviouslyManaged {
		if isStillDesired(rel, req.Desired) {
			continue
		}
		target := filepath.Join(req.WorktreeDir, rel)
		if err := atomicfile.ReapTemps(target); err != nil {
			return logResult(req, Result{Status: StatusFailedEnvDelete, LastError: err.Error()})
		}
	}

	return logResult(req, Result{Status: StatusInSync})
}

// logResult mirrors this call's outcome to the operation event log before
// returning it to the caller, when req.IssueDir names one. A transition
// into any failed_* status is logged as a warning, everything else info.
func logResult(req Request, result Result) Result {
	if req.IssueDir == "" {
		return result
	}
	level := eventlog.LevelInfo
	if strings.HasPrefix(string(result.Status), "failed_") {
		level = eventlog.LevelWarn
	}
	data := map[string]any{"status": result.Status}
	if result.LastError != "" {
		data["last_error"] = result.LastError
	}
	appendEvent(req.IssueDir, eventlog.ComponentReconciler, "reconcile", level,
		eventlog.WithIssueRef(req.IssueRef), eventlog.WithData(data))
	return result
}

// isStillDesired reports whether rel — a relative path the reconciler
// previously materialized — is still wanted, comparing under
// util.PathsEqual so a path recorded with a different slash style or case
// across runs is still recognized as the same managed file.
func isStillDesired(rel string, desired []DesiredFile) bool {
	for _, f := range desired {
		if util.PathsEqual(rel, f.RelativePath) {
			return true
		}
	}
	return false
}

func hasVCSMarker(worktreeDir string) bool {
	_, err := os.Stat(filepath.Join(worktreeDir, ".git"))
	return err == nil
}

// reapLeftoverTemps clears any orphan temp file from a previous crashed
// write, for both the env file and every managed file, before doing
// anything else this call.
func reapLeftoverTemps(req Request) {
	for _, f := range req.Desired {
		_ = atomicfile.ReapTempsOnly(filepath.Join(req.WorktreeDir, f.RelativePath))
	}
}

// removeAllDesired best-effort removes every desired file. Called only
// when the exclude-list update fails, so a secret can never linger
// un-ignored in the tree.
func removeAllDesired(req Request) {
	for _, f := range req.Desired {
		_ = atomicfile.ReapTemps(filepath.Join(req.WorktreeDir, f.RelativePath))
	}
}

// EncodeEnvLine implements the exact env-file encoding rule: escape
// backslashes, then quotes, and emit `<KEY>="<escaped>"\n`.
func EncodeEnvLine(key, value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return key + `="` + escaped + "\"\n"
}

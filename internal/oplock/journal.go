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
)

const (
	maxWarningLen   = 512
	maxWarningCount = 50
)

var statePattern = regexp.MustCompile(`^(cred|ingest|pr)\.[a-z_]+$`)

// Kind is the category of operation a journal tracks.
type Kind string

const (
	KindCredentials Kind = "credentials"
	KindIngest      Kind = "ingest"
	KindPRPrepare   Kind = "pr_prepare"
)

// Provider identifies which external system an operation targets. The
// distilled spec names these only as opaque tokens (γ, α); the core never
// interprets them beyond round-tripping the value.
type Provider string

// Checkpoint is the journal's incremental progress record.
type Checkpoint struct {
	RemoteID             *string  `json:"remote_id"`
	RemoteURL            *string  `json:"remote_url"`
	PRID                 *string  `json:"pr_id"`
	IssueStatePersisted  bool     `json:"issue_state_persisted"`
	InitCompleted        bool     `json:"init_completed"`
	AutoSelected         bool     `json:"auto_selected"`
	AutoRunStarted       bool     `json:"auto_run_started"`
	Warnings             []string `json:"warnings"`
}

// Journal is the resumable record of one in-flight or completed operation.
type Journal struct {
	SchemaVersion int        `json:"schemaVersion"`
	OperationID   string     `json:"operation_id"`
	Kind          Kind       `json:"kind"`
	State         string     `json:"state"`
	IssueRef      string     `json:"issue_ref"`
	Provider      Provider   `json:"provider"`
	StartedAt     string     `json:"started_at"`
	UpdatedAt     string     `json:"updated_at"`
	CompletedAt   *string    `json:"completed_at"`
	Checkpoint    Checkpoint `json:"checkpoint"`
}

func journalPath(issueDir string) string {
	return filepath.Join(opsDir(issueDir), journalFileName)
}

// CreateJournal starts a new journal for operationID/kind at the given
// initial state. The journal file must not already exist as an in-flight
// record; callers are expected to call this only directly after a
// successful AcquireLock.
func CreateJournal(issueDir string, operationID string, kind Kind, issueRef string, provider Provider, state string) (Journal, error) {
	if !statePattern.MatchString(state) {
		return Journal{}, coreerr.Validation("JOURNAL_INVALID_STATE", "state", state, "journal state must match the required pattern")
	}

	now := time.Now().UTC().Format(time.RFC3339)
	journal := Journal{
		SchemaVersion: schemaVersion,
		OperationID:   operationID,
		Kind:          kind,
		State:         state,
		IssueRef:      issueRef,
		Provider:      provider,
		StartedAt:     now,
		UpdatedAt:     now,
		CompletedAt:   nil,
		Checkpoint:    Checkpoint{Warnings: []string{}},
	}
	if err := writeJournal(issueDir, journal); err != nil {
		return Journal{}, err
	}
	appendEvent(issueDir, eventlog.ComponentJournal, "journal_created", eventlog.LevelInfo,
		eventlog.WithIssueRef(issueRef), eventlog.WithData(map[string]any{"operation_id": operationID, "kind": kind, "state": state}))
	return journal, nil
}

// UpdateJournalState advances state on the existing journal, preserving
// every other field.
func UpdateJournalState(issueDir string, state string) (Journal, error) {
	if !statePattern.MatchString(state) {
		return Journal{}, coreerr.Validation("JOURNAL_INVALID_STATE", "state", state, "journal state must match the required pattern")
	}

	journal, ok, err := ReadJournal(issueDir)
	if err != nil {
		return Journal{}, err
	}
	if !ok {
		return Journal{}, coreerr.Consistency("JOURNAL_NOT_FOUND", "no journal to update")
	}

	journal.State = state
	journal.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := writeJournal(issueDir, journal); err != nil {
		return Journal{}, err
	}
	appendEvent(issueDir, eventlog.ComponentJournal, "journal_state_changed", eventlog.LevelInfo,
		eventlog.WithIssueRef(journal.IssueRef), eventlog.WithData(map[string]any{"operation_id": journal.OperationID, "state": state}))
	return journal, nil
}

// CheckpointUpdate is a partial checkpoint patch: nil pointer fields are
// left unchanged, WarningsToAppend are appended (then truncated).
type CheckpointUpdate struct {
	RemoteID            *string
	RemoteURL           *string
	PRID                *string
	IssueStatePersisted *bool
	InitCompleted       *bool
	AutoSelected        *bool
	AutoRunStarted      *bool
	WarningsToAppend    []string
}

// UpdateJournalCheckpoint merges partial into the existing journal's
// checkpoint, truncating each newly appended warning to 512 characters and
// the warnings list to the most recent 50 entries.
func UpdateJournalCheckpoint(issueDir string, partial CheckpointUpdate) (Journal, error) {
	journal, ok, err := ReadJournal(issueDir)
	if err != nil {
		return Journal{}, err
	}
	if !ok {
		return Journal{}, coreerr.Consistency("JOURNAL_NOT_FOUND", "no journal to update")
	}

	cp := &journal.Checkpoint
	if partial.RemoteID != nil {
		cp.RemoteID = partial.RemoteID
	}
	if partial.RemoteURL != nil {
		cp.RemoteURL = partial.RemoteURL
	}
	if partial.PRID != nil {
		cp.PRID = partial.PRID
	}
	if partial.IssueStatePersisted != nil {
		cp.IssueStatePersisted = *partial.IssueStatePersisted
	}
	if partial.InitCompleted != nil {
		cp.InitCompleted = *partial.InitCompleted
	}
	if partial.AutoSelected != nil {
		cp.AutoSelected = *partial.AutoSelected
	}
	if partial.AutoRunStarted != nil {
		cp.AutoRunStarted = *partial.AutoRunStarted
	}
	for _, w := range partial.WarningsToAppend {
		if r := []rune(w); len(r) > maxWarningLen {
			w = string(r[:maxWarningLen])
		}
		cp.Warnings = append(cp.Warnings, w)
	}
	if len(cp.Warnings) > maxWarningCount {
		cp.Warnings = cp.Warnings[len(cp.Warnings)-maxWarningCount:]
	}

	journal.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := writeJournal(issueDir, journal); err != nil {
		return Journal{}, err
	}
	appendEvent(issueDir, eventlog.ComponentJournal, "journal_checkpoint_updated", eventlog.LevelInfo,
		eventlog.WithIssueRef(journal.IssueRef), eventlog.WithData(map[string]any{"operation_id": journal.OperationID}))
	return journal, nil
}

// FinalizeJournal sets the terminal state and stamps completed_at.
func FinalizeJournal(issueDir string, state string) (Journal, error) {
	if !statePattern.MatchString(state) {
		return Journal{}, coreerr.Validation("JOURNAL_INVALID_STATE", "state", state, "journal state must match the required pattern")
	}

	journal, ok, err := ReadJournal(issueDir)
	if err != nil {
		return Journal{}, err
	}
	if !ok {
		return Journal{}, coreerr.Consistency("JOURNAL_NOT_FOUND", "no journal to finalize")
	}

	now := time.Now().UTC().Format(time.RFC3339)
	journal.State = state
	journal.UpdatedAt = now
	journal.CompletedAt = &now
	if err := writeJournal(issueDir, journal); err != nil {
		return Journal{}, err
	}
	appendEvent(issueDir, eventlog.ComponentJournal, "journal_finalized", eventlog.LevelInfo,
		eventlog.WithIssueRef(journal.IssueRef), eventlog.WithData(map[string]any{"operation_id": journal.OperationID, "state": state}))
	return journal, nil
}

// ReadJournal returns the current journal, tolerating absence. A malformed
// file is reported as absent rather than raised.
func ReadJournal(issueDir string) (Journal, bool, error) {
	data, err := os.ReadFile(journalPath(issueDir))
	if err != nil {
		if os.IsNotExist(err) {
			return Journal{}, false, nil
		}
		return Journal{}, false, coreerr.IOTransient("IO_READ_FAILED", "failed to read journal file", err)
	}

	var journal Journal
	if err := json.Unmarshal(data, &journal); err != nil {
		return Journal{}, false, nil
	}
	if journal.SchemaVersion != schemaVersion {
		return Journal{}, false, nil
	}
	return journal, true, nil
}

// DeleteJournal removes the journal file and any orphan temp sibling.
func DeleteJournal(issueDir string) error {
	return atomicfile.ReapTemps(journalPath(issueDir))
}

// DeleteOpsArtifacts removes both the lock and journal files for issueDir.
func DeleteOpsArtifacts(issueDir string) error {
	if err := ReleaseLock(issueDir); err != nil {
		return err
	}
	return DeleteJournal(issueDir)
}

func writeJournal(issueDir string, journal Journal) error {
	data, err := canonjson.Marshal(journal)
	if err != nil {
		return coreerr.Schema("JOURNAL_ENCODE_FAILED", "journal could not be encoded")
	}
	return atomicfile.Write(journalPath(issueDir), data, fileMode)
}

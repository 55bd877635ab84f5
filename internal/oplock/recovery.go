package oplock

// RecoveryResult is the outcome of DetectRecovery.
type RecoveryResult struct {
	Needed        bool
	Journal       Journal
	RecoveryState string
}

// DetectRecovery reports whether an in-flight journal needs resuming and,
// if so, the state to resume from. Recovery is needed iff a journal exists
// with a nil completed_at.
func DetectRecovery(issueDir string) (RecoveryResult, error) {
	journal, ok, err := ReadJournal(issueDir)
	if err != nil {
		return RecoveryResult{}, err
	}
	if !ok || journal.CompletedAt != nil {
		return RecoveryResult{Needed: false}, nil
	}

	return RecoveryResult{
		Needed:        true,
		Journal:       journal,
		RecoveryState: recoveryState(journal),
	}, nil
}

// recoveryState implements the exhaustive (kind, state, checkpoint) table.
// Within ingest, remote_id dominates issue_state_persisted: once the
// remote artifact exists, re-creating it risks duplicates, so only the
// persist-local-state step remains regardless of what issue_state_persisted
// says.
func recoveryState(j Journal) string {
	switch j.Kind {
	case KindCredentials:
		switch j.State {
		case "cred.persisting_secret", "cred.reconciling_worktree", "cred.recording_status", "cred.emitting_event":
			return "cred.reconciling_worktree"
		default:
			return "cred.validating"
		}
	case KindIngest:
		if j.Checkpoint.RemoteID != nil {
			return "ingest.persisting_issue_state"
		}
		if j.Checkpoint.IssueStatePersisted {
			return "ingest.recording_status"
		}
		return "ingest.validating"
	case KindPRPrepare:
		return "pr.checking_existing"
	default:
		return "cred.validating"
	}
}

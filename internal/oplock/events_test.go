package oplock

import (
	"bufio"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hansjm10/jeeves-coordinator/internal/eventlog"
)

func readEvents(t *testing.T, dir string) []eventlog.Event {
	t.Helper()
	f, err := os.Open(eventsPathForTest(dir))
	require.NoError(t, err)
	defer f.Close()

	var events []eventlog.Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e eventlog.Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		events = append(events, e)
	}
	return events
}

func eventsPathForTest(dir string) string {
	return opsDir(dir) + "/events.jsonl"
}

func TestAcquireLockAppendsEventOnSuccess(t *testing.T) {
	dir := t.TempDir()
	_, err := AcquireLock(dir, AcquireRequest{OperationID: testOperationID, IssueRef: testIssueRef})
	require.NoError(t, err)

	events := readEvents(t, dir)
	require.Len(t, events, 1)
	require.Equal(t, eventlog.ComponentLock, events[0].Component)
	require.Equal(t, "lock_acquired", events[0].Type)
	require.Equal(t, testIssueRef, events[0].IssueRef)
}

func TestAcquireLockAppendsBusyEvent(t *testing.T) {
	dir := t.TempDir()
	_, err := AcquireLock(dir, AcquireRequest{OperationID: testOperationID, IssueRef: testIssueRef})
	require.NoError(t, err)

	_, err = AcquireLock(dir, AcquireRequest{OperationID: "op-0000002", IssueRef: testIssueRef})
	require.NoError(t, err)

	events := readEvents(t, dir)
	require.Len(t, events, 2)
	require.Equal(t, "lock_busy", events[1].Type)
	require.Equal(t, eventlog.LevelWarn, events[1].Level)
}

func TestReleaseLockAppendsEvent(t *testing.T) {
	dir := t.TempDir()
	_, err := AcquireLock(dir, AcquireRequest{OperationID: testOperationID, IssueRef: testIssueRef})
	require.NoError(t, err)
	require.NoError(t, ReleaseLock(dir))

	events := readEvents(t, dir)
	require.Len(t, events, 2)
	require.Equal(t, "lock_released", events[1].Type)
}

func TestJournalMutatorsAppendEvents(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(opsDir(dir), 0o755))

	_, err := CreateJournal(dir, testOperationID, KindCredentials, testIssueRef, "azure", "cred.validating")
	require.NoError(t, err)
	_, err = UpdateJournalState(dir, "cred.persisting_secret")
	require.NoError(t, err)
	_, err = UpdateJournalCheckpoint(dir, CheckpointUpdate{InitCompleted: boolPtr(true)})
	require.NoError(t, err)
	_, err = FinalizeJournal(dir, "cred.completed")
	require.NoError(t, err)

	events := readEvents(t, dir)
	require.Len(t, events, 4)
	require.Equal(t, "journal_created", events[0].Type)
	require.Equal(t, "journal_state_changed", events[1].Type)
	require.Equal(t, "journal_checkpoint_updated", events[2].Type)
	require.Equal(t, "journal_finalized", events[3].Type)
	for _, e := range events {
		require.Equal(t, eventlog.ComponentJournal, e.Component)
		require.Equal(t, testIssueRef, e.IssueRef)
	}
}

func boolPtr(b bool) *bool { return &b }

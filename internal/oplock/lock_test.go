package oplock

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testOperationID = "op-0000001"
	testIssueRef    = "acme/widgets#42"
)

func TestAcquireLockSucceedsWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	result, err := AcquireLock(dir, AcquireRequest{OperationID: testOperationID, IssueRef: testIssueRef})
	require.NoError(t, err)
	require.True(t, result.Acquired)

	lock, ok, err := ReadLock(dir)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, os.Getpid(), lock.PID)
}

func TestAcquireLockReportsBusyWhenHeldByLiveProcess(t *testing.T) {
	dir := t.TempDir()
	_, err := AcquireLock(dir, AcquireRequest{OperationID: testOperationID, IssueRef: testIssueRef})
	require.NoError(t, err)

	result, err := AcquireLock(dir, AcquireRequest{OperationID: "op-0000002", IssueRef: testIssueRef})
	require.NoError(t, err)
	require.False(t, result.Acquired)
	require.Equal(t, "busy", result.Reason)
}

func TestAcquireLockCleansStaleLockByExpiry(t *testing.T) {
	dir := t.TempDir()
	_, err := AcquireLock(dir, AcquireRequest{OperationID: testOperationID, IssueRef: testIssueRef, TimeoutMs: 1})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	result, err := AcquireLock(dir, AcquireRequest{OperationID: "op-0000002", IssueRef: testIssueRef})
	require.NoError(t, err)
	require.False(t, result.Acquired)
	require.Equal(t, "stale_cleaned", result.Reason)

	_, ok, err := ReadLock(dir)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAcquireLockRejectsInvalidOperationID(t *testing.T) {
	dir := t.TempDir()
	_, err := AcquireLock(dir, AcquireRequest{OperationID: "bad", IssueRef: testIssueRef})
	require.Error(t, err)
}

func TestAcquireLockRejectsInvalidIssueRef(t *testing.T) {
	dir := t.TempDir()
	_, err := AcquireLock(dir, AcquireRequest{OperationID: testOperationID, IssueRef: "not-a-ref"})
	require.Error(t, err)
}

func TestRefreshLockExtendsExpiry(t *testing.T) {
	dir := t.TempDir()
	_, err := AcquireLock(dir, AcquireRequest{OperationID: testOperationID, IssueRef: testIssueRef, TimeoutMs: 1000})
	require.NoError(t, err)

	before, _, err := ReadLock(dir)
	require.NoError(t, err)

	ok, err := RefreshLock(dir, 60_000)
	require.NoError(t, err)
	require.True(t, ok)

	after, _, err := ReadLock(dir)
	require.NoError(t, err)
	require.NotEqual(t, before.ExpiresAt, after.ExpiresAt)
}

func TestRefreshLockReturnsFalseWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	ok, err := RefreshLock(dir, 1000)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReleaseLockIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ReleaseLock(dir))

	_, err := AcquireLock(dir, AcquireRequest{OperationID: testOperationID, IssueRef: testIssueRef})
	require.NoError(t, err)

	require.NoError(t, ReleaseLock(dir))
	require.NoError(t, ReleaseLock(dir))

	_, ok, err := ReadLock(dir)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLockFileModeIsOwnerOnly(t *testing.T) {
	dir := t.TempDir()
	_, err := AcquireLock(dir, AcquireRequest{OperationID: testOperationID, IssueRef: testIssueRef})
	require.NoError(t, err)

	info, err := os.Stat(lockPath(dir))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestReadLockToleratesMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(opsDir(dir), 0o755))
	require.NoError(t, os.WriteFile(lockPath(dir), []byte("not json"), 0o600))

	_, ok, err := ReadLock(dir)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAcquireLockSurvivesExternalKillBetweenAcquireAndJournal(t *testing.T) {
	dir := t.TempDir()
	_, err := AcquireLock(dir, AcquireRequest{OperationID: testOperationID, IssueRef: testIssueRef})
	require.NoError(t, err)

	recovery, err := DetectRecovery(dir)
	require.NoError(t, err)
	require.False(t, recovery.Needed)
}

package worktree

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hansjm10/jeeves-coordinator/internal/eventlog"
)

func setupWorktree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	return dir
}

func TestReconcileDefersWhenWorktreeAbsent(t *testing.T) {
	result := Reconcile(Request{WorktreeDir: filepath.Join(t.TempDir(), "nope")})
	require.Equal(t, StatusDeferredWorktreeAbsent, result.Status)
}

func TestReconcileDefersWhenNoVCSMarker(t *testing.T) {
	dir := t.TempDir()
	result := Reconcile(Request{WorktreeDir: dir})
	require.Equal(t, StatusDeferredWorktreeAbsent, result.Status)
}

func TestReconcileWritesEnvFileAndExcludesIt(t *testing.T) {
	dir := setupWorktree(t)
	result := Reconcile(Request{
		WorktreeDir: dir,
		Desired: []DesiredFile{
			{RelativePath: ".env.jeeves", Name: "env", Contents: []byte(EncodeEnvLine("TOKEN", "secret")), Mode: 0o600, IsEnvFile: true},
		},
		ExcludePatterns: []string{".env.jeeves", ".env.jeeves.*.tmp"},
	})
	require.Equal(t, StatusInSync, result.Status)

	data, err := os.ReadFile(filepath.Join(dir, ".env.jeeves"))
	require.NoError(t, err)
	require.Equal(t, `TOKEN="secret"`+"\n", string(data))

	exclude, err := os.ReadFile(filepath.Join(dir, ".git", "info", "exclude"))
	require.NoError(t, err)
	require.Contains(t, string(exclude), ".env.jeeves")
}

func TestReconcileIsIdempotent(t *testing.T) {
	dir := setupWorktree(t)
	req := Request{
		WorktreeDir: dir,
		Desired: []DesiredFile{
			{RelativePath: ".env.jeeves", Name: "env", Contents: []byte(EncodeEnvLine("TOKEN", "secret")), Mode: 0o600, IsEnvFile: true},
		},
		ExcludePatterns: []string{".env.jeeves"},
	}

	first := Reconcile(req)
	require.Equal(t, StatusInSync, first.Status)
	firstExclude, err := os.ReadFile(filepath.Join(dir, ".git", "info", "exclude"))
	require.NoError(t, err)

	second := Reconcile(req)
	require.Equal(t, StatusInSync, second.Status)
	secondExclude, err := os.ReadFile(filepath.Join(dir, ".git", "info", "exclude"))
	require.NoError(t, err)

	require.Equal(t, firstExclude, secondExclude)
}

func TestReconcileRemovesPreviouslyManagedFileNoLongerDesired(t *testing.T) {
	dir := setupWorktree(t)
	stale := filepath.Join(dir, "managed-old.txt")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o600))

	result := Reconcile(Request{
		WorktreeDir:       dir,
		PreviouslyManaged: []string{"managed-old.txt"},
	})
	require.Equal(t, StatusInSync, result.Status)

	_, err := os.Stat(stale)
	require.True(t, os.IsNotExist(err))
}

func TestReconcileReapsOrphanTempOnEntry(t *testing.T) {
	dir := setupWorktree(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.jeeves.999.1.tmp"), []byte("garbage"), 0o600))

	result := Reconcile(Request{
		WorktreeDir: dir,
		Desired: []DesiredFile{
			{RelativePath: ".env.jeeves", Name: "env", Contents: []byte(EncodeEnvLine("TOKEN", "v")), Mode: 0o600, IsEnvFile: true},
		},
	})
	require.Equal(t, StatusInSync, result.Status)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.NotContains(t, e.Name(), ".tmp")
	}
}

func TestReconcileRejectsDesiredFileTargetingWorktreeRoot(t *testing.T) {
	dir := setupWorktree(t)
	result := Reconcile(Request{
		WorktreeDir: dir,
		Desired: []DesiredFile{
			{RelativePath: "./", Name: "env", Contents: []byte("x"), Mode: 0o600, IsEnvFile: true},
		},
	})
	require.Equal(t, StatusFailedConflict, result.Status)
}

func TestReconcileKeepsPreviouslyManagedFileWhenPathStyleDiffers(t *testing.T) {
	dir := setupWorktree(t)
	kept := filepath.Join(dir, "nested", "managed.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(kept), 0o755))
	require.NoError(t, os.WriteFile(kept, []byte("old"), 0o600))

	result := Reconcile(Request{
		WorktreeDir: dir,
		Desired: []DesiredFile{
			{RelativePath: "./nested/managed.txt", Name: "managed", Contents: []byte("old"), Mode: 0o600},
		},
		PreviouslyManaged: []string{"nested/managed.txt"},
	})
	require.Equal(t, StatusInSync, result.Status)

	_, err := os.Stat(kept)
	require.NoError(t, err)
}

func TestReconcileMirrorsOutcomeToEventLog(t *testing.T) {
	dir := setupWorktree(t)
	issueDir := t.TempDir()

	result := Reconcile(Request{
		IssueDir:    issueDir,
		IssueRef:    "acme/widgets#42",
		WorktreeDir: dir,
		Desired: []DesiredFile{
			{RelativePath: ".env.jeeves", Name: "env", Contents: []byte(EncodeEnvLine("TOKEN", "v")), Mode: 0o600, IsEnvFile: true},
		},
		ExcludePatterns: []string{".env.jeeves"},
	})
	require.Equal(t, StatusInSync, result.Status)

	data, err := os.ReadFile(filepath.Join(issueDir, ".ops", "events.jsonl"))
	require.NoError(t, err)
	var e eventlog.Event
	require.NoError(t, json.Unmarshal(data[:len(data)-1], &e))
	require.Equal(t, eventlog.ComponentReconciler, e.Component)
	require.Equal(t, "reconcile", e.Type)
	require.Equal(t, "acme/widgets#42", e.IssueRef)
}

func TestReconcileSkipsEventLogWhenIssueDirEmpty(t *testing.T) {
	dir := setupWorktree(t)
	result := Reconcile(Request{WorktreeDir: dir})
	require.Equal(t, StatusInSync, result.Status)

	_, err := os.Stat(filepath.Join(dir, ".ops"))
	require.True(t, os.IsNotExist(err))
}

func TestEncodeEnvLineEscapesBackslashesThenQuotes(t *testing.T) {
	line := EncodeEnvLine("KEY", `a\b"c`)
	require.Equal(t, `KEY="a\\b\"c"`+"\n", line)
}

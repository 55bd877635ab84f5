package worktree

import "github.com/hansjm10/jeeves-coordinator/internal/eventlog"

// appendEvent mirrors one reconcile outcome to the operation event log. It
// never surfaces a failure: the event log is observability, not state.
func appendEvent(issueDir string, component eventlog.Component, eventType string, level eventlog.Level, opts ...eventlog.Option) {
	w, err := eventlog.Open(issueDir)
	if err != nil {
		return
	}
	w.Append(component, eventType, level, opts...)
}

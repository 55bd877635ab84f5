// Package streamstate is a pure, single-threaded reducer: it folds a
// stream of tagged events (full snapshots, run deltas, log lines, SDK
// events, per-resource status) into one derived view, with bounded ring
// buffers and last-writer-wins sequencing.
package streamstate

const (
	DefaultLogCapacity      = 2000
	DefaultSDKEventCapacity = 1000
)

// StatusKind names the independent status slots.
type StatusKind string

const (
	StatusToken        StatusKind = "token"
	StatusAzure        StatusKind = "azure"
	StatusIngest       StatusKind = "ingest"
	StatusManagedFiles StatusKind = "managedFiles"
)

// State is the fully derived view consumers read from.
type State struct {
	Connected   bool
	Snapshot    map[string]any
	RunOverride map[string]any
	EffectiveRun map[string]any
	Statuses    map[StatusKind]any
	Logs        []string
	ViewerLogs  []string
	SDKEvents   []SDKEvent

	logCapacity int
	sdkCapacity int
}

// SDKEvent is one entry of the sdkEvents ring buffer.
type SDKEvent struct {
	Event string
	Data  any
}

// New returns an empty State with the given ring-buffer capacities. Passing
// zero for either selects the named default.
func New(logCapacity, sdkEventCapacity int) State {
	if logCapacity <= 0 {
		logCapacity = DefaultLogCapacity
	}
	if sdkEventCapacity <= 0 {
		sdkEventCapacity = DefaultSDKEventCapacity
	}
	return State{
		Statuses:    make(map[StatusKind]any),
		logCapacity: logCapacity,
		sdkCapacity: sdkEventCapacity,
	}
}

package streamstate

// EventKind tags which of the six event shapes an Event carries.
type EventKind string

const (
	EventKindSnapshot EventKind = "snapshot"
	EventKindRun      EventKind = "run"
	EventKindLogs     EventKind = "logs"
	EventKindViewer   EventKind = "viewerLogs"
	EventKindSDK      EventKind = "sdk"
	EventKindStatus   EventKind = "statusEvent"
)

// Event is the single wire shape Reduce accepts; only the fields relevant
// to Kind are populated.
type Event struct {
	Kind EventKind

	Snapshot map[string]any // snapshot
	Run      map[string]any // run

	Lines []string // logs, viewerLogs
	Reset bool     // logs, viewerLogs

	SDKEventName string // sdk
	SDKData      any    // sdk

	StatusKind    StatusKind // statusEvent
	StatusPayload any        // statusEvent
}

func Snapshot(fullIssueState map[string]any) Event {
	return Event{Kind: EventKindSnapshot, Snapshot: fullIssueState}
}

func Run(runStatus map[string]any) Event {
	return Event{Kind: EventKindRun, Run: runStatus}
}

func Logs(lines []string, reset bool) Event {
	return Event{Kind: EventKindLogs, Lines: lines, Reset: reset}
}

func ViewerLogs(lines []string, reset bool) Event {
	return Event{Kind: EventKindViewer, Lines: lines, Reset: reset}
}

func SDK(event string, data any) Event {
	return Event{Kind: EventKindSDK, SDKEventName: event, SDKData: data}
}

func Status(kind StatusKind, payload any) Event {
	return Event{Kind: EventKindStatus, StatusKind: kind, StatusPayload: payload}
}

// Reduce folds one event into state and returns the new state. It never
// suspends and is safe to call repeatedly from a single-threaded transport
// loop; callers overlapping writes from multiple goroutines must serialize
// externally, same as every other reducer in the core.
func Reduce(state State, event Event) State {
	state.Connected = true

	switch event.Kind {
	case EventKindSnapshot:
		state.Snapshot = event.Snapshot
		// A fresh snapshot wins over any stale run override.
		state.RunOverride = nil

	case EventKindRun:
		state.RunOverride = event.Run
		if state.Snapshot != nil {
			snapshot := cloneMap(state.Snapshot)
			snapshot["run"] = event.Run
			state.Snapshot = snapshot
		}

	case EventKindLogs:
		state.Logs = appendRing(state.Logs, event.Lines, event.Reset, state.logCapacity)

	case EventKindViewer:
		state.ViewerLogs = appendRing(state.ViewerLogs, event.Lines, event.Reset, state.logCapacity)

	case EventKindSDK:
		entry := SDKEvent{Event: event.SDKEventName, Data: event.SDKData}
		state.SDKEvents = appendSDKRing(state.SDKEvents, entry, state.sdkCapacity)

	case EventKindStatus:
		statuses := make(map[StatusKind]any, len(state.Statuses)+1)
		for k, v := range state.Statuses {
			statuses[k] = v
		}
		statuses[event.StatusKind] = event.StatusPayload
		state.Statuses = statuses
	}

	state.EffectiveRun = computeEffectiveRun(state)
	return state
}

func computeEffectiveRun(state State) map[string]any {
	if state.RunOverride != nil {
		return state.RunOverride
	}
	if state.Snapshot != nil {
		if run, ok := state.Snapshot["run"].(map[string]any); ok {
			return run
		}
	}
	return nil
}

// appendRing and appendSDKRing copy into a fresh slice so the previous
// State's buffer is never written through a shared backing array.
func appendRing(buf []string, lines []string, reset bool, capacity int) []string {
	var out []string
	if !reset {
		out = append(out, buf...)
	}
	out = append(out, lines...)
	if len(out) > capacity {
		out = out[len(out)-capacity:]
	}
	return out
}

func appendSDKRing(buf []SDKEvent, entry SDKEvent, capacity int) []SDKEvent {
	out := append(append([]SDKEvent(nil), buf...), entry)
	if len(out) > capacity {
		out = out[len(out)-capacity:]
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

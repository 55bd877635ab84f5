package diagnostics

import (
	"path/filepath"

	"github.com/hansjm10/jeeves-coordinator/internal/atomicfile"
	"github.com/hansjm10/jeeves-coordinator/internal/canonjson"
	"github.com/hansjm10/jeeves-coordinator/internal/coreerr"
	"github.com/hansjm10/jeeves-coordinator/internal/scheduler"
)

const fileMode = 0o600

// MemoryEntry is one structured memory item a caller persists across
// iterations; Retired is set by the reducer, never by the caller.
type MemoryEntry struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
	Retired bool   `json:"retired,omitempty"`
}

// ActiveContext is the active_context.json shape: six fields, rewritten
// every iteration. Apply takes them from the caller's ctx argument and
// fills Blockers and NextActions from the task graph when the caller left
// them empty; the memory entries are not used to derive any field.
type ActiveContext struct {
	CurrentObjective       string   `json:"current_objective"`
	OpenHypotheses         []string `json:"open_hypotheses"`
	Blockers               []string `json:"blockers"`
	NextActions            []string `json:"next_actions"`
	UnresolvedQuestions    []string `json:"unresolved_questions"`
	RequiredEvidenceLinks  []string `json:"required_evidence_links"`
}

// TrajectoryReducer maintains active_context.json and
// retired_trajectory.json for one issue directory.
type TrajectoryReducer struct {
	dir          string
	priorEntries map[string]MemoryEntry
}

// NewTrajectoryReducer returns a reducer rooted at issueDir. Both
// artifacts are written only by this type; nothing else in the core reads
// or writes them.
func NewTrajectoryReducer(issueDir string) *TrajectoryReducer {
	return &TrajectoryReducer{dir: issueDir, priorEntries: make(map[string]MemoryEntry)}
}

func (r *TrajectoryReducer) activeContextPath() string {
	return filepath.Join(r.dir, "active_context.json")
}

func (r *TrajectoryReducer) retiredTrajectoryPath() string {
	return filepath.Join(r.dir, "retired_trajectory.json")
}

// Apply derives active_context.json from entries and tasks, retires any
// memory entry present in the previous iteration but absent in this one,
// and appends retirees to retired_trajectory.json.
//
// The caller's ctx.Blockers and ctx.NextActions are taken as given when
// non-empty; when empty they are filled in from the task graph (failed
// task ids become blockers, ready task ids become next actions) so the
// active-context artifact stays informative even when the caller has not
// derived those lists itself.
func (r *TrajectoryReducer) Apply(entries []MemoryEntry, tasks []scheduler.Task, ctx ActiveContext) error {
	current := make(map[string]MemoryEntry, len(entries))
	for _, e := range entries {
		current[e.ID] = e
	}

	var retired []MemoryEntry
	for id, prior := range r.priorEntries {
		if _, stillPresent := current[id]; !stillPresent {
			prior.Retired = true
			retired = append(retired, prior)
		}
	}

	if len(retired) > 0 {
		if err := r.appendRetired(retired); err != nil {
			return err
		}
	}

	if len(ctx.Blockers) == 0 {
		ctx.Blockers = failedTaskIDs(tasks)
	}
	if len(ctx.NextActions) == 0 {
		ctx.NextActions = readyTaskIDs(tasks)
	}

	data, err := canonjson.Marshal(ctx)
	if err != nil {
		return coreerr.Schema("TRAJECTORY_ENCODE_FAILED", "active context could not be encoded")
	}
	if err := atomicfile.Write(r.activeContextPath(), data, fileMode); err != nil {
		return err
	}

	r.priorEntries = current
	return nil
}

// failedTaskIDs returns the ids of tasks in the failed state, in graph
// order — the default blockers list when the caller has not computed one.
func failedTaskIDs(tasks []scheduler.Task) []string {
	var ids []string
	for _, t := range tasks {
		if t.Status == scheduler.StatusFailed {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// readyTaskIDs returns the ids of pending tasks whose dependencies have all
// passed, in graph order — the default next-actions list.
func readyTaskIDs(tasks []scheduler.Task) []string {
	passed := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		passed[t.ID] = t.Status == scheduler.StatusPassed
	}

	var ids []string
	for _, t := range tasks {
		if t.Status != scheduler.StatusPending {
			continue
		}
		ready := true
		for _, dep := range t.DependsOn {
			if !passed[dep] {
				ready = false
				break
			}
		}
		if ready {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

func (r *TrajectoryReducer) appendRetired(retired []MemoryEntry) error {
	existing, err := readRetired(r.retiredTrajectoryPath())
	if err != nil {
		return err
	}
	existing = append(existing, retired...)

	data, err := canonjson.Marshal(existing)
	if err != nil {
		return coreerr.Schema("TRAJECTORY_ENCODE_FAILED", "retired trajectory could not be encoded")
	}
	return atomicfile.Write(r.retiredTrajectoryPath(), data, fileMode)
}

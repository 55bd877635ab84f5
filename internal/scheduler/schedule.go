package scheduler

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/hansjm10/jeeves-coordinator/internal/atomicfile"
	"github.com/hansjm10/jeeves-coordinator/internal/canonjson"
	"github.com/hansjm10/jeeves-coordinator/internal/coreerr"
)

const fileMode = os.FileMode(0o600)

// ReadGraph loads tasksFile with a plain read — the scheduler is a
// read-mostly consumer and readers need not hold the operation lock.
func ReadGraph(tasksFile string) (Graph, error) {
	data, err := os.ReadFile(tasksFile)
	if err != nil {
		if os.IsNotExist(err) {
			return Graph{SchemaVersion: 1}, nil
		}
		return Graph{}, coreerr.IOTransient("IO_READ_FAILED", "failed to read task graph", err)
	}

	var graph Graph
	if err := json.Unmarshal(data, &graph); err != nil {
		return Graph{}, coreerr.Schema("TASKS_DECODE_FAILED", "task graph file is not valid JSON")
	}
	return graph, nil
}

// PutTasks rewrites tasksFile wholesale via the atomic writer. It is one of
// the only two mutators of a task graph; schedule itself never writes.
func PutTasks(tasksFile string, tasks []Task) error {
	graph := Graph{SchemaVersion: 1, Tasks: tasks}
	data, err := canonjson.Marshal(graph)
	if err != nil {
		return coreerr.Schema("TASKS_ENCODE_FAILED", "task graph could not be encoded")
	}
	return atomicfile.Write(tasksFile, data, fileMode)
}

// SetTaskStatus mutates a single task's status in place and rewrites the
// file atomically. It is the other permitted mutator.
func SetTaskStatus(tasksFile, taskID string, status Status) error {
	graph, err := ReadGraph(tasksFile)
	if err != nil {
		return err
	}

	found := false
	for i := range graph.Tasks {
		if graph.Tasks[i].ID == taskID {
			graph.Tasks[i].Status = status
			found = true
			break
		}
	}
	if !found {
		return coreerr.Consistency("TASK_NOT_FOUND", "no task with id "+taskID)
	}

	return PutTasks(tasksFile, graph.Tasks)
}

// Schedule validates tasksFile's graph and returns the next maxParallel
// ready tasks in deterministic order. Multiple invocations on an unchanged
// file return identical results.
func Schedule(tasksFile string, maxParallel int) ([]Task, error) {
	if maxParallel <= 0 {
		maxParallel = 1
	}

	graph, err := ReadGraph(tasksFile)
	if err != nil {
		return nil, err
	}
	if err := ValidateTaskGraph(graph.Tasks); err != nil {
		return nil, err
	}

	return selectReady(graph.Tasks, maxParallel), nil
}

// selectReady implements the total ordering from the distilled spec:
// status rank (failed before pending), then original list index, then task
// id, truncated to maxParallel entries.
func selectReady(tasks []Task, maxParallel int) []Task {
	passed := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		passed[t.ID] = t.Status == StatusPassed
	}

	type candidate struct {
		task  Task
		index int
	}
	var ready []candidate
	for i, t := range tasks {
		if t.Status != StatusPending && t.Status != StatusFailed {
			continue
		}
		allDepsPassed := true
		for _, dep := range t.DependsOn {
			if !passed[dep] {
				allDepsPassed = false
				break
			}
		}
		if allDepsPassed {
			ready = append(ready, candidate{task: t, index: i})
		}
	}

	sort.SliceStable(ready, func(i, j int) bool {
		ri, rj := statusRank(ready[i].task.Status), statusRank(ready[j].task.Status)
		if ri != rj {
			return ri < rj
		}
		if ready[i].index != ready[j].index {
			return ready[i].index < ready[j].index
		}
		return ready[i].task.ID < ready[j].task.ID
	})

	if len(ready) > maxParallel {
		ready = ready[:maxParallel]
	}

	out := make([]Task, len(ready))
	for i, c := range ready {
		out[i] = c.task
	}
	return out
}

func statusRank(s Status) int {
	if s == StatusFailed {
		return 0
	}
	return 1
}

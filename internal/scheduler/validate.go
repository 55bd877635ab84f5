package scheduler

import (
	"strconv"

	"github.com/hansjm10/jeeves-coordinator/internal/coreerr"
)

// ValidateTaskGraph runs the three required passes over tasks in order:
// duplicate ids, missing dependency references, then cycles. The first
// violation found is returned; callers that want every violation should
// fix one and re-validate rather than expect a combined report, matching
// the fail-fast contract of Schedule.
func ValidateTaskGraph(tasks []Task) error {
	if err := checkDuplicateIDs(tasks); err != nil {
		return err
	}
	if err := checkMissingDependencies(tasks); err != nil {
		return err
	}
	if err := checkCycles(tasks); err != nil {
		return err
	}
	return nil
}

func checkDuplicateIDs(tasks []Task) error {
	seen := make(map[string]int, len(tasks))
	for i, t := range tasks {
		if firstIndex, ok := seen[t.ID]; ok {
			return coreerr.Validation("DUPLICATE_ID", "taskId", t.ID, detailDuplicateID(t.ID, firstIndex, i))
		}
		seen[t.ID] = i
	}
	return nil
}

func detailDuplicateID(taskID string, firstIndex, secondIndex int) string {
	return "task id appears at indices " + strconv.Itoa(firstIndex) + " and " + strconv.Itoa(secondIndex)
}

func checkMissingDependencies(tasks []Task) error {
	ids := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		ids[t.ID] = struct{}{}
	}
	for _, t := range tasks {
		for _, dep := range t.DependsOn {
			if _, ok := ids[dep]; !ok {
				return coreerr.Validation("MISSING_DEPENDENCY", "dependsOn", dep, "task "+t.ID+" depends on unknown task "+dep)
			}
		}
	}
	return nil
}

// checkCycles runs a DFS with a recursion stack per node so self-loops and
// longer cycles are both caught. The first discovered cycle is reported as
// a closed path: cycle[0] == cycle[len(cycle)-1].
func checkCycles(tasks []Task) error {
	byID := make(map[string]Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(tasks))
	var stack []string

	var visit func(id string) error
	visit = func(id string) error {
		state[id] = visiting
		stack = append(stack, id)

		for _, dep := range byID[id].DependsOn {
			switch state[dep] {
			case visiting:
				cycle := closeCycle(stack, dep)
				return coreerr.Schema("CYCLE_DETECTED", "dependency cycle: "+joinIDs(cycle))
			case unvisited:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[id] = done
		return nil
	}

	for _, t := range tasks {
		if state[t.ID] == unvisited {
			if err := visit(t.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// closeCycle returns the portion of stack from where target first appears
// through the end, with target appended again to close the path.
func closeCycle(stack []string, target string) []string {
	for i, id := range stack {
		if id == target {
			cycle := append([]string{}, stack[i:]...)
			return append(cycle, target)
		}
	}
	return append(append([]string{}, stack...), target)
}

func joinIDs(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += " -> "
		}
		out += id
	}
	return out
}


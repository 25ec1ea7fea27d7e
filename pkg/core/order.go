package core

import (
	"fmt"
	"strings"
)

// ExecutionOrder returns the scenario's steps sorted so that every step runs
// after all the steps it needs or lists in after. Steps without an ordering constraint between
// them keep their position from the scenario file.
func ExecutionOrder(sc *Scenario) ([]Step, error) {
	index := make(map[string]int, len(sc.Steps))
	for i, step := range sc.Steps {
		index[step.ID] = i
	}

	pending := make([]int, len(sc.Steps))
	dependents := make([][]int, len(sc.Steps))
	for i, step := range sc.Steps {
		for _, need := range step.Needs {
			j, ok := index[need]
			if !ok {
				return nil, fmt.Errorf("step %q needs unknown step %q", step.ID, need)
			}
			if j == i {
				return nil, fmt.Errorf("step %q needs itself", step.ID)
			}
			pending[i]++
			dependents[j] = append(dependents[j], i)
		}
		for _, prev := range step.After {
			j, ok := index[prev]
			if !ok {
				return nil, fmt.Errorf("step %q runs after unknown step %q", step.ID, prev)
			}
			if j == i {
				return nil, fmt.Errorf("step %q runs after itself", step.ID)
			}
			pending[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	done := make([]bool, len(sc.Steps))
	ordered := make([]Step, 0, len(sc.Steps))
	for len(ordered) < len(sc.Steps) {
		// Lowest file position among the ready steps goes next.
		next := -1
		for i := range sc.Steps {
			if !done[i] && pending[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, fmt.Errorf("steps have a dependency cycle: %s", strings.Join(unfinished(sc, done), ", "))
		}
		done[next] = true
		ordered = append(ordered, sc.Steps[next])
		for _, d := range dependents[next] {
			pending[d]--
		}
	}
	return ordered, nil
}

func unfinished(sc *Scenario, done []bool) []string {
	var ids []string
	for i, step := range sc.Steps {
		if !done[i] {
			ids = append(ids, fmt.Sprintf("%q", step.ID))
		}
	}
	return ids
}

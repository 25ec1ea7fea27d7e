package core

import "github.com/arnavsurve/stepcheck/pkg/types"

// RunState is the run-scoped state threaded through a scenario. Each step
// receives the state produced by the steps before it and returns its own,
// possibly updated, copy. Captured variables such as baselineCount or
// activeResourceId live in Vars; raw step outputs live in Results.
type RunState struct {
	Vars    map[string]any
	Results StepResultsContext
}

func NewRunState() RunState {
	return RunState{
		Vars:    make(map[string]any),
		Results: make(StepResultsContext),
	}
}

// Var returns a captured variable.
func (s RunState) Var(name string) (any, bool) {
	v, ok := s.Vars[name]
	return v, ok
}

// WithVar returns a copy of s with name set to value.
func (s RunState) WithVar(name string, value any) RunState {
	vars := make(map[string]any, len(s.Vars)+1)
	for k, v := range s.Vars {
		vars[k] = v
	}
	vars[name] = value
	return RunState{Vars: vars, Results: s.Results}
}

// WithResult returns a copy of s with the output of step id recorded.
func (s RunState) WithResult(id string, result types.StepResult) RunState {
	results := make(StepResultsContext, len(s.Results)+1)
	for k, v := range s.Results {
		results[k] = v
	}
	results[id] = result
	return RunState{Vars: s.Vars, Results: results}
}

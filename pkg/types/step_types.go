package types

// StepResult is the standardized output structure returned by every runner's Run method.
type StepResult struct {
	Output any `json:"output"`
}

// OutputMap returns the output as a map, or nil when the runner produced something else.
func (r StepResult) OutputMap() map[string]any {
	m, _ := r.Output.(map[string]any)
	return m
}

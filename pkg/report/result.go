package report

import (
	"fmt"
	"time"
)

type Results struct {
	Steps    []Outcome
	Failures []Outcome
}

type Outcome struct {
	ID         StepID
	Errors     []error
	Skipped    bool
	SkipReason string
	Duration   time.Duration
}

func (o Outcome) Failed() bool {
	return !o.Skipped && len(o.Errors) > 0
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Add records an outcome, tracking it as a failure when it has errors.
func (r *Results) Add(o Outcome) {
	r.Steps = append(r.Steps, o)
	if o.Failed() {
		r.Failures = append(r.Failures, o)
	}
}

// Outcome returns the recorded outcome for a step name.
func (r Results) Outcome(step string) (Outcome, bool) {
	for _, o := range r.Steps {
		if o.ID.Step == step {
			return o, true
		}
	}
	return Outcome{}, false
}

// Errors flattens every failure into one StepFailure per error.
func (r Results) Errors() []error {
	var errs []error
	for _, o := range r.Failures {
		for _, err := range o.Errors {
			errs = append(errs, StepFailure{ID: o.ID, Err: err})
		}
	}
	return errs
}

func (r Results) Counts() (passed, failed, skipped int) {
	for _, o := range r.Steps {
		switch {
		case o.Skipped:
			skipped++
		case o.Failed():
			failed++
		default:
			passed++
		}
	}
	return
}

type StepID struct {
	Scenario string
	Step     string
}

func (s StepID) String() string {
	if s.Scenario == "" {
		return s.Step
	}
	return s.Scenario + "/" + s.Step
}

type StepFailure struct {
	ID  StepID
	Err error
}

func (f StepFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}

func (f StepFailure) Unwrap() error { return f.Err }

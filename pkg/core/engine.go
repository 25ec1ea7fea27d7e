package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arnavsurve/stepcheck/pkg/report"
	"github.com/arnavsurve/stepcheck/pkg/steprunner"
	"github.com/arnavsurve/stepcheck/pkg/types"
)

type stepStatus int

const (
	statusPassed stepStatus = iota + 1
	statusFailed
	statusSkipped
)

type ScenarioEngine struct {
	Logger     Logger
	Reporter   report.Reporter
	Filter     report.Filter
	HTTPClient types.Doer
	UserAgent  string
	Timeout    time.Duration
}

func NewScenarioEngine(logger Logger) *ScenarioEngine {
	return &ScenarioEngine{
		Logger:   logger,
		Reporter: report.NullReporter(),
	}
}

// ExecuteScenario runs every step of the scenario once, in dependency order,
// and returns the final run state together with the per-step results. A
// failing step does not stop the run; steps that need it fail with a
// PreconditionError instead of issuing requests. The returned error is only
// set when the scenario cannot be run at all.
func (e *ScenarioEngine) ExecuteScenario(
	ctx context.Context,
	sc *Scenario,
	varCtx VarContext,
	scenarioDir string,
) (RunState, report.Results, error) {
	state := NewRunState()
	var results report.Results

	ordered, err := ExecutionOrder(sc)
	if err != nil {
		return state, results, fmt.Errorf("ordering steps of scenario %q: %w", sc.Name, err)
	}

	statuses := make(map[string]stepStatus, len(ordered))
	for _, step := range ordered {
		id := report.StepID{Scenario: sc.Name, Step: step.ID}

		var outcome report.Outcome
		state, outcome = e.runStep(ctx, id, step, varCtx, state, statuses, scenarioDir)

		switch {
		case outcome.Skipped:
			statuses[step.ID] = statusSkipped
		case outcome.Failed():
			statuses[step.ID] = statusFailed
		default:
			statuses[step.ID] = statusPassed
		}
		results.Add(outcome)
	}

	return state, results, nil
}

func (e *ScenarioEngine) runStep(
	ctx context.Context,
	id report.StepID,
	step Step,
	globals VarContext,
	state RunState,
	statuses map[string]stepStatus,
	scenarioDir string,
) (RunState, report.Outcome) {
	reporter := e.reporter()
	reporter.StepStarted(id)

	if ctx.Err() != nil {
		return state, e.skip(id, "run cancelled")
	}
	if e.Filter != nil && !e.Filter(id) {
		return state, e.skip(id, "excluded by filter parameters")
	}
	for _, need := range step.Needs {
		if statuses[need] == statusSkipped {
			return state, e.skip(id, fmt.Sprintf("depends on skipped step %q", need))
		}
	}

	e.Logger.Info().Msgf("Running step %q (uses=%s)", step.ID, step.Uses)
	start := time.Now()
	fail := func(errs ...error) (RunState, report.Outcome) {
		elapsed := time.Since(start)
		for _, err := range errs {
			e.Logger.Error().Err(err).Str("step_id", step.ID).Str("kind", Classify(err).String()).Msg("Step failed")
			reporter.StepError(id, err)
		}
		reporter.StepFinished(id, true, elapsed)
		return state, report.Outcome{ID: id, Errors: errs, Duration: elapsed}
	}

	for _, need := range step.Needs {
		if statuses[need] != statusPassed {
			return fail(&PreconditionError{
				Step:        step.ID,
				Requirement: fmt.Sprintf("step %q", need),
				Reason:      "it did not pass",
			})
		}
	}

	resolvedStep, err := ResolveStepVariables(&step, globals, state)
	if err != nil {
		var undefined *UndefinedVariableError
		if errors.As(err, &undefined) {
			return fail(&PreconditionError{
				Step:        step.ID,
				Requirement: undefined.Key,
				Reason:      "it is not defined; no earlier step established it",
			})
		}
		return fail(fmt.Errorf("could not resolve variables for step %q: %w", step.ID, err))
	}

	scopedLogger := e.Logger.With().
		Str("scenario", id.Scenario).
		Str("step_id", resolvedStep.ID).
		Str("step_type", resolvedStep.Uses).
		Logger()

	execCtx := types.ExecutionContext{
		Step:           *resolvedStep,
		Scenario:       id.Scenario,
		Logger:         scopedLogger,
		ScenarioDir:    scenarioDir,
		HTTPClient:     e.HTTPClient,
		UserAgent:      e.UserAgent,
		DefaultTimeout: e.Timeout,
	}

	runner, err := steprunner.GetRunner(execCtx)
	if err != nil {
		return fail(fmt.Errorf("error getting runner for step %q: %w", resolvedStep.ID, err))
	}
	if err := runner.Validate(); err != nil {
		return fail(fmt.Errorf("invalid step %q: %w", resolvedStep.ID, err))
	}

	result, err := runner.Run(ctx)
	if err != nil {
		return fail(&TransportError{Step: resolvedStep.ID, Err: err})
	}
	if result == nil {
		result = &types.StepResult{}
	}

	if errs := EvaluateExpect(resolvedStep.ID, resolvedStep.Expect, *result); len(errs) > 0 {
		if curl := reproduceCommand(*result); curl != "" {
			scopedLogger.Warn().Str("reproduce", curl).Msg("Expectation failed")
		}
		return fail(errs...)
	}

	next, captureErrs := ApplyCaptures(*resolvedStep, *result, state)
	if len(captureErrs) > 0 {
		return fail(captureErrs...)
	}

	// Only passed steps publish their output to later steps.
	scopedLogger.Debug().Msgf("Storing result for step %q", resolvedStep.ID)
	state = next.WithResult(resolvedStep.ID, *result)
	for name := range resolvedStep.Capture {
		if v, ok := state.Var(name); ok {
			scopedLogger.Info().Interface("value", v).Msgf("Captured state.%s", name)
		}
	}

	elapsed := time.Since(start)
	reporter.StepFinished(id, false, elapsed)
	return state, report.Outcome{ID: id, Duration: elapsed}
}

func (e *ScenarioEngine) skip(id report.StepID, reason string) report.Outcome {
	e.Logger.Info().Str("step_id", id.Step).Msgf("Skipping step: %s", reason)
	e.reporter().StepSkipped(id, reason)
	return report.Outcome{ID: id, Skipped: true, SkipReason: reason}
}

func (e *ScenarioEngine) reporter() report.Reporter {
	if e.Reporter == nil {
		return report.NullReporter()
	}
	return e.Reporter
}

func reproduceCommand(result types.StepResult) string {
	v, found := GetNestedValue(result.OutputMap(), []string{"request", "curl"})
	if !found {
		return ""
	}
	s, _ := v.(string)
	return s
}

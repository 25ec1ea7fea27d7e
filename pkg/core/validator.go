package core

import (
	"fmt"

	"github.com/arnavsurve/stepcheck/pkg/steprunner"
	"github.com/arnavsurve/stepcheck/pkg/types"
)

// ValidateScenarioStructure checks fields at the scenario level: name, input types/uniqueness, step uniqueness and dependencies.
func ValidateScenarioStructure(sc *Scenario) error {
	if sc.Name == "" {
		return fmt.Errorf("scenario is missing 'name'")
	}

	validInputTypes := map[string]bool{
		"string":  true,
		"number":  true,
		"boolean": true,
	}

	inputNames := make(map[string]bool)
	for i, input := range sc.Inputs {
		if input.Name == "" {
			return fmt.Errorf("input %d is missing 'name'", i)
		}
		if inputNames[input.Name] {
			return fmt.Errorf("duplicate input name: %q", input.Name)
		}
		inputNames[input.Name] = true

		if !validInputTypes[input.Type] {
			return fmt.Errorf("input %q has invalid type %q", input.Name, input.Type)
		}
	}

	if len(sc.Steps) == 0 {
		return fmt.Errorf("scenario %q has no steps", sc.Name)
	}

	stepIDs := make(map[string]bool)
	for i, step := range sc.Steps {
		if step.ID == "" {
			return fmt.Errorf("step %d is missing 'id'", i)
		}
		if stepIDs[step.ID] {
			return fmt.Errorf("duplicate step id: %q", step.ID)
		}
		stepIDs[step.ID] = true

		if step.Uses == "" {
			return fmt.Errorf("step %q is missing 'uses'", step.ID)
		}

		for name, expr := range step.Capture {
			if name == "" {
				return fmt.Errorf("step %q has a capture with an empty name", step.ID)
			}
			if _, err := ParseCapture(expr); err != nil {
				return fmt.Errorf("step %q capture %q: %w", step.ID, name, err)
			}
		}
	}

	for _, step := range sc.Steps {
		for _, need := range step.Needs {
			if !stepIDs[need] {
				return fmt.Errorf("step %q needs unknown step %q", step.ID, need)
			}
		}
		for _, prev := range step.After {
			if !stepIDs[prev] {
				return fmt.Errorf("step %q runs after unknown step %q", step.ID, prev)
			}
		}
	}

	if _, err := ExecutionOrder(sc); err != nil {
		return err
	}

	return nil
}

// ValidateStateReferences checks that every run-state variable a step reads is
// captured by a step that runs before it, so no assertion can depend on state
// that has not been established yet.
func ValidateStateReferences(sc *Scenario) error {
	ordered, err := ExecutionOrder(sc)
	if err != nil {
		return err
	}

	capturedBy := make(map[string]string)
	for _, step := range sc.Steps {
		for name := range step.Capture {
			if _, exists := capturedBy[name]; !exists {
				capturedBy[name] = step.ID
			}
		}
	}

	established := make(map[string]bool)
	for _, step := range ordered {
		for _, ref := range StateReferences(step) {
			if established[ref] {
				continue
			}
			if producer, ok := capturedBy[ref]; ok {
				return fmt.Errorf("step %q reads state.%s before step %q captures it; add %q to its 'needs'", step.ID, ref, producer, producer)
			}
			return fmt.Errorf("step %q reads state.%s, which no step captures", step.ID, ref)
		}
		for name := range step.Capture {
			established[name] = true
		}
	}
	return nil
}

func ValidateRequiredInputs(sc *Scenario, varCtx VarContext) error {
	for _, input := range sc.Inputs {
		if input.Required {
			if _, exists := varCtx[input.Name]; !exists && input.Default == "" {
				return fmt.Errorf("required input %q is missing from the varfile and no default value is provided", input.Name)
			}
		}
	}
	return nil
}

// ApplyInputDefaults fills varCtx with the default of every input it does not define.
func ApplyInputDefaults(sc *Scenario, varCtx VarContext) VarContext {
	out := make(VarContext, len(varCtx))
	for k, v := range varCtx {
		out[k] = v
	}
	for _, input := range sc.Inputs {
		if _, exists := out[input.Name]; !exists && input.Default != "" {
			out[input.Name] = input.Default
		}
	}
	return out
}

func ValidateScenarioRunners(sc *Scenario, scenarioDir string, logger Logger) error {
	for _, step := range sc.Steps {
		ctx := types.ExecutionContext{
			Step:        step,
			Scenario:    sc.Name,
			Logger:      logger,
			ScenarioDir: scenarioDir,
		}

		runner, err := steprunner.GetRunner(ctx)
		if err != nil {
			return fmt.Errorf("getting runner for step %q: %w", step.ID, err)
		}

		if err = runner.Validate(); err != nil {
			return fmt.Errorf("validating step %q: %w", step.ID, err)
		}
	}

	return nil
}

package core_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/arnavsurve/stepcheck/pkg/steprunner"
	"github.com/arnavsurve/stepcheck/pkg/types"
)

// fakeRunner answers without a network. The response status comes from the
// X-Status header (200 when absent), the response body echoes call.body, and
// the FAIL method makes the call itself fail.
type fakeRunner struct {
	ctx types.ExecutionContext
}

var (
	fakeMu    sync.Mutex
	fakeCalls []string
)

var errFakeTransport = errors.New("connection refused")

func init() {
	steprunner.RegisterRunnerFactory("fake", func(ctx types.ExecutionContext) (steprunner.StepRunner, error) {
		return &fakeRunner{ctx: ctx}, nil
	})
}

func resetFakeCalls() {
	fakeMu.Lock()
	defer fakeMu.Unlock()
	fakeCalls = nil
}

func recordedFakeCalls() []string {
	fakeMu.Lock()
	defer fakeMu.Unlock()
	return append([]string(nil), fakeCalls...)
}

func (r *fakeRunner) Validate() error {
	if r.ctx.Step.Call == nil {
		return fmt.Errorf("fake step %q must define 'call'", r.ctx.Step.ID)
	}
	return nil
}

func (r *fakeRunner) Run(ctx context.Context) (*types.StepResult, error) {
	step := r.ctx.Step
	fakeMu.Lock()
	fakeCalls = append(fakeCalls, step.ID)
	fakeMu.Unlock()

	if step.Call.Method == "FAIL" {
		return nil, fmt.Errorf("calling %s: %w", step.Call.Url, errFakeTransport)
	}

	status := 200
	if s, ok := step.Call.Headers["X-Status"]; ok {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, err
		}
		status = n
	}

	// A body with an "items" key answers with that list instead.
	var body any
	if step.Call.Body != nil {
		if items, ok := step.Call.Body["items"]; ok {
			body = items
		} else {
			body = step.Call.Body
		}
	}
	return &types.StepResult{Output: map[string]any{
		"status_code": status,
		"headers":     map[string]any{},
		"body":        body,
		"request": map[string]any{
			"method": step.Call.Method,
			"url":    step.Call.Url,
			"curl":   "curl -X " + step.Call.Method + " " + step.Call.Url,
		},
	}}, nil
}

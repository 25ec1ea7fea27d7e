package steprunner

import (
	"fmt"
	"sort"
	"sync"

	"github.com/arnavsurve/stepcheck/pkg/types"
)

type RunnerFactory func(ctx types.ExecutionContext) (StepRunner, error)

// registry stores each type of step runner's factory function. GetRunner calls the appropriate StepRunner
// factory function to yield a new instance of that StepRunner
var (
	registry   = map[string]RunnerFactory{}
	registryMu sync.RWMutex
)

// This is called in each step runner's init() function to register its factory function with the registry.
// This allows GetRunner to return an instance of the appropriate StepRunner, using the registry to resolve
// the runner's factory.
func RegisterRunnerFactory(stepType string, factory RunnerFactory) {
	registryMu.Lock()
	registry[stepType] = factory
	registryMu.Unlock()
}

// GetRunner returns an instance of the appropriate StepRunner based on the step's 'uses' field,
// calling the corresponding runner's factory function from the registry.
func GetRunner(ctx types.ExecutionContext) (StepRunner, error) {
	stepType := ctx.Step.Uses
	registryMu.RLock()
	factory, ok := registry[stepType]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no runner registered for type: %s", stepType)
	}

	return factory(ctx)
}

// RegisteredTypes lists the step types that have a runner.
func RegisteredTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for t := range registry {
		names = append(names, t)
	}
	sort.Strings(names)
	return names
}

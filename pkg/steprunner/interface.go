package steprunner

import (
	"context"

	"github.com/arnavsurve/stepcheck/pkg/types"
)

type StepRunner interface {
	Validate() error
	Run(ctx context.Context) (*types.StepResult, error)
}

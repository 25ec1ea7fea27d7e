package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/arnavsurve/stepcheck/pkg/scenarios"
)

// ShowCmd prints the built-in scenario, a starting point for custom ones.
type ShowCmd struct {
	out io.Writer
}

func (s *ShowCmd) Run() error {
	out := s.out
	if out == nil {
		out = os.Stdout
	}
	if _, err := out.Write(scenarios.PostsYAML()); err != nil {
		return fmt.Errorf("writing built-in scenario: %w", err)
	}
	return nil
}

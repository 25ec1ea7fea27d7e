package cli

import (
	"context"
	"fmt"

	"github.com/arnavsurve/stepcheck/pkg/twin"
	"github.com/arnavsurve/stepcheck/pkg/types"
)

type ServeCmd struct {
	Port      int  `help:"HTTP listen port." default:"8080"`
	Seed      int  `help:"Number of posts to seed." default:"100"`
	Ephemeral bool `help:"Do not persist creates, updates or deletes, like the public JSONPlaceholder service."`
	Debug     bool `help:"Enable debug logging."`
}

func (s *ServeCmd) Run(ctx context.Context) error {
	level := types.InfoLevel
	if s.Debug {
		level = types.DebugLevel
	}
	logRouter, logger := newConsoleLogger(level)
	defer logRouter.Close()

	if s.Seed < 0 {
		return fmt.Errorf("seed must not be negative, got %d", s.Seed)
	}

	srv := twin.NewServer(fmt.Sprintf(":%d", s.Port), s.Seed, s.Ephemeral, logger.With().Str("component", "twin").Logger())
	return srv.Serve(ctx)
}

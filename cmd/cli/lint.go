package cli

import (
	"github.com/arnavsurve/stepcheck/pkg/core"
	"github.com/arnavsurve/stepcheck/pkg/types"

	// Ensure all runner implementations are initialized
	_ "github.com/arnavsurve/stepcheck/pkg/steprunner/runners"
)

type LintCmd struct {
	Scenario string `help:"The scenario file. Defaults to the built-in posts scenario." type:"path"`
	Varfile  string `help:"The YAML varfile for input variables." default:"stepvars.yml"`
	BaseURL  string `help:"Base URL used when the varfile does not set base_url." name:"base-url"`
}

func (l *LintCmd) Run() error {
	logRouter, cmdLogger := newConsoleLogger(types.InfoLevel)
	defer logRouter.Close()

	source := l.Scenario
	if source == "" {
		source = "built-in scenario"
	}
	cmdLogger.Info().Msgf("Validating %s using %s", source, l.Varfile)

	loadDotenv(cmdLogger)

	sc, scenarioDir, err := loadScenario(l.Scenario, cmdLogger)
	if err != nil {
		return err
	}

	varCtx := resolveGlobals(sc, loadVarfile(l.Varfile, cmdLogger), l.BaseURL)

	ordered, err := core.ExecutionOrder(sc)
	if err != nil {
		return err
	}
	for i, step := range ordered {
		cmdLogger.Info().
			Str("step_id", step.ID).
			Str("step_type", step.Uses).
			Msgf("Execution order %d", i+1)
	}

	if err := validateScenario(sc, varCtx, scenarioDir, cmdLogger); err != nil {
		return err
	}

	cmdLogger.Info().Msg("Successfully validated scenario configuration ✅")
	return nil
}

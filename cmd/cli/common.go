package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arnavsurve/stepcheck/pkg/core"
	"github.com/arnavsurve/stepcheck/pkg/log"
	"github.com/arnavsurve/stepcheck/pkg/log/sinks"
	"github.com/arnavsurve/stepcheck/pkg/scenarios"
	"github.com/arnavsurve/stepcheck/pkg/types"
	"github.com/joho/godotenv"
)

// ErrScenarioFailed is returned when at least one step failed.
var ErrScenarioFailed = errors.New("scenario failed")

// newConsoleLogger builds a router with a console sink at minLevel.
func newConsoleLogger(minLevel types.Level) (*log.Router, types.Logger) {
	router := log.NewRouter()
	router.AddSink(sinks.NewConsoleSink(minLevel))
	return router, log.New(router)
}

func loadDotenv(logger types.Logger) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Err(err).Msg("No .env file found or error thrown while loading it. Relying on existing ENV if vars use {{ env.* }}")
	}
}

// loadScenario reads the scenario file, or the built-in posts scenario when
// path is empty. It also returns the directory relative paths resolve against.
func loadScenario(path string, logger types.Logger) (*core.Scenario, string, error) {
	if path == "" {
		sc, err := scenarios.Posts()
		if err != nil {
			return nil, "", fmt.Errorf("loading built-in scenario: %w", err)
		}
		logger.Info().Msgf("Using built-in scenario %q", sc.Name)
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", fmt.Errorf("determining working directory: %w", err)
		}
		return sc, wd, nil
	}

	sc, err := core.LoadScenarioFromFile(path)
	if err != nil {
		logger.Error().Err(err).Msgf("Failed to load scenario file %s", path)
		return nil, "", fmt.Errorf("loading scenario file %q: %w", path, err)
	}
	logger.Info().Msgf("Successfully loaded scenario: %q", sc.Name)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("determining absolute path for scenario file %q: %w", path, err)
	}
	return sc, filepath.Dir(absPath), nil
}

// loadVarfile resolves the varfile. A missing varfile is not an error.
func loadVarfile(path string, logger types.Logger) core.VarContext {
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		logger.Warn().Msgf("Varfile %s not found. Proceeding without global variables.", path)
		return make(core.VarContext)
	}
	varCtx, err := core.ResolveVarfile(path)
	var missingErr *core.MissingEnvError
	if errors.As(err, &missingErr) {
		for _, m := range missingErr.Missing {
			logger.Warn().Str("env", m.EnvKey).Msgf("Environment variable not set for varfile key %q; using an empty value", m.VarKey)
		}
		return varCtx
	}
	if err != nil {
		logger.Warn().Err(err).Msgf("Could not fully resolve varfile %q. Some variable validations might be affected.", path)
		if varCtx == nil {
			varCtx = make(core.VarContext)
		}
		return varCtx
	}
	logger.Info().Msgf("Successfully loaded and resolved varfile: %s", path)
	return varCtx
}

// resolveGlobals layers the scenario's globals: varfile first, then the base
// url from the command line or config, then input defaults.
func resolveGlobals(sc *core.Scenario, varCtx core.VarContext, baseURL string) core.VarContext {
	merged := make(core.VarContext, len(varCtx)+1)
	for k, v := range varCtx {
		merged[k] = v
	}
	if _, ok := merged["base_url"]; !ok && baseURL != "" {
		merged["base_url"] = baseURL
	}
	return core.ApplyInputDefaults(sc, merged)
}

// validateScenario runs every static check on a scenario.
func validateScenario(sc *core.Scenario, varCtx core.VarContext, scenarioDir string, logger types.Logger) error {
	if err := core.ValidateRequiredInputs(sc, varCtx); err != nil {
		logger.Error().Err(err).Msg("Required input validation failed")
		return fmt.Errorf("validating required inputs: %w", err)
	}
	logger.Debug().Msg("Required input validation passed")

	if err := core.ValidateStateReferences(sc); err != nil {
		logger.Error().Err(err).Msg("Step ordering validation failed")
		return fmt.Errorf("validating step order: %w", err)
	}
	logger.Debug().Msg("Step ordering validation passed")

	validationSc, err := core.InjectVarsIntoScenario(sc, varCtx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to resolve global variables for scenario validation")
		return fmt.Errorf("resolving global variables for scenario validation: %w", err)
	}
	if err := core.ValidateScenarioRunners(validationSc, scenarioDir, logger); err != nil {
		logger.Error().Err(err).Msg("Scenario runner validation failed")
		return fmt.Errorf("validating scenario runners: %w", err)
	}
	return nil
}

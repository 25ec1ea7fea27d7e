package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/arnavsurve/stepcheck/pkg/config"
	"github.com/arnavsurve/stepcheck/pkg/core"
	"github.com/arnavsurve/stepcheck/pkg/log"
	"github.com/arnavsurve/stepcheck/pkg/log/sinks"
	"github.com/arnavsurve/stepcheck/pkg/report"
	"github.com/arnavsurve/stepcheck/pkg/security"
	"github.com/arnavsurve/stepcheck/pkg/types"
	"github.com/google/uuid"

	// Ensure all runner implementations are initialized
	_ "github.com/arnavsurve/stepcheck/pkg/steprunner/runners"
)

type RunCmd struct {
	Scenario  string   `help:"The scenario file. Defaults to the built-in posts scenario." type:"path"`
	Varfile   string   `help:"The YAML varfile for input variables." default:"stepvars.yml"`
	Config    string   `help:"Optional YAML config file for harness settings." type:"path"`
	BaseURL   string   `help:"Base URL of the service under test, used when the varfile does not set base_url." name:"base-url"`
	RunFilter []string `help:"Regex of steps to run (scenario/step). May be repeated." name:"run"`
	Skip      []string `help:"Regex of steps to skip (scenario/step). May be repeated."`
	Secret    []string `help:"Extra values to redact from logs. May be repeated."`
	LogsDir   string   `help:"Directory for JSON run logs." name:"logs-dir"`
	Debug     bool     `help:"Enable debug logging on the console."`
}

func (r *RunCmd) Run(ctx context.Context) error {
	runID := uuid.New().String()

	cfg, err := config.Load(r.Config)
	if err != nil {
		return err
	}
	if r.LogsDir != "" {
		cfg.LogsDir = r.LogsDir
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if r.Debug {
		level = types.DebugLevel
	}

	logRouter, cmdLogger := newConsoleLogger(level)
	logFilePath := filepath.Join(cfg.LogsDir, fmt.Sprintf("%s.json", runID))
	fileSink, err := sinks.NewFileSink(logFilePath)
	if err != nil {
		return fmt.Errorf("creating file log sink: %w", err)
	}
	logRouter.AddSink(fileSink)
	cmdLogger = cmdLogger.With().Str("run_id", runID).Logger()

	cmdLogger.Info().Msgf("Starting scenario run with ID: %s", runID)
	cmdLogger.Debug().Msgf("Logs will be saved to %q", logFilePath)

	// Graceful shutdown of logging sinks
	defer func() {
		if err := logRouter.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during log shutdown: %v\n", err)
		}
	}()

	loadDotenv(cmdLogger)

	sc, scenarioDir, err := loadScenario(r.Scenario, cmdLogger)
	if err != nil {
		return err
	}

	baseURL := r.BaseURL
	if baseURL == "" {
		baseURL = cfg.BaseURL
	}
	varCtx := resolveGlobals(sc, loadVarfile(r.Varfile, cmdLogger), baseURL)

	// Initialize and attach secrets redactor
	logRouter.Redactor = security.NewRedactor(sc.Inputs, varCtx, r.Secret...)

	if err := validateScenario(sc, varCtx, scenarioDir, cmdLogger); err != nil {
		return err
	}
	cmdLogger.Info().Msg("Scenario validation passed")

	filters, err := report.NewRegexFilters(r.RunFilter, r.Skip)
	if err != nil {
		return fmt.Errorf("parsing step filters: %w", err)
	}
	report.PrintFilterDescription(os.Stdout, filters)

	engine := core.NewScenarioEngine(cmdLogger)
	engine.HTTPClient = &http.Client{}
	engine.UserAgent = cfg.UserAgent
	engine.Timeout = cfg.Timeout
	engine.Reporter = &report.ConsoleReporter{
		Out:   os.Stdout,
		Label: func(err error) string { return core.Classify(err).String() },
	}
	if filters.IsDefined() {
		engine.Filter = filters.AsFilter
	}

	cmdLogger.Info().Msgf("Executing scenario: %q", sc.Name)
	_, results, err := engine.ExecuteScenario(ctx, sc, varCtx, scenarioDir)
	if err != nil {
		return err
	}

	report.PrintResults(os.Stdout, results)
	if !results.OK() {
		cmdLogger.Error().Int("failed_steps", len(results.Failures)).Msgf("Scenario %q failed. Logs can be found at %q", sc.Name, logFilePath)
		return fmt.Errorf("%w: %d of %d steps failed", ErrScenarioFailed, len(results.Failures), len(results.Steps))
	}

	cmdLogger.Info().Msgf("Scenario completed successfully. Logs can be found at %q", logFilePath)
	return nil
}

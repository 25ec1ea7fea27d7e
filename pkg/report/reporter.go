package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Reporter receives per-step progress from the scenario engine.
type Reporter interface {
	StepStarted(id StepID)
	StepError(id StepID, err error)
	StepFinished(id StepID, failed bool, elapsed time.Duration)
	StepSkipped(id StepID, reason string)
}

type nullReporter struct{}

func (n nullReporter) StepStarted(StepID)                       {}
func (n nullReporter) StepError(StepID, error)                  {}
func (n nullReporter) StepFinished(StepID, bool, time.Duration) {}
func (n nullReporter) StepSkipped(StepID, string)               {}

func NullReporter() Reporter { return nullReporter{} }

// ErrorLabeler names the kind of a step error for display.
type ErrorLabeler func(err error) string

// ConsoleReporter prints step progress in a human-readable form.
type ConsoleReporter struct {
	Out   io.Writer
	Label ErrorLabeler
}

func (c *ConsoleReporter) StepStarted(id StepID) {
	fmt.Fprintf(c.Out, "[%s]\n", color.CyanString(id.String()))
}

func (c *ConsoleReporter) StepError(id StepID, err error) {
	label := "error"
	if c.Label != nil {
		label = c.Label(err)
	}
	for i, line := range strings.Split(err.Error(), "\n") {
		if i == 0 {
			fmt.Fprintf(c.Out, "  %s: %s\n", color.RedString(label), line)
		} else {
			fmt.Fprintf(c.Out, "    %s\n", line)
		}
	}
}

func (c *ConsoleReporter) StepFinished(id StepID, failed bool, elapsed time.Duration) {
	if failed {
		fmt.Fprintf(c.Out, "  %s: %s (%s)\n", color.New(color.FgRed, color.Bold).Sprint("FAILED"), id, elapsed.Round(time.Millisecond))
	} else {
		fmt.Fprintf(c.Out, "  %s (%s)\n", color.GreenString("ok"), elapsed.Round(time.Millisecond))
	}
}

func (c *ConsoleReporter) StepSkipped(id StepID, reason string) {
	if reason == "" {
		fmt.Fprintf(c.Out, "  %s: %s\n", color.YellowString("SKIPPED"), id)
	} else {
		fmt.Fprintf(c.Out, "  %s: %s (%s)\n", color.YellowString("SKIPPED"), id, reason)
	}
}

// PrintResults writes the end-of-run summary.
func PrintResults(out io.Writer, results Results) {
	passed, failed, skipped := results.Counts()
	fmt.Fprintln(out)
	if results.OK() {
		fmt.Fprintf(out, "%s %d passed, %d skipped\n", color.GreenString("All steps passed:"), passed, skipped)
		return
	}
	fmt.Fprintf(out, "%s %d passed, %d failed, %d skipped\n", color.RedString("Scenario failed:"), passed, failed, skipped)
	for _, err := range results.Errors() {
		fmt.Fprintf(out, "  %s\n", err)
	}
}

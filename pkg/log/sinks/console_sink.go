package sinks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/arnavsurve/stepcheck/pkg/log"
	"github.com/arnavsurve/stepcheck/pkg/types"
	"github.com/fatih/color"
)

type ConsoleSink struct {
	out      io.Writer
	minLevel types.Level
}

func NewConsoleSink(minLevel types.Level) *ConsoleSink {
	return &ConsoleSink{out: os.Stderr, minLevel: minLevel}
}

// NewConsoleSinkWriter is NewConsoleSink writing somewhere other than stderr.
func NewConsoleSinkWriter(out io.Writer, minLevel types.Level) *ConsoleSink {
	return &ConsoleSink{out: out, minLevel: minLevel}
}

func (c *ConsoleSink) MinLevel() types.Level {
	return c.minLevel
}

var levelColorMap = map[types.Level]*color.Color{
	types.DebugLevel: color.New(color.FgCyan),
	types.InfoLevel:  color.New(color.FgGreen),
	types.WarnLevel:  color.New(color.FgYellow),
	types.ErrorLevel: color.New(color.FgRed),
	types.FatalLevel: color.New(color.FgRed, color.Bold),
}

func (c *ConsoleSink) Write(event *log.LogEvent) error {
	stepID := getStringField(event.Fields, "step_id")
	scenario := getStringField(event.Fields, "scenario")
	msg := event.Message
	errorMsg := getStringField(event.Fields, "error")
	levelStr := strings.ToUpper(log.LevelString(event.Level))
	timestampStr := event.Timestamp.Format(time.RFC3339)

	levelFmt := color.New(color.FgWhite).SprintFunc()
	if lc, ok := levelColorMap[event.Level]; ok {
		levelFmt = lc.SprintFunc()
	}

	timestampFmt := color.New(color.FgWhite).SprintFunc()
	stepLabel := "run"
	switch {
	case scenario != "" && stepID != "":
		stepLabel = scenario + "/" + stepID
	case stepID != "":
		stepLabel = stepID
	case scenario != "":
		stepLabel = scenario
	}

	var output string
	commonPrefix := fmt.Sprintf("[%s %s] %s: ",
		levelFmt(levelStr),
		timestampFmt(timestampStr),
		color.CyanString(stepLabel),
	)

	switch {
	case msg != "" && errorMsg != "":
		output = fmt.Sprintf("%s%s: %s", commonPrefix, msg, errorMsg)
	case errorMsg != "":
		output = fmt.Sprintf("%s%s", commonPrefix, errorMsg)
	case msg != "":
		output = fmt.Sprintf("%s%s", commonPrefix, msg)
	default:
		fieldsStr, _ := json.MarshalIndent(event.Fields, "", "  ")
		output = fmt.Sprintf("%s%s", commonPrefix, string(fieldsStr))
	}
	if extra := extraFields(event.Fields); extra != "" {
		output += " " + color.HiBlackString(extra)
	}
	_, err := fmt.Fprintln(c.out, output)
	return err
}

// extraFields renders the fields that are not already part of the prefix.
func extraFields(fields map[string]any) string {
	var parts []string
	for _, k := range sortedFieldNames(fields) {
		switch k {
		case "step_id", "scenario", "step_type", "error", "run_id":
			continue
		}
		v := fields[k]
		if s, ok := v.(string); ok {
			parts = append(parts, k+"="+s)
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			continue
		}
		parts = append(parts, k+"="+string(b))
	}
	return strings.Join(parts, " ")
}

func sortedFieldNames(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Helper to safely get string field from LogEvent.Fields
func getStringField(fields map[string]any, key string) string {
	if val, ok := fields[key]; ok {
		if strVal, isStr := val.(string); isStr {
			return strVal
		}
	}
	return ""
}

func (c *ConsoleSink) Close() error {
	return nil // Console doesn't need closing
}

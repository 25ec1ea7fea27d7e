package core

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/arnavsurve/stepcheck/pkg/types"
)

var lenRe = regexp.MustCompile(`^len\(\s*([a-zA-Z0-9_.-]+)\s*\)$`)

var captureRoots = map[string]bool{"status_code": true, "headers": true, "body": true}

// Capture is a parsed capture expression: a path into the step output,
// optionally wrapped in len() to take the size of an array, map or string.
type Capture struct {
	Path   []string
	Length bool
}

// ParseCapture parses expressions such as "body.id" or "len(body)".
func ParseCapture(expr string) (Capture, error) {
	expr = strings.TrimSpace(expr)
	var c Capture
	if m := lenRe.FindStringSubmatch(expr); m != nil {
		c.Length = true
		expr = m[1]
	}
	if expr == "" {
		return Capture{}, fmt.Errorf("empty capture expression")
	}
	c.Path = strings.Split(expr, ".")
	if !captureRoots[c.Path[0]] {
		return Capture{}, fmt.Errorf("capture %q must start with status_code, headers or body", expr)
	}
	return c, nil
}

func (c Capture) String() string {
	p := strings.Join(c.Path, ".")
	if c.Length {
		return "len(" + p + ")"
	}
	return p
}

// Evaluate extracts the captured value from a step result.
func (c Capture) Evaluate(result types.StepResult) (any, bool) {
	v, found := GetNestedValue(result.OutputMap(), c.Path)
	if !found || v == nil {
		return nil, false
	}
	if !c.Length {
		return v, true
	}
	switch tv := v.(type) {
	case []any:
		return len(tv), true
	case map[string]any:
		return len(tv), true
	case string:
		return len(tv), true
	default:
		return nil, false
	}
}

// ApplyCaptures evaluates the step's captures against its result and returns
// the updated state. Captures apply all or nothing: when any capture cannot be
// evaluated, every failure is reported and the input state is returned as is.
func ApplyCaptures(step Step, result types.StepResult, state RunState) (RunState, []error) {
	next := state
	var errs []error
	for _, name := range sortedCaptureNames(step.Capture) {
		c, err := ParseCapture(step.Capture[name])
		if err != nil {
			errs = append(errs, fmt.Errorf("step %q capture %q: %w", step.ID, name, err))
			continue
		}
		v, ok := c.Evaluate(result)
		if !ok {
			errs = append(errs, &AssertionError{
				Step:     step.ID,
				Check:    "capture " + name,
				Expected: "a value at " + c.String(),
				Actual:   nil,
			})
			continue
		}
		next = next.WithVar(name, v)
	}
	if len(errs) > 0 {
		return state, errs
	}
	return next, nil
}

func sortedCaptureNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

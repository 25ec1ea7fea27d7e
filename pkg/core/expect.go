package core

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/arnavsurve/stepcheck/pkg/types"
)

// EvaluateExpect checks a resolved expectation against a step's output and
// returns one AssertionError per mismatch. The output is the map produced by
// the http runner: status_code, headers and body.
func EvaluateExpect(stepID string, expect *Expect, result types.StepResult) []error {
	if expect == nil {
		return nil
	}
	output := result.OutputMap()
	body := output["body"]

	var errs []error
	fail := func(check string, expected, actual any) {
		errs = append(errs, &AssertionError{Step: stepID, Check: check, Expected: expected, Actual: actual})
	}

	if expect.Status != 0 {
		status, ok := toFloat(output["status_code"])
		if !ok || int(status) != expect.Status {
			fail("status", expect.Status, output["status_code"])
		}
	}

	for _, path := range sortedKeys(expect.Body) {
		compareSubset("body."+path, expect.Body[path], lookup(body, path), fail)
	}

	for _, path := range expect.Exists {
		if v, found := GetNestedValue(body, splitPath(path)); !found || v == nil {
			fail("body."+path, "a defined value", nil)
		}
	}

	if expect.Length != "" {
		want, err := strconv.Atoi(strings.TrimSpace(expect.Length))
		tolerance, tolErr := ParseTolerance(expect.LengthTolerance)
		switch {
		case err != nil:
			fail("length", "an integer length", expect.Length)
		case tolErr != nil:
			fail("length_tolerance", "a non-negative integer", expect.LengthTolerance)
		default:
			if items, ok := body.([]any); !ok {
				fail("length", fmt.Sprintf("array of %d items", want), fmt.Sprintf("%T", body))
			} else if diff := len(items) - want; diff > tolerance || -diff > tolerance {
				if tolerance > 0 {
					fail("length", fmt.Sprintf("%d (±%d)", want, tolerance), len(items))
				} else {
					fail("length", want, len(items))
				}
			}
		}
	}

	return errs
}

// ParseTolerance reads a length tolerance. Empty means zero.
func ParseTolerance(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid length tolerance %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("length tolerance %d must not be negative", n)
	}
	return n, nil
}

func compareSubset(check string, expected, actual any, fail func(string, any, any)) {
	if expMap, ok := expected.(map[string]any); ok {
		actMap, ok := actual.(map[string]any)
		if !ok {
			fail(check, expected, actual)
			return
		}
		for _, key := range sortedKeys(expMap) {
			compareSubset(check+"."+key, expMap[key], actMap[key], fail)
		}
		return
	}
	if !ValuesEqual(expected, actual) {
		fail(check, expected, actual)
	}
}

// ValuesEqual compares a value from a scenario file with one decoded from JSON.
// Numbers compare numerically regardless of their Go type, and a string
// compares equal to a number or bool that renders the same way, since
// templated expectations always resolve to strings.
func ValuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	ef, eNum := toFloat(expected)
	af, aNum := toFloat(actual)
	if eNum && aNum {
		return ef == af
	}

	es, eStr := expected.(string)
	as, aStr := actual.(string)
	switch {
	case eStr && aStr:
		return es == as
	case eStr:
		return es == stringify(actual)
	case aStr:
		return as == stringify(expected)
	}

	switch ev := expected.(type) {
	case bool:
		av, ok := actual.(bool)
		return ok && av == ev
	case []any:
		av, ok := actual.([]any)
		if !ok || len(av) != len(ev) {
			return false
		}
		for i := range ev {
			if !ValuesEqual(ev[i], av[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		av, ok := actual.(map[string]any)
		if !ok || len(av) != len(ev) {
			return false
		}
		for k, v := range ev {
			if !ValuesEqual(v, av[k]) {
				return false
			}
		}
		return true
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func lookup(data any, path string) any {
	v, _ := GetNestedValue(data, splitPath(path))
	return v
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

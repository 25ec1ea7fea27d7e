package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// VarContext holds resolved input variables from stepvars.yml.
type VarContext map[string]string

// varRegex is a package-level compiled regular expression for matching {{ varName }} placeholders.
var varRegex = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9\._-]+)\s*\}\}`)

var envRe = regexp.MustCompile(`^\s*\{\{\s*env\.([A-Za-z0-9_]+)\s*}}\s*$`)

// ResolveVarfile loads a YAML varfile (e.g. stepvars.yml), parses it, and resolves special values.
func ResolveVarfile(path string) (VarContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading varfile %q: %w", path, err)
	}

	var rawVars map[string]string
	if err := yaml.Unmarshal(data, &rawVars); err != nil {
		return nil, fmt.Errorf("parsing varfile YAML from %q: %w", path, err)
	}

	resolvedCtx := make(VarContext, len(rawVars))
	var missing []MissingEnv
	for key, val := range rawVars {
		if envRe.MatchString(val) {
			match := envRe.FindStringSubmatch(val)
			envKey := match[1]
			envVal, exists := os.LookupEnv(envKey)
			if !exists {
				missing = append(missing, MissingEnv{VarKey: key, EnvKey: envKey})
			}
			resolvedCtx[key] = envVal
		} else {
			resolvedCtx[key] = val
		}
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i].VarKey < missing[j].VarKey })
		return resolvedCtx, &MissingEnvError{Path: path, Missing: missing}
	}
	return resolvedCtx, nil
}

// MissingEnv names a varfile key whose {{ env.NAME }} reference is unset.
type MissingEnv struct {
	VarKey string
	EnvKey string
}

// MissingEnvError is returned alongside a fully populated VarContext when
// some environment references were unset. Those keys resolve to "".
type MissingEnvError struct {
	Path    string
	Missing []MissingEnv
}

func (e *MissingEnvError) Error() string {
	names := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		names[i] = m.EnvKey
	}
	return fmt.Sprintf("varfile %q references unset environment variables: %s", e.Path, strings.Join(names, ", "))
}

// ResolveValue recursively resolves variables in strings, maps and slices.
func ResolveValue(value any, resolver func(string) (string, error)) (any, error) {
	switch v := value.(type) {
	case string:
		return resolver(v)
	case map[string]any:
		resolvedMap := make(map[string]any)
		for key, val := range v {
			resolvedVal, err := ResolveValue(val, resolver)
			if err != nil {
				return nil, fmt.Errorf("resolving map key %q: %w", key, err)
			}
			resolvedMap[key] = resolvedVal
		}
		return resolvedMap, nil
	case []any:
		resolvedSlice := make([]any, len(v))
		for i, item := range v {
			resolvedItem, err := ResolveValue(item, resolver)
			if err != nil {
				return nil, fmt.Errorf("resolving slice item at index %d: %w", i, err)
			}
			resolvedSlice[i] = resolvedItem
		}
		return resolvedSlice, nil
	default:
		// For other types (int, bool, etc.), return as is
		return v, nil
	}
}

// ResolveStepVariables takes a single step and resolves all its templated
// fields using the global context and the run state produced by earlier steps.
func ResolveStepVariables(step *Step, globals VarContext, state RunState) (*Step, error) {
	// Deep copy so the scenario definition is never modified.
	var resolvedStep Step
	b, _ := yaml.Marshal(step)
	if err := yaml.Unmarshal(b, &resolvedStep); err != nil {
		return nil, fmt.Errorf("deep copying step for resolution: %w", err)
	}

	var err error
	resolver := func(input string) (string, error) {
		return ResolveStringWithContext(input, globals, state)
	}

	if resolvedStep.Call != nil {
		resolvedStep.Call.Url, err = resolver(resolvedStep.Call.Url)
		if err != nil {
			return nil, fmt.Errorf("resolving call.url for step %q: %w", step.ID, err)
		}
		resolvedStep.Call.Method, err = resolver(resolvedStep.Call.Method)
		if err != nil {
			return nil, fmt.Errorf("resolving call.method for step %q: %w", step.ID, err)
		}

		if resolvedStep.Call.Headers != nil {
			resolvedHeaders := make(map[string]string)
			for k, v := range resolvedStep.Call.Headers {
				resolvedV, errHeader := resolver(v)
				if errHeader != nil {
					return nil, fmt.Errorf("resolving call.headers[%s] for step %q: %w", k, step.ID, errHeader)
				}
				resolvedHeaders[k] = resolvedV
			}
			resolvedStep.Call.Headers = resolvedHeaders
		}

		if resolvedStep.Call.Body != nil {
			resolvedBody, errBody := ResolveValue(resolvedStep.Call.Body, resolver)
			if errBody != nil {
				return nil, fmt.Errorf("resolving call.body for step %q: %w", step.ID, errBody)
			}
			resolvedStep.Call.Body = resolvedBody.(map[string]any)
		}
	}

	if resolvedStep.Expect != nil {
		if resolvedStep.Expect.Body != nil {
			resolvedBody, errBody := ResolveValue(resolvedStep.Expect.Body, resolver)
			if errBody != nil {
				return nil, fmt.Errorf("resolving expect.body for step %q: %w", step.ID, errBody)
			}
			resolvedStep.Expect.Body = resolvedBody.(map[string]any)
		}
		resolvedStep.Expect.Length, err = resolver(resolvedStep.Expect.Length)
		if err != nil {
			return nil, fmt.Errorf("resolving expect.length for step %q: %w", step.ID, err)
		}
		resolvedStep.Expect.LengthTolerance, err = resolver(resolvedStep.Expect.LengthTolerance)
		if err != nil {
			return nil, fmt.Errorf("resolving expect.length_tolerance for step %q: %w", step.ID, err)
		}
		for i := range resolvedStep.Expect.Exists {
			resolvedStep.Expect.Exists[i], err = resolver(resolvedStep.Expect.Exists[i])
			if err != nil {
				return nil, fmt.Errorf("resolving expect.exists[%d] for step %q: %w", i, step.ID, err)
			}
		}
	}

	if resolvedStep.Timeout != "" {
		resolvedStep.Timeout, err = resolver(resolvedStep.Timeout)
		if err != nil {
			return nil, fmt.Errorf("resolving timeout for step %q: %w", step.ID, err)
		}
	}

	return &resolvedStep, nil
}

// ResolveStringWithContext is the core template resolution engine.
func ResolveStringWithContext(input string, globals VarContext, state RunState) (string, error) {
	var firstErr error
	output := varRegex.ReplaceAllStringFunc(input, func(match string) string {
		if firstErr != nil {
			return match // Stop processing if an error has occurred
		}

		key := varRegex.FindStringSubmatch(match)[1]
		val, found := FindValueInContext(key, globals, state)

		if !found {
			firstErr = &UndefinedVariableError{Key: key}
			return match
		}
		return stringify(val)
	})

	if firstErr != nil {
		return "", firstErr
	}
	return output, nil
}

// FindValueInContext orchestrates the lookup for a variable.
func FindValueInContext(key string, globals VarContext, state RunState) (any, bool) {
	wantsJSON := strings.HasSuffix(key, ".json")
	if wantsJSON {
		key = strings.TrimSuffix(key, ".json")
	}

	var value any
	var found bool

	switch {
	case strings.HasPrefix(key, "steps."):
		parts := strings.Split(key, ".")
		if len(parts) < 3 || parts[2] != "output" { // Must be at least `steps.id.output`
			return nil, false
		}
		if result, ok := state.Results[parts[1]]; ok {
			value, found = GetNestedValue(result.Output, parts[3:])
		}
	case strings.HasPrefix(key, "state."):
		parts := strings.Split(key, ".")
		if v, ok := state.Var(parts[1]); ok {
			value, found = GetNestedValue(v, parts[2:])
		}
	default:
		if val, ok := globals[key]; ok {
			value, found = val, true
		}
	}

	if !found {
		return nil, false
	}

	if wantsJSON {
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("{\"error\": \"failed to marshal to json: %v\"}", err), true
		}
		return string(jsonBytes), true
	}

	return value, true
}

// GetNestedValue traverses a data structure (maps and slices) using a path slice.
// Slice elements are addressed by their decimal index.
func GetNestedValue(data any, path []string) (any, bool) {
	if len(path) == 0 {
		return data, true
	}
	if data == nil {
		return nil, false
	}

	current := data
	for _, keyInPath := range path {
		switch typedCurrent := current.(type) {
		case map[string]any:
			if val, exists := typedCurrent[keyInPath]; exists {
				current = val
			} else {
				return nil, false
			}
		case map[string]string:
			if val, exists := typedCurrent[keyInPath]; exists {
				current = val
			} else {
				return nil, false
			}
		case []any:
			idx, err := strconv.Atoi(keyInPath)
			if err != nil || idx < 0 || idx >= len(typedCurrent) {
				return nil, false
			}
			current = typedCurrent[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// StateReferences returns the names of run-state variables a step reads, in
// order of first appearance.
func StateReferences(step Step) []string {
	var texts []string
	if step.Call != nil {
		texts = append(texts, step.Call.Url, step.Call.Method)
		for _, v := range step.Call.Headers {
			texts = append(texts, v)
		}
		texts = append(texts, collectStrings(step.Call.Body)...)
	}
	if step.Expect != nil {
		texts = append(texts, step.Expect.Length, step.Expect.LengthTolerance)
		texts = append(texts, step.Expect.Exists...)
		texts = append(texts, collectStrings(step.Expect.Body)...)
	}
	texts = append(texts, step.Timeout)

	seen := make(map[string]bool)
	var refs []string
	for _, text := range texts {
		for _, match := range varRegex.FindAllStringSubmatch(text, -1) {
			key := strings.TrimSuffix(match[1], ".json")
			if !strings.HasPrefix(key, "state.") {
				continue
			}
			name := strings.Split(key, ".")[1]
			if !seen[name] {
				seen[name] = true
				refs = append(refs, name)
			}
		}
	}
	return refs
}

// InjectVarsIntoScenario is kept for the linter, but it only resolves global variables.
func InjectVarsIntoScenario(sc *Scenario, globalVarCtx VarContext) (*Scenario, error) {
	if sc == nil {
		return nil, fmt.Errorf("injecting vars into nil scenario")
	}

	// Create a deep copy
	var updated Scenario
	buf := new(bytes.Buffer)
	if err := yaml.NewEncoder(buf).Encode(sc); err != nil {
		return nil, err
	}
	if err := yaml.NewDecoder(buf).Decode(&updated); err != nil {
		return nil, err
	}

	resolver := func(input string) string {
		return varRegex.ReplaceAllStringFunc(input, func(match string) string {
			key := varRegex.FindStringSubmatch(match)[1]

			if val, ok := globalVarCtx[key]; ok {
				return val
			}

			return match
		})
	}

	for i, step := range updated.Steps {
		s := step // Work on a copy
		if s.Call != nil {
			s.Call.Url = resolver(s.Call.Url)
			s.Call.Method = resolver(s.Call.Method)
			for k, v := range s.Call.Headers {
				s.Call.Headers[k] = resolver(v)
			}
		}
		s.Timeout = resolver(s.Timeout)
		updated.Steps[i] = s
	}

	return &updated, nil
}

func collectStrings(value any) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case map[string]any:
		var out []string
		for _, item := range v {
			out = append(out, collectStrings(item)...)
		}
		return out
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, collectStrings(item)...)
		}
		return out
	default:
		return nil
	}
}

// stringify renders a value for substitution into a template. Whole JSON
// numbers print without a fractional part so ids round-trip into URLs.
func stringify(v any) string {
	switch tv := v.(type) {
	case float64:
		if tv == float64(int64(tv)) {
			return strconv.FormatInt(int64(tv), 10)
		}
		return strconv.FormatFloat(tv, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", tv)
	}
}

package types

import (
	"net/http"
	"time"
)

// Doer is the HTTP client collaborator used by runners. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ExecutionContext contains the context needed for step execution
type ExecutionContext struct {
	Step           Step
	Scenario       string
	Logger         Logger
	ScenarioDir    string
	HTTPClient     Doer
	UserAgent      string
	DefaultTimeout time.Duration
}

// Step represents a scenario step
type Step struct {
	ID      string            `yaml:"id"`
	Uses    string            `yaml:"uses"`
	Needs   []string          `yaml:"needs,omitempty"`
	After   []string          `yaml:"after,omitempty"` // ordering only; does not require the step to pass
	Call    *HTTPCall         `yaml:"call,omitempty"`
	Expect  *Expect           `yaml:"expect,omitempty"`
	Capture map[string]string `yaml:"capture,omitempty"`
	Timeout string            `yaml:"timeout,omitempty"`
}

// HTTPCall represents an HTTP request
type HTTPCall struct {
	Method  string            `yaml:"method"`
	Url     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Body    map[string]any    `yaml:"body,omitempty"`
}

// Expect holds the assertions evaluated against a step's output.
type Expect struct {
	// Status is the required response status code. Zero means unchecked.
	Status int `yaml:"status,omitempty"`

	// Body is compared as a subset against the response body: every key listed
	// must be present with an equal value, nested maps recurse.
	Body map[string]any `yaml:"body,omitempty"`

	// Exists lists body paths that must be present and non-null.
	Exists []string `yaml:"exists,omitempty"`

	// Length, when set, requires the body to be an array of this many items.
	// It is a string so it can be templated.
	Length string `yaml:"length,omitempty"`

	// LengthTolerance is how far the array length may drift from Length.
	LengthTolerance string `yaml:"length_tolerance,omitempty"`
}

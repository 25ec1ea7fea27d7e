package runners

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/arnavsurve/stepcheck/pkg/security"
	"github.com/arnavsurve/stepcheck/pkg/steprunner"
	"github.com/arnavsurve/stepcheck/pkg/types"
)

const (
	defaultHttpTimeout = 30 * time.Second
	defaultUserAgent   = "Stepcheck-Http-Client/1.0"
	bodyPreviewLimit   = 256
)

type HttpRunner struct {
	StepCtx types.ExecutionContext
}

func init() {
	steprunner.RegisterRunnerFactory("http", func(ctx types.ExecutionContext) (steprunner.StepRunner, error) {
		return &HttpRunner{
			StepCtx: ctx,
		}, nil
	})
}

func (hr *HttpRunner) Validate() error {
	step := hr.StepCtx.Step
	logger := hr.StepCtx.Logger

	if step.Call == nil {
		return fmt.Errorf("http step %q must define 'call'", step.ID)
	}

	if step.Call.Method == "" {
		return fmt.Errorf("http step %q: 'call.method' is required", step.ID)
	}
	validMethods := map[string]bool{
		"GET": true, "POST": true, "PUT": true, "DELETE": true, "PATCH": true, "HEAD": true, "OPTIONS": true,
	}
	if !validMethods[strings.ToUpper(step.Call.Method)] && logger != nil {
		logger.Warn().Str("method", step.Call.Method).Msg("Non-standard HTTP method specified. Proceeding, but ensure server supports it.")
	}

	if step.Call.Url == "" {
		return fmt.Errorf("http step %q: 'call.url' is required", step.ID)
	}

	if step.Timeout != "" && !strings.Contains(step.Timeout, "{{") {
		if _, err := time.ParseDuration(step.Timeout); err != nil {
			return fmt.Errorf("http step %q: invalid 'timeout' %q: %w", step.ID, step.Timeout, err)
		}
	}

	if step.Expect != nil && step.Expect.Status != 0 && (step.Expect.Status < 100 || step.Expect.Status > 599) {
		return fmt.Errorf("http step %q: 'expect.status' %d is not an HTTP status code", step.ID, step.Expect.Status)
	}
	if step.Expect != nil && step.Expect.LengthTolerance != "" && !strings.Contains(step.Expect.LengthTolerance, "{{") {
		n, err := strconv.Atoi(strings.TrimSpace(step.Expect.LengthTolerance))
		if err != nil || n < 0 {
			return fmt.Errorf("http step %q: 'expect.length_tolerance' must be a non-negative integer, got %q", step.ID, step.Expect.LengthTolerance)
		}
	}

	return nil
}

func (hr *HttpRunner) Run(ctx context.Context) (*types.StepResult, error) {
	step := hr.StepCtx.Step
	logger := hr.StepCtx.Logger

	callDetails := step.Call
	method := strings.ToUpper(callDetails.Method)
	url := callDetails.Url

	var reqBody io.Reader
	var reqBodyBytes []byte
	if callDetails.Body != nil && (method == "POST" || method == "PUT" || method == "PATCH") {
		jsonBody, err := json.Marshal(callDetails.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body to JSON: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
		reqBodyBytes = jsonBody
	}

	timeout := hr.StepCtx.DefaultTimeout
	if timeout <= 0 {
		timeout = defaultHttpTimeout
	}
	if step.Timeout != "" {
		parsedDuration, err := time.ParseDuration(step.Timeout)
		if err != nil {
			logger.Warn().Err(err).Str("timeout", step.Timeout).Msg("Failed to parse timeout duration, using default")
		} else {
			timeout = parsedDuration
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}

	hasContentType := false
	for key, value := range callDetails.Headers {
		req.Header.Set(key, value)
		if strings.ToLower(key) == "content-type" {
			hasContentType = true
		}
	}
	if reqBody != nil && !hasContentType {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	userAgent := hr.StepCtx.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)

	curl := curlCommand(method, url, req.Header, reqBodyBytes)

	logger.Info().
		Str("method", method).
		Str("url", url).
		Interface("headers", security.MaskHeaders(callDetails.Headers)).
		Msg("Making HTTP request")
	if len(reqBodyBytes) > 0 {
		logger.Debug().Str("body_preview", preview(reqBodyBytes)).Msg("Request body")
	}
	logger.Debug().Str("curl", curl).Msg("Equivalent command")

	client := hr.StepCtx.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	logger.Info().
		Int("status_code", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Received HTTP response")
	if len(respBodyBytes) > 0 {
		logger.Debug().Str("body_preview", preview(respBodyBytes)).Msg("Response body")
	}

	output := make(map[string]any)
	output["status_code"] = resp.StatusCode

	respHeaders := make(map[string]any)
	for k, v := range resp.Header {
		respHeaders[k] = strings.Join(v, ", ")
	}
	output["headers"] = respHeaders
	output["body"] = decodeBody(respBodyBytes, logger)
	output["request"] = map[string]any{
		"method": method,
		"url":    url,
		"curl":   curl,
	}

	return &types.StepResult{Output: output}, nil
}

// decodeBody returns parsed JSON when possible, otherwise the body as a UTF-8
// string, otherwise base64. An empty body decodes to nil.
func decodeBody(data []byte, logger types.Logger) any {
	if len(data) == 0 {
		return nil
	}
	var parsed any
	if err := json.Unmarshal(data, &parsed); err == nil {
		return parsed
	}
	if utf8Str := string(data); strings.ToValidUTF8(utf8Str, "") == utf8Str {
		return utf8Str
	}
	logger.Warn().
		Int("body_size_bytes", len(data)).
		Msg("Response body was not valid JSON nor UTF-8 string, storing as base64.")
	return base64.StdEncoding.EncodeToString(data)
}

func preview(data []byte) string {
	s := string(data)
	if len(s) > bodyPreviewLimit {
		s = s[:bodyPreviewLimit] + "..."
	}
	return s
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}

// curlCommand renders a shell command that reproduces the request, with
// sensitive header values masked.
func curlCommand(method, url string, headers http.Header, body []byte) string {
	var b commandBuilder
	b.add("curl", "-sS", "-X", method)
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := strings.Join(headers[name], ", ")
		if security.IsSensitiveHeader(name) {
			value = security.Mask
		}
		b.add("-H", name+": "+value)
	}
	if len(body) > 0 {
		b.add("--data", string(body))
	}
	b.add(url)
	return b.String()
}

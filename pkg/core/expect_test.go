package core_test

import (
	"errors"
	"testing"

	"github.com/arnavsurve/stepcheck/pkg/core"
	"github.com/arnavsurve/stepcheck/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func httpResult(status int, body any) types.StepResult {
	return types.StepResult{Output: map[string]any{
		"status_code": status,
		"headers":     map[string]any{"Content-Type": "application/json"},
		"body":        body,
	}}
}

func createdPost() map[string]any {
	return map[string]any{
		"id":     float64(101),
		"title":  "foo",
		"body":   "bar",
		"userId": float64(1),
	}
}

func checks(errs []error) []string {
	var out []string
	for _, err := range errs {
		var ae *core.AssertionError
		if errors.As(err, &ae) {
			out = append(out, ae.Check)
		}
	}
	return out
}

func TestEvaluateExpect(t *testing.T) {
	list := []any{createdPost(), createdPost(), createdPost()}

	testCases := []struct {
		name       string
		expect     *core.Expect
		result     types.StepResult
		wantChecks []string
	}{
		{
			name:   "nil expectation passes",
			expect: nil,
			result: httpResult(500, nil),
		},
		{
			name: "created post matches",
			expect: &core.Expect{
				Status: 201,
				Body:   map[string]any{"title": "foo", "body": "bar", "userId": 1},
				Exists: []string{"id"},
			},
			result: httpResult(201, createdPost()),
		},
		{
			name:       "status mismatch",
			expect:     &core.Expect{Status: 200},
			result:     httpResult(404, map[string]any{}),
			wantChecks: []string{"status"},
		},
		{
			name:       "every body mismatch is reported",
			expect:     &core.Expect{Body: map[string]any{"title": "foo updated", "userId": 2}},
			result:     httpResult(200, createdPost()),
			wantChecks: []string{"body.title", "body.userId"},
		},
		{
			name:   "templated id string equals numeric id",
			expect: &core.Expect{Body: map[string]any{"id": "101"}},
			result: httpResult(200, createdPost()),
		},
		{
			name:       "missing exists path",
			expect:     &core.Expect{Exists: []string{"id", "author.name"}},
			result:     httpResult(200, createdPost()),
			wantChecks: []string{"body.author.name"},
		},
		{
			name:       "empty body on not found",
			expect:     &core.Expect{Status: 200, Body: map[string]any{"title": "foo"}},
			result:     httpResult(404, map[string]any{}),
			wantChecks: []string{"status", "body.title"},
		},
		{
			name:   "nested subset",
			expect: &core.Expect{Body: map[string]any{"meta": map[string]any{"page": 1}}},
			result: httpResult(200, map[string]any{"meta": map[string]any{"page": float64(1), "size": float64(10)}}),
		},
		{
			name:   "length matches",
			expect: &core.Expect{Length: "3"},
			result: httpResult(200, list),
		},
		{
			name:       "length differs",
			expect:     &core.Expect{Length: "2"},
			result:     httpResult(200, list),
			wantChecks: []string{"length"},
		},
		{
			name:   "length within tolerance",
			expect: &core.Expect{Length: "2", LengthTolerance: "1"},
			result: httpResult(200, list),
		},
		{
			name:       "length outside tolerance",
			expect:     &core.Expect{Length: "5", LengthTolerance: "1"},
			result:     httpResult(200, list),
			wantChecks: []string{"length"},
		},
		{
			name:       "length of non array",
			expect:     &core.Expect{Length: "1"},
			result:     httpResult(200, createdPost()),
			wantChecks: []string{"length"},
		},
		{
			name:       "bad tolerance",
			expect:     &core.Expect{Length: "3", LengthTolerance: "-1"},
			result:     httpResult(200, list),
			wantChecks: []string{"length_tolerance"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			errs := core.EvaluateExpect("step", tc.expect, tc.result)
			assert.Equal(t, tc.wantChecks, checks(errs))
			assert.Len(t, errs, len(tc.wantChecks))
		})
	}
}

func TestEvaluateExpect_ErrorCarriesValues(t *testing.T) {
	errs := core.EvaluateExpect("verify_patched", &core.Expect{Body: map[string]any{"title": "foo updated"}}, httpResult(200, createdPost()))
	require.Len(t, errs, 1)

	var ae *core.AssertionError
	require.True(t, errors.As(errs[0], &ae))
	assert.Equal(t, "verify_patched", ae.Step)
	assert.Equal(t, "foo updated", ae.Expected)
	assert.Equal(t, "foo", ae.Actual)
	assert.Equal(t, `step "verify_patched": body.title: expected "foo updated", got "foo"`, ae.Error())
}

func TestValuesEqual(t *testing.T) {
	testCases := []struct {
		name     string
		expected any
		actual   any
		equal    bool
	}{
		{"int and float", 1, float64(1), true},
		{"string and float", "101", float64(101), true},
		{"string and bool", "true", true, true},
		{"different strings", "foo", "bar", false},
		{"nil and value", nil, "x", false},
		{"both nil", nil, nil, true},
		{"bools", false, false, true},
		{"lists", []any{1, "a"}, []any{float64(1), "a"}, true},
		{"lists of different length", []any{1}, []any{float64(1), "a"}, false},
		{"maps", map[string]any{"a": 1}, map[string]any{"a": float64(1)}, true},
		{"number and map", 1, map[string]any{}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.equal, core.ValuesEqual(tc.expected, tc.actual))
		})
	}
}

func TestParseTolerance(t *testing.T) {
	n, err := core.ParseTolerance("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = core.ParseTolerance(" 3 ")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = core.ParseTolerance("-2")
	assert.Error(t, err)
	_, err = core.ParseTolerance("many")
	assert.Error(t, err)
}

package core_test

import (
	"path/filepath"
	"testing"

	"github.com/arnavsurve/stepcheck/pkg/core"
	"github.com/arnavsurve/stepcheck/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenarioFixture(t *testing.T) {
	file := "test_fixtures/simple_scenario.yml"
	ctx := core.VarContext{"base_url": "http://localhost:8080"}

	sc, err := core.LoadScenarioFromFile(file)
	require.NoError(t, err)
	assert.Equal(t, "simple", sc.Name)
	require.Len(t, sc.Inputs, 2)
	assert.True(t, sc.Inputs[1].Secret)

	injected, err := core.InjectVarsIntoScenario(sc, core.ApplyInputDefaults(sc, ctx))
	require.NoError(t, err)

	require.Len(t, injected.Steps, 2)
	assert.Equal(t, "http://localhost:8080/items", injected.Steps[0].Call.Url)
	assert.Equal(t, "Bearer local-token", injected.Steps[0].Call.Headers["Authorization"])
	// Run-state references survive global injection.
	assert.Equal(t, "http://localhost:8080/items/{{ state.itemId }}", injected.Steps[1].Call.Url)
	assert.Equal(t, []string{"create"}, injected.Steps[1].Needs)
	assert.Equal(t, "body.id", injected.Steps[0].Capture["itemId"])

	// The loaded scenario is not modified.
	assert.Equal(t, "{{ base_url }}/items", sc.Steps[0].Call.Url)

	require.NoError(t, core.ValidateStateReferences(sc))
	require.NoError(t, core.ValidateRequiredInputs(sc, ctx))
}

func TestLoadBrokenScenarioFixture(t *testing.T) {
	file := "test_fixtures/broken_scenario.yml"

	sc, err := core.LoadScenarioFromFile(file)
	require.NoError(t, err)

	scenarioAbsPath, err := filepath.Abs(file)
	require.NoError(t, err)

	err = core.ValidateScenarioRunners(sc, filepath.Dir(scenarioAbsPath), log.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must define 'call'")
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := core.LoadScenarioFromFile("test_fixtures/missing.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading scenario file")
}

func TestParseScenarioRejectsInvalidDocuments(t *testing.T) {
	testCases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			yaml:    "name: [",
			wantErr: "parsing scenario YAML",
		},
		{
			name:    "missing name",
			yaml:    "steps:\n  - id: a\n    uses: fake\n",
			wantErr: "missing 'name'",
		},
		{
			name:    "no steps",
			yaml:    "name: empty\n",
			wantErr: "has no steps",
		},
		{
			name:    "duplicate step id",
			yaml:    "name: dup\nsteps:\n  - id: a\n    uses: fake\n  - id: a\n    uses: fake\n",
			wantErr: `duplicate step id: "a"`,
		},
		{
			name:    "missing uses",
			yaml:    "name: nouses\nsteps:\n  - id: a\n",
			wantErr: `step "a" is missing 'uses'`,
		},
		{
			name:    "bad input type",
			yaml:    "name: badinput\ninputs:\n  - name: x\n    type: list\nsteps:\n  - id: a\n    uses: fake\n",
			wantErr: `input "x" has invalid type "list"`,
		},
		{
			name:    "unknown need",
			yaml:    "name: unknown\nsteps:\n  - id: a\n    uses: fake\n    needs: [ghost]\n",
			wantErr: `needs unknown step "ghost"`,
		},
		{
			name:    "unknown after",
			yaml:    "name: unknown\nsteps:\n  - id: a\n    uses: fake\n    after: [ghost]\n",
			wantErr: `runs after unknown step "ghost"`,
		},
		{
			name:    "bad capture",
			yaml:    "name: cap\nsteps:\n  - id: a\n    uses: fake\n    capture:\n      x: response.id\n",
			wantErr: "must start with status_code, headers or body",
		},
		{
			name:    "cycle",
			yaml:    "name: cycle\nsteps:\n  - id: a\n    uses: fake\n    needs: [b]\n  - id: b\n    uses: fake\n    needs: [a]\n",
			wantErr: "dependency cycle",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := core.ParseScenario([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

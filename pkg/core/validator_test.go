package core_test

import (
	"testing"

	"github.com/arnavsurve/stepcheck/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getStep(id, url string, needs ...string) core.Step {
	return core.Step{ID: id, Uses: "fake", Needs: needs, Call: &core.HTTPCall{Method: "GET", Url: url}}
}

func TestValidateStateReferences(t *testing.T) {
	create := getStep("create", "/posts")
	create.Capture = map[string]string{"activeResourceId": "body.id"}

	t.Run("reads after capture", func(t *testing.T) {
		sc := scenarioOf(create, getStep("read", "/posts/{{ state.activeResourceId }}", "create"))
		assert.NoError(t, core.ValidateStateReferences(sc))
	})

	t.Run("read ordered before the capture", func(t *testing.T) {
		sc := scenarioOf(getStep("read", "/posts/{{ state.activeResourceId }}"), create)
		err := core.ValidateStateReferences(sc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `step "read" reads state.activeResourceId before step "create" captures it`)
	})

	t.Run("needs fixes the order", func(t *testing.T) {
		sc := scenarioOf(getStep("read", "/posts/{{ state.activeResourceId }}", "create"), create)
		assert.NoError(t, core.ValidateStateReferences(sc))
	})

	t.Run("never captured", func(t *testing.T) {
		sc := scenarioOf(getStep("read", "/posts/{{ state.nothing }}"))
		assert.ErrorContains(t, core.ValidateStateReferences(sc), "which no step captures")
	})

	t.Run("expectations count as reads", func(t *testing.T) {
		check := getStep("check", "/posts")
		check.Expect = &core.Expect{Length: "{{ state.baselineCount }}"}
		list := getStep("list", "/posts")
		list.Capture = map[string]string{"baselineCount": "len(body)"}
		assert.Error(t, core.ValidateStateReferences(scenarioOf(check, list)))
		assert.NoError(t, core.ValidateStateReferences(scenarioOf(list, check)))
	})
}

func TestValidateRequiredInputs(t *testing.T) {
	sc := &core.Scenario{
		Name: "inputs",
		Inputs: []core.Input{
			{Name: "base_url", Type: "string", Required: true},
			{Name: "token", Type: "string", Required: true, Default: "dev"},
			{Name: "optional", Type: "string"},
		},
	}

	assert.NoError(t, core.ValidateRequiredInputs(sc, core.VarContext{"base_url": "http://x"}))

	err := core.ValidateRequiredInputs(sc, core.VarContext{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required input "base_url"`)
}

func TestApplyInputDefaults(t *testing.T) {
	sc := &core.Scenario{
		Name: "defaults",
		Inputs: []core.Input{
			{Name: "base_url", Type: "string", Default: "https://jsonplaceholder.typicode.com"},
			{Name: "integrity_tolerance", Type: "number", Default: "0"},
			{Name: "no_default", Type: "string"},
		},
	}
	given := core.VarContext{"base_url": "http://localhost:8080"}

	got := core.ApplyInputDefaults(sc, given)

	assert.Equal(t, core.VarContext{
		"base_url":            "http://localhost:8080",
		"integrity_tolerance": "0",
	}, got)
	assert.Len(t, given, 1, "input context must not be modified")
}

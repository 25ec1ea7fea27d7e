package core_test

import (
	"testing"

	"github.com/arnavsurve/stepcheck/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioOf(steps ...core.Step) *core.Scenario {
	for i := range steps {
		if steps[i].Uses == "" {
			steps[i].Uses = "fake"
		}
	}
	return &core.Scenario{Name: "test", Steps: steps}
}

func ids(steps []core.Step) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.ID)
	}
	return out
}

func TestExecutionOrder(t *testing.T) {
	testCases := []struct {
		name     string
		scenario *core.Scenario
		expected []string
	}{
		{
			name: "no needs keeps file order",
			scenario: scenarioOf(
				core.Step{ID: "a"}, core.Step{ID: "b"}, core.Step{ID: "c"},
			),
			expected: []string{"a", "b", "c"},
		},
		{
			name: "verify listed before the patch it needs",
			scenario: scenarioOf(
				core.Step{ID: "list"},
				core.Step{ID: "create"},
				core.Step{ID: "verify", Needs: []string{"patch"}},
				core.Step{ID: "patch", Needs: []string{"create"}},
				core.Step{ID: "delete", Needs: []string{"create"}},
			),
			expected: []string{"list", "create", "patch", "verify", "delete"},
		},
		{
			name: "diamond",
			scenario: scenarioOf(
				core.Step{ID: "d", Needs: []string{"b", "c"}},
				core.Step{ID: "c", Needs: []string{"a"}},
				core.Step{ID: "b", Needs: []string{"a"}},
				core.Step{ID: "a"},
			),
			expected: []string{"a", "c", "b", "d"},
		},
		{
			name: "after moves a step behind one it does not need",
			scenario: scenarioOf(
				core.Step{ID: "list"},
				core.Step{ID: "integrity", Needs: []string{"list"}, After: []string{"verify_deleted"}},
				core.Step{ID: "create"},
				core.Step{ID: "delete", Needs: []string{"create"}},
				core.Step{ID: "verify_deleted", Needs: []string{"delete"}},
			),
			expected: []string{"list", "create", "delete", "verify_deleted", "integrity"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ordered, err := core.ExecutionOrder(tc.scenario)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ids(ordered))
		})
	}
}

func TestExecutionOrderErrors(t *testing.T) {
	_, err := core.ExecutionOrder(scenarioOf(core.Step{ID: "a", Needs: []string{"a"}}))
	assert.ErrorContains(t, err, `step "a" needs itself`)

	_, err = core.ExecutionOrder(scenarioOf(core.Step{ID: "a", Needs: []string{"zzz"}}))
	assert.ErrorContains(t, err, `needs unknown step "zzz"`)

	_, err = core.ExecutionOrder(scenarioOf(
		core.Step{ID: "a"},
		core.Step{ID: "b", Needs: []string{"c"}},
		core.Step{ID: "c", Needs: []string{"b"}},
	))
	assert.ErrorContains(t, err, `dependency cycle: "b", "c"`)

	_, err = core.ExecutionOrder(scenarioOf(core.Step{ID: "a", After: []string{"ghost"}}))
	assert.ErrorContains(t, err, `runs after unknown step "ghost"`)

	_, err = core.ExecutionOrder(scenarioOf(
		core.Step{ID: "a", After: []string{"b"}},
		core.Step{ID: "b", Needs: []string{"a"}},
	))
	assert.ErrorContains(t, err, "dependency cycle")
}

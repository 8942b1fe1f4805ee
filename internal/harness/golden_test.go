package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"owner_page", "letter_index", "macros"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSnapshot_CanonicalMap(t *testing.T) {
	s := Snapshot{ScenarioName: "x", Outputs: []string{"a"}}
	m := s.toCanonicalMap()
	assert.Equal(t, "x", m["scenario_name"])
	assert.Equal(t, []string{"a"}, m["outputs"])
	assert.NotContains(t, m, "request_id")

	s.RequestID = "r"
	assert.Equal(t, "r", s.toCanonicalMap()["request_id"])
}

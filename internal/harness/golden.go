package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/catsite/internal/ir"
)

// Snapshot captures the outputs of a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type Snapshot struct {
	ScenarioName string   `json:"scenario_name"`
	RequestID    string   `json:"request_id,omitempty"`
	Outputs      []string `json:"outputs"`
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON serialization.
func (s *Snapshot) toCanonicalMap() map[string]any {
	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"outputs":       s.Outputs,
	}
	if s.RequestID != "" {
		result["request_id"] = s.RequestID
	}
	return result
}

// RunWithGolden executes a scenario and compares its outputs against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result for further checks, or an error if the scenario could
// not be executed. A golden mismatch fails t.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshot := Snapshot{
		ScenarioName: scenario.Name,
		RequestID:    scenario.RequestID,
		Outputs:      result.Outputs,
	}
	if err := assertSnapshot(t, scenario.Name, snapshot); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's outputs against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()
	return assertSnapshot(t, scenarioName, Snapshot{ScenarioName: scenarioName, Outputs: result.Outputs})
}

func assertSnapshot(t *testing.T, name string, s Snapshot) error {
	t.Helper()

	data, err := ir.MarshalCanonical(s.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

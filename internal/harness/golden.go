package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the JSON shape compared against golden files. Map keys
// marshal in sorted order, so serialization is deterministic.
type TraceSnapshot struct {
	ScenarioName  string            `json:"scenario_name"`
	Trace         []TraceEvent      `json:"trace"`
	FinalBalances map[string]string `json:"final_balances"`
}

// RunWithGolden executes a scenario, checks its expectations, and compares
// the trace against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	if failures := CheckScenario(scenario, result); len(failures) > 0 {
		return fmt.Errorf("scenario %s failed:\n%s", scenario.Name, joinLines(failures))
	}

	snapshot := TraceSnapshot{
		ScenarioName:  scenario.Name,
		Trace:         result.Trace,
		FinalBalances: result.Balances,
	}
	traceJSON, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	traceJSON = append(traceJSON, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return nil
}

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		out += "  " + l + "\n"
	}
	return out
}

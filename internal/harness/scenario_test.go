package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	path := writeScenario(t, `
name: sample
description: a sample scenario
accounts:
  - owner: alice
    balance: "100"
flow:
  - op: deposit
    account: alice
    amount: "10"
final_balances:
  alice: "110.00"
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "sample", s.Name)
	require.Len(t, s.Flow, 1)
	assert.Equal(t, OutcomeOK, s.Flow[0].expected(), "expect defaults to ok")
}

func TestLoadScenarioRejectsUnknownFields(t *testing.T) {
	path := writeScenario(t, `
name: sample
description: a sample scenario
accounts:
  - owner: alice
    balance: "100"
flows:
  - op: deposit
    account: alice
    amount: "10"
`)

	_, err := LoadScenario(path)
	require.Error(t, err, "typo'd field names must be rejected")
}

func TestLoadScenarioValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			"missing name",
			`
description: d
accounts:
  - owner: alice
    balance: "1"
flow:
  - op: deposit
    account: alice
    amount: "1"
`,
		},
		{
			"no accounts",
			`
name: n
description: d
flow:
  - op: deposit
    account: alice
    amount: "1"
`,
		},
		{
			"empty flow",
			`
name: n
description: d
accounts:
  - owner: alice
    balance: "1"
`,
		},
		{
			"transfer without to",
			`
name: n
description: d
accounts:
  - owner: alice
    balance: "1"
flow:
  - op: transfer
    from: alice
    amount: "1"
`,
		},
		{
			"unknown op",
			`
name: n
description: d
accounts:
  - owner: alice
    balance: "1"
flow:
  - op: teleport
    account: alice
    amount: "1"
`,
		},
		{
			"unknown expect",
			`
name: n
description: d
accounts:
  - owner: alice
    balance: "1"
flow:
  - op: deposit
    account: alice
    amount: "1"
    expect: maybe
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, tt.content)
			_, err := LoadScenario(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

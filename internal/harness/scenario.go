package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: initial accounts, a flow of
// ledger operations with expected outcomes, and final balance assertions.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Accounts lists the initial accounts (owner and starting balance).
	Accounts []AccountSpec `yaml:"accounts"`

	// Flow contains the operations to execute, in order.
	Flow []Step `yaml:"flow"`

	// FinalBalances maps owner to the expected balance after the flow.
	// Subset match: owners not listed are not checked.
	FinalBalances map[string]string `yaml:"final_balances"`
}

// AccountSpec is an initial account.
type AccountSpec struct {
	Owner   string `yaml:"owner"`
	Balance string `yaml:"balance"`
}

// Step is one operation in the flow.
type Step struct {
	// Op is one of "deposit", "withdraw", "transfer".
	Op string `yaml:"op"`

	// Account is the target owner for deposit/withdraw.
	Account string `yaml:"account,omitempty"`

	// From and To are the owners for transfer.
	From string `yaml:"from,omitempty"`
	To   string `yaml:"to,omitempty"`

	// Amount is the operation amount as a decimal string.
	Amount string `yaml:"amount"`

	// Expect is the expected outcome. Defaults to "ok".
	Expect string `yaml:"expect,omitempty"`
}

// Outcome constants for Step.Expect and TraceEvent.Outcome.
const (
	OutcomeOK                = "ok"
	OutcomeInsufficientFunds = "insufficient_funds"
	OutcomeSelfTransfer      = "self_transfer"
	OutcomeRecipientNotFound = "recipient_not_found"
	OutcomeNotFound          = "not_found"
	OutcomeValidation        = "validation"
	OutcomeArchived          = "archived"
)

var validOutcomes = map[string]bool{
	OutcomeOK:                true,
	OutcomeInsufficientFunds: true,
	OutcomeSelfTransfer:      true,
	OutcomeRecipientNotFound: true,
	OutcomeNotFound:          true,
	OutcomeValidation:        true,
	OutcomeArchived:          true,
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}

	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Accounts) == 0 {
		return fmt.Errorf("accounts list is required and must be non-empty")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, acc := range s.Accounts {
		if acc.Owner == "" {
			return fmt.Errorf("accounts[%d]: owner is required", i)
		}
		if acc.Balance == "" {
			return fmt.Errorf("accounts[%d]: balance is required", i)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step *Step) error {
	if step.Amount == "" {
		return fmt.Errorf("flow[%d]: amount is required", index)
	}
	if step.Expect != "" && !validOutcomes[step.Expect] {
		return fmt.Errorf("flow[%d]: unknown expect %q", index, step.Expect)
	}

	switch step.Op {
	case "deposit", "withdraw":
		if step.Account == "" {
			return fmt.Errorf("flow[%d]: account is required for %s", index, step.Op)
		}
	case "transfer":
		if step.From == "" || step.To == "" {
			return fmt.Errorf("flow[%d]: from and to are required for transfer", index)
		}
	case "":
		return fmt.Errorf("flow[%d]: op is required", index)
	default:
		return fmt.Errorf("flow[%d]: unknown op %q", index, step.Op)
	}

	return nil
}

// expected returns the step's expected outcome, defaulting to OK.
func (s *Step) expected() string {
	if s.Expect == "" {
		return OutcomeOK
	}
	return s.Expect
}

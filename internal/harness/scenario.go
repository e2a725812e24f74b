package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a storefront scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Persisted seeds durable storage before the store is created.
	// Keys are storage keys.
	Persisted map[string]interface{} `yaml:"persisted,omitempty"`

	// Setup actions run before the flow. Each must apply.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow is the traced list of actions.
	Flow []Step `yaml:"flow"`

	// Assertions validate the trace, final state and storage.
	Assertions []Assertion `yaml:"assertions"`
}

// Step dispatches one wire action.
type Step struct {
	// Dispatch is the wire action, usually {type: ..., payload: ...}.
	// Any YAML value is accepted so malformed actions can be expressed.
	Dispatch interface{} `yaml:"dispatch"`

	// Expect is the required outcome: applied, dropped or malformed.
	// Empty means no check.
	Expect string `yaml:"expect,omitempty"`
}

// Assertion validates the result of a run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Action is the action type (trace_contains, trace_count).
	Action string `yaml:"action,omitempty"`

	// Payload maps gjson paths within the payload to expected values
	// (trace_contains). Subset match.
	Payload map[string]interface{} `yaml:"payload,omitempty"`

	// Outcome filters steps by outcome (trace_contains, trace_count).
	Outcome string `yaml:"outcome,omitempty"`

	// Actions is the expected first-appearance order (trace_order).
	Actions []string `yaml:"actions,omitempty"`

	// Count is the expected number (trace_count, notifications).
	Count int `yaml:"count,omitempty"`

	// Key is the storage key (persisted). Defaults to the cart key.
	Key string `yaml:"key,omitempty"`

	// Path is a gjson path (final_state, persisted).
	Path string `yaml:"path,omitempty"`

	// Equals is the expected value at Path. Omitted means JSON null.
	Equals interface{} `yaml:"equals,omitempty"`

	// Absent asserts that Path does not exist.
	Absent bool `yaml:"absent,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertPersisted     = "persisted"
	AssertNotifications = "notifications"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if step.Dispatch == nil {
			return fmt.Errorf("setup[%d]: dispatch is required", i)
		}
		if step.Expect != "" {
			return fmt.Errorf("setup[%d]: expect is not allowed in setup", i)
		}
	}

	for i, step := range s.Flow {
		if step.Dispatch == nil {
			return fmt.Errorf("flow[%d]: dispatch is required", i)
		}
		if step.Expect != "" && !isOutcome(step.Expect) {
			return fmt.Errorf("flow[%d]: unknown outcome %q", i, step.Expect)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Outcome != "" && !isOutcome(a.Outcome) {
		return fmt.Errorf("assertions[%d]: unknown outcome %q", index, a.Outcome)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" && a.Outcome == "" {
			return fmt.Errorf("assertions[%d]: action or outcome is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState, AssertPersisted:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for %s", index, a.Type)
		}
		if a.Absent && a.Equals != nil {
			return fmt.Errorf("assertions[%d]: absent and equals are mutually exclusive", index)
		}
	case AssertNotifications:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for notifications", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func isOutcome(s string) bool {
	switch s {
	case OutcomeApplied, OutcomeDropped, OutcomeMalformed:
		return true
	}
	return false
}

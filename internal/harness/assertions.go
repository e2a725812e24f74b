package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/roach88/storefront/internal/model"
	"github.com/roach88/storefront/internal/storage"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s\n", event.Seq, event.Type, event.Outcome, event.Payload)
		}
	}

	return buf.String()
}

// matches reports whether event satisfies the action and outcome filters.
func matches(event TraceEvent, action, outcome string) bool {
	if action != "" && event.Type != action {
		return false
	}
	return outcome == "" || event.Outcome == outcome
}

// assertTraceContains checks for a step with the action type and a
// payload containing every expected path.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if matches(event, assertion.Action, assertion.Outcome) && matchPayload(event.Payload, assertion.Payload) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("action %s with payload %v", assertion.Action, formatMap(assertion.Payload)),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that action types first appear in the given
// order. Intervening steps are allowed.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if _, seen := positions[event.Type]; !seen {
			positions[event.Type] = i + 1
		}
	}

	for _, action := range assertion.Actions {
		if positions[action] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all actions present: %v", assertion.Actions),
				Actual:   fmt.Sprintf("missing action: %s", action),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Actions); i++ {
		prev := assertion.Actions[i-1]
		curr := assertion.Actions[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("actions in order: %v", assertion.Actions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks the number of steps matching action and outcome.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if matches(event, assertion.Action, assertion.Outcome) {
			count++
		}
	}

	if count != assertion.Count {
		what := assertion.Action
		if assertion.Outcome != "" {
			what = strings.TrimSpace(what + " " + assertion.Outcome)
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, what),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertFinalState evaluates the assertion path against the final state.
func assertFinalState(st model.State, assertion Assertion) error {
	doc, err := model.MarshalCanonical(st)
	if err != nil {
		return fmt.Errorf("final_state: %w", err)
	}
	return assertPath(AssertFinalState, string(doc), assertion)
}

// assertPersisted evaluates the assertion path against a stored value.
func assertPersisted(ctx context.Context, kv storage.KV, assertion Assertion) error {
	key := assertion.Key
	if key == "" {
		key = storage.CartKey
	}

	doc, ok, err := kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("persisted: read %q: %w", key, err)
	}
	if !ok {
		return &AssertionError{
			Type:     AssertPersisted,
			Expected: fmt.Sprintf("value stored under %q", key),
			Actual:   "key not found",
		}
	}
	if !gjson.Valid(doc) {
		return &AssertionError{
			Type:     AssertPersisted,
			Expected: fmt.Sprintf("JSON stored under %q", key),
			Actual:   fmt.Sprintf("invalid JSON %q", doc),
		}
	}
	return assertPath(AssertPersisted, doc, assertion)
}

// assertPath compares the value at assertion.Path in doc.
func assertPath(typ, doc string, assertion Assertion) error {
	got := gjson.Get(doc, assertion.Path)

	if assertion.Absent {
		if got.Exists() {
			return &AssertionError{
				Type:     typ,
				Expected: fmt.Sprintf("%s to be absent", assertion.Path),
				Actual:   got.Raw,
			}
		}
		return nil
	}

	if !got.Exists() {
		return &AssertionError{
			Type:     typ,
			Expected: fmt.Sprintf("%s = %v", assertion.Path, formatValue(assertion.Equals)),
			Actual:   "path not found",
		}
	}
	if !jsonEqual(assertion.Equals, got) {
		return &AssertionError{
			Type:     typ,
			Expected: fmt.Sprintf("%s = %v", assertion.Path, formatValue(assertion.Equals)),
			Actual:   fmt.Sprintf("%s = %s", assertion.Path, got.Raw),
		}
	}
	return nil
}

// assertNotifications checks the number of change notifications.
func assertNotifications(result *Result, assertion Assertion) error {
	if result.Notifications != assertion.Count {
		return &AssertionError{
			Type:     AssertNotifications,
			Expected: fmt.Sprintf("%d notifications", assertion.Count),
			Actual:   fmt.Sprintf("%d notifications", result.Notifications),
			Trace:    result.Trace,
		}
	}
	return nil
}

// matchPayload checks that every expected gjson path exists in payload
// with an equal value (subset match).
func matchPayload(payload json.RawMessage, expected map[string]interface{}) bool {
	if len(expected) == 0 {
		return true
	}
	if len(payload) == 0 {
		return false
	}

	for path, want := range expected {
		got := gjson.GetBytes(payload, path)
		if !got.Exists() || !jsonEqual(want, got) {
			return false
		}
	}
	return true
}

// jsonEqual compares a YAML-decoded value with a gjson result by their
// JSON meaning, so 2 and 2.0 are equal and map key order is irrelevant.
func jsonEqual(want interface{}, got gjson.Result) bool {
	data, err := json.Marshal(want)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(gjson.ParseBytes(data).Value(), got.Value())
}

func formatValue(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// formatMap renders a map with sorted keys.
func formatMap(m map[string]interface{}) string {
	if len(m) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, formatValue(m[k])))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// AssertionContext provides storage access for persisted assertions.
type AssertionContext struct {
	KV  storage.KV
	Ctx context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			err = assertFinalState(result.State, assertion)
		case AssertPersisted:
			if actx == nil || actx.KV == nil {
				err = fmt.Errorf("assertion[%d]: persisted requires storage context", i)
			} else {
				err = assertPersisted(actx.Ctx, actx.KV, assertion)
			}
		case AssertNotifications:
			err = assertNotifications(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

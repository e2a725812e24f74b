package harness

import (
	"encoding/json"

	"github.com/roach88/storefront/internal/model"
)

// Step outcomes.
const (
	OutcomeApplied   = "applied"
	OutcomeDropped   = "dropped"
	OutcomeMalformed = "malformed"
)

// TraceEvent records one flow step. Seq is the 1-based flow step index.
type TraceEvent struct {
	Seq     int64           `json:"seq"`
	Type    string          `json:"type"`
	Outcome string          `json:"outcome"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds the flow steps in dispatch order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds expect and assertion failures.
	Errors []string `json:"errors,omitempty"`

	// State is the final store snapshot.
	State model.State `json:"state"`

	// Notifications counts change notifications delivered during the flow.
	Notifications int `json:"notifications"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  model.NewState(),
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a flow step to the trace.
func (r *Result) AddTrace(seq int64, typ, outcome string, payload json.RawMessage) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:     seq,
		Type:    typ,
		Outcome: outcome,
		Payload: payload,
	})
}

package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/roach88/storefront/internal/action"
	"github.com/roach88/storefront/internal/dispatcher"
	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/model"
	"github.com/roach88/storefront/internal/state"
	"github.com/roach88/storefront/internal/storage"
)

// Harness executes one scenario. Every run gets fresh storage, a fresh
// store and its own engine.
type Harness struct {
	engine   *engine.Engine
	recorder *recorder
}

// recorder observes the store: the outcome of the last dispatch and the
// number of change notifications.
type recorder struct {
	mu            sync.Mutex
	last          string
	notifications int
}

func (r *recorder) ActionApplied(action.Type) { r.set(OutcomeApplied) }
func (r *recorder) ActionDropped(action.Type) { r.set(OutcomeDropped) }
func (r *recorder) SubscribersChanged(int)    {}

func (r *recorder) set(outcome string) {
	r.mu.Lock()
	r.last = outcome
	r.mu.Unlock()
}

// take returns and clears the last outcome.
func (r *recorder) take() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.last
	r.last = ""
	return out
}

func (r *recorder) notified(context.Context, model.State) {
	r.mu.Lock()
	r.notifications++
	r.mu.Unlock()
}

func (r *recorder) resetNotifications() {
	r.mu.Lock()
	r.notifications = 0
	r.mu.Unlock()
}

func (r *recorder) notificationCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notifications
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Seed in-memory storage from scenario.Persisted
//  2. Create the store (restoring the persisted cart) and start an engine
//  3. Dispatch setup steps; each must apply
//  4. Dispatch flow steps, tracing outcomes and checking expect clauses
//  5. Stop the engine and evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	kv := storage.NewMemory()
	if err := seed(ctx, kv, scenario.Persisted); err != nil {
		return nil, fmt.Errorf("failed to seed storage: %w", err)
	}

	rec := &recorder{}
	d := dispatcher.New()
	st := state.New(ctx, d, kv, state.WithObserver(rec))
	sub := st.Subscribe(rec.notified)
	defer st.Unsubscribe(sub)

	eng := engine.New(d)
	runErr := make(chan error, 1)
	go func() {
		runErr <- eng.Run(ctx)
	}()

	h := &Harness{
		engine:   eng,
		recorder: rec,
	}

	result := NewResult()
	err := h.execute(ctx, scenario, result)

	eng.Stop()
	if stopErr := <-runErr; stopErr != nil && err == nil {
		err = fmt.Errorf("engine: %w", stopErr)
	}
	if err != nil {
		return nil, err
	}

	result.State = st.State()
	result.Notifications = rec.notificationCount()

	actx := &AssertionContext{KV: kv, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// execute runs setup and flow.
func (h *Harness) execute(ctx context.Context, scenario *Scenario, result *Result) error {
	for i, step := range scenario.Setup {
		_, outcome, _, err := h.dispatch(ctx, step.Dispatch)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		if outcome != OutcomeApplied {
			return fmt.Errorf("setup step %d: action was %s", i, outcome)
		}
	}
	h.recorder.resetNotifications()

	for i, step := range scenario.Flow {
		typ, outcome, payload, err := h.dispatch(ctx, step.Dispatch)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}
		seq := int64(i + 1)
		result.AddTrace(seq, typ, outcome, payload)

		if step.Expect != "" && step.Expect != outcome {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected %s, got %s", i, typ, step.Expect, outcome))
		}

		slog.Debug("flow step completed",
			"step", i,
			"seq", seq,
			"type", typ,
			"outcome", outcome,
		)
	}
	return nil
}

// dispatch encodes a YAML action as wire JSON, decodes it and submits it
// through the engine. Malformed actions are reported, not dispatched.
func (h *Harness) dispatch(ctx context.Context, value interface{}) (typ, outcome string, payload json.RawMessage, err error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", "", nil, fmt.Errorf("encode action: %w", err)
	}

	if t := gjson.GetBytes(raw, "type"); t.Type == gjson.String {
		typ = t.Str
	}
	if p := gjson.GetBytes(raw, "payload"); p.Exists() {
		payload = json.RawMessage(p.Raw)
	}

	a, decodeErr := action.Decode(raw)
	if decodeErr != nil {
		slog.Debug("malformed action", "error", decodeErr)
		return typ, OutcomeMalformed, payload, nil
	}

	h.recorder.take()
	if err := h.engine.Submit(ctx, a); err != nil {
		return typ, "", payload, fmt.Errorf("dispatch %s: %w", typ, err)
	}
	outcome = h.recorder.take()
	if outcome == "" {
		return typ, "", payload, fmt.Errorf("dispatch %s: store did not observe the action", typ)
	}
	return typ, outcome, payload, nil
}

// seed writes persisted values in key order. Strings are written
// verbatim; everything else is JSON encoded.
func seed(ctx context.Context, kv storage.KV, persisted map[string]interface{}) error {
	keys := make([]string, 0, len(persisted))
	for k := range persisted {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		var value string
		switch v := persisted[key].(type) {
		case string:
			value = v
		default:
			data, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("key %q: %w", key, err)
			}
			value = string(data)
		}
		if err := kv.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

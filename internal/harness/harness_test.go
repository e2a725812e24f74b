package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, yaml string) *Scenario {
	t.Helper()
	scenario, err := ParseScenario([]byte(yaml))
	require.NoError(t, err)
	return scenario
}

func TestRun_MinimalScenario(t *testing.T) {
	scenario := mustParse(t, `
name: minimal
description: "One increment"
flow:
  - dispatch: {type: INCREMENT_COUNT, payload: 5}
    expect: applied
assertions:
  - type: final_state
    path: count
    equals: 5
`)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, TraceEvent{Seq: 1, Type: "INCREMENT_COUNT", Outcome: OutcomeApplied, Payload: []byte(`5`)}, result.Trace[0])
	assert.Equal(t, 5, result.State.Count)
	assert.Equal(t, 1, result.Notifications)
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	scenario := mustParse(t, `
name: mismatch
description: "Removing from an empty cart is dropped, not applied"
flow:
  - dispatch: {type: REMOVE_FROM_CART, payload: 1}
    expect: applied
assertions:
  - type: notifications
    count: 0
`)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected applied, got dropped")
}

func TestRun_AssertionFailureReported(t *testing.T) {
	scenario := mustParse(t, `
name: failing
description: "Wrong expected count"
flow:
  - dispatch: {type: INCREMENT_COUNT, payload: 1}
assertions:
  - type: final_state
    path: count
    equals: 2
`)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: final_state")
}

func TestRun_SetupNotTraced(t *testing.T) {
	scenario := mustParse(t, `
name: setup
description: "Setup loads the catalog"
setup:
  - dispatch: {type: LOAD_PRODUCTS, payload: [{id: 1, title: Backpack, price: 109.95}]}
  - dispatch: {type: SET_LOADING, payload: true}
flow:
  - dispatch: {type: SET_LOADING, payload: false}
    expect: applied
assertions:
  - type: final_state
    path: products.0.title
    equals: Backpack
  - type: trace_count
    action: LOAD_PRODUCTS
    count: 0
  - type: notifications
    count: 1
`)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, int64(1), result.Trace[0].Seq, "setup steps do not consume sequence numbers")
	assert.False(t, result.State.IsLoading)
}

func TestRun_SetupMustApply(t *testing.T) {
	scenario := mustParse(t, `
name: bad_setup
description: "Setup steps may not be dropped"
setup:
  - dispatch: {type: UPDATE_QUANTITY, payload: {productId: 1, quantity: 2}}
flow:
  - dispatch: {type: CLEAR_CART}
assertions:
  - type: notifications
    count: 1
`)

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup step 0: action was dropped")
}

func TestRun_MalformedNotDispatched(t *testing.T) {
	scenario := mustParse(t, `
name: malformed
description: "A string is not an action"
flow:
  - dispatch: "CLEAR_CART"
    expect: malformed
  - dispatch: {payload: 1}
    expect: malformed
assertions:
  - type: notifications
    count: 0
`)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 2)
	assert.Equal(t, []int64{1, 2}, []int64{result.Trace[0].Seq, result.Trace[1].Seq})
	assert.Equal(t, "", result.Trace[0].Type)
	assert.Nil(t, result.Trace[0].Payload)
	assert.JSONEq(t, `1`, string(result.Trace[1].Payload))
}

func TestRun_PersistedCorruptCartIgnored(t *testing.T) {
	scenario := mustParse(t, `
name: corrupt
description: "Unparseable storage leaves the default empty cart"
persisted:
  ecommerce_cart: "{not json"
flow:
  - dispatch: {type: ADD_TO_CART, payload: {product: {id: 2, title: Shirt, price: 22.3}, quantity: 1}}
    expect: applied
assertions:
  - type: final_state
    path: cart.#
    equals: 1
  - type: persisted
    path: "0.id"
    equals: 2
`)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_FreshStoragePerRun(t *testing.T) {
	scenario := mustParse(t, `
name: fresh
description: "Each run starts from an empty cart"
flow:
  - dispatch: {type: ADD_TO_CART, payload: {product: {id: 2, title: Shirt, price: 22.3}, quantity: 1}}
assertions:
  - type: final_state
    path: cart.0.quantity
    equals: 1
`)

	for i := 0; i < 2; i++ {
		result, err := Run(scenario)
		require.NoError(t, err)
		assert.True(t, result.Pass, "run %d errors: %v", i, result.Errors)
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/cart_lifecycle.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.State, second.State)
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}

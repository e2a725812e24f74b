package dispatcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/action"
)

func TestRegister_ReturnsSequentialTokens(t *testing.T) {
	d := New()
	noop := func(context.Context, action.Action) error { return nil }

	assert.Equal(t, Token("ID_1"), d.Register(noop))
	assert.Equal(t, Token("ID_2"), d.Register(noop))
	assert.Equal(t, 2, d.Len())
}

func TestDispatch_RegistrationOrder(t *testing.T) {
	d := New()
	var calls []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		d.Register(func(_ context.Context, a action.Action) error {
			calls = append(calls, name+":"+string(a.Type()))
			return nil
		})
	}

	require.NoError(t, d.Dispatch(context.Background(), action.ClearCart{}))
	assert.Equal(t, []string{"a:CLEAR_CART", "b:CLEAR_CART", "c:CLEAR_CART"}, calls)
	assert.False(t, d.IsDispatching())
}

func TestDispatch_HandlerErrorAbortsRemaining(t *testing.T) {
	d := New()
	boom := errors.New("boom")
	secondRan := false

	d.Register(func(context.Context, action.Action) error { return boom })
	d.Register(func(context.Context, action.Action) error {
		secondRan = true
		return nil
	})

	err := d.Dispatch(context.Background(), action.SetLoading{Loading: true})
	assert.ErrorIs(t, err, boom)
	assert.False(t, secondRan)
	assert.False(t, d.IsDispatching(), "guard must reset after a failing dispatch")
}

func TestDispatch_ReentrantRejected(t *testing.T) {
	d := New()
	ctx := context.Background()
	var nestedErr error
	secondRan := false

	d.Register(func(ctx context.Context, a action.Action) error {
		assert.True(t, d.IsDispatching())
		nestedErr = d.Dispatch(ctx, action.IncrementCount{By: 1})
		return nestedErr
	})
	d.Register(func(context.Context, action.Action) error {
		secondRan = true
		return nil
	})

	err := d.Dispatch(ctx, action.ClearCart{})
	require.Error(t, err)
	assert.True(t, IsDispatchInProgress(err))
	assert.False(t, secondRan)

	var de *DispatchError
	require.ErrorAs(t, nestedErr, &de)
	assert.Equal(t, action.TypeClearCart, de.InFlight)
	assert.Equal(t, action.TypeIncrementCount, de.Rejected)

	// The dispatcher is usable again afterwards.
	d2Calls := 0
	d.Unregister("ID_1")
	d.Register(func(context.Context, action.Action) error { d2Calls++; return nil })
	require.NoError(t, d.Dispatch(ctx, action.ClearCart{}))
	assert.Equal(t, 1, d2Calls)
}

func TestUnregister(t *testing.T) {
	d := New()
	called := false
	tok := d.Register(func(context.Context, action.Action) error {
		called = true
		return nil
	})

	assert.True(t, d.Unregister(tok))
	assert.False(t, d.Unregister(tok))
	assert.False(t, d.Unregister("ID_404"))

	require.NoError(t, d.Dispatch(context.Background(), action.ClearCart{}))
	assert.False(t, called)
}

func TestDispatch_NilAction(t *testing.T) {
	err := New().Dispatch(context.Background(), nil)
	assert.Error(t, err)
}

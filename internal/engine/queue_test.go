package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/action"
)

func TestEventQueue_FIFO(t *testing.T) {
	q := newEventQueue()

	for i := 1; i <= 3; i++ {
		require.True(t, q.Enqueue(Event{Seq: int64(i), Action: action.IncrementCount{By: i}, ctx: context.Background()}))
	}

	for i := 1; i <= 3; i++ {
		e, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, int64(i), e.Seq)
		assert.Equal(t, action.IncrementCount{By: i}, e.Action)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestEventQueue_SignalCoalesces(t *testing.T) {
	q := newEventQueue()

	q.Enqueue(Event{Seq: 1, Action: action.ClearCart{}})
	q.Enqueue(Event{Seq: 2, Action: action.ClearCart{}})

	select {
	case <-q.Wait():
	default:
		t.Fatal("expected a pending signal")
	}

	select {
	case <-q.Wait():
		t.Fatal("signals should coalesce into one")
	default:
	}
	assert.Equal(t, 2, q.Len())
}

func TestEventQueue_Close(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(Event{Seq: 1, Action: action.ClearCart{}})

	q.Close()
	q.Close() // idempotent

	assert.False(t, q.Enqueue(Event{Seq: 2, Action: action.ClearCart{}}), "enqueue after close should fail")

	_, open := <-q.Wait()
	assert.False(t, open, "signal channel should be closed")

	drained := q.Drain()
	require.Len(t, drained, 1)
	assert.Equal(t, int64(1), drained[0].Seq)
	assert.Equal(t, 0, q.Len())
}

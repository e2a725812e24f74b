package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedIDs_InOrder(t *testing.T) {
	g := NewFixedIDs("order-1", "order-2")

	assert.Equal(t, "order-1", g.Generate())
	assert.Equal(t, "order-2", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

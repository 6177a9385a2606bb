package reorder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferReleasesInOrder(t *testing.T) {
	b := NewBuffer(0)

	b.Push(Item{ChunkIndex: 2, Value: "c"})
	require.Empty(t, b.Ready())

	b.Push(Item{ChunkIndex: 0, Value: "a"})
	ready := b.Ready()
	require.Len(t, ready, 1)
	require.Equal(t, "a", ready[0].Value)

	require.Empty(t, b.Ready())

	b.Push(Item{ChunkIndex: 1, Value: "b"})
	ready = b.Ready()
	require.Len(t, ready, 2)
	require.Equal(t, "b", ready[0].Value)
	require.Equal(t, "c", ready[1].Value)

	require.Equal(t, 0, b.Len())
}

func TestBufferStartingFromNonzero(t *testing.T) {
	b := NewBuffer(5)
	b.Push(Item{ChunkIndex: 5, Value: "x"})
	ready := b.Ready()
	require.Len(t, ready, 1)
	require.Equal(t, "x", ready[0].Value)
}

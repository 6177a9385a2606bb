// Package reorder restores chunk order to results produced by a bounded
// worker pool that completes chunks out of order, adapted from the
// teacher's time-keyed range index heap but keyed on chunk index instead.
package reorder

import "container/heap"

// Item is one pending result, tagged with the index of the chunk it came
// from so results can be released in chunk order regardless of completion
// order.
type Item struct {
	ChunkIndex int
	Value      interface{}
}

// itemHeap is a min-heap of Items ordered by ChunkIndex.
type itemHeap []Item

func (h itemHeap) Len() int            { return len(h) }
func (h itemHeap) Less(i, j int) bool  { return h[i].ChunkIndex < h[j].ChunkIndex }
func (h itemHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *itemHeap) Push(x interface{}) { *h = append(*h, x.(Item)) }
func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Buffer accumulates out-of-order Items and releases them only once the
// next expected ChunkIndex is available, producing an in-order stream.
type Buffer struct {
	heap *itemHeap
	next int
}

// NewBuffer returns a Buffer expecting chunk indices starting at
// firstChunkIndex.
func NewBuffer(firstChunkIndex int) *Buffer {
	h := &itemHeap{}
	heap.Init(h)
	return &Buffer{heap: h, next: firstChunkIndex}
}

// Push adds a completed item to the buffer.
func (b *Buffer) Push(item Item) {
	heap.Push(b.heap, item)
}

// Ready drains every item at the front of the buffer whose ChunkIndex is
// contiguous with the last-released index, in order. It returns nil if the
// next expected chunk has not arrived yet.
func (b *Buffer) Ready() []Item {
	var out []Item
	for b.heap.Len() > 0 && (*b.heap)[0].ChunkIndex == b.next {
		out = append(out, heap.Pop(b.heap).(Item))
		b.next++
	}
	return out
}

// Len reports how many items are currently buffered.
func (b *Buffer) Len() int { return b.heap.Len() }

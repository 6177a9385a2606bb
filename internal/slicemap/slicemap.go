// Package slicemap is a dense id-to-pointer lookup table backed by a
// slice, for the common case of small, densely-assigned integer ids (bag
// connection ids) where a slice indexed by id outperforms a map.
package slicemap

import "math"

// GetAt returns the item at idx, or nil if idx is out of range or unset.
func GetAt[T any](items []*T, idx uint32) *T {
	if uint64(idx) >= uint64(len(items)) {
		return nil
	}
	return items[idx]
}

// SetAt inserts item at idx, growing items if necessary, and returns the
// (possibly reallocated) slice.
func SetAt[T any](items []*T, idx uint32, item *T) []*T {
	if uint64(idx) >= uint64(len(items)) {
		toAdd := uint64(idx) + 1 - uint64(len(items))
		items = append(items, make([]*T, toAdd)...)
	}
	items[idx] = item
	return items
}

// ToMap converts items into a map[uint32]*T, skipping unset slots and any
// index that would overflow uint32.
func ToMap[T any](items []*T) map[uint32]*T {
	out := make(map[uint32]*T)
	for idx, item := range items {
		if idx > math.MaxUint32 {
			break
		}
		if item == nil {
			continue
		}
		out[uint32(idx)] = item
	}
	return out
}

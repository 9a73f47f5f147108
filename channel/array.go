package channel

import "fmt"

// Array is a bounded, dense set of channel slots: every index in [Lo, Hi]
// is always present, empty or not. Mutating any slot marks the array dirty.
type Array struct {
	lo, hi int
	slots  []Channel
	dirty  bool
}

// NewArray creates an Array spanning [lo, hi] inclusive, with every slot
// initialized empty.
func NewArray(lo, hi int) *Array {
	if hi < lo {
		panic(fmt.Sprintf("channel.NewArray: hi (%d) < lo (%d)", hi, lo))
	}
	n := hi - lo + 1
	slots := make([]Channel, n)
	for i := range slots {
		slots[i] = Channel{Index: lo + i, Empty: true}
	}
	return &Array{lo: lo, hi: hi, slots: slots}
}

// Lo returns the lowest valid channel index.
func (a *Array) Lo() int { return a.lo }

// Hi returns the highest valid channel index.
func (a *Array) Hi() int { return a.hi }

// Len returns the number of slots, hi-lo+1.
func (a *Array) Len() int { return len(a.slots) }

// Dirty reports whether any slot has been mutated since creation (or since
// the last ClearDirty call).
func (a *Array) Dirty() bool { return a.dirty }

// ClearDirty resets the dirty flag.
func (a *Array) ClearDirty() { a.dirty = false }

func (a *Array) index(i int) int {
	if i < a.lo || i > a.hi {
		panic(fmt.Sprintf("channel.Array: index %d out of range [%d,%d]", i, a.lo, a.hi))
	}
	return i - a.lo
}

// Get returns a copy of the channel at index i.
func (a *Array) Get(i int) Channel {
	return a.slots[a.index(i)]
}

// Set overwrites the channel at index i, preserving i as the Index field,
// and marks the array dirty.
func (a *Array) Set(i int, c Channel) {
	c.Index = i
	a.slots[a.index(i)] = c
	a.dirty = true
}

// All returns a copy of every slot in index order.
func (a *Array) All() []Channel {
	out := make([]Channel, len(a.slots))
	copy(out, a.slots)
	return out
}

// NewArrayFromChannels builds a dense Array from an ordered []Channel
// slice such as codec.Decode returns, indexed 1..len(channels).
func NewArrayFromChannels(channels []Channel) *Array {
	slots := make([]Channel, len(channels))
	for i, c := range channels {
		c.Index = i + 1
		slots[i] = c
	}
	return &Array{lo: 1, hi: len(channels), slots: slots}
}

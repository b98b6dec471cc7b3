package resource

import (
	"sync/atomic"
)

// Buffer is a host-memory array of float64 values. It is the resource the
// built-in kernels operate on.
//
// Element access is unsynchronized: ordering between commands touching the
// same buffer comes from the graph edges, not from the buffer.
type Buffer struct {
	id       ID
	name     string
	data     []float64
	released atomic.Bool
}

// NewBuffer allocates a zeroed buffer of the given length.
func NewBuffer(name string, size int) *Buffer {
	return &Buffer{
		id:   NewID(),
		name: name,
		data: make([]float64, size),
	}
}

// NewBufferFrom allocates a buffer holding a copy of values.
func NewBufferFrom(name string, values []float64) *Buffer {
	b := NewBuffer(name, len(values))
	copy(b.data, values)
	return b
}

func (b *Buffer) ID() ID {
	return b.id
}

func (b *Buffer) Name() string {
	return b.name
}

// Alive is false once Release has been called.
func (b *Buffer) Alive() bool {
	return !b.released.Load()
}

// Release ends the buffer's lifetime. Graphs referencing it will fail their
// liveness checks from now on.
func (b *Buffer) Release() {
	b.released.Store(true)
}

func (b *Buffer) Len() int {
	return len(b.data)
}

// Data exposes the backing slice to kernels.
func (b *Buffer) Data() []float64 {
	return b.data
}

// Snapshot copies the current contents.
func (b *Buffer) Snapshot() []float64 {
	out := make([]float64, len(b.data))
	copy(out, b.data)
	return out
}

// Fill sets every element to v.
func (b *Buffer) Fill(v float64) {
	for i := range b.data {
		b.data[i] = v
	}
}

func (b *Buffer) String() string {
	return "buffer." + b.name
}

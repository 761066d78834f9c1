package player

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrOutOfChunks is returned by Buffer.Allocate when every chunk in the
// arena is currently owned by a pipe or the playback loop.
var ErrOutOfChunks = errors.New("chunk buffer exhausted")

// Buffer is a fixed-capacity arena of chunks addressed by small indices
// (§9 design note: a hand-rolled free list, not a pointer-chasing pool).
// Pipes and the playback loop hold indices into this arena rather than
// pointers, so "a chunk belongs to at most one pipe" is a property of
// which free list an index sits in, not of aliasable references.
type Buffer struct {
	mu    sync.Mutex
	slab  []Chunk
	free  []int32
	freed chan struct{} // best-effort wake for a blocked decoder producer
}

// NewBuffer allocates an arena of n chunks, all initially free.
func NewBuffer(n int) *Buffer {
	b := &Buffer{
		slab:  make([]Chunk, n),
		free:  make([]int32, n),
		freed: make(chan struct{}, 1),
	}
	for i := range b.free {
		b.free[i] = int32(n - 1 - i)
	}
	return b
}

// Capacity returns the total number of chunks the arena holds.
func (b *Buffer) Capacity() int {
	return len(b.slab)
}

// Allocate removes one chunk from the free list and returns its index.
// It fails with ErrOutOfChunks when the arena is exhausted.
func (b *Buffer) Allocate() (int32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.free)
	if n == 0 {
		return -1, ErrOutOfChunks
	}
	idx := b.free[n-1]
	b.free = b.free[:n-1]
	b.slab[idx].reset()
	return idx, nil
}

// Return puts a chunk index back on the free list.
func (b *Buffer) Return(idx int32) {
	b.mu.Lock()
	b.free = append(b.free, idx)
	b.mu.Unlock()
	select {
	case b.freed <- struct{}{}:
	default:
	}
}

// Chunk returns a pointer to the chunk at idx. The caller must own idx
// (i.e. have allocated it and not yet returned it) for the pointer to be
// meaningful.
func (b *Buffer) Chunk(idx int32) *Chunk {
	return &b.slab[idx]
}

// WaitFree blocks until at least one chunk has been returned since the last
// call, or the buffer currently has a free chunk. It never blocks forever on
// a buffer that already has capacity available.
func (b *Buffer) WaitFree() {
	b.mu.Lock()
	hasFree := len(b.free) > 0
	b.mu.Unlock()
	if hasFree {
		return
	}
	<-b.freed
}

// FreedSignal returns the channel a chunk return wakes, so a caller that
// must also stay responsive to other events (a new decoder command, a
// quit request) can select on it instead of calling the blocking WaitFree.
func (b *Buffer) FreedSignal() <-chan struct{} {
	return b.freed
}

// Free returns the number of currently unallocated chunks.
func (b *Buffer) Free() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.free)
}

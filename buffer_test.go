package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferAllocateReturn(t *testing.T) {
	t.Parallel()
	b := NewBuffer(2)
	require.Equal(t, 2, b.Capacity())
	require.Equal(t, 2, b.Free())

	idx1, err := b.Allocate()
	require.NoError(t, err)
	idx2, err := b.Allocate()
	require.NoError(t, err)
	assert.NotEqual(t, idx1, idx2)
	assert.Equal(t, 0, b.Free())

	_, err = b.Allocate()
	assert.ErrorIs(t, err, ErrOutOfChunks)

	b.Return(idx1)
	assert.Equal(t, 1, b.Free())

	idx3, err := b.Allocate()
	require.NoError(t, err)
	assert.Equal(t, idx1, idx3)
}

func TestBufferAllocateResetsChunk(t *testing.T) {
	t.Parallel()
	b := NewBuffer(1)
	idx, err := b.Allocate()
	require.NoError(t, err)

	chunk := b.Chunk(idx)
	chunk.Length = 42
	chunk.Tag = &Tag{Title: "stale"}

	b.Return(idx)
	idx, err = b.Allocate()
	require.NoError(t, err)

	chunk = b.Chunk(idx)
	assert.Zero(t, chunk.Length)
	assert.Nil(t, chunk.Tag)
}

func TestBufferWaitFree(t *testing.T) {
	t.Parallel()
	b := NewBuffer(1)
	idx, err := b.Allocate()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		b.WaitFree()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("WaitFree returned before any chunk was returned")
	default:
	}

	b.Return(idx)
	<-done
}

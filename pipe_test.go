package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipePushShift(t *testing.T) {
	t.Parallel()
	buf := NewBuffer(4)
	p := NewPipe(buf)

	_, ok := p.Shift()
	assert.False(t, ok)
	assert.Equal(t, 0, p.Size())

	idx1, err := buf.Allocate()
	require.NoError(t, err)
	idx2, err := buf.Allocate()
	require.NoError(t, err)

	buf.Chunk(idx1).Length = 10
	buf.Chunk(idx2).Length = 20

	p.Push(idx1)
	p.Push(idx2)
	assert.Equal(t, 2, p.Size())
	assert.Equal(t, 30, p.ByteSize())

	got1, ok := p.Shift()
	require.True(t, ok)
	assert.Equal(t, idx1, got1)

	got2, ok := p.Shift()
	require.True(t, ok)
	assert.Equal(t, idx2, got2)

	assert.Equal(t, 0, p.Size())
}

func TestPipeClearReturnsChunks(t *testing.T) {
	t.Parallel()
	buf := NewBuffer(2)
	p := NewPipe(buf)

	idx, err := buf.Allocate()
	require.NoError(t, err)
	p.Push(idx)
	require.Equal(t, 1, buf.Free())

	p.Clear()
	assert.Equal(t, 0, p.Size())
	assert.Equal(t, 2, buf.Free())
}

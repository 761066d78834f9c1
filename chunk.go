package player

import "time"

// ChunkSize is the fixed byte capacity of every chunk in the buffer.
const ChunkSize = 4096

// Chunk is a fixed-size PCM payload with timing and tag metadata. Chunks are
// owned by exactly one of: the Buffer's free list, a Pipe, or the playback
// loop (while it is being played or cross-faded).
type Chunk struct {
	Data    [ChunkSize]byte
	Length  int
	BitRate int
	Times   time.Duration
	Tag     *Tag
	Format  Format
}

func (c *Chunk) reset() {
	c.Length = 0
	c.BitRate = 0
	c.Times = 0
	c.Tag = nil
	c.Format = Format{}
}

// bytes returns the populated portion of the chunk's payload.
func (c *Chunk) bytes() []byte {
	return c.Data[:c.Length]
}

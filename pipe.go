package player

// Pipe is a single-producer, single-consumer FIFO of chunk indices drawn
// from one Buffer. Pipes are not internally thread-safe: the decoder
// (producer, Push) and the player (consumer, Shift) coordinate externally
// through the DCB/PCB command protocol, exactly as §4.1 specifies.
type Pipe struct {
	buf     *Buffer
	indices []int32
}

// NewPipe creates an empty pipe drawing chunks from buf.
func NewPipe(buf *Buffer) *Pipe {
	return &Pipe{buf: buf}
}

// Push appends a chunk (by index) to the tail of the pipe. The decoder owns
// this side.
func (p *Pipe) Push(idx int32) {
	p.indices = append(p.indices, idx)
}

// Shift removes and returns the chunk at the head of the pipe, or false if
// the pipe is empty. The player owns this side.
func (p *Pipe) Shift() (int32, bool) {
	if len(p.indices) == 0 {
		return -1, false
	}
	idx := p.indices[0]
	p.indices = p.indices[1:]
	return idx, true
}

// Size returns the number of chunks currently queued in the pipe.
func (p *Pipe) Size() int {
	return len(p.indices)
}

// ByteSize returns the total payload bytes across every chunk queued in the
// pipe, used for the buffering and low-water-mark thresholds in §4.4/§4.6.
func (p *Pipe) ByteSize() int {
	total := 0
	for _, idx := range p.indices {
		total += p.buf.Chunk(idx).Length
	}
	return total
}

// Clear returns every chunk in the pipe to its buffer and empties the pipe.
func (p *Pipe) Clear() {
	for _, idx := range p.indices {
		p.buf.Return(idx)
	}
	p.indices = nil
}

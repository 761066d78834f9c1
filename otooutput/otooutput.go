// Package otooutput adapts github.com/hajimehoshi/oto's local speaker
// player into a player.Output, the module's stock "play on this machine's
// default audio device" sink.
package otooutput

import (
	"sync"

	"github.com/hajimehoshi/oto"
	"github.com/pkg/errors"

	"github.com/jkabot/soundcore"
)

// Output plays PCM chunks through the system's default audio device via
// oto, same as the teacher's native example wires oto.NewPlayer directly
// to a Source's decoded frames.
type Output struct {
	bufferSize int

	mu     sync.Mutex
	p      *oto.Player
	format player.Format
	paused bool
}

// New constructs an Output with the given oto playback buffer size in
// bytes (the teacher's native example uses 1<<15).
func New(bufferSize int) *Output {
	return &Output{bufferSize: bufferSize}
}

func (o *Output) Open(f player.Format) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.p != nil && o.format == f {
		return nil
	}
	if o.p != nil {
		o.p.Close()
		o.p = nil
	}
	p, err := oto.NewPlayer(int(f.SampleRate), int(f.Channels), int(f.Bits/8), o.bufferSize)
	if err != nil {
		return errors.Wrap(err, "open oto player")
	}
	o.p = p
	o.format = f
	return nil
}

func (o *Output) Write(data []byte) error {
	o.mu.Lock()
	p, paused := o.p, o.paused
	o.mu.Unlock()
	if p == nil || paused {
		return nil
	}
	_, err := p.Write(data)
	return errors.Wrap(err, "write oto player")
}

// Tag is a no-op: the local speaker has no metadata surface.
func (o *Output) Tag(*player.Tag) {}

func (o *Output) Pause(paused bool) error {
	o.mu.Lock()
	o.paused = paused
	o.mu.Unlock()
	return nil
}

// Cancel is a no-op: oto.Player has no explicit flush primitive to
// discard buffered audio.
func (o *Output) Cancel() {}

func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.p == nil {
		return nil
	}
	err := o.p.Close()
	o.p = nil
	return err
}

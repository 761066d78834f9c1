package player

import (
	"time"

	"github.com/Workiva/go-datastructures/queue"
)

// EventKind distinguishes the two signals the core emits on the event pipe
// (§6, §9 "cross-thread event pipe for UI/idle notifications").
type EventKind int

const (
	// EventPlaylist fires after each song handoff and after the decoder stops.
	EventPlaylist EventKind = iota
	// EventTag fires when a streaming song's tag changes.
	EventTag
)

// IdleFlag is raised alongside an EventTag for the currently playing stream.
type IdleFlag int

const (
	IdleNone IdleFlag = iota
	IdlePlayer
)

// Event is one notification delivered on the Pipe.
type Event struct {
	Kind EventKind
	Song *Song
	Tag  *Tag
	Idle IdleFlag
}

// EventPipe is the cross-thread event channel foreground listeners (UI,
// idle clients) read from. It is backed by the same disposable, pollable
// queue the teacher's voice.go uses for its playback queue (Workiva's
// go-datastructures/queue), repurposed here to carry events instead of
// songs: Put from the playback loop, Poll from however many listeners the
// daemon's client protocol wants to run. Each event is handed to exactly
// one Poll call; listeners compete for events rather than each seeing all.
type EventPipe struct {
	q *queue.Queue
}

// NewEventPipe creates an empty event pipe.
func NewEventPipe() *EventPipe {
	return &EventPipe{q: queue.New(16)}
}

// Emit appends an event for the next Poll call to receive. Emit never blocks.
func (p *EventPipe) Emit(e Event) {
	if p.q.Disposed() {
		return
	}
	_ = p.q.Put(e)
}

// Poll waits up to timeout for the next event. A zero timeout waits
// indefinitely. ok is false if the pipe was closed or the wait timed out.
func (p *EventPipe) Poll(timeout time.Duration) (ev Event, ok bool) {
	items, err := p.q.Poll(1, timeout)
	if err != nil || len(items) == 0 {
		return Event{}, false
	}
	ev, ok = items[0].(Event)
	return ev, ok
}

// Close disposes of the event pipe; subsequent Emit calls are no-ops and
// pending/future Poll calls return ok=false.
func (p *EventPipe) Close() {
	p.q.Dispose()
}

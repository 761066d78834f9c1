package player

import (
	"sync"

	"github.com/pkg/errors"
)

// Output is one audio sink the playback loop writes decoded PCM to (§9.1,
// §9.2). Concrete outputs -- a local speaker, a Discord voice channel --
// live in their own subpackages and are wired in by the process that
// constructs a Bank; the core only ever depends on this interface, the
// same separation the teacher draws between its playback loop and its
// Writer/Opener abstraction over a Discord voice connection.
type Output interface {
	// Open prepares the output to receive PCM in the given format.
	Open(f Format) error
	// Write submits one chunk's PCM payload. Write may block briefly to
	// apply backpressure but must not block indefinitely.
	Write(data []byte) error
	// Tag notifies the output of the currently playing song's metadata.
	Tag(t *Tag)
	// Pause toggles the output between actively draining and holding.
	Pause(paused bool) error
	// Cancel discards any buffered audio without closing the output.
	Cancel()
	// Close releases the output's underlying resource.
	Close() error
}

// Bank fans a single playback stream out to every named Output registered
// with it (§9.2), so the same core can drive a local speaker and a Discord
// voice channel simultaneously. A failing output is recorded but does not
// stop the bank from delivering to the rest.
type Bank struct {
	mu      sync.RWMutex
	outputs map[string]Output
}

// NewBank creates an empty output bank.
func NewBank() *Bank {
	return &Bank{outputs: make(map[string]Output)}
}

// Add registers an output under name, replacing anything already
// registered there.
func (b *Bank) Add(name string, o Output) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outputs[name] = o
}

// Remove unregisters and closes the output registered under name, if any.
func (b *Bank) Remove(name string) error {
	b.mu.Lock()
	o, ok := b.outputs[name]
	if ok {
		delete(b.outputs, name)
	}
	b.mu.Unlock()
	if !ok {
		return nil
	}
	return o.Close()
}

func (b *Bank) snapshot() map[string]Output {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]Output, len(b.outputs))
	for k, v := range b.outputs {
		out[k] = v
	}
	return out
}

// AllOpen opens every registered output in the given format, returning the
// combined error (if any) of every output that failed. Outputs that
// succeed stay open even if a sibling fails.
func (b *Bank) AllOpen(f Format) error {
	var errs []error
	for name, o := range b.snapshot() {
		if err := o.Open(f); err != nil {
			errs = append(errs, errors.Wrapf(err, "open output %s", name))
		}
	}
	return joinErrors(errs)
}

// AllPlay writes one chunk's payload to every registered output.
func (b *Bank) AllPlay(data []byte) error {
	var errs []error
	for name, o := range b.snapshot() {
		if err := o.Write(data); err != nil {
			errs = append(errs, errors.Wrapf(err, "write output %s", name))
		}
	}
	return joinErrors(errs)
}

// AllPause toggles pause state on every registered output.
func (b *Bank) AllPause(paused bool) error {
	var errs []error
	for name, o := range b.snapshot() {
		if err := o.Pause(paused); err != nil {
			errs = append(errs, errors.Wrapf(err, "pause output %s", name))
		}
	}
	return joinErrors(errs)
}

// AllCancel discards buffered audio on every registered output.
func (b *Bank) AllCancel() {
	for _, o := range b.snapshot() {
		o.Cancel()
	}
}

// AllTag propagates a tag update to every registered output.
func (b *Bank) AllTag(t *Tag) {
	for _, o := range b.snapshot() {
		o.Tag(t)
	}
}

// AllClose closes every registered output and clears the bank.
func (b *Bank) AllClose() error {
	b.mu.Lock()
	outputs := b.outputs
	b.outputs = make(map[string]Output)
	b.mu.Unlock()

	var errs []error
	for name, o := range outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, errors.Wrapf(err, "close output %s", name))
		}
	}
	return joinErrors(errs)
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	msg := errs[0].Error()
	for _, e := range errs[1:] {
		msg += "; " + e.Error()
	}
	return errors.New(msg)
}

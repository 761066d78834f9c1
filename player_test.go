package player

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOutput is a test double for Output that records every call it
// receives instead of touching real audio hardware.
type fakeOutput struct {
	mu sync.Mutex

	opened    int
	format    Format
	writes    int
	lastTag   *Tag
	paused    bool
	cancelled int
	closed    bool
	failOpen  error
	failWrite error
}

func (o *fakeOutput) Open(f Format) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failOpen != nil {
		return o.failOpen
	}
	o.opened++
	o.format = f
	return nil
}

func (o *fakeOutput) Write(data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failWrite != nil {
		return o.failWrite
	}
	o.writes++
	return nil
}

func (o *fakeOutput) Tag(t *Tag) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastTag = t
}

func (o *fakeOutput) Pause(paused bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused = paused
	return nil
}

func (o *fakeOutput) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancelled++
}

func (o *fakeOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

func (o *fakeOutput) writeCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.writes
}

func (o *fakeOutput) isPaused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paused
}

func (o *fakeOutput) openCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opened
}

// slowFakeDecoder hands out a fresh fakeStream per song, with a
// per-URL chunk count so tests can control how long each song plays.
type slowFakeDecoder struct {
	mu        sync.Mutex
	remaining map[string]int
	format    Format
}

func newSlowFakeDecoder(remaining map[string]int) *slowFakeDecoder {
	return &slowFakeDecoder{
		remaining: remaining,
		format:    Format{SampleRate: 44100, Bits: 16, Channels: 2},
	}
}

func (d *slowFakeDecoder) Open(s *Song) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := d.remaining[s.URL]
	return &fakeStream{format: d.format, total: time.Duration(n) * time.Second, remaining: n}, nil
}

func testConfig() Config {
	var cfg Config
	cfg.Buffer.Chunks = 64
	cfg.Buffer.BufferedBeforePlay = 0
	cfg.Playback.CrossFadeSeconds = 0
	cfg.Playback.SoftwareVolume = 100
	return cfg
}

func TestPlayerPlayReachesPlayState(t *testing.T) {
	t.Parallel()
	dec := newSlowFakeDecoder(map[string]int{"a.mp3": 20})
	out := &fakeOutput{}
	bank := NewBank()
	bank.Add("fake", out)

	p := New(testConfig(), dec, bank, nil)
	defer p.Close()

	p.Play(&Song{URL: "a.mp3"})
	require.Eventually(t, func() bool { return p.State() == StatePlay }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return out.writeCount() > 0 }, time.Second, time.Millisecond)
	assert.Equal(t, 1, out.openCount())
}

func TestPlayerStopReturnsToStopState(t *testing.T) {
	t.Parallel()
	dec := newSlowFakeDecoder(map[string]int{"a.mp3": -1})
	out := &fakeOutput{}
	bank := NewBank()
	bank.Add("fake", out)

	p := New(testConfig(), dec, bank, nil)
	defer p.Close()

	p.Play(&Song{URL: "a.mp3"})
	require.Eventually(t, func() bool { return p.State() == StatePlay }, time.Second, time.Millisecond)

	p.Stop()
	assert.Equal(t, StateStop, p.State())
}

func TestPlayerPauseTogglesBankAndState(t *testing.T) {
	t.Parallel()
	dec := newSlowFakeDecoder(map[string]int{"a.mp3": -1})
	out := &fakeOutput{}
	bank := NewBank()
	bank.Add("fake", out)

	p := New(testConfig(), dec, bank, nil)
	defer p.Close()

	p.Play(&Song{URL: "a.mp3"})
	require.Eventually(t, func() bool { return p.State() == StatePlay }, time.Second, time.Millisecond)

	p.Pause()
	assert.Equal(t, StatePause, p.State())
	assert.True(t, out.isPaused())

	p.Pause()
	assert.Equal(t, StatePlay, p.State())
	assert.False(t, out.isPaused())
}

func TestPlayerSeekUpdatesElapsed(t *testing.T) {
	t.Parallel()
	dec := newSlowFakeDecoder(map[string]int{"a.mp3": -1})
	out := &fakeOutput{}
	bank := NewBank()
	bank.Add("fake", out)

	p := New(testConfig(), dec, bank, nil)
	defer p.Close()

	p.Play(&Song{URL: "a.mp3"})
	require.Eventually(t, func() bool { return p.State() == StatePlay }, time.Second, time.Millisecond)

	p.Seek(5 * time.Second)
	assert.Equal(t, 5*time.Second, p.ElapsedTime())
}

func TestPlayerQueueAdvancesToNextSong(t *testing.T) {
	t.Parallel()
	dec := newSlowFakeDecoder(map[string]int{"a.mp3": 2, "b.mp3": -1})
	out := &fakeOutput{}
	bank := NewBank()
	bank.Add("fake", out)

	p := New(testConfig(), dec, bank, nil)
	defer p.Close()

	p.Play(&Song{URL: "a.mp3"})
	require.Eventually(t, func() bool { return p.State() == StatePlay }, time.Second, time.Millisecond)
	p.Queue(&Song{URL: "b.mp3"})

	require.Eventually(t, func() bool {
		return out.openCount() >= 2
	}, 2*time.Second, time.Millisecond, "expected the queued song to be opened in turn")
	assert.Equal(t, StatePlay, p.State())
}

func TestPlayerCancelQueuedSongLeavesCurrentPlaying(t *testing.T) {
	t.Parallel()
	dec := newSlowFakeDecoder(map[string]int{"a.mp3": -1, "b.mp3": -1})
	out := &fakeOutput{}
	bank := NewBank()
	bank.Add("fake", out)

	p := New(testConfig(), dec, bank, nil)
	defer p.Close()

	p.Play(&Song{URL: "a.mp3"})
	require.Eventually(t, func() bool { return p.State() == StatePlay }, time.Second, time.Millisecond)

	p.Queue(&Song{URL: "b.mp3"})
	p.Cancel()

	assert.Equal(t, StatePlay, p.State())
	assert.Equal(t, 1, out.openCount())
}

func TestPlayerCloseAudioClosesOutputs(t *testing.T) {
	t.Parallel()
	dec := newSlowFakeDecoder(map[string]int{"a.mp3": -1})
	out := &fakeOutput{}
	bank := NewBank()
	bank.Add("fake", out)

	p := New(testConfig(), dec, bank, nil)
	defer p.Close()

	p.Play(&Song{URL: "a.mp3"})
	require.Eventually(t, func() bool { return p.State() == StatePlay }, time.Second, time.Millisecond)

	p.CloseAudio()
	assert.True(t, out.closed)
}

func TestPlayerCloseStopsBothTasks(t *testing.T) {
	t.Parallel()
	dec := newSlowFakeDecoder(map[string]int{"a.mp3": -1})
	out := &fakeOutput{}
	bank := NewBank()
	bank.Add("fake", out)

	p := New(testConfig(), dec, bank, nil)
	p.Play(&Song{URL: "a.mp3"})
	require.Eventually(t, func() bool { return p.State() == StatePlay }, time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		p.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
	assert.True(t, out.closed)
}

func TestPlayerDecodeFailureRaisesFileError(t *testing.T) {
	t.Parallel()
	dec := fakeDecoder{newStream: func(*Song) (Stream, error) {
		return nil, errOpenFailed
	}}
	out := &fakeOutput{}
	bank := NewBank()
	bank.Add("fake", out)

	p := New(testConfig(), dec, bank, nil)
	defer p.Close()

	p.Play(&Song{URL: "missing.mp3"})
	kind, _ := p.Error()
	assert.Equal(t, ErrorFile, kind)
	assert.Equal(t, StateStop, p.State())
}

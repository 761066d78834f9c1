// Package player implements the realtime playback core of a streaming
// music daemon: a chunk buffer, a music pipe, and the two control blocks
// (PCB, DCB) that let a decoder task and a player task hand PCM audio to
// one or more outputs under a cooperative command protocol.
package player

import (
	"log/slog"
	"sync"
	"time"
)

// Version follows semantic versioning.
const Version = "0.1.0"

// playerState is the do_play invocation's local state (§3): everything
// that only the playback loop itself reads and writes, as opposed to the
// PCB fields foreground threads also touch.
type playerState struct {
	buf  *Buffer
	pipe *Pipe

	song *Song

	buffering       bool
	decoderStarting bool
	paused          bool
	queued          bool
	crossFading     bool

	xfade           crossFadeState
	crossFadeChunks int

	playAudioFormat Format
	sizeToTime      time.Duration
}

// Player owns the PCB/DCB pair and the background decoder and player
// tasks (§4.8, C6). It is the package's single public entry point; callers
// never touch the control blocks directly.
type Player struct {
	cfg Config
	pcb *PCB
	dcb *DCB
	log *slog.Logger

	bank *Bank
	buf  *Buffer

	quit chan struct{}
	wg   sync.WaitGroup
}

// New constructs a Player, wires it to bank for audio output and dec for
// decoding, and launches its decoder and player tasks. Callers must call
// Close to release resources. The chunk buffer is allocated once and
// shared by the decoder task and every doPlay invocation for the
// lifetime of the Player: chunk indices are only meaningful within the
// arena that produced them.
func New(cfg Config, dec Decoder, bank *Bank, log *slog.Logger) *Player {
	if log == nil {
		log = slog.Default()
	}
	p := &Player{
		cfg:  cfg,
		pcb:  NewPCB(cfg),
		dcb:  NewDCB(),
		log:  log,
		bank: bank,
		buf:  NewBuffer(cfg.Buffer.Chunks),
		quit: make(chan struct{}),
	}

	p.wg.Add(2)
	go func() {
		defer p.wg.Done()
		RunDecoder(p.dcb, p.buf, dec)
	}()
	go func() {
		defer p.wg.Done()
		runPlayerTask(p)
	}()

	return p
}

// Play starts playback of song. A PLAY that arrives while a playback
// session is running is not acted on until that session ends; Play blocks
// until then and starts song afterwards.
func (p *Player) Play(song *Song) { p.pcb.Play(song) }

// Queue enqueues song to begin once the current song finishes.
func (p *Player) Queue(song *Song) { p.pcb.Queue(song) }

// Stop halts playback and discards audio buffered in the outputs; the
// outputs stay open.
func (p *Player) Stop() { p.pcb.Stop() }

// Pause toggles between playing and paused.
func (p *Player) Pause() { p.pcb.Pause() }

// Seek requests a seek to where within the current song.
func (p *Player) Seek(where time.Duration) { p.pcb.Seek(where) }

// CloseAudio ends any running playback session and closes the output bank.
func (p *Player) CloseAudio() { p.pcb.CloseAudio() }

// Cancel withdraws a previously queued song.
func (p *Player) Cancel() { p.pcb.Cancel() }

// State returns the current playback state.
func (p *Player) State() State { return p.pcb.State() }

// Error returns the last recorded error kind and the song it occurred on.
func (p *Player) Error() (ErrorKind, *Song) { return p.pcb.Error() }

// ElapsedTime returns the current playback position.
func (p *Player) ElapsedTime() time.Duration { return p.pcb.ElapsedTime() }

// TotalTime returns the current song's known total duration.
func (p *Player) TotalTime() time.Duration { return p.pcb.TotalTime() }

// Events returns the event pipe UI/idle listeners should Poll.
func (p *Player) Events() *EventPipe { return p.pcb.Events() }

// Idle returns the channel idle flags are delivered on.
func (p *Player) Idle() <-chan IdleFlag { return p.pcb.Idle() }

// Close stops the decoder and player tasks and releases all resources.
// Close blocks until both tasks have exited.
func (p *Player) Close() error {
	select {
	case <-p.quit:
		return nil
	default:
		close(p.quit)
	}
	p.pcb.Exit()
	p.wg.Wait()
	p.pcb.Events().Close()
	return nil
}

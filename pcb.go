package player

import (
	"sync"
	"time"
)

// PCB is the Player Control Block: shared state exposing player commands
// from foreground threads, plus elapsed time / state / error status (§3).
// Per §9's design note, the condition variable is modeled as a bounded
// mailbox: a single pending command slot plus a per-command completion
// signal, instead of a raw sync.Cond.
type PCB struct {
	mu sync.Mutex

	// command protocol: written by foreground threads, consumed by the
	// player task / playback loop, which clears it back to CommandNone and
	// closes ack once the command's effects are visible (§4.3, §8).
	command   Command
	nextSong  *Song
	seekWhere time.Duration
	ack       chan struct{}

	// wake is signalled whenever command changes, and is also the generic
	// notify_wait() surrogate the playback loop selects on at its
	// suspension points (§5).
	wake chan struct{}

	// status, written only by the playback loop / player task.
	state         State
	erroredSong   *Song
	err           ErrorKind
	elapsedTime   time.Duration
	totalTime     time.Duration
	totalPlayTime time.Duration
	bitRate       int
	audioFormat   Format

	cfg    Config
	events *EventPipe
	idle   chan IdleFlag
}

// NewPCB constructs a PCB with the given configuration. cfg is read-only
// for the lifetime of the PCB (configuration loading is an external
// collaborator, §1/§10).
func NewPCB(cfg Config) *PCB {
	return &PCB{
		wake:   make(chan struct{}, 1),
		ack:    closedChan(),
		cfg:    cfg,
		events: NewEventPipe(),
		idle:   make(chan IdleFlag, 8),
	}
}

func closedChan() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}

func (pc *PCB) wakeSignal() {
	select {
	case pc.wake <- struct{}{}:
	default:
	}
}

// send installs a command and its parameters, wakes the player task, and
// blocks until the player task acknowledges it. This is the single entry
// point every foreground Command* method funnels through, implementing the
// "write command, signal, wait for ack" discipline of §4.3. Only PLAY/QUEUE
// carry a song parameter; every other command passes nil, which must leave
// a previously queued song's identity alone rather than trample it (a
// command consumer that needs to clear pc.nextSong, such as CANCEL, does so
// explicitly).
func (pc *PCB) send(cmd Command, nextSong *Song, seekWhere time.Duration) {
	pc.mu.Lock()
	pc.command = cmd
	if nextSong != nil {
		pc.nextSong = nextSong
	}
	pc.seekWhere = seekWhere
	done := make(chan struct{})
	pc.ack = done
	pc.mu.Unlock()

	pc.wakeSignal()
	<-done
}

// Play starts playback of song. Play returns once playback has been
// initiated (the decoder has started the song, or failed to), not once the
// song finishes (§4.3). A PLAY sent while a playback session is running is
// not acted on until that session ends.
func (pc *PCB) Play(song *Song) { pc.send(CommandPlay, song, 0) }

// Queue enqueues song to play after the current song. Like Play, it
// returns once the queue has been accepted, not once song starts.
func (pc *PCB) Queue(song *Song) { pc.send(CommandQueue, song, 0) }

// Stop halts playback.
func (pc *PCB) Stop() { pc.send(CommandStop, nil, 0) }

// Pause toggles between PLAY and PAUSE.
func (pc *PCB) Pause() { pc.send(CommandPause, nil, 0) }

// Seek requests a seek to where within the current song.
func (pc *PCB) Seek(where time.Duration) { pc.send(CommandSeek, nil, where) }

// CloseAudio ends any running playback session and closes the audio output
// bank.
func (pc *PCB) CloseAudio() { pc.send(CommandCloseAudio, nil, 0) }

// Cancel withdraws a previously queued song (stopping the decoder if it had
// already started decoding it into its own pipe), or degrades to Stop if the
// queued song has already become the current song (§4.4 step 1 CANCEL).
func (pc *PCB) Cancel() { pc.send(CommandCancel, nil, 0) }

// Exit stops the decoder, closes outputs, and terminates the player task.
func (pc *PCB) Exit() { pc.send(CommandExit, nil, 0) }

// --- consumer-side protocol (playback loop / player task) ---

// peekCommand returns the pending command and its parameters without
// clearing it.
func (pc *PCB) peekCommand() (cmd Command, nextSong *Song, seekWhere time.Duration) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.command, pc.nextSong, pc.seekWhere
}

// rewriteCommand lets the loop upgrade a pending command in place (the
// CANCEL-too-late-becomes-STOP rule of §4.4 step 1) without acking it.
func (pc *PCB) rewriteCommand(cmd Command) {
	pc.mu.Lock()
	pc.command = cmd
	pc.mu.Unlock()
}

// ackCommand clears the pending command and releases any sender blocked in
// send(). Every command but the initiating PLAY/QUEUE typically acks
// immediately after being handled; PLAY/QUEUE ack once the decoder has
// started the song or has failed (§4.3, §4.4). It deliberately
// does not touch pc.nextSong: a QUEUE's ack must leave the queued song's
// identity in place for the later queue handoff (§4.4 step 4) and for
// CANCEL (§4.4 step 1) to observe; callers that are done with pc.nextSong
// clear it themselves.
func (pc *PCB) ackCommand() {
	pc.mu.Lock()
	pc.command = CommandNone
	ack := pc.ack
	pc.mu.Unlock()
	close(ack)
}

// Wait blocks until the next command is signalled, or until one of the
// extra wake channels fires, whichever comes first. This is the
// notify_wait(pc.notify) surrogate used at the buffering/paused/startup/
// crossfade suspension points of §5.
func (pc *PCB) Wait(extra ...<-chan struct{}) {
	cases := make([]<-chan struct{}, 0, len(extra)+1)
	cases = append(cases, pc.wake)
	cases = append(cases, extra...)
	waitAny(cases...)
}

func waitAny(chans ...<-chan struct{}) {
	switch len(chans) {
	case 0:
		return
	case 1:
		<-chans[0]
	case 2:
		select {
		case <-chans[0]:
		case <-chans[1]:
		}
	default:
		// Fall back to a small fan-in goroutine for the rare case of more
		// than two wake sources (e.g. decoder signal + custom test hook).
		done := make(chan struct{}, 1)
		for _, c := range chans {
			go func(c <-chan struct{}) {
				<-c
				select {
				case done <- struct{}{}:
				default:
				}
			}(c)
		}
		<-done
	}
}

// --- status accessors, safe for concurrent use from any goroutine ---

func (pc *PCB) setState(s State) {
	pc.mu.Lock()
	pc.state = s
	pc.mu.Unlock()
}

// State returns the current playback state.
func (pc *PCB) State() State {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.state
}

func (pc *PCB) setError(kind ErrorKind, song *Song) {
	pc.mu.Lock()
	pc.err = kind
	pc.erroredSong = song
	pc.mu.Unlock()
}

// Error returns the last recorded error kind and the song it occurred on.
func (pc *PCB) Error() (ErrorKind, *Song) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.err, pc.erroredSong
}

func (pc *PCB) setElapsed(d time.Duration) {
	pc.mu.Lock()
	pc.elapsedTime = d
	pc.mu.Unlock()
}

// ElapsedTime returns the current playback position.
func (pc *PCB) ElapsedTime() time.Duration {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.elapsedTime
}

func (pc *PCB) setTotalTime(d time.Duration) {
	pc.mu.Lock()
	pc.totalTime = d
	pc.mu.Unlock()
}

// TotalTime returns the current song's known total duration, or 0.
func (pc *PCB) TotalTime() time.Duration {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.totalTime
}

func (pc *PCB) addPlayTime(d time.Duration) {
	pc.mu.Lock()
	pc.totalPlayTime += d
	pc.mu.Unlock()
}

// TotalPlayTime returns the cumulative wall time actually submitted to
// audio outputs.
func (pc *PCB) TotalPlayTime() time.Duration {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.totalPlayTime
}

func (pc *PCB) setBitRate(b int) {
	pc.mu.Lock()
	pc.bitRate = b
	pc.mu.Unlock()
}

func (pc *PCB) setAudioFormat(f Format) {
	pc.mu.Lock()
	pc.audioFormat = f
	pc.mu.Unlock()
}

// AudioFormat returns the format of the song currently playing.
func (pc *PCB) AudioFormat() Format {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.audioFormat
}

// Events returns the event pipe listeners should Poll.
func (pc *PCB) Events() *EventPipe {
	return pc.events
}

func (pc *PCB) raiseIdle(f IdleFlag) {
	select {
	case pc.idle <- f:
	default:
	}
}

// Idle returns the channel idle flags are delivered on.
func (pc *PCB) Idle() <-chan IdleFlag {
	return pc.idle
}

package player

import (
	"sync"
	"time"
)

type decoderStatus int

const (
	decoderIdle decoderStatus = iota
	decoderStarting
	decoderRunning
	decoderFailed
)

type decoderCommand int

const (
	decCmdNone decoderCommand = iota
	decCmdStart
	decCmdSeek
	decCmdStop
	decCmdQuit
)

// DCB is the Decoder Control Block: shared state exposing decoder commands
// (start, seek, stop, quit) and status (idle/starting/running/failed) to
// the playback core (§3, §4.2). Like the PCB, its condition variable is
// modeled as a command mailbox plus a wake channel rather than a raw
// sync.Cond (§9).
type DCB struct {
	mu sync.Mutex

	cmd       decoderCommand
	cmdSong   *Song
	seekWhere time.Duration
	seekOK    bool

	pipe        *Pipe
	nextSong    *Song
	currentSong *Song
	inFormat    Format
	outFormat   Format
	totalTime   time.Duration
	status      decoderStatus
	failErr     error

	wake    chan struct{} // signalled decoder -> core on any status change
	cmdSig  chan struct{} // signalled core -> decoder task on a new command
	quit    chan struct{}
}

// NewDCB constructs an idle DCB.
func NewDCB() *DCB {
	return &DCB{
		wake:   make(chan struct{}, 1),
		cmdSig: make(chan struct{}, 1),
		quit:   make(chan struct{}),
	}
}

func (dc *DCB) wakeSignal() {
	select {
	case dc.wake <- struct{}{}:
	default:
	}
}

func (dc *DCB) signalCommand() {
	select {
	case dc.cmdSig <- struct{}{}:
	default:
	}
}

// --- operations invoked by the playback core (§4.2) ---

// Start begins synchronous decode of song: the command is handed to the
// decoder task, which transitions to "starting" before the call returns.
// Callers that need to know whether the decode actually succeeded follow up
// with CommandWait, per §4.4's player_wait_for_decoder.
func (dc *DCB) Start(song *Song) {
	dc.mu.Lock()
	dc.cmd = decCmdStart
	dc.cmdSong = song
	dc.nextSong = song
	dc.status = decoderStarting
	dc.failErr = nil
	dc.mu.Unlock()
	dc.signalCommand()
}

// StartAsync fires off a decode for the queued song without the caller
// waiting on anything; the decoder task picks it up on its own schedule.
func (dc *DCB) StartAsync(song *Song) {
	dc.Start(song)
}

// Stop blocks until the decoder reaches idle.
func (dc *DCB) Stop() {
	dc.mu.Lock()
	if dc.status == decoderIdle {
		dc.mu.Unlock()
		return
	}
	dc.cmd = decCmdStop
	dc.mu.Unlock()
	dc.signalCommand()

	for {
		dc.mu.Lock()
		idle := dc.status == decoderIdle
		dc.mu.Unlock()
		if idle {
			return
		}
		<-dc.wake
	}
}

// Seek requests a seek within the song currently being decoded into dc.pipe
// and blocks for the decoder's accept/reject answer.
func (dc *DCB) Seek(where time.Duration) bool {
	dc.mu.Lock()
	dc.cmd = decCmdSeek
	dc.seekWhere = where
	dc.mu.Unlock()
	dc.signalCommand()
	<-dc.wake
	dc.mu.Lock()
	ok := dc.seekOK
	dc.mu.Unlock()
	return ok
}

// CommandWait blocks for one decoder status change, the dc_command_wait
// primitive player_wait_for_decoder uses to learn the outcome of Start.
func (dc *DCB) CommandWait() {
	<-dc.wake
}

// Quit stops the decoder task for good.
func (dc *DCB) Quit() {
	select {
	case <-dc.quit:
	default:
		close(dc.quit)
	}
}

// --- status predicates consumed by the playback core ---

func (dc *DCB) HasFailed() bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.status == decoderFailed
}

func (dc *DCB) IsIdle() bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.status == decoderIdle
}

func (dc *DCB) IsStarting() bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.status == decoderStarting
}

// FailErr returns the error the decoder last failed with, if any.
func (dc *DCB) FailErr() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.failErr
}

// CurrentSong returns the song the decoder is currently (or was last)
// decoding.
func (dc *DCB) CurrentSong() *Song {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.currentSong
}

// NextSong returns the song that was most recently handed to Start/StartAsync.
func (dc *DCB) NextSong() *Song {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.nextSong
}

// Pipe returns the pipe the decoder is currently writing into, or nil.
func (dc *DCB) Pipe() *Pipe {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.pipe
}

// SetPipe assigns the pipe the decoder should write the next decode into.
// The playback core owns this assignment (§4.4 steps 4 and §4.5).
func (dc *DCB) SetPipe(p *Pipe) {
	dc.mu.Lock()
	dc.pipe = p
	dc.mu.Unlock()
}

// OutFormat returns the decoder's current output PCM format.
func (dc *DCB) OutFormat() Format {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.outFormat
}

// InFormat returns the decoder's current input (source) format.
func (dc *DCB) InFormat() Format {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.inFormat
}

// TotalTime returns the known total duration of the song being decoded.
func (dc *DCB) TotalTime() time.Duration {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.totalTime
}

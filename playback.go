package player

import "time"

// crossFadeStallRetries bounds how many consecutive empty shifts from the
// next song's pipe a crossfade will tolerate before giving up on it.
// Without this bound, a decoder that stalls mid-crossfade (e.g. waiting on
// a starved chunk buffer) would leave the playback loop looping on the
// "signal decoder, wait, restart" branch of the crossfade step
// indefinitely; past this many retries the crossfade is downgraded to
// disabled and playback proceeds without it rather than stalling forever.
const crossFadeStallRetries = 8

// runPlayerTask is the outer state machine (C6): it dispatches PLAY/QUEUE
// into doPlay and otherwise handles the commands that arrive while nothing
// is playing (STOP/SEEK/PAUSE/CANCEL there are spurious and only clear the
// pending song and ack).
func runPlayerTask(p *Player) {
	defer p.dcb.Quit()

	for {
		cmd, nextSong, _ := p.pcb.peekCommand()
		switch cmd {
		case CommandPlay, CommandQueue:
			doPlay(p, nextSong)
		case CommandStop, CommandSeek, CommandPause:
			p.pcb.mu.Lock()
			p.pcb.nextSong = nil
			p.pcb.mu.Unlock()
			p.pcb.ackCommand()
		case CommandCloseAudio:
			if p.bank != nil {
				if err := p.bank.AllClose(); err != nil {
					p.log.Error("close audio bank", "error", err)
				}
			}
			p.pcb.ackCommand()
		case CommandExit:
			p.dcb.Stop()
			if p.bank != nil {
				p.bank.AllClose()
			}
			p.pcb.ackCommand()
			return
		case CommandCancel:
			p.pcb.mu.Lock()
			p.pcb.nextSong = nil
			p.pcb.mu.Unlock()
			p.pcb.ackCommand()
		case CommandNone:
			p.pcb.Wait()
		}
	}
}

// doPlay runs one playback session to completion: initialisation, the main
// loop, and teardown. startSong is the song the originating PLAY/QUEUE
// command named.
func doPlay(p *Player, startSong *Song) {
	st := &playerState{
		buf: p.buf,
	}
	st.pipe = NewPipe(st.buf)
	p.dcb.SetPipe(st.pipe)
	p.dcb.Start(startSong)

	if !playerWaitForDecoder(p, st) {
		p.pcb.ackCommand()
		return
	}
	p.pcb.setState(StatePlay)
	p.pcb.ackCommand()

	for {
		if !dispatchCommand(p, st) {
			break
		}

		if st.buffering {
			if st.pipe.ByteSize() < bufferedBeforePlayBytes(p.cfg) && !p.dcb.IsIdle() {
				p.pcb.Wait()
				continue
			}
			st.buffering = false
		}

		if st.decoderStarting {
			if p.dcb.HasFailed() {
				p.pcb.setError(ErrorFile, p.dcb.CurrentSong())
				break
			}
			if p.dcb.IsStarting() {
				p.pcb.Wait()
				continue
			}
			fmtOut := p.dcb.OutFormat()
			if p.bank != nil {
				if err := p.bank.AllOpen(fmtOut); err != nil {
					p.pcb.setError(ErrorAudio, p.dcb.CurrentSong())
					break
				}
				if st.paused {
					p.bank.AllClose()
				}
			}
			p.pcb.setTotalTime(p.dcb.TotalTime())
			p.pcb.setAudioFormat(fmtOut)
			st.playAudioFormat = fmtOut
			st.sizeToTime = fmtOut.SizeToTime()
			st.decoderStarting = false
		}

		if p.dcb.IsIdle() && st.queued {
			nextPipe := NewPipe(st.buf)
			p.dcb.SetPipe(nextPipe)
			_, nextSong, _ := p.pcb.peekCommand()
			p.dcb.StartAsync(nextSong)
			st.queued = false
		}

		maybeDecideCrossfade(p, st)

		if !outputStep(p, st) {
			break
		}
	}

	teardown(p, st)
}

// dispatchCommand implements the per-iteration command handling. It
// returns false when the command means doPlay should exit its main loop.
func dispatchCommand(p *Player, st *playerState) bool {
	cmd, nextSong, seekWhere := p.pcb.peekCommand()
	switch cmd {
	case CommandNone, CommandPlay:
		return true
	case CommandStop, CommandExit, CommandCloseAudio:
		if p.bank != nil {
			p.bank.AllCancel()
		}
		return false
	case CommandQueue:
		st.queued = true
		p.pcb.ackCommand()
		return true
	case CommandPause:
		st.paused = !st.paused
		if st.paused {
			if p.bank != nil {
				p.bank.AllPause(true)
			}
			p.pcb.setState(StatePause)
		} else {
			if p.bank != nil {
				if err := p.bank.AllOpen(st.playAudioFormat); err != nil {
					p.pcb.setError(ErrorAudio, st.song)
					st.paused = true
				} else {
					p.bank.AllPause(false)
				}
			}
			if !st.paused {
				p.pcb.setState(StatePlay)
			}
		}
		p.pcb.ackCommand()
		return true
	case CommandSeek:
		if seekProtocol(p, st, seekWhere) {
			st.xfade = xfadeUnknown
			st.buffering = false
			if p.bank != nil {
				p.bank.AllCancel()
			}
		}
		return true
	case CommandCancel:
		if nextSong == nil {
			p.pcb.rewriteCommand(CommandStop)
			return dispatchCommand(p, st)
		}
		if dcPipe := p.dcb.Pipe(); dcPipe != nil && dcPipe != st.pipe {
			p.dcb.Stop()
			dcPipe.Clear()
			p.dcb.SetPipe(st.pipe)
		}
		p.pcb.mu.Lock()
		p.pcb.nextSong = nil
		p.pcb.mu.Unlock()
		st.queued = false
		p.pcb.ackCommand()
		return true
	}
	return true
}

// playerWaitForDecoder blocks until the decoder either fails or finishes
// starting, recording initial state for a freshly started song.
func playerWaitForDecoder(p *Player, st *playerState) bool {
	p.dcb.CommandWait()
	if p.dcb.HasFailed() {
		p.pcb.setError(ErrorFile, p.dcb.CurrentSong())
		p.pcb.mu.Lock()
		p.pcb.nextSong = nil
		p.pcb.mu.Unlock()
		return false
	}

	st.song = p.dcb.NextSong()
	p.pcb.setTotalTime(p.dcb.TotalTime())
	p.pcb.setAudioFormat(Format{})
	p.pcb.mu.Lock()
	p.pcb.nextSong = nil
	p.pcb.mu.Unlock()
	p.pcb.setElapsed(0)
	st.decoderStarting = true
	st.buffering = true
	p.pcb.Events().Emit(Event{Kind: EventPlaylist, Song: st.song})
	return true
}

func bufferedBeforePlayBytes(cfg Config) int {
	pct := cfg.Buffer.BufferedBeforePlay
	if pct <= 0 {
		return 0
	}
	return cfg.Buffer.Chunks * ChunkSize * pct / 100
}

func bufferedBeforePlayChunks(cfg Config) int {
	pct := cfg.Buffer.BufferedBeforePlay
	return cfg.Buffer.Chunks * pct / 100
}

// maybeDecideCrossfade implements the crossfade decision step: once the
// decoder has moved on to a distinct pipe, decide whether the handoff
// between the two songs should crossfade.
func maybeDecideCrossfade(p *Player, st *playerState) {
	dcPipe := p.dcb.Pipe()
	if dcPipe == nil || dcPipe == st.pipe || st.xfade != xfadeUnknown || p.dcb.IsStarting() {
		return
	}
	maxChunks := p.cfg.Buffer.Chunks - bufferedBeforePlayChunks(p.cfg)
	chunks := CrossFadeCalc(p.cfg.Playback.CrossFadeSeconds, p.dcb.TotalTime(), p.dcb.OutFormat(), st.playAudioFormat, maxChunks)
	if chunks > 0 {
		st.xfade = xfadeEnabled
		st.crossFading = false
		st.crossFadeChunks = chunks
	} else {
		st.xfade = xfadeDisabled
	}
}

// outputStep implements the four mutually exclusive output branches. It
// returns false when doPlay's main loop should end.
func outputStep(p *Player, st *playerState) bool {
	if st.paused {
		p.pcb.Wait()
		return true
	}

	if st.xfade == xfadeEnabled {
		dcPipe := p.dcb.Pipe()
		if dcPipe != nil && dcPipe != st.pipe && st.pipe.ByteSize() <= st.crossFadeChunks*ChunkSize {
			return runCrossfade(p, st)
		}
	}

	if st.pipe.Size() > 0 {
		idx, _ := st.pipe.Shift()
		chunk := st.buf.Chunk(idx)
		ok := playChunk(p, st, chunk, st.playAudioFormat)
		st.buf.Return(idx)
		return ok
	}

	dcPipe := p.dcb.Pipe()
	if dcPipe != nil && dcPipe != st.pipe {
		st.pipe.Clear()
		st.pipe = dcPipe
		st.xfade = xfadeUnknown
		return playerWaitForDecoder(p, st)
	}

	if p.dcb.IsIdle() {
		return false
	}

	// Decoder is still running but has nothing ready yet; feed silence to
	// keep the output device fed rather than starving it.
	frame := st.playAudioFormat.FrameSize()
	if frame == 0 || p.bank == nil {
		p.pcb.Wait()
		return true
	}
	silence := make([]byte, (ChunkSize/frame)*frame)
	if err := p.bank.AllPlay(silence); err != nil {
		p.pcb.setError(ErrorAudio, st.song)
		return false
	}
	return true
}

// playChunk submits one chunk's payload to the output bank, updating
// position and bit-rate bookkeeping and propagating any tag it carries.
func playChunk(p *Player, st *playerState, chunk *Chunk, format Format) bool {
	p.pcb.setElapsed(chunk.Times)
	p.pcb.setBitRate(chunk.BitRate)

	if chunk.Tag != nil {
		if p.bank != nil {
			p.bank.AllTag(chunk.Tag)
		}
		if st.song != nil && !st.song.IsFile {
			st.song.Tag = chunk.Tag.Duplicate()
			p.pcb.Events().Emit(Event{Kind: EventTag, Song: st.song, Tag: st.song.Tag})
			p.pcb.raiseIdle(IdlePlayer)
		}
	}

	if chunk.Length == 0 {
		return true
	}

	data := chunk.bytes()
	PCMVolume(data, p.cfg.Playback.SoftwareVolume)

	if p.bank != nil {
		if err := p.bank.AllPlay(data); err != nil {
			p.pcb.setError(ErrorAudio, st.song)
			return false
		}
	}

	p.pcb.addPlayTime(format.SizeToTime() * time.Duration(chunk.Length))

	lowWater := (bufferedBeforePlayChunks(p.cfg) + p.cfg.Buffer.Chunks) * 3 / 4 * ChunkSize
	if pipe := p.dcb.Pipe(); !p.dcb.IsIdle() && pipe != nil && pipe.ByteSize() <= lowWater {
		p.dcb.signalCommand()
	}
	return true
}

// seekProtocol implements the seek handling. It returns true when the seek
// succeeded.
func seekProtocol(p *Player, st *playerState, where time.Duration) bool {
	_, nextSong, _ := p.pcb.peekCommand()
	if nextSong != nil && !songEqual(p.dcb.CurrentSong(), nextSong) {
		p.dcb.Stop()
		st.pipe.Clear()
		p.dcb.SetPipe(st.pipe)
		p.dcb.StartAsync(nextSong)
		ok := playerWaitForDecoder(p, st)
		p.pcb.ackCommand()
		return ok
	}

	p.pcb.mu.Lock()
	p.pcb.nextSong = nil
	p.pcb.mu.Unlock()
	st.queued = false

	total := p.dcb.TotalTime()
	clamped := where
	if clamped < 0 {
		clamped = 0
	}
	if max := total - 100*time.Millisecond; total > 0 && clamped > max {
		clamped = max
	}

	ok := p.dcb.Seek(clamped)
	if ok {
		p.pcb.setElapsed(clamped)
	}
	p.pcb.ackCommand()
	return ok
}

// runCrossfade shifts chunks from both the outgoing and incoming pipes
// until the overlap window closes. It returns false when doPlay's main
// loop should end (an output failure occurred).
func runCrossfade(p *Player, st *playerState) bool {
	dcPipe := p.dcb.Pipe()
	stalls := 0

	for {
		otherIdx, ok := dcPipe.Shift()
		if !ok {
			if p.dcb.IsIdle() {
				st.xfade = xfadeDisabled
				return true
			}
			stalls++
			if stalls > crossFadeStallRetries {
				st.xfade = xfadeDisabled
				return true
			}
			p.dcb.signalCommand()
			p.pcb.Wait()
			continue
		}

		other := st.buf.Chunk(otherIdx)
		if !st.crossFading {
			fadePosition := st.pipe.ByteSize() / ChunkSize
			if fadePosition < 1 {
				fadePosition = 1
			}
			st.crossFadeChunks = fadePosition
			st.crossFading = true
		}

		ownIdx, hasOwn := st.pipe.Shift()
		if !hasOwn {
			st.buf.Return(otherIdx)
			st.xfade = xfadeDisabled
			return true
		}
		own := st.buf.Chunk(ownIdx)

		CrossFadeApply(other.bytes(), own.bytes(), st.crossFadeChunks-st.pipe.Size(), st.crossFadeChunks)
		ok2 := playChunk(p, st, other, p.dcb.OutFormat())
		st.buf.Return(ownIdx)
		st.buf.Return(otherIdx)
		return ok2
	}
}

// teardown frees every resource doPlay acquired and notifies listeners
// that playback ended.
func teardown(p *Player, st *playerState) {
	if st.queued {
		p.pcb.mu.Lock()
		p.pcb.nextSong = nil
		p.pcb.mu.Unlock()
	}
	p.dcb.Stop()
	p.pcb.setState(StateStop)
	p.pcb.Events().Emit(Event{Kind: EventPlaylist})

	if dcPipe := p.dcb.Pipe(); dcPipe != nil && dcPipe != st.pipe {
		dcPipe.Clear()
	}
	p.dcb.SetPipe(nil)
	st.pipe.Clear()
}

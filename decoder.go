package player

import (
	"io"
	"time"

	"github.com/pkg/errors"
)

// Decoder is the external collaborator the core drives through the DCB
// (§1, §4.2): given a song, it opens a Stream of decoded PCM. Concrete
// decoders (filedecoder, or a test fake) implement this; the core never
// inspects the encoded bytes itself.
type Decoder interface {
	Open(song *Song) (Stream, error)
}

// Stream produces PCM chunks for one song. ReadChunk fills c with up to
// ChunkSize bytes and returns io.EOF once the song is exhausted.
type Stream interface {
	Format() Format
	TotalTime() time.Duration
	Tag() *Tag
	ReadChunk(c *Chunk) error
	Seek(where time.Duration) error
	Close() error
}

// RunDecoder drives dcb from dec, pushing decoded chunks into whatever pipe
// dcb.SetPipe last assigned, until quit is requested. It is the concrete
// decoder task the spec treats as an external collaborator (§1); this
// module supplies it so the core is runnable end to end (§9.1).
func RunDecoder(dcb *DCB, buf *Buffer, dec Decoder) {
	var stream Stream
	var song *Song

	closeStream := func() {
		if stream != nil {
			stream.Close()
			stream = nil
		}
	}
	defer closeStream()

	setFailed := func(err error) {
		dcb.mu.Lock()
		dcb.status = decoderFailed
		dcb.failErr = err
		dcb.mu.Unlock()
		dcb.wakeSignal()
	}

	setIdle := func() {
		dcb.mu.Lock()
		dcb.status = decoderIdle
		dcb.pipe = nil
		dcb.mu.Unlock()
		dcb.wakeSignal()
	}

	startSong := func(s *Song) bool {
		closeStream()
		song = s
		var err error
		stream, err = dec.Open(s)
		if err != nil {
			setFailed(errors.Wrapf(err, "open song %s", s.URL))
			return false
		}

		dcb.mu.Lock()
		dcb.currentSong = s
		dcb.inFormat = stream.Format()
		dcb.outFormat = stream.Format()
		dcb.totalTime = stream.TotalTime()
		dcb.status = decoderRunning
		dcb.mu.Unlock()
		dcb.wakeSignal()
		return true
	}

	// decodeOne produces and pushes one chunk. ok is false when the song is
	// done (EOF/failure) and the caller should stop calling it; full is true
	// when the buffer is momentarily exhausted and the caller should wait on
	// buf.FreedSignal() before calling decodeOne again, rather than block
	// inside it where a pending command couldn't be observed.
	decodeOne := func() (ok bool, full bool) {
		dcb.mu.Lock()
		pipe := dcb.pipe
		dcb.mu.Unlock()
		if pipe == nil || stream == nil {
			return false, false
		}

		idx, err := buf.Allocate()
		if err != nil {
			return true, true
		}
		chunk := buf.Chunk(idx)
		chunk.Format = dcb.OutFormat()
		err = stream.ReadChunk(chunk)
		if chunk.Length > 0 {
			if t := stream.Tag(); t != nil {
				chunk.Tag = t
			}
			pipe.Push(idx)
		} else {
			buf.Return(idx)
		}
		if err == io.EOF {
			setIdle()
			return false, false
		}
		if err != nil {
			setFailed(errors.Wrap(err, "decode chunk"))
			return false, false
		}
		return true, false
	}

	for {
		select {
		case <-dcb.quit:
			return
		case <-dcb.cmdSig:
		}

		dcb.mu.Lock()
		cmd := dcb.cmd
		cmdSong := dcb.cmdSong
		seekWhere := dcb.seekWhere
		dcb.cmd = decCmdNone
		dcb.mu.Unlock()

		switch cmd {
		case decCmdStart:
			if !startSong(cmdSong) {
				continue
			}
		case decCmdSeek:
			ok := stream != nil && stream.Seek(seekWhere) == nil
			dcb.mu.Lock()
			dcb.seekOK = ok
			dcb.mu.Unlock()
			dcb.wakeSignal()
			continue
		case decCmdStop:
			setIdle()
			continue
		case decCmdQuit:
			return
		default:
			continue
		}

		// Keep decoding the started song, interleaved with any further
		// command that arrives (seek, stop, a queued start that replaces
		// the pipe), until EOF/failure/idle.
	runSong:
		for {
			select {
			case <-dcb.quit:
				return
			case <-dcb.cmdSig:
				dcb.mu.Lock()
				next := dcb.cmd
				dcb.cmd = decCmdNone
				nextSeek := dcb.seekWhere
				dcb.mu.Unlock()
				switch next {
				case decCmdSeek:
					ok := stream != nil && stream.Seek(nextSeek) == nil
					dcb.mu.Lock()
					dcb.seekOK = ok
					dcb.mu.Unlock()
					dcb.wakeSignal()
				case decCmdStop:
					setIdle()
					break runSong
				case decCmdQuit:
					return
				}
			default:
				ok, full := decodeOne()
				if !ok {
					break runSong
				}
				if full {
					select {
					case <-dcb.quit:
						return
					case <-dcb.cmdSig:
						// Don't consume the command here: put the signal
						// back so the loop's top-of-iteration select
						// handles it uniformly next time around.
						dcb.signalCommand()
					case <-buf.FreedSignal():
					}
				}
			}
		}
	}
}

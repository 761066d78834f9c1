// Package filedecoder adapts local audio files into a player.Decoder,
// producing fixed-size PCM chunks for mp3 and raw little-endian PCM/WAV
// input. It is the minimal decoder this module ships so the playback core
// is runnable end to end without a full format zoo.
package filedecoder

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/pkg/errors"

	"github.com/jkabot/soundcore"
)

// mp3 always decodes to 16-bit stereo PCM at the source's sample rate.
const mp3BytesPerFrame = 4

// Decoder opens local files by extension, dispatching to an mp3 decoder
// or a raw/WAV PCM reader.
type Decoder struct {
	// PCMFormat is the format assumed for raw PCM files: files without a
	// mp3 extension and without a RIFF/WAVE header (a WAV header's own
	// format takes precedence, §9.1's minimal fixed-frame format).
	PCMFormat player.Format
}

// Open implements player.Decoder.
func (d Decoder) Open(song *player.Song) (player.Stream, error) {
	f, err := os.Open(song.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", song.URL)
	}

	tag := readTag(song.URL)

	switch strings.ToLower(filepath.Ext(song.URL)) {
	case ".mp3":
		return newMP3Stream(f, tag)
	default:
		return newPCMStream(f, d.PCMFormat, tag)
	}
}

func readTag(path string) *player.Tag {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil
	}
	return player.TagFromMetadata(m)
}

type mp3Stream struct {
	f       *os.File
	decoder *mp3.Decoder
	tag     *player.Tag
	elapsed time.Duration
	format  player.Format
}

func newMP3Stream(f *os.File, t *player.Tag) (*mp3Stream, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "decode mp3")
	}
	return &mp3Stream{
		f:       f,
		decoder: dec,
		tag:     t,
		format:  player.Format{SampleRate: uint(dec.SampleRate()), Bits: 16, Channels: 2},
	}, nil
}

func (s *mp3Stream) Format() player.Format       { return s.format }
func (s *mp3Stream) TotalTime() time.Duration    { return s.format.Duration(int(s.decoder.Length())) }
func (s *mp3Stream) Tag() *player.Tag            { return s.tag }
func (s *mp3Stream) Close() error                { return s.decoder.Close() }

func (s *mp3Stream) ReadChunk(c *player.Chunk) error {
	n, err := s.decoder.Read(c.Data[:])
	c.Length = n
	c.Format = s.format
	c.Tag = s.tag
	s.elapsed += s.format.Duration(n)
	c.Times = s.elapsed
	if n == 0 && err == nil {
		err = io.EOF
	}
	return err
}

func (s *mp3Stream) Seek(where time.Duration) error {
	bytePos := int64(where.Seconds() * float64(s.format.SampleRate) * float64(mp3BytesPerFrame))
	n, err := s.decoder.Seek(bytePos, io.SeekStart)
	if err != nil {
		return errors.Wrap(err, "seek mp3")
	}
	s.elapsed = s.format.Duration(int(n))
	return nil
}

// pcmStream reads raw interleaved PCM samples, optionally skipping a WAV
// header (§9.1's "fixed-frame PCM/WAV" minimal decoder).
type pcmStream struct {
	f       *os.File
	format  player.Format
	tag     *player.Tag
	elapsed time.Duration
	total   time.Duration
	dataOff int64
}

func newPCMStream(f *os.File, format player.Format, t *player.Tag) (*pcmStream, error) {
	dataOff := int64(0)
	if wavFormat, off, ok := readWAVHeader(f); ok {
		format = wavFormat
		dataOff = off
	}
	if _, err := f.Seek(dataOff, io.SeekStart); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "seek past header")
	}

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(dataOff, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}

	return &pcmStream{
		f:       f,
		format:  format,
		tag:     t,
		total:   format.Duration(int(size - dataOff)),
		dataOff: dataOff,
	}, nil
}

func (s *pcmStream) Format() player.Format    { return s.format }
func (s *pcmStream) TotalTime() time.Duration { return s.total }
func (s *pcmStream) Tag() *player.Tag         { return s.tag }
func (s *pcmStream) Close() error             { return s.f.Close() }

func (s *pcmStream) ReadChunk(c *player.Chunk) error {
	n, err := io.ReadFull(s.f, c.Data[:])
	if err == io.ErrUnexpectedEOF {
		err = nil
	}
	c.Length = n
	c.Format = s.format
	c.Tag = s.tag
	s.elapsed += s.format.Duration(n)
	c.Times = s.elapsed
	if n == 0 && err == nil {
		err = io.EOF
	}
	return err
}

func (s *pcmStream) Seek(where time.Duration) error {
	frame := s.format.FrameSize()
	if frame == 0 {
		return errors.New("unknown PCM format")
	}
	bytePos := s.dataOff + int64(where.Seconds()*float64(s.format.SampleRate))*int64(frame)
	if _, err := s.f.Seek(bytePos, io.SeekStart); err != nil {
		return errors.Wrap(err, "seek pcm")
	}
	s.elapsed = where
	return nil
}

// readWAVHeader parses a canonical 44-byte RIFF/WAVE header, returning the
// format it describes and the byte offset of the "data" chunk. ok is false
// for anything that doesn't look like a RIFF/WAVE file, in which case the
// caller's configured PCMFormat is used instead.
func readWAVHeader(f *os.File) (player.Format, int64, bool) {
	var hdr [44]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		return player.Format{}, 0, false
	}
	if string(hdr[0:4]) != "RIFF" || string(hdr[8:12]) != "WAVE" {
		return player.Format{}, 0, false
	}
	channels := binary.LittleEndian.Uint16(hdr[22:24])
	sampleRate := binary.LittleEndian.Uint32(hdr[24:28])
	bitsPerSample := binary.LittleEndian.Uint16(hdr[34:36])
	return player.Format{
		SampleRate: uint(sampleRate),
		Bits:       uint(bitsPerSample),
		Channels:   uint(channels),
	}, 44, true
}

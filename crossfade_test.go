package player

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCrossFadeCalcDisabledWhenNotConfigured(t *testing.T) {
	t.Parallel()
	f := Format{SampleRate: 44100, Bits: 16, Channels: 2}
	assert.Equal(t, 0, CrossFadeCalc(0, time.Minute, f, f, 100))
}

func TestCrossFadeCalcDisabledOnFormatMismatch(t *testing.T) {
	t.Parallel()
	out := Format{SampleRate: 44100, Bits: 16, Channels: 2}
	play := Format{SampleRate: 48000, Bits: 16, Channels: 2}
	assert.Equal(t, 0, CrossFadeCalc(3, time.Minute, out, play, 100))
}

func TestCrossFadeCalcClampsToMaxChunks(t *testing.T) {
	t.Parallel()
	f := Format{SampleRate: 44100, Bits: 16, Channels: 2}
	chunks := CrossFadeCalc(30, time.Hour, f, f, 5)
	assert.LessOrEqual(t, chunks, 5)
	assert.Greater(t, chunks, 0)
}

func TestCrossFadeCalcDisabledForShortSong(t *testing.T) {
	t.Parallel()
	f := Format{SampleRate: 44100, Bits: 16, Channels: 2}
	long := CrossFadeCalc(10, time.Hour, f, f, 1000)
	short := CrossFadeCalc(10, time.Second, f, f, 1000)
	assert.Less(t, short, long)
	assert.Zero(t, short)
}

func TestCrossFadeApplyRampsBothSongs(t *testing.T) {
	t.Parallel()

	// At chunkIndex 0 of a 4-chunk window, incoming is faded to silence
	// and outgoing plays at full volume, so the mix is dominated by
	// outgoing.
	early := int16LE(10000, 10000)
	CrossFadeApply(early, int16LE(10000, 10000), 0, 4)
	gotEarly := readInt16LE(t, early)
	assert.Greater(t, gotEarly[0], int16(9000))

	// At the last chunk of the window, outgoing is faded toward silence
	// (25% gain at index 3 of 4). Incoming is silent here, so the mix is
	// only what is left of outgoing and falls below the early mix.
	late := int16LE(0, 0)
	CrossFadeApply(late, int16LE(10000, 10000), 3, 4)
	gotLate := readInt16LE(t, late)
	assert.Less(t, gotLate[0], gotEarly[0])
}

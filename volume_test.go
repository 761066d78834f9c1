package player

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func int16LE(samples ...int16) []byte {
	buf := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(s))
	}
	return buf
}

func readInt16LE(t *testing.T, data []byte) []int16 {
	t.Helper()
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return out
}

func TestPCMVolumeNoOpAtFullVolume(t *testing.T) {
	t.Parallel()
	data := int16LE(100, -200, 32000)
	original := append([]byte(nil), data...)
	PCMVolume(data, 100)
	assert.Equal(t, original, data)
}

func TestPCMVolumeScalesDown(t *testing.T) {
	t.Parallel()
	data := int16LE(1000, -1000)
	PCMVolume(data, 50)
	got := readInt16LE(t, data)
	assert.Equal(t, []int16{500, -500}, got)
}

func TestPCMVolumeClampsOnOverflow(t *testing.T) {
	t.Parallel()
	data := int16LE(30000, -30000)
	PCMVolume(data, 200)
	got := readInt16LE(t, data)
	assert.Equal(t, int16(32767), got[0])
	assert.Equal(t, int16(-32768), got[1])
}

func TestPCMMixAddSaturates(t *testing.T) {
	t.Parallel()
	dst := int16LE(30000, -30000)
	src := int16LE(30000, -30000)
	PCMMixAdd(dst, src)
	got := readInt16LE(t, dst)
	assert.Equal(t, int16(32767), got[0])
	assert.Equal(t, int16(-32768), got[1])
}

package player

// PCMVolume scales the signed 16-bit little-endian PCM samples in data by
// volume/100 in place. Odd trailing bytes (a partial sample at the end of a
// short chunk) are left untouched.
//
// This is implemented directly against the standard library rather than
// through a streaming/decoder library such as github.com/gopxl/beep:
// every DSP primitive beep exposes operates on its own float64 Streamer
// frames, not on the raw byte chunks the chunk buffer already owns, so
// adopting it would mean decoding into beep's model and back out again
// for every chunk instead of scaling the bytes in place.
func PCMVolume(data []byte, volume int) {
	if volume == 100 {
		return
	}
	n := len(data) - (len(data) % 2)
	for i := 0; i < n; i += 2 {
		sample := int16(data[i]) | int16(data[i+1])<<8
		scaled := int32(sample) * int32(volume) / 100
		if scaled > 32767 {
			scaled = 32767
		} else if scaled < -32768 {
			scaled = -32768
		}
		data[i] = byte(scaled)
		data[i+1] = byte(scaled >> 8)
	}
}

// PCMMixAdd mixes src into dst sample-by-sample with saturation, used by
// crossfade to blend the tail of the outgoing song into the head of the
// incoming one (§4.7).
func PCMMixAdd(dst, src []byte) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	n -= n % 2
	for i := 0; i < n; i += 2 {
		a := int16(dst[i]) | int16(dst[i+1])<<8
		b := int16(src[i]) | int16(src[i+1])<<8
		sum := int32(a) + int32(b)
		if sum > 32767 {
			sum = 32767
		} else if sum < -32768 {
			sum = -32768
		}
		dst[i] = byte(sum)
		dst[i+1] = byte(sum >> 8)
	}
}

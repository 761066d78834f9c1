package player

import "time"

// CrossFadeApply blends outgoing (the tail of the song finishing) into
// incoming (the head of the song starting) in place on incoming, linearly
// ramping outgoing's gain down from full to silent across the call and
// incoming's gain up from silent to full, per §4.7's "overlap and ramp"
// description. chunkIndex counts up from 0 across the crossfade window;
// totalChunks is the window's length in chunks. incoming and outgoing must
// be the same format.
func CrossFadeApply(incoming, outgoing []byte, chunkIndex, totalChunks int) {
	if totalChunks <= 0 {
		return
	}
	fadeIn := (chunkIndex * 100) / totalChunks
	fadeOut := 100 - fadeIn

	faded := make([]byte, len(outgoing))
	copy(faded, outgoing)
	PCMVolume(faded, fadeOut)
	PCMVolume(incoming, fadeIn)
	PCMMixAdd(incoming, faded)
}

// CrossFadeCalc decides how many chunks the upcoming crossfade window
// should span (§4.4 step 5's cross_fade_calc). It returns 0 (crossfade
// disabled) when configuredSeconds is non-positive, when the incoming
// song is too short to support the configured window, or when formats
// differ in a way this implementation cannot mix. maxChunks caps the
// result to the playable headroom left in the buffer once the
// buffered-before-play floor is reserved.
func CrossFadeCalc(configuredSeconds float64, songTotal time.Duration, outFormat, playFormat Format, maxChunks int) int {
	if configuredSeconds <= 0 || maxChunks <= 0 {
		return 0
	}
	if outFormat != playFormat {
		return 0
	}
	window := time.Duration(configuredSeconds * float64(time.Second))
	if songTotal > 0 && songTotal < window {
		return 0
	}
	chunks := CrossFadeWindowChunks(outFormat, window)
	if chunks > maxChunks {
		chunks = maxChunks
	}
	return chunks
}

// CrossFadeWindowChunks returns how many chunks long the crossfade overlap
// window is for a song of the given format and configured crossfade
// duration, rounded down to whole chunks but never less than one.
func CrossFadeWindowChunks(f Format, windowDuration time.Duration) int {
	bytes := f.FrameSize()
	if bytes == 0 {
		return 0
	}
	totalBytes := int(windowDuration.Seconds() * float64(f.SampleRate) * float64(bytes))
	chunks := totalBytes / ChunkSize
	if chunks < 1 {
		return 1
	}
	return chunks
}

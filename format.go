package player

import "time"

// Format describes the shape of raw PCM samples flowing through the core:
// sample rate in Hz, bit depth, and channel count.
type Format struct {
	SampleRate uint
	Bits       uint
	Channels   uint
}

// FrameSize returns the byte size of one sample frame (one sample per channel).
func (f Format) FrameSize() int {
	return int(f.Bits/8) * int(f.Channels)
}

// SizeToTime returns the duration represented by one byte of audio in this format.
func (f Format) SizeToTime() time.Duration {
	frame := f.FrameSize()
	if frame == 0 || f.SampleRate == 0 {
		return 0
	}
	bytesPerSecond := float64(frame) * float64(f.SampleRate)
	return time.Duration(float64(time.Second) / bytesPerSecond)
}

// Duration converts a byte length in this format to a time.Duration.
func (f Format) Duration(length int) time.Duration {
	frame := f.FrameSize()
	if frame == 0 || f.SampleRate == 0 {
		return 0
	}
	frames := float64(length) / float64(frame)
	return time.Duration(frames / float64(f.SampleRate) * float64(time.Second))
}

// WholeFrames rounds n down to the nearest whole number of frames for this format.
func (f Format) WholeFrames(n int) int {
	frame := f.FrameSize()
	if frame == 0 {
		return 0
	}
	return (n / frame) * frame
}

package audio

import "time"

const (
	SampleRate    = 48000
	Channels      = 2
	BitDepth      = 16
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total interleaved samples per frame
	FrameBytes    = FrameSamples * 2     // bytes per frame (int16 = 2 bytes)
)

// Sample is a decoded note: interleaved stereo int16 PCM at SampleRate.
// It is shared by every voice that plays it and must not be modified.
type Sample struct {
	Note string
	PCM  []int16
}

// Frames returns the number of sample frames (per channel).
func (s *Sample) Frames() int {
	return len(s.PCM) / Channels
}

// Duration returns the playback length of the sample.
func (s *Sample) Duration() time.Duration {
	return time.Duration(s.Frames()) * time.Second / SampleRate
}

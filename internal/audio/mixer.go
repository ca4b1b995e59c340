package audio

import (
	"context"
	"log"
	"sync"
	"time"
)

// Mixer is the output sink of every voice. It sums the active voices and
// emits PCM frames at real-time rate.
type Mixer struct {
	frameCh   chan []int16
	gain      float64
	maxVoices int

	mu       sync.Mutex
	voices   []*Voice
	rendered uint64
}

// NewMixer creates a mixer with a master gain and a polyphony limit. When
// the limit is hit the oldest voice is cut.
func NewMixer(gain float64, maxVoices int) *Mixer {
	if maxVoices <= 0 {
		maxVoices = 32
	}
	return &Mixer{
		frameCh:   make(chan []int16, 100),
		gain:      gain,
		maxVoices: maxVoices,
	}
}

// Frames returns the channel of outgoing PCM frames (20ms each).
func (m *Mixer) Frames() <-chan []int16 {
	return m.frameCh
}

// Start adds a voice; it begins sounding on the next frame.
func (m *Mixer) Start(v *Voice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.voices) >= m.maxVoices {
		log.Printf("Mixer: polyphony limit %d reached, cutting voice %s", m.maxVoices, m.voices[0].Key)
		m.voices = m.voices[1:]
	}
	m.voices = append(m.voices, v)
}

// ActiveVoices returns the number of voices still sounding.
func (m *Mixer) ActiveVoices() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.voices)
}

// Rendered returns how many frames the mixer has produced.
func (m *Mixer) Rendered() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rendered
}

// Render mixes one frame from the active voices and drops finished ones.
func (m *Mixer) Render() []int16 {
	acc := make([]float64, FrameSamples)

	m.mu.Lock()
	live := m.voices[:0]
	for _, v := range m.voices {
		if !v.mixInto(acc, m.gain) {
			live = append(live, v)
		}
	}
	for i := len(live); i < len(m.voices); i++ {
		m.voices[i] = nil
	}
	m.voices = live
	m.rendered++
	m.mu.Unlock()

	frame := make([]int16, FrameSamples)
	for i, s := range acc {
		frame[i] = Clip16(s)
	}
	return frame
}

// Run starts the mixer clock. Blocks until ctx is cancelled.
func (m *Mixer) Run(ctx context.Context) {
	defer close(m.frameCh)

	ticker := time.NewTicker(FrameDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		select {
		case m.frameCh <- m.Render():
		case <-ctx.Done():
			return
		}
	}
}

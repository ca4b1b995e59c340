package audio

// Voice is one playing instance of a sample: the source node of a trigger's
// signal path. Everything it renders also passes through its analysis tap.
type Voice struct {
	Key    string
	sample *Sample
	tap    *Analyser
	frame  int // next sample frame to render
	mono   []float32
}

// NewVoice creates a voice for the sample. tap may be nil.
func NewVoice(key string, s *Sample, tap *Analyser) *Voice {
	return &Voice{Key: key, sample: s, tap: tap}
}

// Tap returns the voice's analyser, or nil.
func (v *Voice) Tap() *Analyser {
	return v.tap
}

// Done reports whether the whole sample has been rendered.
func (v *Voice) Done() bool {
	return v.frame >= v.sample.Frames()
}

// mixInto adds up to len(acc)/Channels frames of the voice to the
// interleaved accumulator, scaled by gain. Returns true once exhausted.
func (v *Voice) mixInto(acc []float64, gain float64) bool {
	pcm := v.sample.PCM
	frames := len(acc) / Channels
	remaining := v.sample.Frames() - v.frame
	if frames > remaining {
		frames = remaining
	}

	if v.tap != nil {
		v.mono = v.mono[:0]
	}
	for i := 0; i < frames; i++ {
		g := gain * AttackGain(v.frame+i)
		src := (v.frame + i) * Channels
		var sum float64
		for ch := 0; ch < Channels; ch++ {
			s := float64(pcm[src+ch]) * g
			acc[i*Channels+ch] += s
			sum += s
		}
		if v.tap != nil {
			v.mono = append(v.mono, float32(sum/Channels/32768))
		}
	}
	if v.tap != nil && len(v.mono) > 0 {
		v.tap.Write(v.mono)
	}

	v.frame += frames
	return v.Done()
}

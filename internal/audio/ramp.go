package audio

// Smoothstep returns the smoothstep interpolation for t in [0,1].
// Formula: 3t^2 - 2t^3.
func Smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// AttackFrames is the length of the fade-in applied to every voice, 2ms at
// 48kHz, long enough to hide the click of a sample starting mid-waveform.
const AttackFrames = 96

// AttackGain returns the fade-in gain for the given frame offset of a voice.
func AttackGain(frame int) float64 {
	if frame >= AttackFrames {
		return 1
	}
	return Smoothstep(float64(frame) / AttackFrames)
}

// Clip16 converts a mixed value to int16, saturating at the type bounds.
func Clip16(v float64) int16 {
	if v > 32767 {
		return 32767
	} else if v < -32768 {
		return -32768
	}
	return int16(v)
}

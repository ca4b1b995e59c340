package audio

import (
	"math"
	"math/bits"
	"math/cmplx"
	"sync"

	"github.com/viterin/vek/vek32"
)

// DefaultFFTSize is the analysis window length in samples.
const DefaultFFTSize = 4096

// Analyser is a spectral tap on a voice. It keeps the most recent window of
// mono samples that passed through it and transforms them on demand.
type Analyser struct {
	mu     sync.Mutex
	size   int
	ring   []float32
	pos    int
	filled int

	window     []float32 // Hann weighting
	normFactor float32   // window sum, to undo the windowing gain
	bitPerm    []int     // bit-reversal permutation table
	tmp1, tmp2 []float32
	tmpC       []complex128
}

// NewAnalyser creates a tap with the given FFT size, rounded up to a power
// of two.
func NewAnalyser(fftSize int) *Analyser {
	if fftSize < 32 {
		fftSize = 32
	}
	n := 1 << bits.Len(uint(fftSize-1))
	logn := bits.Len(uint(n)) - 1

	a := &Analyser{
		size:    n,
		ring:    make([]float32, n),
		window:  make([]float32, n),
		bitPerm: make([]int, n),
		tmp1:    make([]float32, n),
		tmp2:    make([]float32, n),
		tmpC:    make([]complex128, n),
	}
	for i := range a.window {
		a.window[i] = float32(0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1))))
		a.normFactor += a.window[i]
		a.bitPerm[i] = int(bits.Reverse(uint(i)) >> (bits.UintSize - logn))
	}
	return a
}

// Size returns the FFT size.
func (a *Analyser) Size() int {
	return a.size
}

// Write feeds mono samples in [-1, 1] into the tap.
func (a *Analyser) Write(samples []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range samples {
		a.ring[a.pos] = s
		a.pos = (a.pos + 1) % a.size
	}
	a.filled = min(a.filled+len(samples), a.size)
}

// Filled reports how many samples of the window hold data.
func (a *Analyser) Filled() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.filled
}

// FrequencyData returns the power spectrum of the current window in
// decibels, Size()/2 bins starting at DC. Bin i is centred on
// i*SampleRate/Size() Hz. Silent bins come out as -Inf.
func (a *Analyser) FrequencyData() []float32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.size
	// unroll the ring so the oldest sample comes first
	copy(a.tmp1, a.ring[a.pos:])
	copy(a.tmp1[n-a.pos:], a.ring[:a.pos])

	vek32.Mul_Inplace(a.tmp1, a.window)          // apply windowing
	vek32.Gather_Into(a.tmp2, a.tmp1, a.bitPerm) // bit-reversal permutation
	c := a.tmpC
	for i := range c {
		c[i] = complex(float64(a.tmp2[i]), 0)
	}
	for l := 2; l <= n; l <<= 1 {
		ang := -2 * math.Pi / float64(l)
		wlen := complex(math.Cos(ang), math.Sin(ang))
		for i := 0; i < n; i += l {
			w := complex(1, 0)
			for j := 0; j < l/2; j++ {
				u := c[i+j]
				v := c[i+j+l/2] * w
				c[i+j] = u + v
				c[i+j+l/2] = u - v
				w *= wlen
			}
		}
	}

	m := n / 2
	mag := make([]float32, m)
	for i := 0; i < m; i++ {
		mag[i] = float32(cmplx.Abs(c[i]))
	}
	power := make([]float32, m)
	vek32.Mul_Into(power, mag, mag)
	vek32.DivNumber_Inplace(power, a.normFactor*a.normFactor)
	vek32.Log10_Inplace(power)
	vek32.MulNumber_Inplace(power, 10)
	return power
}

// PeakFrequency finds the loudest bin below maxHz and converts its index to
// Hz as bin*sampleRate/fftSize. It returns 0 when the spectrum is empty.
func PeakFrequency(spectrum []float32, sampleRate, fftSize int, maxHz float64) float64 {
	binHz := float64(sampleRate) / float64(fftSize)
	maxBin := int(math.Floor(maxHz / binHz))
	if maxBin > len(spectrum) {
		maxBin = len(spectrum)
	}
	if maxBin <= 0 {
		return 0
	}
	idx := vek32.ArgMax(spectrum[:maxBin])
	return float64(idx) * binHz
}

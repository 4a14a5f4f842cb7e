package scope

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

const (
	minDB = -80.0

	attack = 0.7
	decay  = 0.15
)

// Mono averages interleaved stereo frames into dst, scaled to [-1, 1).
func Mono(dst []float64, samples []int16) []float64 {
	dst = dst[:0]
	for i := 0; i+1 < len(samples); i += 2 {
		dst = append(dst, (float64(samples[i])+float64(samples[i+1]))/65536)
	}
	return dst
}

// Trigger returns the index of the first rising zero crossing in the first quarter of
// mono, or 0 when there is none. Starting the trace there keeps a steady tone still.
func Trigger(mono []float64) int {
	search := min(len(mono)/4, len(mono)-2)
	for i := 1; i < search; i++ {
		if mono[i-1] <= 0 && mono[i] > 0 {
			return i
		}
	}
	return 0
}

// followPeak tracks the waveform peak with a fast attack and slow release.
func followPeak(prev float64, mono []float64) float64 {
	target := 0.01
	for _, s := range mono {
		target = max(target, math.Abs(s))
	}
	if target > prev {
		prev = prev*0.3 + target*0.7
	} else {
		prev = prev*0.995 + target*0.005
	}
	return max(prev, 0.01)
}

// Analyzer turns the newest block of samples into smoothed log-frequency bars in 0..1.
type Analyzer struct {
	size   int
	window []float64
	buf    []float64
	bars   []float64
}

// NewAnalyzer analyzes blocks of size samples (a power of two) into bars bands.
func NewAnalyzer(size, bars int) *Analyzer {
	a := &Analyzer{
		size:   size,
		window: make([]float64, size),
		buf:    make([]float64, size),
		bars:   make([]float64, bars),
	}
	for i := range a.window {
		a.window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return a
}

// band returns the FFT bins [lo, hi) shown by bar i. Bin 0 (DC) is never shown.
func (a *Analyzer) band(i int) (lo, hi int) {
	half := a.size / 2
	span := math.Log(float64(half))
	n := float64(len(a.bars))
	lo = int(math.Exp(float64(i) / n * span))
	hi = int(math.Exp(float64(i+1) / n * span))
	if i == len(a.bars)-1 {
		hi = half
	}
	hi = min(max(hi, lo+1), half)
	lo = min(lo, hi-1)
	return lo, hi
}

// Update analyzes the last block of mono. Shorter input leaves the bars unchanged.
func (a *Analyzer) Update(mono []float64) []float64 {
	if len(mono) < a.size {
		return a.bars
	}
	tail := mono[len(mono)-a.size:]
	for i, s := range tail {
		a.buf[i] = s * a.window[i]
	}
	coeffs := fft.FFTReal(a.buf)
	for i := range a.bars {
		lo, hi := a.band(i)
		sum := 0.0
		for b := lo; b < hi; b++ {
			sum += cmplx.Abs(coeffs[b])
		}
		avg := sum / float64(hi-lo)
		db := 20 * math.Log10(avg/float64(a.size)+1e-10)
		norm := min(1, max(0, (db-minDB)/-minDB))
		if prev := a.bars[i]; norm > prev {
			a.bars[i] = prev*(1-attack) + norm*attack
		} else {
			a.bars[i] = prev*(1-decay) + norm*decay
		}
	}
	return a.bars
}

func (a *Analyzer) Reset() {
	clear(a.bars)
}

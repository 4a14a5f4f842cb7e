package effects

import "math"

// Limiter is a linked-stereo peak compressor that keeps the mixed output under a
// ceiling without hard clipping.
type Limiter struct {
	threshold float32
	ratio     float32
	attack    float32
	release   float32
	env       float32
}

// NewLimiter creates a limiter engaging at thresholdDB with the given ratio and
// attack/release times in milliseconds.
func NewLimiter(sampleRate int, thresholdDB, ratio, attackMs, releaseMs float32) *Limiter {
	sr := float64(sampleRate)
	if ratio < 1 {
		ratio = 1
	}
	return &Limiter{
		threshold: float32(math.Pow(10, float64(thresholdDB)/20)),
		ratio:     ratio,
		attack:    coefficient(attackMs, sr),
		release:   coefficient(releaseMs, sr),
	}
}

func coefficient(ms float32, sr float64) float32 {
	if ms <= 0 {
		return 1
	}
	return float32(1.0 - math.Exp(-1.0/(float64(ms)*sr/1000.0)))
}

func (c *Limiter) Process(l, r float32) (float32, float32) {
	peak := float32(math.Max(math.Abs(float64(l)), math.Abs(float64(r))))
	if peak > c.env {
		c.env += c.attack * (peak - c.env)
	} else {
		c.env += c.release * (peak - c.env)
	}
	g := c.gain()
	return l * g, r * g
}

func (c *Limiter) gain() float32 {
	if c.env <= c.threshold || c.threshold <= 0 {
		return 1
	}
	over := c.env / c.threshold
	return float32(math.Pow(float64(over), float64(1.0/c.ratio-1)))
}

func (c *Limiter) Reset() { c.env = 0 }

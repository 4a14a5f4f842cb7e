package effects

// Delay is a stereo echo with feedback and cross-channel mixing.
type Delay struct {
	bufL, bufR []float32
	pos        int
	feedback   float32
	cross      float32
	wet        float32
}

// NewDelay creates a delay of delayMs milliseconds. feedback is capped at 0.95;
// cross and wet are 0..1.
func NewDelay(sampleRate int, delayMs float64, feedback, cross, wet float32) *Delay {
	samples := int(delayMs * float64(sampleRate) / 1000.0)
	if samples < 1 {
		samples = 1
	}
	d := &Delay{
		bufL: make([]float32, samples),
		bufR: make([]float32, samples),
	}
	d.SetMix(feedback, cross, wet)
	return d
}

func (d *Delay) SetMix(feedback, cross, wet float32) {
	d.feedback = clamp(feedback, 0, 0.95)
	d.cross = clamp(cross, 0, 1)
	d.wet = clamp(wet, 0, 1)
}

func (d *Delay) Process(l, r float32) (float32, float32) {
	delL := d.bufL[d.pos]
	delR := d.bufR[d.pos]
	fbL := delL*d.feedback*(1-d.cross) + delR*d.feedback*d.cross
	fbR := delR*d.feedback*(1-d.cross) + delL*d.feedback*d.cross
	d.bufL[d.pos] = l + fbL
	d.bufR[d.pos] = r + fbR
	d.pos++
	if d.pos >= len(d.bufL) {
		d.pos = 0
	}
	// Crossed taps put each channel's echo on the opposite side.
	outL := delL*(1-d.cross) + delR*d.cross
	outR := delR*(1-d.cross) + delL*d.cross
	return l*(1-d.wet) + outL*d.wet, r*(1-d.wet) + outR*d.wet
}

func (d *Delay) Reset() {
	clear(d.bufL)
	clear(d.bufR)
	d.pos = 0
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Package lfo is the low-frequency oscillator behind song vibrato.
package lfo

import "math"

// Shape selects the modulation curve.
type Shape int

const (
	Triangle Shape = iota
	Sine
	Square
	Saw
)

// LFO produces one offset in [-depth, depth] per output sample. Every shape starts at
// zero so enabling it does not jump the pitch.
type LFO struct {
	sampleRate float64
	depth      float64
	step       float64
	shape      Shape
	phase      float64
}

func New(sampleRate int) *LFO {
	return &LFO{sampleRate: float64(sampleRate)}
}

// Set changes depth, rate and shape and restarts the cycle. Unknown shapes fall back
// to Triangle.
func (l *LFO) Set(depth, rateHz float64, shape Shape) {
	if shape < Triangle || shape > Saw {
		shape = Triangle
	}
	l.depth = depth
	l.shape = shape
	l.step = 0
	if l.sampleRate > 0 {
		l.step = rateHz / l.sampleRate
	}
	l.phase = 0
}

func (l *LFO) Active() bool { return l.depth != 0 && l.step != 0 }

func (l *LFO) Next() float64 {
	if !l.Active() {
		return 0
	}
	p := l.phase
	l.phase += l.step
	l.phase -= math.Floor(l.phase)

	var v float64
	switch l.shape {
	case Sine:
		v = math.Sin(2 * math.Pi * p)
	case Square:
		// Square holds its value for a half cycle, so it starts at the top.
		if p < 0.5 {
			v = 1
		} else {
			v = -1
		}
	case Saw:
		v = 2*math.Mod(p+0.5, 1) - 1
	default:
		switch {
		case p < 0.25:
			v = 4 * p
		case p < 0.75:
			v = 2 - 4*p
		default:
			v = 4*p - 4
		}
	}
	return v * l.depth
}

func (l *LFO) Reset() { l.phase = 0 }

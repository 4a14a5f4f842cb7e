package chip

import (
	"math"
	"sync/atomic"

	"github.com/cbegin/chipbox/internal/lfo"
)

const (
	twoPi            = math.Pi * 2
	defaultFrameRate = 240.0

	// MaxChannels is the number of channels an engine renders.
	MaxChannels = 16
	// MutableChannels is the number of channels addressable by the mute mask.
	MutableChannels = 9
)

// Waveform programs selected with @n.
const (
	WavePulse12 = iota
	WavePulse25
	WavePulse50
	WaveTriangle
	WaveNoise
)

var pulseDuty = [...]float64{0.125, 0.25, 0.5}

type Params struct {
	MasterGain   float64
	ReleaseStep  float64 // volume drop per frame clock after note-off
	PulseGain    float64
	TriangleGain float64
	NoiseGain    float64
	LPFCutoff    float64 // Hz, 0 disables the output filter
}

func DefaultParams() Params {
	return Params{
		MasterGain:   0.25,
		ReleaseStep:  1.0 / 24.0,
		PulseGain:    1.0,
		TriangleGain: 0.85,
		NoiseGain:    0.45,
		LPFCutoff:    12000,
	}
}

type channel struct {
	active   bool
	released bool
	id       int
	wave     int
	freq     float64
	phase    float64
	vol      float64
	pan      float64
	lfsr     uint16
}

// Engine is a fixed-channel chip synth: every channel plays one note at a time on one
// of the five waveforms. Note calls, SetVibrato and RenderFrame belong to the audio
// goroutine; the mask, accuracy and gain setters are safe from any goroutine.
type Engine struct {
	sampleRate   float64
	params       Params
	channels     [MaxChannels]channel
	nextID       int
	frameCounter int
	framePeriod  int
	lpfL, lpfR   float64
	lpfAlpha     float64
	vibrato      *lfo.LFO

	masterGain uint64
	muteMask   uint32
	accurate   atomic.Bool
}

func New(sampleRate int, params Params) *Engine {
	period := int(float64(sampleRate) / defaultFrameRate)
	if period <= 0 {
		period = 1
	}
	e := &Engine{
		sampleRate:  float64(sampleRate),
		params:      params,
		framePeriod: period,
		masterGain:  math.Float64bits(params.MasterGain),
		vibrato:     lfo.New(sampleRate),
	}
	for i := range e.channels {
		e.channels[i].lfsr = 0xACE1
	}
	if params.LPFCutoff > 0 && params.LPFCutoff < float64(sampleRate)/2 {
		rc := 1.0 / (twoPi * params.LPFCutoff)
		dt := 1.0 / float64(sampleRate)
		e.lpfAlpha = dt / (rc + dt)
	}
	return e
}

// NoteOn starts note on ch, cutting whatever the channel was playing. volume is 0-15,
// pan -64..64.
func (e *Engine) NoteOn(ch, note, volume, pan, program int) int {
	id := e.nextID
	e.nextID++
	if ch < 0 || ch >= MaxChannels {
		return id
	}
	c := &e.channels[ch]
	wave := program
	if wave < WavePulse12 || wave > WaveNoise {
		wave = WavePulse50
	}
	*c = channel{
		active: true,
		id:     id,
		wave:   wave,
		freq:   midiToFreq(note),
		vol:    clamp(float64(volume)/15.0, 0, 1),
		pan:    clamp(float64(pan), -64, 64),
		lfsr:   seedLFSR(c.lfsr, note, id),
	}
	return id
}

func (e *Engine) NoteOff(ch, id int) {
	if ch < 0 || ch >= MaxChannels {
		return
	}
	if c := &e.channels[ch]; c.active && c.id == id {
		c.released = true
	}
}

func (e *Engine) RenderFrame() (float32, float32) {
	e.frameCounter++
	if e.frameCounter >= e.framePeriod {
		e.frameCounter = 0
		e.clockFrame()
	}

	accurate := e.accurate.Load()
	mask := atomic.LoadUint32(&e.muteMask)
	bend := 1.0
	if e.vibrato.Active() {
		bend = math.Exp2(e.vibrato.Next() / 12)
	}
	var l, r float64
	for i := range e.channels {
		c := &e.channels[i]
		if !c.active {
			continue
		}
		v := e.renderChannel(c, accurate, bend)
		if i < MutableChannels && mask&(1<<i) != 0 {
			continue
		}
		angle := ((c.pan + 64.0) / 128.0) * (math.Pi / 2.0)
		l += v * math.Cos(angle)
		r += v * math.Sin(angle)
	}
	gain := e.masterGainValue()
	l *= gain
	r *= gain

	if e.lpfAlpha > 0 {
		e.lpfL += e.lpfAlpha * (l - e.lpfL)
		e.lpfR += e.lpfAlpha * (r - e.lpfR)
		l, r = e.lpfL, e.lpfR
	}
	return float32(clamp(l, -1, 1)), float32(clamp(r, -1, 1))
}

// renderChannel advances the oscillator even for muted channels so unmuting lands in phase.
// bend scales the pitch of the tonal waveforms.
func (e *Engine) renderChannel(c *channel, accurate bool, bend float64) float64 {
	level := c.vol
	if accurate {
		level = quantize(c.vol, 16)
	}
	if c.wave == WaveNoise {
		// Clock the shift register at the note frequency.
		c.phase += c.freq * 8 / e.sampleRate
		for c.phase >= 1 {
			c.phase--
			bit := (c.lfsr ^ (c.lfsr >> 1)) & 1
			c.lfsr = (c.lfsr >> 1) | (bit << 15)
		}
		if c.lfsr&1 == 1 {
			return level * e.params.NoiseGain
		}
		return -level * e.params.NoiseGain
	}

	dt := c.freq * bend / e.sampleRate
	c.phase += dt
	if c.phase >= 1 {
		c.phase -= 1
	}
	if c.wave == WaveTriangle {
		raw := 2*math.Abs(2*c.phase-1) - 1
		if accurate {
			// 32-step staircase like the hardware sequencer.
			raw = math.Round(raw*15.5) / 15.5
		}
		return raw * level * e.params.TriangleGain
	}

	duty := pulseDuty[c.wave]
	v := -1.0
	if c.phase < duty {
		v = 1
	}
	if accurate {
		v += polyBLEP(c.phase, dt)
		v -= polyBLEP(math.Mod(c.phase-duty+1, 1), dt)
	}
	return v * level * e.params.PulseGain
}

func (e *Engine) clockFrame() {
	release := e.params.ReleaseStep
	if release <= 0 {
		release = 1.0 / 24.0
	}
	for i := range e.channels {
		c := &e.channels[i]
		if !c.active || !c.released {
			continue
		}
		c.vol -= release
		if c.vol <= 0 {
			e.channels[i] = channel{lfsr: c.lfsr}
		}
	}
}

// SetVibrato applies a pitch LFO of depth semitones to every tonal channel. A zero
// depth or rate turns it off.
func (e *Engine) SetVibrato(depth, rateHz float64, shape int) {
	e.vibrato.Set(depth, rateHz, lfo.Shape(shape))
}

// SetMuteMask silences channel i+1 when bit i is set. Only the first
// MutableChannels bits are honoured.
func (e *Engine) SetMuteMask(mask int) {
	atomic.StoreUint32(&e.muteMask, uint32(mask)&(1<<MutableChannels-1))
}

func (e *Engine) MuteMask() int { return int(atomic.LoadUint32(&e.muteMask)) }

// SetAccuracy toggles band-limited oscillators and 4-bit volume steps.
func (e *Engine) SetAccuracy(on bool) { e.accurate.Store(on) }

func (e *Engine) SetMasterGain(gain float64) {
	if gain < 0 {
		gain = 0
	}
	atomic.StoreUint64(&e.masterGain, math.Float64bits(gain))
}

func (e *Engine) ActiveVoiceCount() int {
	n := 0
	for i := range e.channels {
		if e.channels[i].active {
			n++
		}
	}
	return n
}

// Reset silences every channel immediately.
func (e *Engine) Reset() {
	for i := range e.channels {
		e.channels[i] = channel{lfsr: 0xACE1}
	}
	e.lpfL, e.lpfR = 0, 0
	e.frameCounter = 0
	e.vibrato.Reset()
}

func (e *Engine) masterGainValue() float64 {
	return math.Float64frombits(atomic.LoadUint64(&e.masterGain))
}

// polyBLEP reduces aliasing at waveform discontinuities.
func polyBLEP(t, dt float64) float64 {
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

func midiToFreq(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}

func quantize(v float64, steps int) float64 {
	if steps <= 1 {
		return clamp(v, 0, 1)
	}
	return clamp(math.Round(v*float64(steps-1))/float64(steps-1), 0, 1)
}

func seedLFSR(prev uint16, note int, id int) uint16 {
	s := prev ^ uint16((note&0x7f)<<1) ^ uint16(id*73)
	if s == 0 {
		return 0xACE1
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package chip

import "testing"

func energy(e *Engine, frames int) (left, right float64) {
	for i := 0; i < frames; i++ {
		l, r := e.RenderFrame()
		if l < 0 {
			left -= float64(l)
		} else {
			left += float64(l)
		}
		if r < 0 {
			right -= float64(r)
		} else {
			right += float64(r)
		}
	}
	return left, right
}

func TestEngineGeneratesSignalOnEveryWaveform(t *testing.T) {
	for wave := WavePulse12; wave <= WaveNoise; wave++ {
		e := New(48000, DefaultParams())
		e.NoteOn(0, 60, 15, 0, wave)
		if l, r := energy(e, 4096); l == 0 || r == 0 {
			t.Fatalf("wave %d: expected non-zero output, got %f/%f", wave, l, r)
		}
	}
}

func TestEngineSupportsStereoPan(t *testing.T) {
	e := New(48000, DefaultParams())
	e.NoteOn(0, 60, 15, 64, WavePulse50)
	l, r := energy(e, 4096)
	if r <= l {
		t.Fatalf("expected right-biased signal, left=%f right=%f", l, r)
	}
}

func TestMuteMaskSilencesChannel(t *testing.T) {
	tests := []struct {
		name   string
		mask   int
		silent bool
	}{
		{name: "unmuted", mask: 0, silent: false},
		{name: "channel 2 muted", mask: 1 << 1, silent: true},
		{name: "other channel muted", mask: 1 << 0, silent: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := New(48000, DefaultParams())
			e.SetMuteMask(tc.mask)
			e.NoteOn(1, 60, 15, 0, WavePulse50)
			l, r := energy(e, 2048)
			if got := l+r == 0; got != tc.silent {
				t.Fatalf("silent = %v, want %v", got, tc.silent)
			}
		})
	}
}

func TestMuteMaskIgnoresHighBits(t *testing.T) {
	e := New(48000, DefaultParams())
	e.SetMuteMask(0xFFFF)
	if e.MuteMask() != 0x1FF {
		t.Fatalf("expected 9-bit mask, got %#x", e.MuteMask())
	}
	e.NoteOn(12, 60, 15, 0, WavePulse50)
	if l, _ := energy(e, 2048); l == 0 {
		t.Fatal("channels past the ninth cannot be muted")
	}
}

func TestNoteOffReleasesVoice(t *testing.T) {
	e := New(48000, DefaultParams())
	id := e.NoteOn(0, 60, 15, 0, WaveTriangle)
	e.NoteOff(0, id+1)
	energy(e, 48000)
	if e.ActiveVoiceCount() != 1 {
		t.Fatal("stale id must not release the channel")
	}
	e.NoteOff(0, id)
	energy(e, 48000)
	if e.ActiveVoiceCount() != 0 {
		t.Fatalf("expected release to finish, %d active", e.ActiveVoiceCount())
	}
}

func TestAccuracyChangesOutput(t *testing.T) {
	plain := New(48000, DefaultParams())
	exact := New(48000, DefaultParams())
	exact.SetAccuracy(true)
	plain.NoteOn(0, 93, 7, 0, WavePulse25)
	exact.NoteOn(0, 93, 7, 0, WavePulse25)
	differs := false
	for i := 0; i < 2048; i++ {
		a, _ := plain.RenderFrame()
		b, _ := exact.RenderFrame()
		if a != b {
			differs = true
			break
		}
	}
	if !differs {
		t.Fatal("accuracy mode should change the rendered waveform")
	}
}

func TestVibratoBendsPitch(t *testing.T) {
	// Count rising edges of a 50% pulse; vibrato must change the count.
	edges := func(e *Engine) int {
		n := 0
		prev, _ := e.RenderFrame()
		for i := 0; i < 4800; i++ {
			l, _ := e.RenderFrame()
			if prev <= 0 && l > 0 {
				n++
			}
			prev = l
		}
		return n
	}
	plain := New(48000, Params{MasterGain: 1, PulseGain: 1})
	plain.NoteOn(0, 69, 15, 0, WavePulse50)
	bent := New(48000, Params{MasterGain: 1, PulseGain: 1})
	bent.SetVibrato(12, 2.5, 3)
	bent.NoteOn(0, 69, 15, 0, WavePulse50)

	p, b := edges(plain), edges(bent)
	if p < 43 || p > 45 {
		t.Fatalf("expected about 44 cycles of A4 in 100 ms, got %d", p)
	}
	if b <= p {
		t.Fatalf("rising saw vibrato should raise the pitch: plain %d, bent %d", p, b)
	}
}

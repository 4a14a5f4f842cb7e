package effects

import (
	"math"
	"testing"
)

func TestDelayProducesOutput(t *testing.T) {
	d := NewDelay(44100, 100, 0.5, 0, 0.5)
	d.Process(1.0, 1.0)
	for i := 0; i < 4409; i++ { // ~100ms at 44100Hz
		d.Process(0, 0)
	}
	l, r := d.Process(0, 0)
	if math.Abs(float64(l)) < 0.01 || math.Abs(float64(r)) < 0.01 {
		t.Errorf("expected delayed output, got l=%f r=%f", l, r)
	}
}

func TestDelayCrossMovesEchoToOtherSide(t *testing.T) {
	d := NewDelay(1000, 10, 0, 1, 1)
	d.Process(1, 0)
	var l, r float32
	for i := 0; i < 10; i++ {
		l, r = d.Process(0, 0)
	}
	if l != 0 || r != 1 {
		t.Fatalf("expected left impulse echoed right, got l=%f r=%f", l, r)
	}
}

func TestSwitchBypassesWhenDisabled(t *testing.T) {
	d := NewDelay(1000, 1, 0, 0, 1)
	s := NewSwitch(d, true)
	if l, _ := s.Process(1, 1); l != 0 {
		t.Fatalf("fully wet delay should output the empty buffer first, got %f", l)
	}
	s.SetEnabled(false)
	if l, r := s.Process(0.5, 0.25); l != 0.5 || r != 0.25 {
		t.Fatalf("disabled switch must pass through, got %f/%f", l, r)
	}
	s.SetEnabled(true)
	if l, _ := s.Process(0, 0); l != 0 {
		t.Fatalf("re-enabled effect should start from silence, got %f", l)
	}
}

func TestStereoEchoDepth(t *testing.T) {
	tests := []struct {
		name  string
		depth float32
		echo  bool
	}{
		{name: "off", depth: 0, echo: false},
		{name: "slight", depth: 0.2, echo: true},
		{name: "more", depth: 0.4, echo: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStereoEcho(1000)
			s.SetDepth(tc.depth)
			l, r := s.Process(1, 0)
			if l != 1 || r != 0 {
				t.Fatalf("dry signal must pass unchanged, got %f/%f", l, r)
			}
			var heard bool
			for i := 0; i < 200; i++ {
				if _, r := s.Process(0, 0); r != 0 {
					heard = true
				}
			}
			if heard != tc.echo {
				t.Fatalf("echo heard = %v, want %v", heard, tc.echo)
			}
		})
	}
}

func TestLimiterReducesLoud(t *testing.T) {
	c := NewLimiter(44100, -6, 8, 1, 50)
	var out float32
	for i := 0; i < 1000; i++ {
		out, _ = c.Process(1.0, 1.0)
	}
	if out >= 1.0 {
		t.Errorf("limiter should reduce loud signals, got %f", out)
	}
	c.Reset()
	if l, _ := c.Process(0.1, 0.1); l != 0.1 {
		t.Errorf("quiet signal should pass untouched, got %f", l)
	}
}

func TestChainAppliesEffectsInOrder(t *testing.T) {
	c := NewChain(
		NewDelay(44100, 10, 0, 0, 0.5),
		nil,
		NewLimiter(44100, -6, 4, 1, 50),
	)
	l, r := c.Process(0.5, 0.5)
	if l == 0 || r == 0 {
		t.Error("chain should produce output")
	}
}

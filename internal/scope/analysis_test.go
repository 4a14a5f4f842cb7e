package scope

import (
	"bytes"
	"log"
	"math"
	"strings"
	"testing"
)

func TestMonoAveragesChannels(t *testing.T) {
	got := Mono(nil, []int16{16384, 16384, -32768, 0, 100})
	want := []float64{0.5, -0.5}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("frame %d = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestTrigger(t *testing.T) {
	tests := []struct {
		name string
		mono []float64
		want int
	}{
		{name: "empty", mono: nil, want: 0},
		{name: "rising crossing", mono: []float64{0.5, -0.2, -0.1, 0.3, 0.4, 0.2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, want: 3},
		{name: "no crossing", mono: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}, want: 0},
		{name: "crossing past first quarter", mono: []float64{0.1, 0.1, 0.1, -0.1, 0.1, 0.1, 0.1, 0.1}, want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Trigger(tc.mono); got != tc.want {
				t.Fatalf("Trigger = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestFollowPeakAttacksFastReleasesSlowly(t *testing.T) {
	loud := []float64{0.9, -0.9}
	quiet := []float64{0.05}
	p := followPeak(0.01, loud)
	if p < 0.6 {
		t.Fatalf("attack too slow: %f", p)
	}
	after := followPeak(p, quiet)
	if after >= p || after < p*0.99 {
		t.Fatalf("release should be slow: %f -> %f", p, after)
	}
}

func TestAnalyzerFindsTone(t *testing.T) {
	const size, bin = 512, 90
	a := NewAnalyzer(size, 64)
	mono := make([]float64, size)
	for i := range mono {
		mono[i] = 0.5 * math.Sin(2*math.Pi*bin*float64(i)/size)
	}
	var bars []float64
	for i := 0; i < 4; i++ {
		bars = a.Update(mono)
	}
	best := 0
	for i, v := range bars {
		if v > bars[best] {
			best = i
		}
	}
	if lo, hi := a.band(best); bin < lo || bin >= hi {
		t.Fatalf("loudest bar %d covers bins [%d,%d), tone at %d", best, lo, hi, bin)
	}
}

func TestAnalyzerSilenceAndShortInput(t *testing.T) {
	a := NewAnalyzer(256, 16)
	for _, v := range a.Update(make([]float64, 256)) {
		if v != 0 {
			t.Fatalf("silence produced bar %f", v)
		}
	}
	a.bars[3] = 0.5
	if got := a.Update(make([]float64, 10)); got[3] != 0.5 {
		t.Fatal("short input must leave bars unchanged")
	}
	a.Reset()
	if a.bars[3] != 0 {
		t.Fatal("reset should clear bars")
	}
}

func TestAnalyzerBandsSkipDCAndCoverHalf(t *testing.T) {
	a := NewAnalyzer(512, 64)
	prevHi := 1
	for i := range a.bars {
		lo, hi := a.band(i)
		if lo < 1 || hi <= lo || hi > 256 {
			t.Fatalf("bar %d has band [%d,%d)", i, lo, hi)
		}
		if lo > prevHi {
			t.Fatalf("gap before bar %d: [%d,%d) after %d", i, lo, hi, prevHi)
		}
		prevHi = hi
	}
	if prevHi != 256 {
		t.Fatalf("last band ends at %d", prevHi)
	}
}

func TestLogRendererSkipsRepeatedTitles(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogRenderer(log.New(&buf, "", 0))
	r.Draw([]int16{1, 2})
	r.SetTitle("Star Quest: 1/3 Opening (1:35)")
	r.SetTitle("Star Quest: 1/3 Opening (1:35)")
	r.SetInfo("Echo is disabled")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %q", buf.String())
	}
	if lines[1] != "[SCOPE] Echo is disabled" {
		t.Fatalf("info line = %q", lines[1])
	}
}

func TestRendererKeepsText(t *testing.T) {
	r := NewRenderer()
	r.SetTitle("title")
	r.SetInfo("info")
	r.Draw(make([]int16, fftSize*2))
	if r.Title() != "title" || r.Info() != "info" {
		t.Fatalf("got %q / %q", r.Title(), r.Info())
	}
	if len(r.bars) != numBars {
		t.Fatalf("expected %d bars, got %d", numBars, len(r.bars))
	}
}

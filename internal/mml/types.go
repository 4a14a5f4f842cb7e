package mml

import (
	"sort"
	"time"
)

type EventType int

const (
	EventNote EventType = iota + 1
	EventRest
	EventTempo
)

type Event struct {
	Type     EventType
	Tick     int
	Duration int // ticks until the next event on this track
	Gate     int // ticks the note sounds; <= Duration
	Note     int
	Volume   int // 0-15
	Program  int // waveform index
	Pan      int // -64..64
	BPM      float64
}

type Track struct {
	Events  []Event
	EndTick int
}

// EchoParams carries a song's #ECHO{delayMs,feedback,wet} directive.
type EchoParams struct {
	DelayMs  float64
	Feedback float64
	Wet      float64
}

// VibratoParams carries #VIBRATO{depth,rate[,shape]}: depth in semitones, rate in Hz,
// shape 0-3 for triangle, sine, square and saw.
type VibratoParams struct {
	Depth  float64
	RateHz float64
	Shape  int
}

type Song struct {
	Title      string
	Resolution int
	InitialBPM float64
	Tracks     []Track
	LengthMs   int // explicit #LENGTH; 0 means derive from the events
	Echo       *EchoParams
	Vibrato    *VibratoParams
}

// Album is a parsed music file: a game title and its songs in file order.
type Album struct {
	Title string
	Songs []Song
}

type ParserConfig struct {
	Resolution    int
	DefaultBPM    float64
	DefaultLValue int
	DefaultOctave int
	MinOctave     int
	MaxOctave     int
	DefaultVolume int
	DefaultGate   int // q value out of 8
	MaxTracks     int
}

func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		Resolution:    1920,
		DefaultBPM:    120,
		DefaultLValue: 4,
		DefaultOctave: 5,
		MinOctave:     0,
		MaxOctave:     9,
		DefaultVolume: 12,
		DefaultGate:   7,
		MaxTracks:     16,
	}
}

// EndTick returns the last tick of the longest track.
func (s *Song) EndTick() int {
	end := 0
	for _, tr := range s.Tracks {
		if tr.EndTick > end {
			end = tr.EndTick
		}
	}
	return end
}

// Duration returns the explicit #LENGTH when set, otherwise the play time of the
// longest track with every tempo change applied.
func (s *Song) Duration() time.Duration {
	if s.LengthMs > 0 {
		return time.Duration(s.LengthMs) * time.Millisecond
	}
	end := s.EndTick()
	if end == 0 || s.Resolution <= 0 {
		return 0
	}
	type change struct {
		tick int
		bpm  float64
	}
	changes := []change{}
	for _, tr := range s.Tracks {
		for _, ev := range tr.Events {
			if ev.Type == EventTempo && ev.BPM > 0 {
				changes = append(changes, change{ev.Tick, ev.BPM})
			}
		}
	}
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].tick < changes[j].tick })

	bpm := s.InitialBPM
	if bpm <= 0 {
		bpm = 120
	}
	seconds := 0.0
	at := 0
	for _, c := range changes {
		if c.tick >= end {
			break
		}
		seconds += ticksToSeconds(c.tick-at, bpm, s.Resolution)
		at = c.tick
		bpm = c.bpm
	}
	seconds += ticksToSeconds(end-at, bpm, s.Resolution)
	return time.Duration(seconds * float64(time.Second))
}

// A whole note is Resolution ticks and BPM counts quarter notes.
func ticksToSeconds(ticks int, bpm float64, resolution int) float64 {
	return float64(ticks) * 240.0 / (bpm * float64(resolution))
}

package mml

import (
	"strings"
	"testing"
	"time"
)

func parse(t *testing.T, src string) *Album {
	t.Helper()
	album, err := NewParser(DefaultParserConfig()).Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return album
}

func TestParseSingleSongWithoutDirectives(t *testing.T) {
	album := parse(t, "t120 o5 l4 cdef; o3 c1")
	if len(album.Songs) != 1 {
		t.Fatalf("expected 1 song, got %d", len(album.Songs))
	}
	song := album.Songs[0]
	if len(song.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(song.Tracks))
	}
	notes := 0
	for _, ev := range song.Tracks[0].Events {
		if ev.Type == EventNote {
			notes++
		}
	}
	if notes != 4 {
		t.Fatalf("expected 4 notes, got %d", notes)
	}
	if got := song.Tracks[0].Events[1].Note; got != 60 {
		t.Fatalf("o5 c should be note 60, got %d", got)
	}
	if song.EndTick() != 1920 {
		t.Fatalf("expected end tick 1920, got %d", song.EndTick())
	}
}

func TestParseAlbumDirectives(t *testing.T) {
	src := `
#TITLE{Star Quest}
#SONG{Opening}
#LENGTH{90000}
#ECHO{250, 0.4, 0.3}
o4 cdefg
#SONG{Boss}
#VIBRATO{0.5, 6}
t150 @2 c1
`
	album := parse(t, src)
	if album.Title != "Star Quest" {
		t.Fatalf("title = %q", album.Title)
	}
	if len(album.Songs) != 2 {
		t.Fatalf("expected 2 songs, got %d", len(album.Songs))
	}
	first := album.Songs[0]
	if first.Title != "Opening" || first.LengthMs != 90000 {
		t.Fatalf("unexpected first song %q length %d", first.Title, first.LengthMs)
	}
	if first.Echo == nil || first.Echo.DelayMs != 250 || first.Echo.Feedback != 0.4 || first.Echo.Wet != 0.3 {
		t.Fatalf("unexpected echo %+v", first.Echo)
	}
	if first.Duration() != 90*time.Second {
		t.Fatalf("explicit length should win, got %v", first.Duration())
	}
	second := album.Songs[1]
	if second.Echo != nil {
		t.Fatalf("echo should not carry over to the next song")
	}
	if first.Vibrato != nil {
		t.Fatalf("unexpected vibrato on the first song")
	}
	if v := second.Vibrato; v == nil || v.Depth != 0.5 || v.RateHz != 6 || v.Shape != 0 {
		t.Fatalf("unexpected vibrato %+v", second.Vibrato)
	}
	if second.Tracks[0].Events[1].Program != 2 {
		t.Fatalf("expected program 2, got %d", second.Tracks[0].Events[1].Program)
	}
}

func TestSongDurationFollowsTempoChanges(t *testing.T) {
	// 1920 ticks at 120 bpm is 2 s, then 1920 ticks at 60 bpm is 4 s.
	album := parse(t, "t120 c1 t60 c1")
	if got := album.Songs[0].Duration(); got != 6*time.Second {
		t.Fatalf("expected 6s, got %v", got)
	}
}

func TestParseLengths(t *testing.T) {
	tests := []struct {
		name string
		src  string
		dur  int
	}{
		{name: "default quarter", src: "c", dur: 480},
		{name: "explicit eighth", src: "c8", dur: 240},
		{name: "dotted quarter", src: "c4.", dur: 720},
		{name: "double dot", src: "c4..", dur: 840},
		{name: "tie", src: "c4^8", dur: 720},
		{name: "l sets default", src: "l16 c", dur: 120},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			album := parse(t, tc.src)
			ev := album.Songs[0].Tracks[0].Events[0]
			if ev.Duration != tc.dur {
				t.Fatalf("duration = %d, want %d", ev.Duration, tc.dur)
			}
		})
	}
}

func TestParseNoteModifiers(t *testing.T) {
	tests := []struct {
		src  string
		note int
	}{
		{"o4 c", 48},
		{"o4 c#", 49},
		{"o4 c+", 49},
		{"o4 e-", 51},
		{"o4 > c", 60},
		{"o4 < c", 36},
		{"O4 C", 48},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			album := parse(t, tc.src)
			if got := album.Songs[0].Tracks[0].Events[0].Note; got != tc.note {
				t.Fatalf("note = %d, want %d", got, tc.note)
			}
		})
	}
}

func TestParseVolumePanGate(t *testing.T) {
	album := parse(t, "v20 p0 q4 c4")
	ev := album.Songs[0].Tracks[0].Events[0]
	if ev.Volume != 15 {
		t.Fatalf("volume should clamp to 15, got %d", ev.Volume)
	}
	if ev.Pan != -64 {
		t.Fatalf("p0 should be hard left, got %d", ev.Pan)
	}
	if ev.Gate != 240 {
		t.Fatalf("q4 gate on a quarter = %d, want 240", ev.Gate)
	}
}

func TestExpandLoops(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"[cd]3", "cdcdcd"},
		{"[c]", "cc"},
		{"[c[de]2]2", "cdedecdede"},
		{"[cd|e]3", "cdecdecd"},
	}
	for _, tc := range tests {
		got, err := expandLoops(tc.in)
		if err != nil {
			t.Fatalf("expandLoops(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("expandLoops(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStripComments(t *testing.T) {
	got := stripComments("c // line\nd /* block\nstill */ e")
	if strings.Contains(got, "line") || strings.Contains(got, "block") || strings.Contains(got, "still") {
		t.Fatalf("comments not removed: %q", got)
	}
	if !strings.Contains(got, "c") || !strings.Contains(got, "e") {
		t.Fatalf("code removed: %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "unknown command", src: "c x"},
		{name: "unclosed loop", src: "[cd"},
		{name: "stray close", src: "cd]"},
		{name: "octave range", src: "o12 c"},
		{name: "unknown directive", src: "#FOO{1}\nc"},
		{name: "bad echo", src: "#ECHO{1,2}\nc"},
		{name: "bad vibrato", src: "#VIBRATO{1}\nc"},
		{name: "zero length", src: "c0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewParser(DefaultParserConfig()).Parse(tc.src); err == nil {
				t.Fatalf("expected error for %q", tc.src)
			}
		})
	}
}

func TestTooManyChannels(t *testing.T) {
	cfg := DefaultParserConfig()
	cfg.MaxTracks = 2
	if _, err := NewParser(cfg).Parse("c;d;e"); err == nil {
		t.Fatal("expected channel limit error")
	}
}

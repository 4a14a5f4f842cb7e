package input

import (
	"sync"
	"testing"

	"github.com/cbegin/chipbox/internal/session"
)

func TestQueueDrainsInOrder(t *testing.T) {
	var q Queue
	q.Push(session.Key(session.EventNextTrack))
	q.Push(session.Channel(3), session.Key(session.EventQuit))
	got := q.Drain()
	want := []session.Event{session.Key(session.EventNextTrack), session.Channel(3), session.Key(session.EventQuit)}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %v, want %v", i, got[i], want[i])
		}
	}
	if rest := q.Drain(); len(rest) != 0 {
		t.Fatalf("second drain returned %v", rest)
	}
}

func TestQueueConcurrentPush(t *testing.T) {
	var q Queue
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Push(session.Key(session.EventTempoUp))
			}
		}()
	}
	wg.Wait()
	if n := len(q.Drain()); n != 800 {
		t.Fatalf("drained %d events, want 800", n)
	}
}

func TestRepeat(t *testing.T) {
	tests := []struct {
		ticks int
		fire  bool
	}{
		{0, false},
		{1, true},
		{2, false},
		{49, false},
		{50, true},
		{51, false},
		{58, true},
		{66, true},
		{65, false},
	}
	for _, tc := range tests {
		if got := Repeat(tc.ticks); got != tc.fire {
			t.Errorf("Repeat(%d) = %v, want %v", tc.ticks, got, tc.fire)
		}
	}
}

func TestDefaultBindingsAreUnique(t *testing.T) {
	seen := map[int]bool{}
	channels := 0
	for _, b := range DefaultBindings() {
		if seen[int(b.Key)] {
			t.Fatalf("key %v bound twice", b.Key)
		}
		seen[int(b.Key)] = true
		if b.Event.Kind == session.EventToggleChannel {
			channels++
		}
	}
	if channels != 9 {
		t.Fatalf("expected 9 channel bindings, got %d", channels)
	}
}

func decodeAll(input string) []session.Event {
	var d Decoder
	var out []session.Event
	for i := 0; i < len(input); i++ {
		out = d.Feed(out, input[i])
	}
	if ev, ok := d.Flush(); ok {
		out = append(out, ev)
	}
	return out
}

func TestDecoder(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []session.Event
	}{
		{name: "arrows", input: "\x1b[A\x1b[B\x1b[C\x1b[D", want: []session.Event{
			session.Key(session.EventVolumeUp), session.Key(session.EventVolumeDown),
			session.Key(session.EventNextTrack), session.Key(session.EventPrevTrack),
		}},
		{name: "application cursor keys", input: "\x1bOC", want: []session.Event{session.Key(session.EventNextTrack)}},
		{name: "modified arrow", input: "\x1b[1;5D", want: []session.Event{session.Key(session.EventPrevTrack)}},
		{name: "letters", input: "etadlr ", want: []session.Event{
			session.Key(session.EventTempoDown), session.Key(session.EventTempoUp),
			session.Key(session.EventToggleAccuracy), session.Key(session.EventCycleStereo),
			session.Key(session.EventToggleLoop), session.Key(session.EventReset),
			session.Key(session.EventTogglePause),
		}},
		{name: "enter toggles echo", input: "\r", want: []session.Event{session.Key(session.EventToggleEcho)}},
		{name: "digits", input: "190", want: []session.Event{session.Channel(1), session.Channel(9)}},
		{name: "quit keys", input: "q\x03", want: []session.Event{session.Key(session.EventQuit), session.Key(session.EventQuit)}},
		{name: "lone escape", input: "\x1b", want: []session.Event{session.Key(session.EventQuit)}},
		{name: "escape then key", input: "\x1bd", want: []session.Event{
			session.Key(session.EventQuit), session.Key(session.EventCycleStereo),
		}},
		{name: "escape twice", input: "\x1b\x1b", want: []session.Event{
			session.Key(session.EventQuit), session.Key(session.EventQuit),
		}},
		{name: "unknown sequence", input: "\x1b[H", want: nil},
		{name: "ignored bytes", input: "xyz", want: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := decodeAll(tc.input)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("event %d = %v, want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestDecoderSplitSequence(t *testing.T) {
	var d Decoder
	if got := d.Feed(nil, 0x1b); len(got) != 0 {
		t.Fatal("escape alone must wait")
	}
	if got := d.Feed(nil, '['); len(got) != 0 {
		t.Fatal("sequence incomplete")
	}
	if _, ok := d.Flush(); ok {
		t.Fatal("flush inside a sequence must not quit")
	}
	got := d.Feed(nil, 'C')
	if len(got) != 1 || got[0] != session.Key(session.EventNextTrack) {
		t.Fatalf("got %v", got)
	}
}

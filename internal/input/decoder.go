package input

import "github.com/cbegin/chipbox/internal/session"

const (
	keyEsc   = 0x1b
	keyCtrlC = 0x03
)

type decodeState int

const (
	stateGround decodeState = iota
	stateEscape
	stateCSI
)

// Decoder turns raw terminal bytes into events. Arrow keys arrive as ESC [ A..D (or
// ESC O A..D) and may be split across reads, so the decoder keeps state between bytes.
type Decoder struct {
	state decodeState
}

// Feed consumes one byte and appends the events it completes to dst.
func (d *Decoder) Feed(dst []session.Event, b byte) []session.Event {
	switch d.state {
	case stateEscape:
		if b == '[' || b == 'O' {
			d.state = stateCSI
			return dst
		}
		// The Escape key itself, then an ordinary key.
		d.state = stateGround
		dst = append(dst, session.Key(session.EventQuit))
	case stateCSI:
		// Parameters and intermediates run until a final byte.
		if b < 0x40 || b > 0x7e {
			return dst
		}
		d.state = stateGround
		switch b {
		case 'A':
			return append(dst, session.Key(session.EventVolumeUp))
		case 'B':
			return append(dst, session.Key(session.EventVolumeDown))
		case 'C':
			return append(dst, session.Key(session.EventNextTrack))
		case 'D':
			return append(dst, session.Key(session.EventPrevTrack))
		}
		return dst
	}
	if b == keyEsc {
		d.state = stateEscape
		return dst
	}
	if ev, ok := groundKey(b); ok {
		dst = append(dst, ev)
	}
	return dst
}

func groundKey(b byte) (session.Event, bool) {
	switch b {
	case 'q', 'Q', keyCtrlC:
		return session.Key(session.EventQuit), true
	case 'e', 'E':
		return session.Key(session.EventTempoDown), true
	case 't', 'T':
		return session.Key(session.EventTempoUp), true
	case ' ':
		return session.Key(session.EventTogglePause), true
	case 'a', 'A':
		return session.Key(session.EventToggleAccuracy), true
	case 'd', 'D':
		return session.Key(session.EventCycleStereo), true
	case '\r', '\n':
		return session.Key(session.EventToggleEcho), true
	case 'l', 'L':
		return session.Key(session.EventToggleLoop), true
	case 'r', 'R':
		return session.Key(session.EventReset), true
	}
	if b >= '1' && b <= '9' {
		return session.Channel(int(b - '0')), true
	}
	return session.Event{}, false
}

// Flush is called when no more input is pending. An Escape still waiting for its
// sequence was the Escape key itself.
func (d *Decoder) Flush() (session.Event, bool) {
	if d.state != stateEscape {
		return session.Event{}, false
	}
	d.state = stateGround
	return session.Key(session.EventQuit), true
}

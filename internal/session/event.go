package session

import "fmt"

// EventKind names a user or device action the controller understands.
type EventKind int

const (
	EventQuit EventKind = iota + 1
	EventPrevTrack
	EventNextTrack
	EventVolumeUp
	EventVolumeDown
	EventTempoDown
	EventTempoUp
	EventTogglePause
	EventToggleAccuracy
	EventCycleStereo
	EventToggleEcho
	EventToggleLoop
	EventReset
	EventToggleChannel
	// Play and Pause come from media keys and set the pause state instead of flipping it.
	EventPlay
	EventPause
)

var eventNames = map[EventKind]string{
	EventQuit:           "quit",
	EventPrevTrack:      "previous track",
	EventNextTrack:      "next track",
	EventVolumeUp:       "volume up",
	EventVolumeDown:     "volume down",
	EventTempoDown:      "tempo down",
	EventTempoUp:        "tempo up",
	EventTogglePause:    "toggle pause",
	EventToggleAccuracy: "toggle accuracy",
	EventCycleStereo:    "cycle stereo depth",
	EventToggleEcho:     "toggle echo",
	EventToggleLoop:     "toggle loop",
	EventReset:          "reset",
	EventToggleChannel:  "toggle channel",
	EventPlay:           "play",
	EventPause:          "pause",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is one queued input. Channel is 1-9 for EventToggleChannel.
type Event struct {
	Kind    EventKind
	Channel int
}

// Key is shorthand for an event without a channel.
func Key(kind EventKind) Event { return Event{Kind: kind} }

// Channel returns the toggle event for channel n (1-9).
func Channel(n int) Event { return Event{Kind: EventToggleChannel, Channel: n} }

func (e Event) String() string {
	if e.Kind == EventToggleChannel {
		return fmt.Sprintf("%s %d", e.Kind, e.Channel)
	}
	return e.Kind.String()
}

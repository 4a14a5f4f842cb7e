// Package media publishes the player to the desktop media session so media keys and
// shell widgets can control it.
package media

import "time"

type PlaybackState int

const (
	StateStopped PlaybackState = iota
	StatePlaying
	StatePaused
)

func (s PlaybackState) String() string {
	switch s {
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Stopped"
	}
}

// Metadata describes the current track.
type Metadata struct {
	Title       string
	Game        string
	TrackNumber int
	Duration    time.Duration
}

// Session is a desktop media session.
type Session interface {
	UpdateMetadata(metadata Metadata) error
	UpdatePlaybackState(state PlaybackState) error
	// SetCommandHandler installs the receiver of remote commands. The handler is
	// called from the session's own goroutine.
	SetCommandHandler(handler CommandHandler)
	Close() error
}

// Command is a request from the desktop.
type Command int

const (
	CmdPlay Command = iota
	CmdPause
	CmdPlayPause
	CmdStop
	CmdNext
	CmdPrevious
	CmdQuit
)

func (c Command) String() string {
	switch c {
	case CmdPlay:
		return "Play"
	case CmdPause:
		return "Pause"
	case CmdPlayPause:
		return "PlayPause"
	case CmdStop:
		return "Stop"
	case CmdNext:
		return "Next"
	case CmdPrevious:
		return "Previous"
	case CmdQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}

type CommandHandler interface {
	OnCommand(cmd Command) error
}

type CommandHandlerFunc func(cmd Command) error

func (f CommandHandlerFunc) OnCommand(cmd Command) error {
	return f(cmd)
}

// NoOpSession is used when no desktop session is available.
type NoOpSession struct{}

func NewNoOpSession() *NoOpSession {
	return &NoOpSession{}
}

func (s *NoOpSession) UpdateMetadata(Metadata) error           { return nil }
func (s *NoOpSession) UpdatePlaybackState(PlaybackState) error { return nil }
func (s *NoOpSession) SetCommandHandler(CommandHandler)        {}
func (s *NoOpSession) Close() error                            { return nil }

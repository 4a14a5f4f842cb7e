package media

import (
	"fmt"
	"io"
	"log"

	"github.com/cbegin/chipbox/internal/session"
)

// EventFor maps a desktop command to the controller event it stands for.
func EventFor(cmd Command) (session.Event, bool) {
	switch cmd {
	case CmdPlay:
		return session.Key(session.EventPlay), true
	case CmdPause, CmdStop:
		return session.Key(session.EventPause), true
	case CmdPlayPause:
		return session.Key(session.EventTogglePause), true
	case CmdNext:
		return session.Key(session.EventNextTrack), true
	case CmdPrevious:
		return session.Key(session.EventPrevTrack), true
	case CmdQuit:
		return session.Key(session.EventQuit), true
	}
	return session.Event{}, false
}

// Pusher accepts events from other goroutines, as input.Queue does.
type Pusher interface {
	Push(events ...session.Event)
}

// Forward returns a handler that queues each command as a controller event.
func Forward(p Pusher) CommandHandler {
	return CommandHandlerFunc(func(cmd Command) error {
		ev, ok := EventFor(cmd)
		if !ok {
			return fmt.Errorf("unsupported command %s", cmd)
		}
		p.Push(ev)
		return nil
	})
}

// Announcer publishes controller state to a Session.
type Announcer struct {
	session Session
	log     *log.Logger
}

func NewAnnouncer(s Session, l *log.Logger) *Announcer {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	return &Announcer{session: s, log: l}
}

func (a *Announcer) Announce(np session.NowPlaying) {
	title := np.Song
	if title == "" {
		title = np.Title
	}
	err := a.session.UpdateMetadata(Metadata{
		Title:       title,
		Game:        np.Game,
		TrackNumber: np.Track,
		Duration:    np.Length,
	})
	if err != nil {
		a.log.Printf("[MEDIA] metadata: %v", err)
	}
}

func (a *Announcer) SetPaused(paused bool) {
	state := StatePlaying
	if paused {
		state = StatePaused
	}
	if err := a.session.UpdatePlaybackState(state); err != nil {
		a.log.Printf("[MEDIA] playback state: %v", err)
	}
}

package sequencer

import (
	"time"

	"github.com/cbegin/chipbox/internal/mml"
)

// VoiceEngine is a channel-addressed synth: each sequencer track drives the channel
// with the same index.
type VoiceEngine interface {
	// NoteOn starts a note on channel and returns an id for the matching NoteOff.
	NoteOn(channel, note, volume, pan, program int) int
	// NoteOff releases the note only if id is still sounding on channel.
	NoteOff(channel, id int)
	RenderFrame() (float32, float32)
	// ActiveVoiceCount returns the number of channels still sounding, release included.
	ActiveVoiceCount() int
}

// EventKind identifies sequencer lifecycle events.
type EventKind int

const (
	EventLoopCompleted EventKind = iota
	EventPlaybackEnded
)

// DefaultFade is the fade applied before a non-looping song stops.
const DefaultFade = 2 * time.Second

type Options struct {
	// Loop restarts the song when every track runs out of events. When false the song
	// fades out and stops at its length.
	Loop    bool
	Fade    time.Duration // 0 = DefaultFade
	OnEvent func(EventKind)
}

// Sequencer is not safe for concurrent use; callers serialize Process and the setters.
type Sequencer struct {
	song       *mml.Song
	engine     VoiceEngine
	sampleRate int

	bpm        float64
	tempoScale float64
	tickFrac   float64
	tickInt    int
	endTick    int

	tracks   []trackCursor
	noteOffs []noteOff

	loop    bool
	onEvent func(EventKind)

	elapsed  float64 // song seconds since the last (re)start, tempo-scaled
	length   float64
	fade     float64
	stopAt   float64
	ended    bool
	finished bool // every event and note-off dispatched
}

type trackCursor struct {
	events []mml.Event
	index  int
}

type noteOff struct {
	tick    int
	channel int
	voice   int
}

func New(song *mml.Song, engine VoiceEngine, sampleRate int, opts Options) *Sequencer {
	fade := opts.Fade
	if fade <= 0 {
		fade = DefaultFade
	}
	s := &Sequencer{
		song:       song,
		engine:     engine,
		sampleRate: sampleRate,
		tempoScale: 1,
		endTick:    song.EndTick(),
		loop:       opts.Loop,
		onEvent:    opts.OnEvent,
		length:     song.Duration().Seconds(),
		fade:       fade.Seconds(),
	}
	s.stopAt = s.length
	s.rewind()
	return s
}

func (s *Sequencer) rewind() {
	s.bpm = s.song.InitialBPM
	if s.bpm <= 0 {
		s.bpm = 120
	}
	s.tickFrac = 0
	s.tickInt = 0
	s.elapsed = 0
	s.finished = false
	s.tracks = make([]trackCursor, len(s.song.Tracks))
	for i, tr := range s.song.Tracks {
		s.tracks[i] = trackCursor{events: tr.Events}
	}
	s.noteOffs = s.noteOffs[:0]
}

func (s *Sequencer) ticksPerSample() float64 {
	return s.bpm * s.tempoScale * float64(s.song.Resolution) / (240.0 * float64(s.sampleRate))
}

// SetTempoScale multiplies the song clock; 1 is the written tempo.
func (s *Sequencer) SetTempoScale(scale float64) {
	if scale <= 0 {
		return
	}
	s.tempoScale = scale
}

// SetLoop switches between looping forever and stopping at the song length. Turning
// looping off past the fade point starts a full fade from the current position.
func (s *Sequencer) SetLoop(loop bool) {
	s.loop = loop
	if loop || s.ended {
		return
	}
	s.stopAt = s.length
	if s.elapsed+s.fade > s.stopAt {
		s.stopAt = s.elapsed + s.fade
	}
}

// Ended reports whether a non-looping song has played out its fade.
func (s *Sequencer) Ended() bool { return s.ended }

// Position returns the song time since the start or the last loop.
func (s *Sequencer) Position() time.Duration {
	return time.Duration(s.elapsed * float64(time.Second))
}

func (s *Sequencer) Process(dst []float32) {
	frames := len(dst) / 2
	for f := 0; f < frames; f++ {
		if s.ended {
			dst[f*2] = 0
			dst[f*2+1] = 0
			continue
		}
		s.tickFrac += s.ticksPerSample()
		nextTick := int(s.tickFrac)
		for s.tickInt <= nextTick && !s.finished {
			s.dispatchTick(s.tickInt)
			s.tickInt++
		}
		if s.finished && s.loop {
			s.rewind()
			if s.onEvent != nil {
				s.onEvent(EventLoopCompleted)
			}
		}

		l, r := s.engine.RenderFrame()
		gain := s.fadeGain()
		dst[f*2] = l * gain
		dst[f*2+1] = r * gain

		s.elapsed += s.tempoScale / float64(s.sampleRate)
		if !s.loop && s.elapsed >= s.stopAt {
			s.ended = true
			if s.onEvent != nil {
				s.onEvent(EventPlaybackEnded)
			}
		}
	}
}

func (s *Sequencer) fadeGain() float32 {
	if s.loop || s.fade <= 0 {
		return 1
	}
	left := s.stopAt - s.elapsed
	if left >= s.fade {
		return 1
	}
	if left <= 0 {
		return 0
	}
	return float32(left / s.fade)
}

func (s *Sequencer) dispatchTick(tick int) {
	// Releases go first so a note ending on this tick frees its channel for the next one.
	kept := s.noteOffs[:0]
	for _, off := range s.noteOffs {
		if off.tick <= tick {
			s.engine.NoteOff(off.channel, off.voice)
			continue
		}
		kept = append(kept, off)
	}
	s.noteOffs = kept

	for ch := range s.tracks {
		tc := &s.tracks[ch]
		for tc.index < len(tc.events) && tc.events[tc.index].Tick <= tick {
			s.applyEvent(ch, tc.events[tc.index])
			tc.index++
		}
	}

	if tick >= s.endTick && len(s.noteOffs) == 0 && s.exhausted() {
		s.finished = true
	}
}

func (s *Sequencer) exhausted() bool {
	for _, tc := range s.tracks {
		if tc.index < len(tc.events) {
			return false
		}
	}
	return true
}

func (s *Sequencer) applyEvent(ch int, ev mml.Event) {
	switch ev.Type {
	case mml.EventTempo:
		if ev.BPM > 0 {
			s.bpm = ev.BPM
		}
	case mml.EventNote:
		id := s.engine.NoteOn(ch, ev.Note, ev.Volume, ev.Pan, ev.Program)
		s.noteOffs = append(s.noteOffs, noteOff{tick: ev.Tick + ev.Gate, channel: ch, voice: id})
	}
}

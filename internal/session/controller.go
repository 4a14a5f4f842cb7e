package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strings"
	"time"

	"github.com/cbegin/chipbox"
	"github.com/cbegin/chipbox/internal/device"
)

const (
	// TickInterval is the fixed wait between loop iterations.
	TickInterval = 10 * time.Millisecond

	MinTempo      = 0.1
	MaxTempo      = 2.0
	tempoStep     = 0.1
	depthStep     = 0.2
	maxDepth      = 0.5
	volumeStep    = 3
	MinGain       = -60
	MaxGain       = 9
	NarrowMaxGain = 0

	StatusEchoDisabled = "Echo is disabled"
	StatusEchoEnabled  = "Echo is enabled"
	StatusStopAtEnd    = "Will stop at track end"
	StatusLoopForever  = "Playing forever"
)

// Engine produces the audio and owns track metadata. Track indexes are zero-based.
type Engine interface {
	Load(path string, inMemory bool) error
	SetScopeBuffer(buf *chipbox.ScopeBuffer)
	TrackCount() int
	TrackInfo() chipbox.TrackInfo
	StartTrack(index int) error
	TrackEnded() bool
	Pause(paused bool)
	SetTempo(tempo float64)
	SetStereoDepth(depth float64)
	EnableAccuracy(on bool)
	SetEchoDisable(disabled bool)
	SetFadeout(on bool)
	MuteVoices(mask int)
}

// Renderer paints the scope and its two text lines.
type Renderer interface {
	Draw(samples []int16)
	SetTitle(title string)
	SetInfo(info string)
}

// Window receives the caption shown by the platform window.
type Window interface {
	SetCaption(caption string)
}

type VolumeDevice interface {
	ReadGain() (int, error)
	WriteGain(gain int) error
}

type BrightnessDevice interface {
	WriteBrightness(v int) error
}

// NowPlaying is published to an Announcer whenever a track starts.
type NowPlaying struct {
	Title  string
	Game   string
	Song   string
	Track  int
	Count  int
	Length time.Duration
}

// Announcer mirrors playback to an external session such as desktop media controls.
type Announcer interface {
	Announce(np NowPlaying)
	SetPaused(paused bool)
}

// EventSource hands over every event queued since the previous call.
type EventSource interface {
	Drain() []Event
}

// State is the session state. Track is 1-based.
type State struct {
	Path         string
	Track        int
	Paused       bool
	Tempo        float64
	StereoDepth  float64
	Accuracy     bool
	EchoDisabled bool
	Fadeout      bool
	MuteMask     int
}

// Settings carries the startup values read from the device settings file.
type Settings struct {
	Brightness int
	Vol        int
}

type Option func(*Controller)

func WithWindow(w Window) Option                    { return func(c *Controller) { c.window = w } }
func WithVolume(v VolumeDevice) Option              { return func(c *Controller) { c.volume = v } }
func WithBrightness(b BrightnessDevice) Option      { return func(c *Controller) { c.brightness = b } }
func WithAnnouncer(a Announcer) Option              { return func(c *Controller) { c.announcer = a } }
func WithLogger(l *log.Logger) Option               { return func(c *Controller) { c.log = l } }
func WithScopeBuffer(b *chipbox.ScopeBuffer) Option { return func(c *Controller) { c.scope = b } }

// WithMaxGain sets the top of the volume range. Values above MaxGain are capped.
func WithMaxGain(g int) Option {
	return func(c *Controller) { c.maxGain = min(g, MaxGain) }
}

// Controller owns the session state and applies events to the engine, renderer and
// devices. All methods must be called from one goroutine.
type Controller struct {
	state      State
	engine     Engine
	renderer   Renderer
	window     Window
	volume     VolumeDevice
	brightness BrightnessDevice
	announcer  Announcer
	log        *log.Logger
	scope      *chipbox.ScopeBuffer
	snapshot   []int16
	maxGain    int
	running    bool
	failed     error
}

func New(engine Engine, renderer Renderer, opts ...Option) *Controller {
	c := &Controller{
		engine:   engine,
		renderer: renderer,
		maxGain:  MaxGain,
		running:  true,
		state: State{
			Tempo:   1,
			Fadeout: true,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = log.New(io.Discard, "", 0)
	}
	if c.scope == nil {
		c.scope = chipbox.NewScopeBuffer()
	}
	c.snapshot = make([]int16, chipbox.ScopeFrames*2)
	return c
}

// Start binds the scope buffer, applies the startup settings, loads path and starts
// the first track. An error is fatal and should be passed to Fail.
func (c *Controller) Start(path string, inMemory bool, s Settings) error {
	c.scope.Reset()
	c.engine.SetScopeBuffer(c.scope)
	c.ApplySettings(s)

	c.state.Path = path
	if err := c.engine.Load(path, inMemory); err != nil {
		return err
	}
	return c.StartTrack(1)
}

// ApplySettings writes brightness and the startup volume once. Device errors are logged
// and otherwise ignored.
func (c *Controller) ApplySettings(s Settings) {
	if c.brightness != nil {
		if err := c.brightness.WriteBrightness(s.Brightness); err != nil {
			c.log.Printf("[DEVICE] brightness not applied: %v", err)
		}
	}
	c.setGain(func(int) int { return s.Vol*volumeStep + MinGain })
}

// StartTrack starts the 1-based track n and publishes its title.
func (c *Controller) StartTrack(n int) error {
	c.state.Paused = false
	if err := c.engine.StartTrack(n - 1); err != nil {
		return err
	}
	c.state.Track = n

	info := c.engine.TrackInfo()
	game := info.Game
	if game == "" {
		game = baseName(c.state.Path)
	}
	count := c.engine.TrackCount()
	seconds := int64(info.Length / time.Second)
	title := fmt.Sprintf("%s: %d/%d %s (%d:%02d)", game, n, count, info.Song, seconds/60, seconds%60)
	c.setCaption(title)
	if c.announcer != nil {
		c.announcer.Announce(NowPlaying{
			Title:  title,
			Game:   game,
			Song:   info.Song,
			Track:  n,
			Count:  count,
			Length: info.Length,
		})
		c.announcer.SetPaused(false)
	}
	return nil
}

// Tick runs one loop iteration after the fixed wait: draw, advance on end of track,
// then apply events in order. It returns false once the session should stop.
func (c *Controller) Tick(events []Event) bool {
	if c.failed != nil {
		return false
	}
	n := c.scope.Snapshot(c.snapshot)
	c.renderer.Draw(c.snapshot[:n])

	if c.engine.TrackEnded() {
		if c.state.Track < c.engine.TrackCount() {
			if err := c.StartTrack(c.state.Track + 1); err != nil {
				c.Fail(err)
				return false
			}
		} else if c.state.Fadeout && !c.state.Paused {
			c.setPaused(true)
		}
	}

	for _, ev := range events {
		if err := c.Dispatch(ev); err != nil {
			c.Fail(err)
			return false
		}
	}
	return c.running
}

// Dispatch applies a single event. Only engine failures while starting a track are
// returned; everything else degrades in place.
func (c *Controller) Dispatch(ev Event) error {
	switch ev.Kind {
	case EventQuit:
		c.running = false
	case EventPrevTrack:
		if !c.state.Paused && c.state.Track > 1 {
			c.state.Track--
		}
		return c.StartTrack(c.state.Track)
	case EventNextTrack:
		if c.state.Track < c.engine.TrackCount() {
			return c.StartTrack(c.state.Track + 1)
		}
	case EventVolumeUp:
		c.setGain(func(g int) int { return g + volumeStep })
	case EventVolumeDown:
		c.setGain(func(g int) int { return g - volumeStep })
	case EventTempoDown:
		c.setTempo(c.state.Tempo - tempoStep)
	case EventTempoUp:
		c.setTempo(c.state.Tempo + tempoStep)
	case EventTogglePause:
		c.setPaused(!c.state.Paused)
	case EventPlay:
		c.setPaused(false)
	case EventPause:
		c.setPaused(true)
	case EventToggleAccuracy:
		c.state.Accuracy = !c.state.Accuracy
		c.engine.EnableAccuracy(c.state.Accuracy)
	case EventCycleStereo:
		depth := c.state.StereoDepth + depthStep
		if depth > maxDepth {
			depth = 0
		}
		c.state.StereoDepth = roundTenth(depth)
		c.engine.SetStereoDepth(c.state.StereoDepth)
	case EventToggleEcho:
		c.state.EchoDisabled = !c.state.EchoDisabled
		c.engine.SetEchoDisable(c.state.EchoDisabled)
		if c.state.EchoDisabled {
			c.setInfo(StatusEchoDisabled)
		} else {
			c.setInfo(StatusEchoEnabled)
		}
	case EventToggleLoop:
		c.state.Fadeout = !c.state.Fadeout
		c.engine.SetFadeout(c.state.Fadeout)
		if c.state.Fadeout {
			c.setInfo(StatusStopAtEnd)
		} else {
			c.setInfo(StatusLoopForever)
		}
	case EventReset:
		c.state.Tempo = 1
		c.state.MuteMask = 0
		c.engine.SetTempo(c.state.Tempo)
		c.engine.MuteVoices(c.state.MuteMask)
	case EventToggleChannel:
		if ev.Channel < 1 || ev.Channel > 9 {
			return nil
		}
		c.state.MuteMask ^= 1 << (ev.Channel - 1)
		c.engine.MuteVoices(c.state.MuteMask)
	default:
		c.log.Printf("[SESSION] ignoring %s", ev)
	}
	return nil
}

// Fail moves the controller into its terminal state and shows the error.
func (c *Controller) Fail(err error) {
	if err == nil || c.failed != nil {
		return
	}
	c.failed = err
	c.running = false
	msg := "Error: " + err.Error()
	c.log.Print(msg)
	if c.window != nil {
		c.window.SetCaption(msg)
	}
	c.renderer.SetTitle(msg)
}

// Run drives Tick from a fixed ticker until quit, failure or cancellation. It returns
// the failure, if any.
func (c *Controller) Run(ctx context.Context, source EventSource) error {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.running = false
			return c.failed
		case <-ticker.C:
		}
		if !c.Tick(source.Drain()) {
			return c.failed
		}
	}
}

func (c *Controller) State() State      { return c.state }
func (c *Controller) Running() bool     { return c.running }
func (c *Controller) Failed() error     { return c.failed }
func (c *Controller) MaxGainLimit() int { return c.maxGain }

func (c *Controller) setPaused(paused bool) {
	c.state.Paused = paused
	c.engine.Pause(paused)
	if c.announcer != nil {
		c.announcer.SetPaused(paused)
	}
}

func (c *Controller) setTempo(t float64) {
	c.state.Tempo = roundTenth(math.Min(MaxTempo, math.Max(MinTempo, t)))
	c.engine.SetTempo(c.state.Tempo)
}

// setGain reads the hardware gain, applies next and writes the clamped result only
// when it differs.
func (c *Controller) setGain(next func(current int) int) {
	if c.volume == nil {
		return
	}
	current, err := c.volume.ReadGain()
	if err != nil {
		if !errors.Is(err, device.ErrUnavailable) {
			c.log.Printf("[DEVICE] read gain: %v", err)
		}
		return
	}
	gain := max(MinGain, min(c.maxGain, next(current)))
	if gain == current {
		return
	}
	if err := c.volume.WriteGain(gain); err != nil {
		c.log.Printf("[DEVICE] write gain %d: %v", gain, err)
	}
}

func (c *Controller) setCaption(title string) {
	if c.window != nil {
		c.window.SetCaption(title)
	}
	c.renderer.SetTitle(title)
}

func (c *Controller) setInfo(info string) {
	c.log.Printf("[SESSION] %s", info)
	c.renderer.SetInfo(info)
}

// baseName strips everything up to the last '/' or '\'.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// roundTenth keeps repeated 0.1 and 0.2 steps from drifting.
func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

package chipbox

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	intaudio "github.com/cbegin/chipbox/internal/audio"
	intchip "github.com/cbegin/chipbox/internal/chip"
	intfx "github.com/cbegin/chipbox/internal/effects"
	intmml "github.com/cbegin/chipbox/internal/mml"
	intseq "github.com/cbegin/chipbox/internal/sequencer"
)

var (
	ErrNoFile   = errors.New("no music file loaded")
	ErrBadTrack = errors.New("track number out of range")
)

const DefaultSampleRate = 48000

// TrackInfo describes the track most recently started.
type TrackInfo struct {
	Game   string
	Song   string
	Length time.Duration
}

// OutputKind selects the audio device a Player streams to.
type OutputKind string

const (
	OutputEbiten OutputKind = "ebiten"
	OutputOto    OutputKind = "oto"
	// OutputNone renders only when Process is called, as the offline renderer does.
	OutputNone OutputKind = "none"
)

type PlayerOption func(*playerConfig)

type playerConfig struct {
	sampleRate int
	output     OutputKind
	sampleTap  func([]float32)
	parser     intmml.ParserConfig
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{
		sampleRate: DefaultSampleRate,
		output:     OutputEbiten,
		parser:     intmml.DefaultParserConfig(),
	}
}

func WithSampleRate(rate int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleRate = rate
	}
}

func WithOutput(kind OutputKind) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.output = kind
	}
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

// Player is the chip-music engine: it loads a multi-song file, plays one track at a
// time and takes live parameter changes from any goroutine.
type Player struct {
	mu     sync.Mutex
	cfg    playerConfig
	parser *intmml.Parser
	album  *intmml.Album
	track  int

	engine  *intchip.Engine
	seq     *intseq.Sequencer
	echo    *intfx.Switch
	stereo  *intfx.StereoEcho
	limiter *intfx.Limiter
	chain   *intfx.Chain
	scope   *ScopeBuffer
	out     intaudio.Output

	paused       bool
	tempo        float64
	echoDisabled bool
	fadeout      bool
}

func NewPlayer(opts ...PlayerOption) (*Player, error) {
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	switch cfg.output {
	case OutputEbiten, OutputOto, OutputNone:
	default:
		return nil, fmt.Errorf("unknown output %q", cfg.output)
	}
	return &Player{
		cfg:     cfg,
		parser:  intmml.NewParser(cfg.parser),
		track:   -1,
		engine:  intchip.New(cfg.sampleRate, intchip.DefaultParams()),
		stereo:  intfx.NewStereoEcho(cfg.sampleRate),
		limiter: intfx.NewLimiter(cfg.sampleRate, -3, 10, 1, 120),
		tempo:   1,
		fadeout: true,
	}, nil
}

// Load reads and parses the music file at path. With inMemory the whole file is read
// up front and parsed from the buffer; otherwise it is parsed from the open file.
func (p *Player) Load(path string, inMemory bool) error {
	if path == "" {
		return ErrNoFile
	}
	if inMemory {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("load %s: %w", filepath.Base(path), err)
		}
		return p.LoadData(data)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	return p.LoadReader(f)
}

func (p *Player) LoadReader(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return p.LoadData(data)
}

// LoadData parses an in-memory music file and stops any current track.
func (p *Player) LoadData(data []byte) error {
	album, err := p.parser.Parse(string(data))
	if err != nil {
		return err
	}
	if len(album.Songs) == 0 {
		return errors.New("file contains no songs")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.album = album
	p.track = -1
	p.seq = nil
	p.engine.Reset()
	return nil
}

func (p *Player) TrackCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.album == nil {
		return 0
	}
	return len(p.album.Songs)
}

func (p *Player) TrackInfo() TrackInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.album == nil || p.track < 0 {
		return TrackInfo{}
	}
	song := &p.album.Songs[p.track]
	return TrackInfo{Game: p.album.Title, Song: song.Title, Length: song.Duration()}
}

// StartTrack begins playing the zero-based track index and clears any pause.
func (p *Player) StartTrack(index int) error {
	p.mu.Lock()
	if p.album == nil {
		p.mu.Unlock()
		return ErrNoFile
	}
	if index < 0 || index >= len(p.album.Songs) {
		p.mu.Unlock()
		return fmt.Errorf("%w: %d of %d", ErrBadTrack, index+1, len(p.album.Songs))
	}
	song := &p.album.Songs[index]
	p.track = index
	p.engine.Reset()
	if v := song.Vibrato; v != nil {
		p.engine.SetVibrato(v.Depth, v.RateHz, v.Shape)
	} else {
		p.engine.SetVibrato(0, 0, 0)
	}
	p.seq = intseq.New(song, p.engine, p.cfg.sampleRate, intseq.Options{Loop: !p.fadeout})
	p.seq.SetTempoScale(p.tempo)
	p.echo = nil
	if song.Echo != nil {
		delay := intfx.NewDelay(p.cfg.sampleRate, song.Echo.DelayMs,
			float32(song.Echo.Feedback), 0, float32(song.Echo.Wet))
		p.echo = intfx.NewSwitch(delay, !p.echoDisabled)
	}
	p.stereo.Reset()
	p.limiter.Reset()
	// A nil *Switch must not become a non-nil Effector.
	var echo intfx.Effector
	if p.echo != nil {
		echo = p.echo
	}
	p.chain = intfx.NewChain(echo, p.stereo, p.limiter)
	p.paused = false

	needOutput := p.out == nil && p.cfg.output != OutputNone
	out := p.out
	p.mu.Unlock()

	if needOutput {
		var err error
		out, err = p.openOutput()
		if err != nil {
			return err
		}
		p.mu.Lock()
		p.out = out
		p.mu.Unlock()
	}
	if out != nil {
		out.Play()
	}
	return nil
}

func (p *Player) openOutput() (intaudio.Output, error) {
	switch p.cfg.output {
	case OutputOto:
		return intaudio.NewOtoOutput(p.cfg.sampleRate, p)
	default:
		return intaudio.NewEbitenOutput(p.cfg.sampleRate, p)
	}
}

// TrackEnded reports whether the current track has faded out. A looping track never ends.
func (p *Player) TrackEnded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq != nil && p.seq.Ended()
}

func (p *Player) Pause(paused bool) {
	p.mu.Lock()
	p.paused = paused
	out := p.out
	p.mu.Unlock()
	if out == nil {
		return
	}
	if paused {
		out.Pause()
	} else {
		out.Play()
	}
}

func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// SetTempo scales playback speed; 1.0 is normal.
func (p *Player) SetTempo(tempo float64) {
	if tempo <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tempo = tempo
	if p.seq != nil {
		p.seq.SetTempoScale(tempo)
	}
}

// SetStereoDepth sets the cross-fed stereo echo depth, 0 for none.
func (p *Player) SetStereoDepth(depth float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stereo.SetDepth(float32(depth))
}

func (p *Player) EnableAccuracy(on bool) {
	p.engine.SetAccuracy(on)
}

// SetEchoDisable bypasses the echo a song declares with #ECHO.
func (p *Player) SetEchoDisable(disabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.echoDisabled = disabled
	if p.echo != nil {
		p.echo.SetEnabled(!disabled)
	}
}

// SetFadeout chooses between stopping at the track length with a fade (true) and
// looping forever (false).
func (p *Player) SetFadeout(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fadeout = on
	if p.seq != nil {
		p.seq.SetLoop(!on)
	}
}

// MuteVoices silences channel i+1 for every set bit i.
func (p *Player) MuteVoices(mask int) {
	p.engine.SetMuteMask(mask)
}

// SetScopeBuffer binds the buffer that receives the most recent output frames.
func (p *Player) SetScopeBuffer(buf *ScopeBuffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scope = buf
}

// Process renders interleaved stereo frames. It is the audio device's pull callback
// and is also used directly for offline rendering.
func (p *Player) Process(dst []float32) {
	p.mu.Lock()
	if p.seq == nil || p.paused {
		p.mu.Unlock()
		clear(dst)
		return
	}
	p.seq.Process(dst)
	for i := 0; i+1 < len(dst); i += 2 {
		dst[i], dst[i+1] = p.chain.Process(dst[i], dst[i+1])
	}
	scope := p.scope
	tap := p.cfg.sampleTap
	p.mu.Unlock()

	if scope != nil {
		scope.Write(dst)
	}
	if tap != nil {
		tap(dst)
	}
}

// Close stops the audio device. Later tracks render only through Process.
func (p *Player) Close() error {
	p.mu.Lock()
	out := p.out
	p.out = nil
	p.seq = nil
	p.cfg.output = OutputNone
	p.mu.Unlock()
	if out == nil {
		return nil
	}
	return out.Close()
}

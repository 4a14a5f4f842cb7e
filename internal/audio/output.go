package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

const otoBufferSize = 50 * time.Millisecond

// Output is a running audio device pulling from a SampleSource.
type Output interface {
	Play()
	Pause()
	Close() error
}

// backend is the part of an ebiten or oto player an Output drives.
type backend interface {
	Play()
	Pause()
	Close() error
}

// deviceOutput makes Play and Pause idempotent and Close final for either backend.
type deviceOutput struct {
	mu      sync.Mutex
	player  backend
	playing bool
}

func (o *deviceOutput) Play() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player != nil && !o.playing {
		o.player.Play()
		o.playing = true
	}
}

func (o *deviceOutput) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player != nil && o.playing {
		o.player.Pause()
		o.playing = false
	}
}

func (o *deviceOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player == nil {
		return nil
	}
	if o.playing {
		o.player.Pause()
	}
	err := o.player.Close()
	o.player, o.playing = nil, false
	return err
}

var (
	ebitenOnce sync.Once
	ebitenCtx  *ebitaudio.Context
	ebitenRate int
)

// NewEbitenOutput plays through ebiten's audio context, for use next to an ebiten
// window. ebiten allows one context per process, so every output shares its rate.
func NewEbitenOutput(sampleRate int, source SampleSource) (Output, error) {
	ebitenOnce.Do(func() {
		ebitenRate = sampleRate
		ebitenCtx = ebitaudio.NewContext(sampleRate)
	})
	if ebitenRate != sampleRate {
		return nil, fmt.Errorf("audio context runs at %d Hz, not %d Hz", ebitenRate, sampleRate)
	}
	pl, err := ebitenCtx.NewPlayerF32(NewStreamReader(source))
	if err != nil {
		return nil, fmt.Errorf("ebiten player: %w", err)
	}
	return &deviceOutput{player: pl}, nil
}

// NewOtoOutput drives the platform audio device directly, without a window.
func NewOtoOutput(sampleRate int, source SampleSource) (Output, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   otoBufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("oto context: %w", err)
	}
	<-ready
	return &deviceOutput{player: ctx.NewPlayer(NewStreamReader(source))}, nil
}

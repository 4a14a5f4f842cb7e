// Package scope draws the live output as an oscilloscope trace with a spectrum strip
// below it and two lines of text: the track title and the last status message.
package scope

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

const (
	Width  = 512
	Height = 256

	fftSize  = 512
	numBars  = 64
	titleY   = 14
	waveTop  = 20
	waveH    = 160
	specTop  = waveTop + waveH + 4
	specH    = 48
	infoY    = Height - 4
	textLeft = 4
)

var (
	bgColor     = color.RGBA{14, 16, 22, 255}
	axisColor   = color.RGBA{40, 44, 58, 255}
	waveColor   = color.RGBA{80, 200, 255, 220}
	titleColor  = color.RGBA{230, 230, 230, 255}
	infoColor   = color.RGBA{160, 160, 160, 255}
	dividerLine = color.RGBA{50, 54, 68, 180}
)

// Renderer keeps the latest frames and text and paints them on the ebiten screen.
// Draw and the setters are called from Update; Paint from the game's Draw.
type Renderer struct {
	title string
	info  string

	mono     []float64
	peak     float64
	spectrum *Analyzer
	bars     []float64
}

func NewRenderer() *Renderer {
	return &Renderer{
		peak:     0.01,
		spectrum: NewAnalyzer(fftSize, numBars),
	}
}

func (r *Renderer) Draw(samples []int16) {
	r.mono = Mono(r.mono, samples)
	r.peak = followPeak(r.peak, r.mono)
	r.bars = r.spectrum.Update(r.mono)
}

func (r *Renderer) SetTitle(title string) { r.title = title }
func (r *Renderer) SetInfo(info string)   { r.info = info }
func (r *Renderer) Title() string         { return r.title }
func (r *Renderer) Info() string          { return r.info }

// Paint draws the current frame. The screen is expected to be Width x Height.
func (r *Renderer) Paint(screen *ebiten.Image) {
	screen.Fill(bgColor)
	face := basicfont.Face7x13
	text.Draw(screen, r.title, face, textLeft, titleY, titleColor)
	r.paintWave(screen)
	ebitenutil.DrawRect(screen, 0, specTop-2, Width, 1, dividerLine)
	r.paintBars(screen)
	text.Draw(screen, r.info, face, textLeft, infoY, infoColor)
}

func (r *Renderer) paintWave(screen *ebiten.Image) {
	mid := float64(waveTop + waveH/2)
	ebitenutil.DrawRect(screen, 0, mid, Width, 1, axisColor)
	if len(r.mono) < 2 {
		return
	}
	gain := float64(waveH/2-2) / r.peak
	start := Trigger(r.mono)
	visible := max(len(r.mono)-start, 2)
	prevY := mid - r.mono[start]*gain
	for x := 1; x < Width; x++ {
		i := min(start+x*visible/Width, len(r.mono)-1)
		y := mid - r.mono[i]*gain
		ebitenutil.DrawLine(screen, float64(x-1), prevY, float64(x), y, waveColor)
		prevY = y
	}
}

func (r *Renderer) paintBars(screen *ebiten.Image) {
	barW := float64(Width) / float64(len(r.bars)+1)
	for i, v := range r.bars {
		h := max(1, v*(specH-2))
		x := float64(i) * barW
		y := float64(specTop+specH) - h
		ebitenutil.DrawRect(screen, x+1, y, barW-1, h, barColor(v))
	}
}

// barColor runs from blue through green to orange as v rises.
func barColor(v float64) color.RGBA {
	switch {
	case v < 0.33:
		t := v / 0.33
		return color.RGBA{uint8(30 + 20*t), uint8(80 + 120*t), uint8(200 + 55*t), 220}
	case v < 0.66:
		t := (v - 0.33) / 0.33
		return color.RGBA{uint8(50 + 140*t), uint8(200 + 30*t), uint8(255 - 100*t), 220}
	default:
		t := (v - 0.66) / 0.34
		return color.RGBA{uint8(190 + 65*t), uint8(230 - 100*t), uint8(155 - 100*t), 220}
	}
}

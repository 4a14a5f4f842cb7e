package main

import (
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/cbegin/chipbox/internal/input"
	"github.com/cbegin/chipbox/internal/scope"
	"github.com/cbegin/chipbox/internal/session"
)

// ticksPerSecond gives the controller its 10 ms tick.
const ticksPerSecond = 100

type windowCaption struct{}

func (windowCaption) SetCaption(caption string) { ebiten.SetWindowTitle(caption) }

type game struct {
	ctl      *session.Controller
	renderer *scope.Renderer
	keys     *input.Keyboard
	queue    *input.Queue
	pressed  []session.Event
	exitCode int
}

func (g *game) Update() error {
	if g.ctl.Failed() != nil {
		// The error stays on screen until the user acknowledges it.
		if input.AnyPressed() || ebiten.IsWindowBeingClosed() {
			g.exitCode = 1
			return ebiten.Termination
		}
		return nil
	}
	if ebiten.IsWindowBeingClosed() {
		g.queue.Push(session.Key(session.EventQuit))
	}
	g.pressed = g.keys.Poll(g.pressed[:0])
	g.queue.Push(g.pressed...)
	if !g.ctl.Tick(g.queue.Drain()) && g.ctl.Failed() == nil {
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.renderer.Paint(screen)
}

func (g *game) Layout(int, int) (int, int) {
	return scope.Width, scope.Height
}

func runWindow(ctl *session.Controller, renderer *scope.Renderer, queue *input.Queue) int {
	g := &game{
		ctl:      ctl,
		renderer: renderer,
		keys:     input.NewKeyboard(nil),
		queue:    queue,
	}
	ebiten.SetTPS(ticksPerSecond)
	ebiten.SetWindowSize(scope.Width*2, scope.Height*2)
	ebiten.SetWindowClosingHandled(true)
	if err := ebiten.RunGame(g); err != nil {
		log.Printf("window: %v", err)
		return 1
	}
	return g.exitCode
}

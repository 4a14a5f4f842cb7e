package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/cbegin/chipbox/internal/session"
)

// Key repeat in ticks at 100 TPS: first repeat after 500 ms, then every 80 ms.
const (
	repeatDelay    = 50
	repeatInterval = 8
)

// Binding maps one window key to the event it produces.
type Binding struct {
	Key   ebiten.Key
	Event session.Event
}

// DefaultBindings is the window key map.
func DefaultBindings() []Binding {
	b := []Binding{
		{ebiten.KeyEscape, session.Key(session.EventQuit)},
		{ebiten.KeyArrowLeft, session.Key(session.EventPrevTrack)},
		{ebiten.KeyArrowRight, session.Key(session.EventNextTrack)},
		{ebiten.KeyArrowUp, session.Key(session.EventVolumeUp)},
		{ebiten.KeyMetaRight, session.Key(session.EventVolumeUp)},
		{ebiten.KeyArrowDown, session.Key(session.EventVolumeDown)},
		{ebiten.KeyMetaLeft, session.Key(session.EventVolumeDown)},
		{ebiten.KeyE, session.Key(session.EventTempoDown)},
		{ebiten.KeyT, session.Key(session.EventTempoUp)},
		{ebiten.KeySpace, session.Key(session.EventTogglePause)},
		{ebiten.KeyAltLeft, session.Key(session.EventToggleAccuracy)},
		{ebiten.KeyControlLeft, session.Key(session.EventCycleStereo)},
		{ebiten.KeyEnter, session.Key(session.EventToggleEcho)},
		{ebiten.KeyShiftLeft, session.Key(session.EventToggleLoop)},
		{ebiten.KeyControlRight, session.Key(session.EventReset)},
	}
	digits := []ebiten.Key{
		ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3,
		ebiten.KeyDigit4, ebiten.KeyDigit5, ebiten.KeyDigit6,
		ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
	}
	for i, key := range digits {
		b = append(b, Binding{key, session.Channel(i + 1)})
	}
	return b
}

// Repeat reports whether a key held for d ticks fires on this tick.
func Repeat(d int) bool {
	if d == 1 {
		return true
	}
	return d >= repeatDelay && (d-repeatDelay)%repeatInterval == 0
}

// Keyboard polls the ebiten key state once per Update.
type Keyboard struct {
	bindings []Binding
}

func NewKeyboard(bindings []Binding) *Keyboard {
	if bindings == nil {
		bindings = DefaultBindings()
	}
	return &Keyboard{bindings: bindings}
}

// Poll appends the events fired on this tick to dst in binding order.
func (k *Keyboard) Poll(dst []session.Event) []session.Event {
	for _, b := range k.bindings {
		if Repeat(inpututil.KeyPressDuration(b.Key)) {
			dst = append(dst, b.Event)
		}
	}
	return dst
}

// AnyPressed reports a key or mouse button going down on this tick.
func AnyPressed() bool {
	if len(inpututil.AppendJustPressedKeys(nil)) > 0 {
		return true
	}
	for _, btn := range []ebiten.MouseButton{ebiten.MouseButtonLeft, ebiten.MouseButtonRight, ebiten.MouseButtonMiddle} {
		if inpututil.IsMouseButtonJustPressed(btn) {
			return true
		}
	}
	return false
}

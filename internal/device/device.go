// Package device talks to the handheld's audio-output gain control and its display
// backlight.
package device

import (
	"errors"
	"fmt"
	"os"
)

const (
	VolumePath     = "/dev/mi_ao"
	BrightnessPath = "/sys/class/pwm/pwmchip0/pwm0/duty_cycle"

	// brightnessScale converts the settings value into a PWM duty cycle.
	brightnessScale = 10
)

// ErrUnavailable is returned by a gateway whose device could not be opened.
var ErrUnavailable = errors.New("device unavailable")

// Brightness writes the backlight duty cycle. The file is opened for each write and
// closed straight after.
type Brightness struct {
	path string
}

func NewBrightness(path string) *Brightness {
	if path == "" {
		path = BrightnessPath
	}
	return &Brightness{path: path}
}

func (b *Brightness) WriteBrightness(v int) error {
	f, err := os.OpenFile(b.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if _, err := fmt.Fprintf(f, "%d", v*brightnessScale); err != nil {
		f.Close()
		return fmt.Errorf("write brightness: %w", err)
	}
	return f.Close()
}

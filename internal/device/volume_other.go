//go:build !linux

package device

// Volume is a no-op outside Linux.
type Volume struct{}

func OpenVolume(string) (*Volume, error) { return &Volume{}, ErrUnavailable }

func (v *Volume) ReadGain() (int, error) { return 0, ErrUnavailable }
func (v *Volume) WriteGain(int) error    { return ErrUnavailable }
func (v *Volume) Close() error           { return nil }

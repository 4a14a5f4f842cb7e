//go:build !unix

package input

import "errors"

// Terminal is unavailable on this platform; Start always fails.
type Terminal struct{}

func NewTerminal(*Queue, int) *Terminal { return &Terminal{} }

func (t *Terminal) Start() error { return errors.New("terminal input is not supported on this platform") }
func (t *Terminal) Stop()        {}

//go:build !linux

package media

import "fmt"

// NewSession is only implemented for the Linux MPRIS bus.
func NewSession() (Session, error) {
	return nil, fmt.Errorf("media session not supported on this platform")
}

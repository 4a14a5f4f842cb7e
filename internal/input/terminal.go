//go:build unix

package input

import (
	"fmt"
	"sync"
	"time"

	"github.com/cbegin/chipbox/internal/session"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Terminal reads single keys from a raw-mode terminal and pushes the decoded events
// onto a Queue.
type Terminal struct {
	queue    *Queue
	fd       int
	stopCh   chan struct{}
	done     chan struct{}
	stopped  sync.Once
	nonblock bool
	oldState *term.State
}

func NewTerminal(queue *Queue, fd int) *Terminal {
	return &Terminal{
		queue:  queue,
		fd:     fd,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start switches the terminal to raw non-blocking mode and starts reading. Stop must be
// called to restore it.
func (t *Terminal) Start() error {
	old, err := term.MakeRaw(t.fd)
	if err != nil {
		close(t.done)
		return fmt.Errorf("raw mode: %w", err)
	}
	t.oldState = old
	if err := unix.SetNonblock(t.fd, true); err != nil {
		_ = term.Restore(t.fd, t.oldState)
		t.oldState = nil
		close(t.done)
		return fmt.Errorf("nonblocking input: %w", err)
	}
	t.nonblock = true
	go t.read()
	return nil
}

func (t *Terminal) read() {
	defer close(t.done)
	var dec Decoder
	buf := make([]byte, 16)
	var events []session.Event
	for {
		select {
		case <-t.stopCh:
			return
		default:
		}
		n, err := unix.Read(t.fd, buf)
		events = events[:0]
		for _, b := range buf[:max(n, 0)] {
			events = dec.Feed(events, b)
		}
		t.queue.Push(events...)
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK || (err == nil && n == 0) {
			if ev, ok := dec.Flush(); ok {
				t.queue.Push(ev)
			}
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return
		}
	}
}

// Stop ends the reader and restores the terminal. It is safe to call more than once.
func (t *Terminal) Stop() {
	t.stopped.Do(func() { close(t.stopCh) })
	<-t.done
	if t.nonblock {
		_ = unix.SetNonblock(t.fd, false)
		t.nonblock = false
	}
	if t.oldState != nil {
		_ = term.Restore(t.fd, t.oldState)
		t.oldState = nil
	}
}

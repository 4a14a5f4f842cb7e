// Package input turns keyboard and terminal input into session events.
package input

import (
	"sync"

	"github.com/cbegin/chipbox/internal/session"
)

// Queue collects events from any goroutine until the controller drains them.
type Queue struct {
	mu     sync.Mutex
	events []session.Event
}

func (q *Queue) Push(events ...session.Event) {
	q.mu.Lock()
	q.events = append(q.events, events...)
	q.mu.Unlock()
}

// Drain returns the queued events in arrival order and empties the queue.
func (q *Queue) Drain() []session.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.events
	q.events = nil
	return out
}

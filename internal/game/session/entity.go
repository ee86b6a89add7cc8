// Package session provides the per-session state store: membership with
// roles and the chat/narration history that combat events feed.
package session

import (
	"fmt"
	"sync"
)

// Listener routes history entries to a Go channel, bridging the session
// store to chat and narration consumers.
type Listener struct {
	id      string
	entries chan Entry
	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewListener creates a Listener with the given buffer size.
//
// Precondition: id must be non-empty.
// Postcondition: Returns a Listener with an open entries channel.
func NewListener(id string, bufferSize int) *Listener {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Listener{
		id:      id,
		entries: make(chan Entry, bufferSize),
	}
}

// Push enqueues e without blocking.
//
// Postcondition: e is enqueued, or an error is returned if the listener is closed or full.
func (l *Listener) Push(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return fmt.Errorf("listener %s is closed", l.id)
	}
	select {
	case l.entries <- e:
		return nil
	default:
		l.dropped++
		return fmt.Errorf("listener %s buffer full", l.id)
	}
}

// Entries returns the read-only entries channel.
func (l *Listener) Entries() <-chan Entry {
	return l.entries
}

// Dropped returns the number of entries discarded because the buffer was full.
func (l *Listener) Dropped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Close marks the listener closed and closes its channel. Idempotent.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.closed {
		l.closed = true
		close(l.entries)
	}
	return nil
}

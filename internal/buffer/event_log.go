// Package buffer provides a bounded in-memory log of recent session events.
package buffer

import (
	"sync"
	"time"
)

// EvalError is one evaluation failure reported by a browser tab.
type EvalError struct {
	SessionID string    `json:"sessionId,omitempty"`
	Code      string    `json:"code,omitempty"`
	Error     string    `json:"error"`
	At        time.Time `json:"at"`
}

// EventLog is a thread-safe bounded log that keeps the most recent
// evaluation errors up to a fixed capacity. When full, the oldest entry is
// discarded to make room.
//
// This backs the status endpoint's recent-errors view; the durable history
// lives in the repository.
type EventLog struct {
	mu       sync.RWMutex
	events   []EvalError
	capacity int
}

// NewEventLog creates an EventLog with the specified capacity.
// The capacity must be greater than 0; if not, it defaults to 1.
func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = 1
	}
	return &EventLog{
		events:   make([]EvalError, 0, capacity),
		capacity: capacity,
	}
}

// Append adds an event, discarding the oldest if the log is full. A zero At
// is stamped with the current time.
func (l *EventLog) Append(e EvalError) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.events) == l.capacity {
		copy(l.events, l.events[1:])
		l.events = l.events[:l.capacity-1]
	}
	l.events = append(l.events, e)
}

// Recent returns a copy of the logged events, oldest first.
func (l *EventLog) Recent() []EvalError {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.events) == 0 {
		return nil
	}

	result := make([]EvalError, len(l.events))
	copy(result, l.events)
	return result
}

// Clear removes all events from the log.
func (l *EventLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = l.events[:0]
}

// Len returns the current number of logged events.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.events)
}

// Cap returns the capacity of the log.
func (l *EventLog) Cap() int {
	return l.capacity
}

// Package pending tracks in-flight request/response exchanges by correlation
// id, turning the asynchronous WebSocket channel into awaitable call/response
// semantics with timeout and cancellation.
package pending

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTimeout is returned by Call.Await when no reply arrives before the deadline.
var ErrTimeout = errors.New("timed out waiting for reply")

// Call is one outstanding request awaiting exactly one asynchronous reply.
type Call struct {
	id  string
	ch  chan string
	reg *Registry
}

// Registry owns all pending calls. Register, Resolve, and timeout cleanup are
// atomic with respect to each other, so a call is fulfilled at most once and
// an entry never outlives both its resolution and its deadline.
type Registry struct {
	mu    sync.Mutex
	calls map[string]*Call
}

// NewRegistry creates an empty pending-call registry.
func NewRegistry() *Registry {
	return &Registry{
		calls: make(map[string]*Call),
	}
}

// Register creates a pending call for the given correlation id and returns a
// handle the caller can await. Registering an id that is already pending
// replaces the old entry; the displaced call can no longer be resolved.
func (r *Registry) Register(id string) *Call {
	call := &Call{
		id:  id,
		ch:  make(chan string, 1),
		reg: r,
	}

	r.mu.Lock()
	r.calls[id] = call
	r.mu.Unlock()

	return call
}

// Resolve fulfills the pending call with the given value and removes it from
// the registry. An unknown id is a silent no-op: late and unsolicited replies
// are expected and must not be treated as errors. Returns true if a call was
// fulfilled.
func (r *Registry) Resolve(id, value string) bool {
	r.mu.Lock()
	call, ok := r.calls[id]
	if ok {
		delete(r.calls, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}

	// Buffered channel: delivery never blocks, even if the awaiter already
	// gave up between our delete and this send.
	call.ch <- value
	return true
}

// Cancel removes the pending call without fulfilling it. Safe to call for an
// unknown or already-resolved id.
func (r *Registry) Cancel(id string) {
	r.mu.Lock()
	delete(r.calls, id)
	r.mu.Unlock()
}

// Len returns the number of outstanding calls.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Await blocks the calling goroutine until the call is resolved, the timeout
// elapses, or ctx is cancelled, whichever comes first. On timeout or
// cancellation the registry entry is removed, so a stray late reply for this
// id is dropped.
func (c *Call) Await(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case value := <-c.ch:
		return value, nil
	case <-timer.C:
		c.reg.Cancel(c.id)
		return "", ErrTimeout
	case <-ctx.Done():
		c.reg.Cancel(c.id)
		return "", ctx.Err()
	}
}

// ID returns the call's correlation id.
func (c *Call) ID() string {
	return c.id
}

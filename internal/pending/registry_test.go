package pending

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestRegisterAndResolve(t *testing.T) {
	reg := NewRegistry()
	call := reg.Register("req-1")

	if call.ID() != "req-1" {
		t.Errorf("expected call id req-1, got %s", call.ID())
	}
	if reg.Len() != 1 {
		t.Errorf("expected 1 pending call, got %d", reg.Len())
	}

	if !reg.Resolve("req-1", "note(\"c e g\")") {
		t.Fatal("expected Resolve to find the pending call")
	}

	value, err := call.Await(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "note(\"c e g\")" {
		t.Errorf("expected resolved value, got %q", value)
	}
	if reg.Len() != 0 {
		t.Errorf("expected empty registry after resolve, got %d", reg.Len())
	}
}

func TestResolveUnknownID(t *testing.T) {
	reg := NewRegistry()
	reg.Register("req-1")

	if reg.Resolve("req-2", "ignored") {
		t.Error("expected Resolve of unknown id to return false")
	}
	if reg.Len() != 1 {
		t.Errorf("expected the registered call to survive, got %d", reg.Len())
	}
}

func TestResolveOnlyOnce(t *testing.T) {
	reg := NewRegistry()
	call := reg.Register("req-1")

	if !reg.Resolve("req-1", "first") {
		t.Fatal("expected first Resolve to succeed")
	}
	if reg.Resolve("req-1", "second") {
		t.Error("expected second Resolve to return false")
	}

	value, err := call.Await(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "first" {
		t.Errorf("expected first value to win, got %q", value)
	}
}

func TestAwaitTimeout(t *testing.T) {
	reg := NewRegistry()
	call := reg.Register("req-1")

	_, err := call.Await(context.Background(), 20*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if reg.Len() != 0 {
		t.Errorf("expected timed-out call to be removed, got %d", reg.Len())
	}

	// A reply arriving after the timeout must be a silent no-op.
	if reg.Resolve("req-1", "late") {
		t.Error("expected late Resolve to return false")
	}
}

func TestAwaitContextCancel(t *testing.T) {
	reg := NewRegistry()
	call := reg.Register("req-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := call.Await(ctx, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if reg.Len() != 0 {
		t.Errorf("expected canceled call to be removed, got %d", reg.Len())
	}
}

func TestCancel(t *testing.T) {
	reg := NewRegistry()
	reg.Register("req-1")
	reg.Cancel("req-1")

	if reg.Len() != 0 {
		t.Errorf("expected empty registry after Cancel, got %d", reg.Len())
	}

	// Cancel of an unknown id is a no-op.
	reg.Cancel("req-2")
}

func TestConcurrentCallsAreIndependent(t *testing.T) {
	reg := NewRegistry()

	const n = 20
	calls := make([]*Call, n)
	for i := 0; i < n; i++ {
		calls[i] = reg.Register(fmt.Sprintf("req-%d", i))
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg.Resolve(fmt.Sprintf("req-%d", i), fmt.Sprintf("value-%d", i))
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		value, err := calls[i].Await(context.Background(), time.Second)
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if value != fmt.Sprintf("value-%d", i) {
			t.Errorf("call %d: got %q", i, value)
		}
	}

	if reg.Len() != 0 {
		t.Errorf("expected empty registry, got %d", reg.Len())
	}
}

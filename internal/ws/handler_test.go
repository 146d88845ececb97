package ws

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/strudel-live/backend/internal/model"
)

// fakeResolver records resolved calls for assertion.
type fakeResolver struct {
	mu     sync.Mutex
	ids    []string
	values []string
	found  bool
}

func (r *fakeResolver) Resolve(id, value string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	r.values = append(r.values, value)
	return r.found
}

func (r *fakeResolver) calls() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...), append([]string(nil), r.values...)
}

func TestHandlePingRepliesPong(t *testing.T) {
	h := NewHandler(NewManager(), &fakeResolver{})
	client := NewClient(nil, "abc1")

	h.handleEnvelope(client, &model.Envelope{Type: model.EnvelopeTypePing})

	select {
	case data := <-client.SendChan():
		var env model.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("invalid pong frame: %v", err)
		}
		if env.Type != model.EnvelopeTypePong {
			t.Errorf("expected pong, got %s", env.Type)
		}
	default:
		t.Fatal("expected a pong frame to be queued")
	}
}

func TestHandleCodeResponseResolves(t *testing.T) {
	resolver := &fakeResolver{found: true}
	h := NewHandler(NewManager(), resolver)
	client := NewClient(nil, "abc1")

	h.handleEnvelope(client, &model.Envelope{
		Type:      model.EnvelopeTypeCodeResponse,
		RequestID: "req-1",
		Code:      `note("c e g")`,
	})

	ids, values := resolver.calls()
	if len(ids) != 1 || ids[0] != "req-1" {
		t.Fatalf("expected one resolve for req-1, got %v", ids)
	}
	if values[0] != `note("c e g")` {
		t.Errorf("expected resolved code, got %q", values[0])
	}
}

func TestHandleCodeResponseWithoutRequestID(t *testing.T) {
	resolver := &fakeResolver{found: true}
	h := NewHandler(NewManager(), resolver)
	client := NewClient(nil, "abc1")

	h.handleEnvelope(client, &model.Envelope{
		Type: model.EnvelopeTypeCodeResponse,
		Code: `note("c e g")`,
	})

	ids, _ := resolver.calls()
	if len(ids) != 0 {
		t.Errorf("expected no resolve without a request id, got %v", ids)
	}
}

func TestHandleEvalErrorInvokesCallback(t *testing.T) {
	h := NewHandler(NewManager(), &fakeResolver{})
	client := NewClient(nil, "abc1")

	var gotSession, gotCode, gotErr string
	h.SetOnEvaluationError(func(sessionID, code, errMsg string) {
		gotSession = sessionID
		gotCode = code
		gotErr = errMsg
	})

	h.handleEnvelope(client, &model.Envelope{
		Type:  model.EnvelopeTypeEvalError,
		Code:  `note("c e g")`,
		Error: "unexpected token",
	})

	if gotSession != "abc1" {
		t.Errorf("expected session abc1, got %q", gotSession)
	}
	if gotCode != `note("c e g")` {
		t.Errorf("expected code to be forwarded, got %q", gotCode)
	}
	if gotErr != "unexpected token" {
		t.Errorf("expected error message, got %q", gotErr)
	}
}

func TestHandleEvalErrorDefaultsMessage(t *testing.T) {
	h := NewHandler(NewManager(), &fakeResolver{})
	client := NewClient(nil, "abc1")

	var gotErr string
	h.SetOnEvaluationError(func(sessionID, code, errMsg string) {
		gotErr = errMsg
	})

	h.handleEnvelope(client, &model.Envelope{Type: model.EnvelopeTypeEvalError})

	if gotErr != "Unknown error" {
		t.Errorf("expected default error message, got %q", gotErr)
	}
}

func TestHandleUnknownEnvelopeType(t *testing.T) {
	h := NewHandler(NewManager(), &fakeResolver{})
	client := NewClient(nil, "abc1")

	// Must not panic and must not queue anything.
	h.handleEnvelope(client, &model.Envelope{Type: "bogus"})

	select {
	case <-client.SendChan():
		t.Error("unknown envelope types must be discarded")
	default:
	}
}

// Package dispatch implements the agent-facing command surface: play, stop,
// status, and fetch-current-code, addressed to one session code. All failures
// are encoded in the returned text; nothing here propagates to the caller.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/strudel-live/backend/internal/model"
	"github.com/strudel-live/backend/internal/pending"
)

// defaultFetchTimeout bounds how long a fetch waits for the browser's reply.
const defaultFetchTimeout = 5 * time.Second

// Sender is the connection-manager surface the dispatcher needs. Implemented
// by ws.Manager.
type Sender interface {
	SendToSession(sessionID string, env *model.Envelope) bool
	IsSessionActive(sessionID string) bool
	ConnectionCount() int
}

// History records dispatched commands and reported errors. Implemented by
// repository.HistoryRepository; may be nil to disable recording.
type History interface {
	Record(ctx context.Context, rec *model.PlayRecord) error
}

// Dispatcher translates agent commands into outbound envelopes and awaits
// replies where one is expected. Construct it with explicit collaborators;
// there is no process-wide instance.
type Dispatcher struct {
	conns        Sender
	pending      *pending.Registry
	history      History
	fetchTimeout time.Duration
}

// NewDispatcher creates a dispatcher. history may be nil.
func NewDispatcher(conns Sender, reg *pending.Registry, history History) *Dispatcher {
	return &Dispatcher{
		conns:        conns,
		pending:      reg,
		history:      history,
		fetchTimeout: defaultFetchTimeout,
	}
}

// Play validates code and sends it to the session as a strudel-code envelope.
// Validation failures are rejected before any connection is contacted.
func (d *Dispatcher) Play(ctx context.Context, sessionID, code, description string) string {
	if err := ValidateCode(code); err != nil {
		return fmt.Sprintf("Invalid code: %s", err)
	}

	env := model.NewCodeEnvelope(code, description)
	if !d.conns.SendToSession(sessionID, env) {
		return sessionNotFoundMessage(sessionID)
	}

	d.record(ctx, &model.PlayRecord{
		SessionID:   sessionID,
		Kind:        model.EventKindPlay,
		Code:        code,
		Description: description,
	})

	return fmt.Sprintf("Strudel pattern sent to session %s. Pattern: %s",
		strings.ToUpper(sessionID), truncate(code, 50))
}

// Stop sends a strudel-stop envelope to the session.
func (d *Dispatcher) Stop(ctx context.Context, sessionID string) string {
	if !d.conns.SendToSession(sessionID, model.NewStopEnvelope()) {
		return sessionNotFoundMessage(sessionID)
	}

	d.record(ctx, &model.PlayRecord{
		SessionID: sessionID,
		Kind:      model.EventKindStop,
	})

	return fmt.Sprintf("Stop signal sent to session %s", strings.ToUpper(sessionID))
}

// Status reports whether the session is connected. Pure local lookup; no
// network round trip.
func (d *Dispatcher) Status(sessionID string) string {
	if d.conns.IsSessionActive(sessionID) {
		return fmt.Sprintf("Session %s is connected and ready for live coding!", strings.ToUpper(sessionID))
	}
	return sessionNotFoundMessage(sessionID)
}

// FetchCurrentCode asks the session's tab for its current editor contents and
// waits up to the fetch timeout for the reply. Timeout, send failure, and
// unknown session are distinct outcomes, and the pending call is cleaned up
// in every one of them.
func (d *Dispatcher) FetchCurrentCode(ctx context.Context, sessionID string) string {
	if d.conns.ConnectionCount() == 0 {
		return "No browsers currently connected. Open the web interface to get editor content."
	}
	if !d.conns.IsSessionActive(sessionID) {
		return sessionNotFoundMessage(sessionID)
	}

	requestID := uuid.New().String()
	call := d.pending.Register(requestID)

	if !d.conns.SendToSession(sessionID, model.NewGetCodeEnvelope(requestID)) {
		d.pending.Cancel(requestID)
		return fmt.Sprintf("Failed to send request to session %s", strings.ToUpper(sessionID))
	}
	log.Printf("Sent code request %s to session %s", requestID, sessionID)

	code, err := call.Await(ctx, d.fetchTimeout)
	if err != nil {
		return "Timeout waiting for browser response. Make sure the web interface is active and try again."
	}

	return fmt.Sprintf("Current editor code from session %s:\n\n%s", strings.ToUpper(sessionID), code)
}

// record appends to the command history, if one is configured. History
// failures are logged, never surfaced: the command already succeeded.
func (d *Dispatcher) record(ctx context.Context, rec *model.PlayRecord) {
	if d.history == nil {
		return
	}
	if err := d.history.Record(ctx, rec); err != nil {
		log.Printf("Failed to record %s for session %s: %v", rec.Kind, rec.SessionID, err)
	}
}

func sessionNotFoundMessage(sessionID string) string {
	return fmt.Sprintf("Session %s not found. Make sure the browser is open with this session code.",
		strings.ToUpper(sessionID))
}

// truncate shortens s to at most n bytes for display, appending an ellipsis
// when anything was cut.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

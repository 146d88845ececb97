package model

import "time"

// EventKind classifies a history record.
type EventKind string

const (
	EventKindPlay      EventKind = "play"
	EventKindStop      EventKind = "stop"
	EventKindEvalError EventKind = "evaluation-error"
)

// PlayRecord is one entry in the append-only command history: a pattern sent
// to a session, a stop signal, or an evaluation error reported by the tab.
// Session bindings themselves are never persisted; this log exists for
// diagnostics only.
type PlayRecord struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"sessionId"`
	Kind        EventKind `json:"kind"`
	Code        string    `json:"code,omitempty"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

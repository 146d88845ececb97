package model

import (
	"encoding/json"
	"time"
)

// EnvelopeType represents the type of a WebSocket envelope.
type EnvelopeType string

const (
	// Server -> browser envelope types
	EnvelopeTypeCode    EnvelopeType = "strudel-code"
	EnvelopeTypeStop    EnvelopeType = "strudel-stop"
	EnvelopeTypeGetCode EnvelopeType = "get-current-code"
	EnvelopeTypePong    EnvelopeType = "pong"

	// Browser -> server envelope types
	EnvelopeTypePing         EnvelopeType = "ping"
	EnvelopeTypeCodeResponse EnvelopeType = "current-code-response"
	EnvelopeTypeEvalError    EnvelopeType = "evaluation-error"
)

// Envelope is the unit of message exchange with a browser tab. Envelopes are
// immutable once constructed and serialized to text frames for transport.
type Envelope struct {
	Type      EnvelopeType      `json:"type"`
	Code      string            `json:"code,omitempty"`
	Autoplay  bool              `json:"autoplay,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Error     string            `json:"error,omitempty"`
	Timestamp float64           `json:"timestamp,omitempty"`
}

// NewCodeEnvelope builds a strudel-code envelope carrying a pattern to execute.
func NewCodeEnvelope(code, description string) *Envelope {
	var metadata map[string]string
	if description != "" {
		metadata = map[string]string{"description": description}
	}
	return &Envelope{
		Type:      EnvelopeTypeCode,
		Code:      code,
		Autoplay:  true,
		Metadata:  metadata,
		Timestamp: wireTime(),
	}
}

// NewStopEnvelope builds a strudel-stop envelope halting playback.
func NewStopEnvelope() *Envelope {
	return &Envelope{
		Type:      EnvelopeTypeStop,
		Timestamp: wireTime(),
	}
}

// NewGetCodeEnvelope builds a get-current-code envelope carrying the
// correlation id the browser must echo back in its reply.
func NewGetCodeEnvelope(requestID string) *Envelope {
	return &Envelope{
		Type:      EnvelopeTypeGetCode,
		RequestID: requestID,
		Timestamp: wireTime(),
	}
}

// NewPongEnvelope builds a pong envelope answering a liveness probe.
func NewPongEnvelope() *Envelope {
	return &Envelope{Type: EnvelopeTypePong}
}

// Encode serializes the envelope to its wire representation.
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// wireTime returns the current time as fractional Unix seconds, matching the
// timestamp format the browser player expects.
func wireTime() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

package model

import "errors"

var (
	// ErrSessionNotFound is returned when no browser tab is bound to a session code.
	ErrSessionNotFound = errors.New("session not found")

	// ErrRecordNotFound is returned when a history record is not found.
	ErrRecordNotFound = errors.New("record not found")
)

// Package session provides session code generation and validation.
//
// A session code is the short identifier a user reads off the browser tab and
// supplies to the agent to address that tab: three lowercase letters followed
// by one digit, e.g. "fox8".
package session

import "math/rand"

const (
	codeLetters = "abcdefghijklmnopqrstuvwxyz"
	codeDigits  = "0123456789"

	// CodeLength is the fixed length of a session code.
	CodeLength = 4
)

// NewCode returns a session code that is not currently in use. taken reports
// whether a candidate is already bound; generation retries until an unbound
// candidate is produced. Callers that need the returned code to stay unbound
// must hold the binding table's lock across the call (a nil taken accepts the
// first candidate).
//
// Codes are not reserved: a code freed by a disconnect may be produced again.
func NewCode(taken func(string) bool) string {
	for {
		code := randomCode()
		if taken == nil || !taken(code) {
			return code
		}
	}
}

// randomCode produces one candidate code from the fixed alphabet.
func randomCode() string {
	b := make([]byte, CodeLength)
	for i := 0; i < CodeLength-1; i++ {
		b[i] = codeLetters[rand.Intn(len(codeLetters))]
	}
	b[CodeLength-1] = codeDigits[rand.Intn(len(codeDigits))]
	return string(b)
}

// Valid reports whether s has the shape of a session code.
func Valid(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < CodeLength-1; i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return s[CodeLength-1] >= '0' && s[CodeLength-1] <= '9'
}

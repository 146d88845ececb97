package dispatch

import (
	"errors"
	"fmt"
	"strings"
)

// patternTokens is the vocabulary a Strudel pattern is expected to contain at
// least one of.
var patternTokens = []string{"note", "sound", "s", "n", "stack", "cat", "seq", "silence"}

// dangerTokens are constructs that must never reach the player's evaluator.
var dangerTokens = []string{"import", "require", "eval", "function", "window.", "document.", "fetch", "xhr"}

// ErrEmptyCode rejects a play request with no code.
var ErrEmptyCode = errors.New("code cannot be empty")

// ValidateCode performs coarse well-formedness checks on a pattern before it
// is sent anywhere: non-empty, balanced parentheses, at least one expected
// pattern token, no clearly unsafe constructs. This is a peripheral filter;
// real syntax errors are reported back by the tab as evaluation-error frames.
func ValidateCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return ErrEmptyCode
	}

	if strings.Count(code, "(") != strings.Count(code, ")") {
		return errors.New("mismatched parentheses")
	}

	lower := strings.ToLower(code)

	found := false
	for _, token := range patternTokens {
		if strings.Contains(lower, token) {
			found = true
			break
		}
	}
	if !found {
		return errors.New("code doesn't appear to contain Strudel patterns (missing note/sound/s/n/stack/cat/seq)")
	}

	var dangerous []string
	for _, token := range dangerTokens {
		if strings.Contains(lower, token) {
			dangerous = append(dangerous, token)
		}
	}
	if len(dangerous) > 0 {
		return fmt.Errorf("code contains potentially dangerous elements: %s", strings.Join(dangerous, ", "))
	}

	return nil
}

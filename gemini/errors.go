package gemini

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when the session wait queue is full. Callers should
// surface it as an admission failure (HTTP 503), not a classification outcome.
var ErrBusy = errors.New("gemini: classifier busy, queue full")

// ErrNoComposer is returned when the interactive surface never appears.
var ErrNoComposer = errors.New("gemini: composer not found")

// ParseError reports an agent answer that could not be interpreted as a
// classification. The raw text is preserved for diagnostics.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("gemini: unparsable agent answer (%d bytes)", len(e.Raw))
}

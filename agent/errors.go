package agent

import "fmt"

// RecursionLimitError is fatal: the model kept requesting tool calls past
// the configured maximum number of tool-call rounds within a single turn.
type RecursionLimitError struct {
	MaxToolLoops int
}

func (e *RecursionLimitError) Error() string {
	return fmt.Sprintf("agent: exceeded max tool loops (%d) in a single turn", e.MaxToolLoops)
}

// StreamError is fatal for the current turn: the underlying engine's
// stream ended in an error partway through. The caller rolls history back
// to the last user message.
type StreamError struct {
	Cause error
}

func (e *StreamError) Error() string { return fmt.Sprintf("agent: stream failed: %v", e.Cause) }
func (e *StreamError) Unwrap() error { return e.Cause }

// Package common holds the small bits of bookkeeping every provider engine
// in llm/claude, llm/openai, and llm/gemini needs, so each one isn't left to
// reinvent it against its own wire format.
package common

// ToolCallTracker tracks the currently active tool-call's index and id
// while a provider's stream delivers a start/delta/stop sequence of events.
// Each provider decodes a different wire shape into these three fields, so
// pulling the index bookkeeping out here keeps the three Stream
// implementations from drifting.
type ToolCallTracker struct {
	index int
	id    string
	name  string
}

// NewToolCallTracker returns a tracker with no active call.
func NewToolCallTracker() *ToolCallTracker {
	return &ToolCallTracker{index: -1}
}

// Start begins tracking a new tool call and returns its index.
func (t *ToolCallTracker) Start(id, name string) int {
	t.index++
	t.id = id
	t.name = name
	return t.index
}

// Index returns the currently active call's index, or -1 if none is active.
func (t *ToolCallTracker) Index() int { return t.index }

// ID returns the currently active call's id.
func (t *ToolCallTracker) ID() string { return t.id }

// Name returns the currently active call's name.
func (t *ToolCallTracker) Name() string { return t.name }

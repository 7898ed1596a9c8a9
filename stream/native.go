package stream

import (
	"encoding/json"

	"github.com/google/uuid"
)

// NativeParser accumulates a provider's structured tool_calls delta field
// across chunks and emits the shared Event vocabulary, so the run loop
// never needs to know whether it's talking to a native-tool-call provider
// or a tag-mode one. It tracks at most one active call at a time per the
// single-choice contract the core operates under.
type NativeParser struct {
	activeIndex int
	activeID    string
	started     bool
	buffer      string
}

// NewNativeParser returns a parser with no active call.
func NewNativeParser() *NativeParser {
	return &NativeParser{activeIndex: -1}
}

// Feed processes one chunk and returns the events it produces, in order.
func (p *NativeParser) Feed(c Chunk) []Event {
	if len(c.Choices) == 0 {
		return nil
	}
	choice := c.Choices[0]

	var events []Event
	if choice.Delta.Content != "" {
		events = append(events, Text(choice.Delta.Content))
	}

	for _, tc := range choice.Delta.ToolCalls {
		if p.started && tc.Index != p.activeIndex {
			events = append(events, p.endActive())
		}
		if !p.started {
			id := tc.ID
			if id == "" {
				id = uuid.NewString()
			}
			p.activeIndex = tc.Index
			p.activeID = id
			p.started = true
			p.buffer = ""
			events = append(events, ToolCallStart(id, tc.Function.Name))
		}
		if tc.Function.Arguments != "" {
			p.buffer += tc.Function.Arguments
			events = append(events, ToolCallArgs(p.activeID, tc.Function.Arguments))
		}
	}

	if choice.FinishReason == "tool_calls" && p.started {
		events = append(events, p.endActive())
	}

	if choice.FinishReason != "" {
		var usage *Usage
		if c.Usage != nil {
			usage = c.Usage
		}
		events = append(events, Done(choice.FinishReason, usage))
	}

	return events
}

// Flush finalizes any call still active when the stream ends without an
// explicit finish_reason, per the "reset on Done or stream end" invariant.
func (p *NativeParser) Flush() []Event {
	if !p.started {
		return nil
	}
	return []Event{p.endActive()}
}

func (p *NativeParser) endActive() Event {
	valid := json.Valid([]byte(p.buffer))
	ev := ToolCallEnd(p.activeID, p.buffer, valid)
	p.started = false
	p.activeID = ""
	p.activeIndex = -1
	p.buffer = ""
	return ev
}

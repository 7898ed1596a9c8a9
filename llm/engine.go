// Package llm defines the LLMEngine port — the boundary between agentcore
// and whatever transport actually talks to a model provider — plus the
// Request/Chunk/AgentResponse types that cross it, and a provider-detecting
// constructor that wires up the llm/claude, llm/openai, and llm/gemini
// engines.
package llm

import (
	"context"

	"github.com/bpowers/agentcore/chat"
	"github.com/bpowers/agentcore/stream"
	"github.com/bpowers/agentcore/tool"
)

// Capability describes what a Request's target provider can do, so the
// advisor chain knows whether tag-mode emulation is needed.
type Capability struct {
	SupportsNativeToolCalls bool
}

// GenerateConfig carries the handful of generation parameters every
// provider understands.
type GenerateConfig struct {
	Temperature     *float64
	MaxTokens       int
	ReasoningEffort string
}

// Request is everything needed to invoke a model: history, available
// tools, generation parameters, and the capability flag that selects the
// parser mode.
type Request struct {
	Model      string
	Messages   []chat.Message
	Tools      []tool.Def
	ToolChoice string
	Config     GenerateConfig
	Capability Capability
}

// AgentResponse is the non-streaming consolidation of a model turn.
type AgentResponse struct {
	Content      string
	FinishReason string
	ToolCalls    []chat.ToolCall
	Usage        stream.Usage
	Messages     []chat.Message
}

// Engine is the LLMEngine port: an opaque producer of ordered chunks or a
// single consolidated response over a provider. Implementations must
// preserve provider ordering per choice index and must not block
// indefinitely past the caller's context.
type Engine interface {
	// Call performs a non-streaming request.
	Call(ctx context.Context, req Request) (AgentResponse, error)
	// Stream performs a streaming request. The returned channel is closed
	// when the provider signals completion, the context is canceled, or a
	// transport error occurs (in which case Stream or a later read returns
	// an error through the accompanying error channel pattern implemented
	// by each engine).
	Stream(ctx context.Context, req Request) (<-chan stream.Chunk, <-chan error)
}

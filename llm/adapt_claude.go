package llm

import (
	"context"

	"github.com/bpowers/agentcore/llm/claude"
	"github.com/bpowers/agentcore/stream"
)

// claudeAdapter satisfies Engine by translating the shared Request/
// AgentResponse vocabulary into llm/claude's own Request/Response types at
// the call boundary, which is what lets llm/claude avoid importing this
// package.
type claudeAdapter struct {
	inner *claude.Engine
}

func (a claudeAdapter) Call(ctx context.Context, req Request) (AgentResponse, error) {
	resp, err := a.inner.Call(ctx, toClaudeRequest(req))
	if err != nil {
		return AgentResponse{}, err
	}
	return AgentResponse{
		Content:      resp.Content,
		FinishReason: resp.FinishReason,
		ToolCalls:    resp.ToolCalls,
		Usage:        resp.Usage,
	}, nil
}

func (a claudeAdapter) Stream(ctx context.Context, req Request) (<-chan stream.Chunk, <-chan error) {
	return a.inner.Stream(ctx, toClaudeRequest(req))
}

func toClaudeRequest(req Request) claude.Request {
	return claude.Request{
		Model:    req.Model,
		Messages: req.Messages,
		Tools:    req.Tools,
		Config: claude.Config{
			Temperature: req.Config.Temperature,
			MaxTokens:   req.Config.MaxTokens,
		},
	}
}

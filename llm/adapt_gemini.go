package llm

import (
	"context"

	"github.com/bpowers/agentcore/llm/gemini"
	"github.com/bpowers/agentcore/stream"
)

type geminiAdapter struct {
	inner *gemini.Engine
}

func (a geminiAdapter) Call(ctx context.Context, req Request) (AgentResponse, error) {
	resp, err := a.inner.Call(ctx, toGeminiRequest(req))
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

func (a geminiAdapter) Stream(ctx context.Context, req Request) (<-chan stream.Chunk, <-chan error) {
	return a.inner.Stream(ctx, toGeminiRequest(req))
}

func toGeminiRequest(req Request) gemini.Request {
	return gemini.Request{
		Model:    req.Model,
		Messages: req.Messages,
		Tools:    req.Tools,
		Config: gemini.Config{
			Temperature: req.Config.Temperature,
			MaxTokens:   req.Config.MaxTokens,
		},
	}
}

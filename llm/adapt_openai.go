package llm

import (
	"context"

	"github.com/bpowers/agentcore/llm/openai"
	"github.com/bpowers/agentcore/stream"
)

type openaiAdapter struct {
	inner *openai.Engine
}

func (a openaiAdapter) Call(ctx context.Context, req Request) (AgentResponse, error) {
	resp, err := a.inner.Call(ctx, toOpenAIRequest(req))
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

func (a openaiAdapter) Stream(ctx context.Context, req Request) (<-chan stream.Chunk, <-chan error) {
	return a.inner.Stream(ctx, toOpenAIRequest(req))
}

func toOpenAIRequest(req Request) openai.Request {
	return openai.Request{
		Model:    req.Model,
		Messages: req.Messages,
		Tools:    req.Tools,
		Config: openai.Config{
			Temperature: req.Config.Temperature,
			MaxTokens:   req.Config.MaxTokens,
		},
	}
}

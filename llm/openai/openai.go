// Package openai implements the llm.Engine port against OpenAI's Chat
// Completions API, and any OpenAI-compatible endpoint (Ollama, local
// gateways) reachable through the same wire format.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/bpowers/agentcore/chat"
	"github.com/bpowers/agentcore/internal/logging"
	"github.com/bpowers/agentcore/llm/internal/common"
	"github.com/bpowers/agentcore/stream"
	"github.com/bpowers/agentcore/tool"
)

const DefaultURL = "https://api.openai.com/v1"

type Engine struct {
	client    openai.Client
	modelName string
	debug     bool
}

type Option func(*Engine)

func WithModel(modelName string) Option {
	return func(e *Engine) { e.modelName = strings.TrimSpace(modelName) }
}

func WithDebug(debug bool) Option {
	return func(e *Engine) { e.debug = debug }
}

// NewEngine returns an llm.Engine backed by OpenAI's Chat Completions API.
func NewEngine(apiBase, apiKey string, opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.modelName == "" {
		return nil, fmt.Errorf("WithModel is a required option")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required for OpenAI")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if apiBase != "" && apiBase != DefaultURL {
		clientOpts = append(clientOpts, option.WithBaseURL(apiBase))
	}
	e.client = openai.NewClient(clientOpts...)
	return e, nil
}

// isNoTemperatureModel reports whether model rejects a custom temperature,
// as gpt-5 and the o-series reasoning models do.
func isNoTemperatureModel(model string) bool {
	m := strings.ToLower(model)
	return strings.HasPrefix(m, "gpt-5") || strings.HasPrefix(m, "o1-") || strings.HasPrefix(m, "o3")
}

// Config carries the generation parameters this package understands.
// Request/Response are kept local to the package rather than imported from
// package llm, since package llm imports llm/openai to build engines.
type Config struct {
	Temperature *float64
	MaxTokens   int
}

type Request struct {
	Model    string
	Messages []chat.Message
	Tools    []tool.Def
	Config   Config
}

type Response struct {
	Content      string
	FinishReason string
	ToolCalls    []chat.ToolCall
	Usage        stream.Usage
}

func (e *Engine) buildParams(req Request) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	for _, m := range req.Messages {
		messages = append(messages, messageParam(m))
	}

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    req.Model,
	}

	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, toOpenAITool(t))
		}
		params.Tools = tools
	}

	if req.Config.Temperature != nil && !isNoTemperatureModel(req.Model) {
		params.Temperature = openai.Float(*req.Config.Temperature)
	}
	if req.Config.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.Config.MaxTokens))
	}

	return params
}

func toOpenAITool(t tool.Def) openai.ChatCompletionToolParam {
	params := t.Parameters()
	schema := map[string]any{"type": "object"}
	if params != nil {
		schema["properties"] = params.Properties
		schema["required"] = params.Required
	}
	return openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        t.Name(),
			Description: openai.String(t.Description()),
			Parameters:  schema,
		},
	}
}

func messageParam(m chat.Message) openai.ChatCompletionMessageParamUnion {
	switch m.Role {
	case chat.RoleSystem:
		return openai.SystemMessage(m.Content)
	case chat.RoleUser:
		return openai.UserMessage(m.Content)
	case chat.RoleTool:
		return openai.ToolMessage(m.Content, m.ToolCallID)
	case chat.RoleAssistant:
		if !m.HasToolCalls() {
			return openai.AssistantMessage(m.Content)
		}
		calls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(m.ToolCalls))
		for _, tc := range m.ToolCalls {
			calls = append(calls, openai.ChatCompletionMessageToolCallParam{
				ID:   tc.ID,
				Type: "function",
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		asst := openai.ChatCompletionAssistantMessageParam{ToolCalls: calls}
		if m.Content != "" {
			asst.Content.OfString = openai.String(m.Content)
		}
		return openai.ChatCompletionMessageParamUnion{OfAssistant: &asst}
	default:
		return openai.UserMessage(m.Content)
	}
}

// Call performs a non-streaming Chat Completions request.
func (e *Engine) Call(ctx context.Context, req Request) (Response, error) {
	params := e.buildParams(req)
	resp, err := e.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("openai call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("openai call: empty choices")
	}
	choice := resp.Choices[0]

	var calls []chat.ToolCall
	for _, tc := range choice.Message.ToolCalls {
		calls = append(calls, chat.NewToolCall(tc.ID, tc.Function.Name, tc.Function.Arguments))
	}

	return Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		ToolCalls:    calls,
		Usage: stream.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

// Stream performs a streaming Chat Completions request. OpenAI's wire shape
// for chunks matches the stream.Chunk vocabulary closely enough that this is
// largely a field-for-field copy rather than a translation.
func (e *Engine) Stream(ctx context.Context, req Request) (<-chan stream.Chunk, <-chan error) {
	chunks := make(chan stream.Chunk)
	errs := make(chan error, 1)

	params := e.buildParams(req)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{IncludeUsage: param.NewOpt(true)}

	go func() {
		defer close(chunks)
		defer close(errs)

		tracker := common.NewToolCallTracker()
		s := e.client.Chat.Completions.NewStreaming(ctx, params)
		for s.Next() {
			raw := s.Current()
			if e.debug {
				logging.Logger().Debug("openai stream chunk", "raw", raw.RawJSON())
			}

			out := stream.Chunk{}
			if raw.Usage.TotalTokens > 0 {
				out.Usage = &stream.Usage{
					InputTokens:  int(raw.Usage.PromptTokens),
					OutputTokens: int(raw.Usage.CompletionTokens),
				}
			}
			if len(raw.Choices) > 0 {
				c := raw.Choices[0]
				choice := stream.Choice{FinishReason: string(c.FinishReason)}
				choice.Delta.Content = c.Delta.Content
				for _, tc := range c.Delta.ToolCalls {
					if tc.ID != "" {
						tracker.Start(tc.ID, tc.Function.Name)
					}
					choice.Delta.ToolCalls = append(choice.Delta.ToolCalls, stream.DeltaToolCall{
						Index: int(tc.Index),
						ID:    tc.ID,
						Type:  "function",
						Function: stream.DeltaFunctionCall{
							Name:      tc.Function.Name,
							Arguments: tc.Function.Arguments,
						},
					})
				}
				out.Choices = []stream.Choice{choice}
			}
			chunks <- out
		}
		if err := s.Err(); err != nil {
			errs <- fmt.Errorf("openai stream: %w", err)
		}
	}()

	return chunks, errs
}

// Package claude implements the llm.Engine port against Anthropic's
// Messages API.
package claude

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/bpowers/agentcore/chat"
	"github.com/bpowers/agentcore/internal/logging"
	"github.com/bpowers/agentcore/llm/internal/common"
	"github.com/bpowers/agentcore/stream"
	"github.com/bpowers/agentcore/tool"
)

const DefaultURL = "https://api.anthropic.com/v1"

type Engine struct {
	client    anthropic.Client
	modelName string
	debug     bool
	baseURL   string
}

type Option func(*Engine)

func WithModel(modelName string) Option {
	return func(e *Engine) { e.modelName = strings.TrimSpace(modelName) }
}

func WithDebug(debug bool) Option {
	return func(e *Engine) { e.debug = debug }
}

// NewEngine returns an llm.Engine backed by Anthropic's Messages API.
func NewEngine(apiBase, apiKey string, opts ...Option) (*Engine, error) {
	e := &Engine{
		debug:   os.Getenv("AGENTCORE_DEBUG") == "3",
		baseURL: apiBase,
	}
	if e.baseURL == "" {
		e.baseURL = DefaultURL
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.modelName == "" {
		return nil, fmt.Errorf("WithModel is a required option")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required for Claude")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if e.baseURL != DefaultURL {
		clientOpts = append(clientOpts, option.WithBaseURL(e.baseURL))
	}
	e.client = anthropic.NewClient(clientOpts...)
	return e, nil
}

var modelMaxOutputTokens = []struct {
	prefix string
	tokens int64
}{
	{"claude-opus-4-1", 32000},
	{"claude-opus-4", 32000},
	{"claude-sonnet-4-5", 64000},
	{"claude-sonnet-4", 64000},
	{"claude-3-7-sonnet", 64000},
	{"claude-3-5-haiku", 8192},
	{"claude-3-haiku", 4096},
}

func maxOutputTokens(model string) int64 {
	m := strings.ToLower(model)
	for _, e := range modelMaxOutputTokens {
		if strings.HasPrefix(m, e.prefix) {
			return e.tokens
		}
	}
	logging.Logger().Warn("unknown claude model, using default max tokens", "model", model)
	return 4096
}

func (e *Engine) buildParams(req Request) (anthropic.MessageNewParams, error) {
	var msgs []anthropic.MessageParam
	var systemPrompt string
	for _, m := range req.Messages {
		if m.Role == chat.RoleSystem {
			systemPrompt = m.Content
			continue
		}
		p, err := messageParam(m)
		if err != nil {
			return anthropic.MessageNewParams{}, fmt.Errorf("converting message: %w", err)
		}
		msgs = append(msgs, p)
	}

	params := anthropic.MessageNewParams{
		Messages:  msgs,
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxOutputTokens(req.Model),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt, Type: "text"}}
	}
	if req.Config.MaxTokens > 0 {
		params.MaxTokens = int64(req.Config.MaxTokens)
	}
	if req.Config.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Config.Temperature)
	}

	if len(req.Tools) > 0 {
		tools := make([]anthropic.ToolUnionParam, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, toClaudeTool(t))
		}
		params.Tools = tools
	}

	return params, nil
}

func toClaudeTool(t tool.Def) anthropic.ToolUnionParam {
	params := t.Parameters()
	var schemaMap map[string]any
	if params != nil {
		schemaMap = map[string]any{
			"type":       "object",
			"properties": params.Properties,
			"required":   params.Required,
		}
	}
	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        t.Name(),
			Description: anthropic.String(t.Description()),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schemaMap["properties"],
			},
		},
	}
}

func messageParam(m chat.Message) (anthropic.MessageParam, error) {
	switch m.Role {
	case chat.RoleUser:
		return anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)), nil
	case chat.RoleTool:
		return anthropic.NewUserMessage(anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false)), nil
	case chat.RoleAssistant:
		blocks := []anthropic.ContentBlockParamUnion{}
		if m.Content != "" {
			blocks = append(blocks, anthropic.NewTextBlock(m.Content))
		}
		for _, tc := range m.ToolCalls {
			blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, tc.Function.Arguments, tc.Function.Name))
		}
		return anthropic.NewAssistantMessage(blocks...), nil
	default:
		return anthropic.MessageParam{}, fmt.Errorf("unsupported role for claude: %s", m.Role)
	}
}

// Config carries the generation parameters this package understands. It and
// Request/Response are defined locally rather than imported from package
// llm: package llm's factory imports llm/claude to construct engines, so
// llm/claude cannot import llm back without a cycle. llm/adapt_claude.go
// converts between the two at the boundary.
type Config struct {
	Temperature *float64
	MaxTokens   int
}

// Request is this engine's view of a model call.
type Request struct {
	Model    string
	Messages []chat.Message
	Tools    []tool.Def
	Config   Config
}

// Response is the non-streaming consolidation of a Claude reply.
type Response struct {
	Content      string
	FinishReason string
	ToolCalls    []chat.ToolCall
	Usage        stream.Usage
}

// Call performs a non-streaming Messages API request.
func (e *Engine) Call(ctx context.Context, req Request) (Response, error) {
	params, err := e.buildParams(req)
	if err != nil {
		return Response{}, err
	}
	msg, err := e.client.Messages.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("claude call: %w", err)
	}

	var content strings.Builder
	var calls []chat.ToolCall
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			content.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			calls = append(calls, chat.NewToolCall(b.ID, b.Name, string(b.Input)))
		}
	}

	return Response{
		Content:      content.String(),
		FinishReason: string(msg.StopReason),
		ToolCalls:    calls,
		Usage: stream.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}

// Stream performs a streaming Messages API request, translating Anthropic's
// SSE event shape into the shared stream.Chunk vocabulary.
func (e *Engine) Stream(ctx context.Context, req Request) (<-chan stream.Chunk, <-chan error) {
	chunks := make(chan stream.Chunk)
	errs := make(chan error, 1)

	params, err := e.buildParams(req)
	if err != nil {
		go func() { errs <- err; close(chunks); close(errs) }()
		return chunks, errs
	}

	go func() {
		defer close(chunks)
		defer close(errs)

		tracker := common.NewToolCallTracker()

		s := e.client.Messages.NewStreaming(ctx, params)
		for s.Next() {
			event := s.Current()
			if e.debug {
				logging.Logger().Debug("claude stream event", "type", event.Type)
			}
			switch event.Type {
			case "content_block_start":
				if event.ContentBlock.Type == "tool_use" {
					idx := tracker.Start(event.ContentBlock.ID, event.ContentBlock.Name)
					chunks <- stream.Chunk{Choices: []stream.Choice{{
						Delta: stream.Delta{ToolCalls: []stream.DeltaToolCall{{
							Index:    idx,
							ID:       tracker.ID(),
							Function: stream.DeltaFunctionCall{Name: tracker.Name()},
						}}},
					}}}
				}
			case "content_block_delta":
				delta := event.Delta
				if text := delta.Text; text != "" {
					chunks <- stream.Chunk{Choices: []stream.Choice{{Delta: stream.Delta{Content: text}}}}
				}
				if partial := delta.PartialJSON; partial != "" {
					chunks <- stream.Chunk{Choices: []stream.Choice{{
						Delta: stream.Delta{ToolCalls: []stream.DeltaToolCall{{
							Index:    tracker.Index(),
							Function: stream.DeltaFunctionCall{Arguments: partial},
						}}},
					}}}
				}
			case "message_delta":
				reason := string(event.Delta.StopReason)
				if reason == "tool_use" {
					reason = "tool_calls"
				}
				if reason != "" {
					chunks <- stream.Chunk{
						Choices: []stream.Choice{{FinishReason: reason}},
						Usage: &stream.Usage{
							OutputTokens: int(event.Usage.OutputTokens),
						},
					}
				}
			}
		}
		if err := s.Err(); err != nil {
			errs <- fmt.Errorf("claude stream: %w", err)
		}
	}()

	return chunks, errs
}

// Package gemini implements the llm.Engine port against Google's Gemini
// API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/bpowers/agentcore/chat"
	"github.com/bpowers/agentcore/internal/logging"
	"github.com/bpowers/agentcore/llm/internal/common"
	"github.com/bpowers/agentcore/stream"
	"github.com/bpowers/agentcore/tool"
)

var logger = logging.Logger().With("provider", "gemini")

type Engine struct {
	client    *genai.Client
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

// NewEngine returns an llm.Engine backed by Google's Gemini API.
func NewEngine(apiKey string, opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.modelName == "" {
		return nil, fmt.Errorf("WithModel is a required option")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required for Gemini")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	e.client = client
	return e, nil
}

// Config carries the generation parameters this package understands.
// Request/Response are kept local rather than imported from package llm to
// avoid a cycle with llm's engine factory.
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

func (e *Engine) buildContents(req Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	var contents []*genai.Content
	config := &genai.GenerateContentConfig{}

	for _, m := range req.Messages {
		switch m.Role {
		case chat.RoleSystem:
			config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: m.Content}}}
		case chat.RoleUser:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: m.Content}}})
		case chat.RoleAssistant:
			parts := []*genai.Part{}
			if m.Content != "" {
				parts = append(parts, &genai.Part{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				var args map[string]any
				_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   tc.ID,
					Name: tc.Function.Name,
					Args: args,
				}})
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		case chat.RoleTool:
			var response map[string]any
			if err := json.Unmarshal([]byte(m.Content), &response); err != nil {
				response = map[string]any{"result": m.Content}
			}
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{
				FunctionResponse: &genai.FunctionResponse{ID: m.ToolCallID, Name: m.Name, Response: response},
			}}})
		}
	}

	if req.Config.Temperature != nil {
		t := float32(*req.Config.Temperature)
		config.Temperature = &t
	}
	if req.Config.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.Config.MaxTokens)
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, toGeminiDeclaration(t))
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	return contents, config
}

func toGeminiDeclaration(t tool.Def) *genai.FunctionDeclaration {
	decl := &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
	}
	params := t.Parameters()
	if params == nil {
		return decl
	}
	props := make(map[string]*genai.Schema, len(params.Properties))
	for name, p := range params.Properties {
		props[name] = &genai.Schema{Type: genaiType(p.TypeString()), Description: p.Description}
	}
	decl.Parameters = &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   params.Required,
	}
	return decl
}

func genaiType(t string) genai.Type {
	switch t {
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// Call performs a non-streaming generation request.
func (e *Engine) Call(ctx context.Context, req Request) (Response, error) {
	contents, config := e.buildContents(req)
	resp, err := e.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return Response{}, fmt.Errorf("gemini call: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return Response{}, fmt.Errorf("gemini call: no candidates")
	}

	var content strings.Builder
	var calls []chat.ToolCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			content.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			calls = append(calls, functionCallToToolCall(part.FunctionCall))
		}
	}

	usage := stream.Usage{}
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return Response{
		Content:      content.String(),
		FinishReason: string(resp.Candidates[0].FinishReason),
		ToolCalls:    calls,
		Usage:        usage,
	}, nil
}

func functionCallToToolCall(fc *genai.FunctionCall) chat.ToolCall {
	id := fc.ID
	if id == "" {
		id = fmt.Sprintf("gemini_%s", fc.Name)
	}
	args, _ := json.Marshal(fc.Args)
	return chat.NewToolCall(id, fc.Name, string(args))
}

// Stream performs a streaming generation request. Gemini delivers each
// function call whole rather than as incremental argument fragments, so
// each one is surfaced as a single start+end pair at the index the tracker
// assigns it.
func (e *Engine) Stream(ctx context.Context, req Request) (<-chan stream.Chunk, <-chan error) {
	chunks := make(chan stream.Chunk)
	errs := make(chan error, 1)

	contents, config := e.buildContents(req)

	go func() {
		defer close(chunks)
		defer close(errs)

		tracker := common.NewToolCallTracker()
		for part, err := range e.client.Models.GenerateContentStream(ctx, req.Model, contents, config) {
			if err != nil {
				errs <- fmt.Errorf("gemini stream: %w", err)
				return
			}
			if part == nil {
				continue
			}
			if e.debug {
				logger.Debug("gemini stream chunk", "candidates", len(part.Candidates))
			}

			out := stream.Chunk{}
			if part.UsageMetadata != nil {
				out.Usage = &stream.Usage{
					InputTokens:  int(part.UsageMetadata.PromptTokenCount),
					OutputTokens: int(part.UsageMetadata.CandidatesTokenCount),
				}
			}

			for _, candidate := range part.Candidates {
				if candidate.Content == nil {
					continue
				}
				var choice stream.Choice
				for _, p := range candidate.Content.Parts {
					if p.Text != "" {
						choice.Delta.Content += p.Text
					}
					if p.FunctionCall != nil {
						tc := functionCallToToolCall(p.FunctionCall)
						idx := tracker.Start(tc.ID, tc.Function.Name)
						choice.Delta.ToolCalls = append(choice.Delta.ToolCalls, stream.DeltaToolCall{
							Index: idx,
							ID:    tc.ID,
							Type:  "function",
							Function: stream.DeltaFunctionCall{
								Name:      tc.Function.Name,
								Arguments: tc.Function.Arguments,
							},
						})
					}
				}
				if candidate.FinishReason != "" {
					choice.FinishReason = string(candidate.FinishReason)
				}
				out.Choices = append(out.Choices, choice)
			}
			chunks <- out
		}
	}()

	return chunks, errs
}

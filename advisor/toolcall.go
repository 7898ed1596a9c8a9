package advisor

import (
	"context"
	"strings"

	"github.com/bpowers/agentcore/chat"
	"github.com/bpowers/agentcore/llm"
	"github.com/bpowers/agentcore/prompt"
	"github.com/bpowers/agentcore/stream"
	"github.com/bpowers/agentcore/tool"
)

const toolCallSystemPromptName = "tool_call_system"

const toolCallSystemPromptTemplate = `You have access to the following tools. To call one, emit exactly this shape in your reply:

{{.Tags.ToolCallStart}}
{{.Tags.ToolNameStart}}tool_name{{.Tags.ToolNameEnd}}
{{.Tags.ToolParamsStart}}{"arg": "value"}{{.Tags.ToolParamsEnd}}
{{.Tags.ToolCallEnd}}

Parameters must be a single JSON object matching the tool's schema. You may call more than one tool by emitting more than one block. Available tools:
{{range .Tools}}
- {{.Name}}: {{.Description}}
{{end}}`

// toolPromptData is the data passed to toolCallSystemPromptTemplate.
type toolPromptData struct {
	Tools []toolSummary
	Tags  stream.TagConfig
}

type toolSummary struct {
	Name        string
	Description string
}

const toolResultPreamble = "system-generated message\nResult of tool call"

// ToolCallAdvisor emulates tool_calls for providers that don't support them
// natively by injecting a system prompt describing the tag-mode protocol
// and recovering tags embedded in the model's plain-text replies. It is
// installed by every agent.Agent by default and always runs outermost,
// since it changes the very shape of the conversation the rest of the
// chain, and the engine itself, sees.
type ToolCallAdvisor struct {
	Base
	Tags stream.TagConfig
}

// NewToolCallAdvisor returns a ToolCallAdvisor using the default tag
// vocabulary.
func NewToolCallAdvisor() *ToolCallAdvisor {
	return &ToolCallAdvisor{Tags: stream.DefaultTagConfig()}
}

func (a *ToolCallAdvisor) Name() string   { return "builtin_tool_call_advisor" }
func (a *ToolCallAdvisor) IsBuiltin() bool { return true }
func (a *ToolCallAdvisor) Priority() int   { return 10 }

func (a *ToolCallAdvisor) BeforeCall(_ context.Context, req llm.Request) (llm.Request, error) {
	return a.convert(req), nil
}

func (a *ToolCallAdvisor) BeforeStream(_ context.Context, req llm.Request) (llm.Request, error) {
	return a.convert(req), nil
}

// convert rewrites req for tag-mode emulation when the target provider
// can't take tools natively. It is a no-op when the capability flag is set
// or there are no tools to advertise.
func (a *ToolCallAdvisor) convert(req llm.Request) llm.Request {
	if req.Capability.SupportsNativeToolCalls || len(req.Tools) == 0 {
		return req
	}

	sysPrompt := a.renderSystemPrompt(req.Tools)

	messages := make([]chat.Message, 0, len(req.Messages)+1)
	injected := false
	for _, m := range req.Messages {
		switch m.Role {
		case chat.RoleSystem:
			if !injected {
				m.Content = strings.TrimRight(m.Content, "\n") + "\n\n" + sysPrompt
				injected = true
			}
			messages = append(messages, m)
		case chat.RoleTool:
			messages = append(messages, chat.UserMessage(toolResultPreamble+" ("+m.Name+"): "+m.Content))
		default:
			messages = append(messages, m)
		}
	}
	if !injected {
		messages = append([]chat.Message{chat.SystemMessage(sysPrompt)}, messages...)
	}

	req.Messages = messages
	// Native tool_choice/tools have no meaning once the protocol moves into
	// plain text; clear them so the engine doesn't also try to register
	// them as function-calling tools.
	req.Tools = nil
	req.ToolChoice = ""
	return req
}

func (a *ToolCallAdvisor) renderSystemPrompt(tools []tool.Def) string {
	summaries := make([]toolSummary, 0, len(tools))
	for _, t := range tools {
		summaries = append(summaries, toolSummary{Name: t.Name(), Description: t.Description()})
	}
	return prompt.MustRender(toolCallSystemPromptName, toolCallSystemPromptTemplate, toolPromptData{
		Tools: summaries,
		Tags:  a.Tags,
	})
}

func (a *ToolCallAdvisor) AfterCall(_ context.Context, req llm.Request, resp llm.AgentResponse) (llm.AgentResponse, error) {
	if req.Capability.SupportsNativeToolCalls || len(resp.ToolCalls) > 0 {
		return resp, nil
	}
	remaining, calls := stream.ParseText(resp.Content, a.Tags)
	if len(calls) == 0 {
		return resp, nil
	}
	resp.Content = remaining
	resp.ToolCalls = calls
	return resp, nil
}

func (a *ToolCallAdvisor) AfterStream(_ context.Context, req llm.Request, events <-chan stream.Event, errs <-chan error) (<-chan stream.Event, <-chan error) {
	if req.Capability.SupportsNativeToolCalls {
		return events, errs
	}

	out := make(chan stream.Event)
	go func() {
		defer close(out)
		parser := stream.NewTagParser(a.Tags)
		for ev := range events {
			if ev.Kind == stream.KindDone {
				for _, e := range parser.Flush() {
					out <- e
				}
				out <- ev
				continue
			}
			if ev.Kind != stream.KindText {
				out <- ev
				continue
			}
			for _, e := range parser.Feed(ev.Content) {
				out <- e
			}
		}
	}()
	return out, errs
}

// Package agent implements the run loop that turns a user message into a
// sequence of model turns and tool calls: it drives the advisor-wrapped
// engine, tracks pending tool calls as their streamed pieces arrive,
// resolves approval, executes via the tool registry, and recurses on any
// resulting tool-result messages until a turn produces none.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bpowers/agentcore/advisor"
	"github.com/bpowers/agentcore/chat"
	"github.com/bpowers/agentcore/internal/logging"
	"github.com/bpowers/agentcore/llm"
	"github.com/bpowers/agentcore/stream"
	"github.com/bpowers/agentcore/tool"
)

// DefaultMaxToolLoops bounds how many tool-call rounds a single user turn
// may trigger before the agent gives up with a RecursionLimitError. Nothing
// in the contract requires a fixed depth; this default exists so a model
// stuck in a tool-call loop doesn't run the process out of budget silently.
const DefaultMaxToolLoops = 10

// UI is the agent's view of whatever is presenting output and collecting
// approval decisions. agent never imports a concrete UI implementation —
// ui.Terminal satisfies this interface structurally.
type UI interface {
	// StreamText is called for each Text event's content, in order.
	StreamText(content string)
	// AnnounceToolCall is called once a call's name is known, before its
	// arguments have finished streaming.
	AnnounceToolCall(id, name string)
	// StreamToolCallArgs is called for each argument fragment as it
	// streams in, after AnnounceToolCall.
	StreamToolCallArgs(id, fragment string)
	// RequestApproval prompts for a yes/no decision on a pending call and
	// returns whether it was approved, plus any free-text the user typed
	// alongside a refusal.
	RequestApproval(name, display string) (approved bool, userText string)
	// Error surfaces a fatal per-turn error to the user.
	Error(err error)
}

// Agent holds the state a single conversation needs: history, the tool
// registry, approval policy, the engine it drives, and the advisor chain
// that wraps that engine on every turn.
type Agent struct {
	engine       llm.Engine
	advisors     *advisor.Chain
	registry     *tool.Registry
	ui           UI
	model        string
	systemPrompt string
	capability   llm.Capability
	config       llm.GenerateConfig
	autoApprove  bool
	maxToolLoops int

	history []chat.Message
}

// Option configures an Agent at construction time.
type Option func(*Agent)

// WithAutoApprove skips the approval prompt for every tool call.
func WithAutoApprove(auto bool) Option {
	return func(a *Agent) { a.autoApprove = auto }
}

// WithMaxToolLoops overrides DefaultMaxToolLoops.
func WithMaxToolLoops(n int) Option {
	return func(a *Agent) { a.maxToolLoops = n }
}

// WithGenerateConfig sets the generation parameters sent with every
// request.
func WithGenerateConfig(cfg llm.GenerateConfig) Option {
	return func(a *Agent) { a.config = cfg }
}

// WithAdvisor installs an additional advisor alongside the built-in
// ToolCallAdvisor, which every Agent carries regardless.
func WithAdvisor(adv advisor.Advisor) Option {
	return func(a *Agent) { a.advisors.Add(adv) }
}

// New constructs an Agent. capability describes what engine can do
// natively; when SupportsNativeToolCalls is false, the built-in
// ToolCallAdvisor emulates tool_calls via tag-mode prompting and parsing.
func New(engine llm.Engine, model, systemPrompt string, registry *tool.Registry, capability llm.Capability, ui UI, opts ...Option) *Agent {
	a := &Agent{
		engine:       engine,
		advisors:     advisor.NewChain(),
		registry:     registry,
		ui:           ui,
		model:        model,
		systemPrompt: systemPrompt,
		capability:   capability,
		maxToolLoops: DefaultMaxToolLoops,
	}
	a.advisors.Add(advisor.NewToolCallAdvisor())
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// pendingCall tracks one tool call's streamed pieces as a turn's events
// arrive, per step 2 of the run loop.
type pendingCall struct {
	id        string
	name      string
	arguments string
	validJSON bool
}

// Run executes one full turn chain for userInput: the initial model call,
// any tool-call rounds it triggers, and the recursive continuation turns
// those produce, stopping when a turn yields no tool calls or the
// recursion limit is hit.
func (a *Agent) Run(ctx context.Context, userInput string) error {
	a.history = append(a.history, chat.UserMessage(userInput))
	return a.runTurns(ctx, 0)
}

// runTurns implements steps 2-7 of the run loop, recursing per step 6.
func (a *Agent) runTurns(ctx context.Context, loopCount int) error {
	if loopCount >= a.maxToolLoops {
		err := &RecursionLimitError{MaxToolLoops: a.maxToolLoops}
		a.ui.Error(err)
		return err
	}

	req := a.buildRequest()

	streamHandler := a.advisors.WrapStream(func(ctx context.Context, req llm.Request) (<-chan stream.Event, <-chan error) {
		chunks, errs := a.engine.Stream(ctx, req)
		return stream.Pipe(chunks, errs)
	})

	assistantMsg, calls, err := a.consumeStream(ctx, streamHandler, req)
	if err != nil {
		// roll back to the last user message
		a.rollbackToLastUser()
		a.ui.Error(&StreamError{Cause: err})
		return &StreamError{Cause: err}
	}

	a.history = append(a.history, assistantMsg)

	if len(calls) == 0 {
		return nil
	}

	results := a.executeCalls(ctx, calls)
	a.history = append(a.history, results...)

	return a.runTurns(ctx, loopCount+1)
}

// buildRequest assembles the next request from history, prepending the
// system prompt if it isn't already the first message.
func (a *Agent) buildRequest() llm.Request {
	messages := a.history
	if len(messages) == 0 || messages[0].Role != chat.RoleSystem {
		messages = append([]chat.Message{chat.SystemMessage(a.systemPrompt)}, messages...)
	}
	tools := a.registry.All()
	defs := make([]tool.Def, len(tools))
	for i, t := range tools {
		defs[i] = t
	}

	return llm.Request{
		Model:      a.model,
		Messages:   messages,
		Tools:      defs,
		Config:     a.config,
		Capability: a.capability,
	}
}

// consumeStream runs step 2-4: it drives the event stream, maintaining
// text_acc and pending_calls, and returns the finalized assistant message
// plus the ordered, deduplicated tool calls it produced.
func (a *Agent) consumeStream(ctx context.Context, handler advisor.StreamHandler, req llm.Request) (chat.Message, []pendingCall, error) {
	events, errs := handler(ctx, req)

	var textAcc string
	pending := map[string]*pendingCall{}
	var order []string

	for ev := range events {
		switch ev.Kind {
		case stream.KindText:
			textAcc += ev.Content
			a.ui.StreamText(ev.Content)
		case stream.KindToolCallStart:
			if _, exists := pending[ev.ID]; exists {
				logging.Logger().Warn("duplicate tool-call id in turn, keeping first", "id", ev.ID)
				continue
			}
			pending[ev.ID] = &pendingCall{id: ev.ID, name: ev.Name}
			order = append(order, ev.ID)
			a.ui.AnnounceToolCall(ev.ID, ev.Name)
		case stream.KindToolCallArgs:
			if call, ok := pending[ev.ID]; ok {
				call.arguments += ev.Fragment
				a.ui.StreamToolCallArgs(ev.ID, ev.Fragment)
			}
		case stream.KindToolCallEnd:
			if call, ok := pending[ev.ID]; ok {
				call.arguments = ev.Arguments
				call.validJSON = ev.ValidJSON
			}
		case stream.KindDone:
		}
	}

	if err, ok := <-errs; ok && err != nil {
		return chat.Message{}, nil, err
	}

	calls := make([]pendingCall, 0, len(order))
	toolCalls := make([]chat.ToolCall, 0, len(order))
	for _, id := range order {
		call := pending[id]
		calls = append(calls, *call)
		toolCalls = append(toolCalls, chat.NewToolCall(call.id, call.name, call.arguments))
	}

	return chat.AssistantMessage(textAcc, toolCalls...), calls, nil
}

// executeCalls implements step 5 for every pending call in order.
func (a *Agent) executeCalls(ctx context.Context, calls []pendingCall) []chat.Message {
	results := make([]chat.Message, 0, len(calls))
	for _, call := range calls {
		results = append(results, a.executeOne(ctx, call))
	}
	return results
}

func (a *Agent) executeOne(ctx context.Context, call pendingCall) chat.Message {
	if !call.validJSON {
		return chat.ToolMessage(call.id, call.name,
			fmt.Sprintf("system-generated message\nResult of tool call (%s): invalid JSON arguments: %s", call.name, call.arguments))
	}

	t, found := a.registry.Get(call.name)
	if !found {
		return chat.ToolMessage(call.id, call.name,
			fmt.Sprintf("system-generated message\nResult of tool call (%s): unknown tool. Available tools: %v", call.name, a.registry.List()))
	}

	var argsForDisplay map[string]any
	_ = json.Unmarshal([]byte(call.arguments), &argsForDisplay)

	approved, refusal := a.resolveApproval(call, t.RequiresApproval(), t.Display(argsForDisplay))
	if !approved {
		return refusal
	}

	result, err := a.registry.Execute(ctx, call.name, call.arguments)
	if err != nil {
		return chat.ToolMessage(call.id, call.name,
			fmt.Sprintf("system-generated message\nResult of tool call (%s): %v", call.name, err))
	}
	return chat.ToolMessage(call.id, call.name,
		fmt.Sprintf("system-generated message\nResult of tool call (%s): %s", call.name, result))
}

// rollbackToLastUser truncates history back to (and including) the most
// recent user message, per the stream-error edge case in step 7.
func (a *Agent) rollbackToLastUser() {
	for i := len(a.history) - 1; i >= 0; i-- {
		if a.history[i].Role == chat.RoleUser {
			a.history = a.history[:i+1]
			return
		}
	}
}

// History returns a copy of the conversation so far.
func (a *Agent) History() []chat.Message {
	out := make([]chat.Message, len(a.history))
	copy(out, a.history)
	return out
}

// Clear discards the conversation so far, starting the next Run from an
// empty history.
func (a *Agent) Clear() {
	a.history = nil
}

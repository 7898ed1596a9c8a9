package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/agentcore/chat"
	"github.com/bpowers/agentcore/llm"
	"github.com/bpowers/agentcore/schema"
	"github.com/bpowers/agentcore/stream"
	"github.com/bpowers/agentcore/tool"
)

// fakeEngine replays a scripted list of chunk batches, one batch per Stream
// call, so a test can drive several turns of a run loop deterministically.
type fakeEngine struct {
	batches [][]stream.Chunk
	errs    []error
	call    int
}

func (e *fakeEngine) Call(ctx context.Context, req llm.Request) (llm.AgentResponse, error) {
	return llm.AgentResponse{}, errors.New("fakeEngine.Call not used by these tests")
}

func (e *fakeEngine) Stream(ctx context.Context, req llm.Request) (<-chan stream.Chunk, <-chan error) {
	idx := e.call
	e.call++

	chunks := make(chan stream.Chunk, len(e.batches[idx]))
	for _, c := range e.batches[idx] {
		chunks <- c
	}
	close(chunks)

	errs := make(chan error, 1)
	if idx < len(e.errs) && e.errs[idx] != nil {
		errs <- e.errs[idx]
	}
	close(errs)

	return chunks, errs
}

func textChunk(s string) stream.Chunk {
	return stream.Chunk{Choices: []stream.Choice{{Delta: stream.Delta{Content: s}}}}
}

func doneChunk(reason string) stream.Chunk {
	return stream.Chunk{Choices: []stream.Choice{{FinishReason: reason}}}
}

func toolCallChunks(id, name, argsJSON string) []stream.Chunk {
	return []stream.Chunk{
		{Choices: []stream.Choice{{Delta: stream.Delta{ToolCalls: []stream.DeltaToolCall{{
			Index: 0, ID: id, Function: stream.DeltaFunctionCall{Name: name},
		}}}}}},
		{Choices: []stream.Choice{{Delta: stream.Delta{ToolCalls: []stream.DeltaToolCall{{
			Index: 0, Function: stream.DeltaFunctionCall{Arguments: argsJSON},
		}}}}}},
		doneChunk("tool_calls"),
	}
}

// fakeUI records every call so tests can assert on the sequence without a
// real terminal.
type fakeUI struct {
	text       []string
	announced  []string
	approveAll bool
	approved   []string
	errs       []error
}

func (f *fakeUI) StreamText(content string)             { f.text = append(f.text, content) }
func (f *fakeUI) AnnounceToolCall(id, name string)       { f.announced = append(f.announced, name) }
func (f *fakeUI) StreamToolCallArgs(id, fragment string) {}
func (f *fakeUI) RequestApproval(name, display string) (bool, string) {
	f.approved = append(f.approved, name)
	return f.approveAll, ""
}
func (f *fakeUI) Error(err error) { f.errs = append(f.errs, err) }

// echoTool returns its "msg" argument verbatim and never requires approval.
type echoTool struct{ tool.BaseTool }

func (echoTool) Name() string              { return "echo" }
func (echoTool) Description() string       { return "echoes its input" }
func (echoTool) Parameters() *schema.JSON  { return &schema.JSON{Type: "object"} }
func (echoTool) RequiresApproval() bool    { return false }
func (echoTool) Run(ctx context.Context, args map[string]any) (string, error) {
	return args["msg"].(string), nil
}

// gatedTool always requires approval.
type gatedTool struct{ tool.BaseTool }

func (gatedTool) Name() string             { return "danger" }
func (gatedTool) Description() string      { return "does something risky" }
func (gatedTool) Parameters() *schema.JSON { return &schema.JSON{Type: "object"} }
func (gatedTool) Run(ctx context.Context, args map[string]any) (string, error) {
	return "done", nil
}

func newTestAgent(t *testing.T, engine llm.Engine, ui *fakeUI, opts ...Option) (*Agent, *tool.Registry) {
	t.Helper()
	reg := tool.NewRegistry()
	require.NoError(t, reg.Register(echoTool{}))
	require.NoError(t, reg.Register(gatedTool{}))

	a := New(engine, "test-model", "be helpful", reg, llm.Capability{SupportsNativeToolCalls: true}, ui, opts...)
	return a, reg
}

func TestRunPlainTextTurn(t *testing.T) {
	engine := &fakeEngine{batches: [][]stream.Chunk{
		{textChunk("hello "), textChunk("there"), doneChunk("stop")},
	}}
	ui := &fakeUI{}
	a, _ := newTestAgent(t, engine, ui)

	err := a.Run(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, []string{"hello ", "there"}, ui.text)
	history := a.History()
	require.Len(t, history, 2)
	assert.Equal(t, chat.RoleUser, history[0].Role)
	assert.Equal(t, chat.RoleAssistant, history[1].Role)
	assert.Equal(t, "hello there", history[1].Content)
}

func TestRunExecutesApprovedToolCall(t *testing.T) {
	engine := &fakeEngine{batches: [][]stream.Chunk{
		toolCallChunks("call-1", "echo", `{"msg": "ping"}`),
		{textChunk("done"), doneChunk("stop")},
	}}
	ui := &fakeUI{approveAll: false} // echo doesn't require approval either way
	a, _ := newTestAgent(t, engine, ui)

	err := a.Run(context.Background(), "please echo ping")
	require.NoError(t, err)

	history := a.History()
	require.Len(t, history, 4)
	assert.Equal(t, chat.RoleTool, history[2].Role)
	assert.Contains(t, history[2].Content, "Result of tool call")
	assert.Contains(t, history[2].Content, "ping")
	assert.Equal(t, []string{"echo"}, ui.announced)
}

func TestRunRefusedApprovalSynthesizesDecline(t *testing.T) {
	engine := &fakeEngine{batches: [][]stream.Chunk{
		toolCallChunks("call-1", "danger", `{}`),
		{textChunk("ok"), doneChunk("stop")},
	}}
	ui := &fakeUI{approveAll: false}
	a, _ := newTestAgent(t, engine, ui)

	err := a.Run(context.Background(), "do something risky")
	require.NoError(t, err)

	history := a.History()
	require.Len(t, history, 4)
	assert.Contains(t, history[2].Content, "declined")
	assert.Equal(t, []string{"danger"}, ui.approved)
}

func TestRunUnknownToolSynthesizesToolResult(t *testing.T) {
	engine := &fakeEngine{batches: [][]stream.Chunk{
		toolCallChunks("call-1", "does_not_exist", `{}`),
		{textChunk("ok"), doneChunk("stop")},
	}}
	ui := &fakeUI{}
	a, _ := newTestAgent(t, engine, ui)

	err := a.Run(context.Background(), "call a missing tool")
	require.NoError(t, err)

	history := a.History()
	require.Len(t, history, 4)
	assert.Contains(t, history[2].Content, "unknown tool")
	assert.Empty(t, ui.approved, "approval must never be requested for an unknown tool")
}

func TestRunInvalidJSONArgumentsSynthesizesToolResult(t *testing.T) {
	engine := &fakeEngine{batches: [][]stream.Chunk{
		toolCallChunks("call-1", "echo", `{not valid json`),
		{textChunk("ok"), doneChunk("stop")},
	}}
	ui := &fakeUI{}
	a, _ := newTestAgent(t, engine, ui)

	err := a.Run(context.Background(), "call echo with garbage")
	require.NoError(t, err)

	history := a.History()
	require.Len(t, history, 4)
	assert.Contains(t, history[2].Content, "invalid JSON")
	assert.Empty(t, ui.approved, "approval must never be requested for invalid JSON arguments")
}

func TestRunDuplicateToolCallIDKeepsFirst(t *testing.T) {
	engine := &fakeEngine{batches: [][]stream.Chunk{
		toolCallChunks("call-1", "echo", `{"msg": "first"}`),
		{textChunk("ok"), doneChunk("stop")},
	}}
	ui := &fakeUI{}
	a, _ := newTestAgent(t, engine, ui)

	// NativeParser only ever tracks one active call per provider stream, so
	// duplicate ids reaching consumeStream (e.g. from a tag-mode parse of a
	// malformed reply) are exercised directly against it here.
	events := make(chan stream.Event, 8)
	events <- stream.ToolCallStart("call-1", "echo")
	events <- stream.ToolCallStart("call-1", "echo")
	events <- stream.ToolCallArgs("call-1", `{"msg":"x"}`)
	events <- stream.ToolCallEnd("call-1", `{"msg":"x"}`, true)
	events <- stream.Done("tool_calls", nil)
	close(events)
	errs := make(chan error)
	close(errs)

	handler := func(ctx context.Context, req llm.Request) (<-chan stream.Event, <-chan error) {
		return events, errs
	}

	_, calls, err := a.consumeStream(context.Background(), handler, llm.Request{})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "call-1", calls[0].id)

	require.NoError(t, a.Run(context.Background(), "go"))
}

func TestRunStreamErrorRollsBackToLastUserMessage(t *testing.T) {
	engine := &fakeEngine{
		batches: [][]stream.Chunk{{textChunk("partial")}},
		errs:    []error{errors.New("connection reset")},
	}
	ui := &fakeUI{}
	a, _ := newTestAgent(t, engine, ui)

	err := a.Run(context.Background(), "hi")
	require.Error(t, err)
	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)

	history := a.History()
	require.Len(t, history, 1)
	assert.Equal(t, chat.RoleUser, history[0].Role)
	require.Len(t, ui.errs, 1)
}

func TestRunRecursionLimit(t *testing.T) {
	var batches [][]stream.Chunk
	for i := 0; i < DefaultMaxToolLoops+1; i++ {
		batches = append(batches, toolCallChunks("call-1", "echo", `{"msg":"x"}`))
	}
	engine := &fakeEngine{batches: batches}
	ui := &fakeUI{}
	a, _ := newTestAgent(t, engine, ui, WithMaxToolLoops(2))

	err := a.Run(context.Background(), "loop forever")
	require.Error(t, err)
	var recErr *RecursionLimitError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, 2, recErr.MaxToolLoops)
}

func TestRunAutoApproveSkipsPrompt(t *testing.T) {
	engine := &fakeEngine{batches: [][]stream.Chunk{
		toolCallChunks("call-1", "danger", `{}`),
		{textChunk("ok"), doneChunk("stop")},
	}}
	ui := &fakeUI{}
	a, _ := newTestAgent(t, engine, ui, WithAutoApprove(true))

	err := a.Run(context.Background(), "do something risky")
	require.NoError(t, err)
	assert.Empty(t, ui.approved)

	history := a.History()
	assert.Contains(t, history[2].Content, "done")
}

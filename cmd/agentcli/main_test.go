package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/agentcore/agent"
	"github.com/bpowers/agentcore/llm"
	"github.com/bpowers/agentcore/stream"
	"github.com/bpowers/agentcore/tool"
	"github.com/bpowers/agentcore/ui"
)

func TestResolveConfigDefaultsWithNoConfigFile(t *testing.T) {
	opts := &cliOptions{
		model:        defaultModel,
		temperature:  -1,
		systemPrompt: "You are a helpful assistant.",
		maxToolLoops: agent.DefaultMaxToolLoops,
	}

	cfg, err := resolveConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, defaultModel, cfg.Model)
	assert.Equal(t, -1.0, cfg.Temperature)
	assert.Equal(t, agent.DefaultMaxToolLoops, cfg.MaxToolLoops)
}

func TestResolveConfigFileFillsUnsetFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model: claude-sonnet-4
temperature: 0.4
maxToolLoops: 3
autoApprove: true
`), 0o644))

	opts := &cliOptions{
		configFile:   path,
		model:        defaultModel, // untouched by the user, so the file should win
		temperature:  -1,
		systemPrompt: "You are a helpful assistant.",
		maxToolLoops: agent.DefaultMaxToolLoops,
	}

	cfg, err := resolveConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4", cfg.Model)
	assert.Equal(t, 0.4, cfg.Temperature)
	assert.Equal(t, 3, cfg.MaxToolLoops)
	assert.True(t, cfg.AutoApprove)
}

func TestResolveConfigExplicitFlagsWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`model: claude-sonnet-4`), 0o644))

	opts := &cliOptions{
		configFile:   path,
		model:        "gpt-5", // user explicitly passed --model
		temperature:  -1,
		systemPrompt: "You are a helpful assistant.",
		maxToolLoops: agent.DefaultMaxToolLoops,
	}

	cfg, err := resolveConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, "gpt-5", cfg.Model)
}

func TestResolveConfigMissingFileErrors(t *testing.T) {
	opts := &cliOptions{configFile: filepath.Join(t.TempDir(), "missing.yaml")}
	_, err := resolveConfig(opts)
	assert.Error(t, err)
}

// fakeEngine replays one scripted batch of chunks per Stream call, mirroring
// the agent package's own test double.
type fakeEngine struct {
	batches [][]stream.Chunk
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
	close(errs)

	return chunks, errs
}

func textChunk(s string) stream.Chunk {
	return stream.Chunk{Choices: []stream.Choice{{Delta: stream.Delta{Content: s}}}}
}

func doneChunk(reason string) stream.Chunk {
	return stream.Chunk{Choices: []stream.Choice{{FinishReason: reason}}}
}

func newReplAgent(engine *fakeEngine, out, errOut *bytes.Buffer, in *strings.Reader) (*agent.Agent, *ui.Terminal) {
	term := ui.NewTerminal(in, out, errOut)
	reg := tool.NewRegistry()
	a := agent.New(engine, "claude-sonnet-4", "You are a helpful assistant.", reg,
		llm.Capability{SupportsNativeToolCalls: true}, term)
	return a, term
}

func TestReplHandlesHelpClearStatusAndQuit(t *testing.T) {
	engine := &fakeEngine{}
	var out, errOut bytes.Buffer
	in := strings.NewReader("/help\n/status\n/clear\n/quit\n")
	a, term := newReplAgent(engine, &out, &errOut, in)

	err := repl(context.Background(), a, term, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Commands:")
	assert.Contains(t, out.String(), "messages: 0, tool calls so far: 0")
	assert.Contains(t, out.String(), "conversation cleared")
	assert.Contains(t, out.String(), "Goodbye!")
}

func TestReplRunsUserTurnAndUpdatesStatus(t *testing.T) {
	engine := &fakeEngine{batches: [][]stream.Chunk{
		{textChunk("hi there"), doneChunk("stop")},
	}}
	var out, errOut bytes.Buffer
	in := strings.NewReader("hello\n/status\n/quit\n")
	a, term := newReplAgent(engine, &out, &errOut, in)

	err := repl(context.Background(), a, term, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "hi there")
	assert.Contains(t, out.String(), "messages: 2, tool calls so far: 0")
	assert.Empty(t, errOut.String())
}

func TestReplEOFEndsConversation(t *testing.T) {
	engine := &fakeEngine{}
	var out, errOut bytes.Buffer
	in := strings.NewReader("")
	a, term := newReplAgent(engine, &out, &errOut, in)

	err := repl(context.Background(), a, term, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Goodbye!")
}

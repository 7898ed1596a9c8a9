package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/agentcore/schema"
)

type stubTool struct {
	BaseTool
	name    string
	params  *schema.JSON
	result  string
	err     error
	panics  bool
	lastArg map[string]any
}

func (t *stubTool) Name() string                   { return t.name }
func (t *stubTool) Description() string            { return "a stub tool" }
func (t *stubTool) Parameters() *schema.JSON        { return t.params }
func (t *stubTool) Run(ctx context.Context, args map[string]any) (string, error) {
	t.lastArg = args
	if t.panics {
		panic("boom")
	}
	return t.result, t.err
}

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	st := &stubTool{name: "echo"}
	require.NoError(t, r.Register(st))

	got, ok := r.Get("echo")
	assert.True(t, ok)
	assert.Equal(t, st, got)
	assert.Equal(t, 1, r.Count())
	assert.Equal(t, []string{"echo"}, r.List())
}

func TestRegisterDuplicateNameErrors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubTool{name: "echo"}))
	err := r.Register(&stubTool{name: "echo"})
	assert.Error(t, err)
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&stubTool{name: "echo"})
	assert.Panics(t, func() { r.MustRegister(&stubTool{name: "echo"}) })
}

func TestDeregisterRemovesTool(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&stubTool{name: "echo"})
	r.Deregister("echo")

	_, ok := r.Get("echo")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Count())
}

func TestDeregisterUnknownIsNoOp(t *testing.T) {
	r := NewRegistry()
	assert.NotPanics(t, func() { r.Deregister("missing") })
}

func TestAllPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&stubTool{name: "b"})
	r.MustRegister(&stubTool{name: "a"})

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].Name())
	assert.Equal(t, "a", all[1].Name())
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Execute(context.Background(), "missing", "{}")
	var unknown *UnknownToolError
	assert.ErrorAs(t, err, &unknown)
}

func TestExecuteInvalidJSONArgs(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&stubTool{name: "echo"})

	_, err := r.Execute(context.Background(), "echo", "not json")
	var paramErr *ParameterError
	assert.ErrorAs(t, err, &paramErr)
}

func TestExecuteMissingRequiredParameter(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&stubTool{
		name:   "echo",
		params: &schema.JSON{Type: schema.Object, Properties: map[string]*schema.JSON{"text": {Type: schema.String}}, Required: []string{"text"}},
	})

	_, err := r.Execute(context.Background(), "echo", "{}")
	var paramErr *ParameterError
	assert.ErrorAs(t, err, &paramErr)
}

func TestExecuteCoercesAndRuns(t *testing.T) {
	st := &stubTool{
		name:   "add",
		params: &schema.JSON{Type: schema.Object, Properties: map[string]*schema.JSON{"count": {Type: schema.Integer}}},
		result: "ok",
	}
	r := NewRegistry()
	r.MustRegister(st)

	result, err := r.Execute(context.Background(), "add", `{"count":"5"}`)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 5, st.lastArg["count"])
}

func TestExecuteSchemaValidationFailure(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&stubTool{
		name:   "add",
		params: &schema.JSON{Type: schema.Object, Properties: map[string]*schema.JSON{"count": {Type: schema.Integer}}},
	})

	_, err := r.Execute(context.Background(), "add", `{"count":"not-a-number"}`)
	var paramErr *ParameterError
	assert.ErrorAs(t, err, &paramErr)
}

func TestExecuteWrapsToolErrorAsExecutionError(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&stubTool{name: "fail", err: errors.New("boom")})

	_, err := r.Execute(context.Background(), "fail", "{}")
	var execErr *ExecutionError
	assert.ErrorAs(t, err, &execErr)
}

func TestExecutePreservesToolsOwnParameterError(t *testing.T) {
	own := &ParameterError{ToolName: "fail", Message: "bad arg"}
	r := NewRegistry()
	r.MustRegister(&stubTool{name: "fail", err: own})

	_, err := r.Execute(context.Background(), "fail", "{}")
	assert.Same(t, own, err)
}

func TestExecuteRecoversFromPanic(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&stubTool{name: "boom", panics: true})

	_, err := r.Execute(context.Background(), "boom", "{}")
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Contains(t, execErr.Message, "panic")
}

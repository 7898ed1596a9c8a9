package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTextExtractsSingleCall(t *testing.T) {
	cfg := DefaultTagConfig()
	text := `before <tool_call><tool_name>echo</tool_name><tool_params>{"text":"hi"}</tool_params></tool_call> after`

	remaining, calls := ParseText(text, cfg)
	assert.Equal(t, "before  after", remaining)
	require.Len(t, calls, 1)
	assert.Equal(t, "echo", calls[0].Function.Name)
	assert.Equal(t, `{"text":"hi"}`, calls[0].Function.Arguments)
}

func TestParseTextNoCallsReturnsTextUnchanged(t *testing.T) {
	remaining, calls := ParseText("just plain text", DefaultTagConfig())
	assert.Equal(t, "just plain text", remaining)
	assert.Empty(t, calls)
}

func TestParseTextDefaultsEmptyParamsToEmptyObject(t *testing.T) {
	cfg := DefaultTagConfig()
	text := `<tool_call><tool_name>ping</tool_name></tool_call>`

	_, calls := ParseText(text, cfg)
	require.Len(t, calls, 1)
	assert.Equal(t, "{}", calls[0].Function.Arguments)
}

func TestParseTextUnterminatedCallLeftAsText(t *testing.T) {
	cfg := DefaultTagConfig()
	text := `hello <tool_call><tool_name>echo</tool_name>`

	remaining, calls := ParseText(text, cfg)
	assert.Equal(t, text, remaining)
	assert.Empty(t, calls)
}

func TestParseTextMultipleCalls(t *testing.T) {
	cfg := DefaultTagConfig()
	text := `<tool_call><tool_name>a</tool_name><tool_params>{}</tool_params></tool_call>` +
		`mid` +
		`<tool_call><tool_name>b</tool_name><tool_params>{}</tool_params></tool_call>`

	remaining, calls := ParseText(text, cfg)
	assert.Equal(t, "mid", remaining)
	require.Len(t, calls, 2)
	assert.Equal(t, "a", calls[0].Function.Name)
	assert.Equal(t, "b", calls[1].Function.Name)
}

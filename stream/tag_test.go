package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedAll(p *TagParser, chunks ...string) []Event {
	var events []Event
	for _, c := range chunks {
		events = append(events, p.Feed(c)...)
	}
	return events
}

func TestTagParserPlainTextPassesThrough(t *testing.T) {
	p := NewTagParser(DefaultTagConfig())
	events := feedAll(p, "hello world")
	var text string
	for _, e := range events {
		require.Equal(t, KindText, e.Kind)
		text += e.Content
	}
	assert.Equal(t, "hello world", text)
}

func TestTagParserFullToolCallSingleFeed(t *testing.T) {
	p := NewTagParser(DefaultTagConfig())
	input := `<tool_call><tool_name>echo</tool_name><tool_params>{"text":"hi"}</tool_params></tool_call>`
	events := feedAll(p, input)

	require.NotEmpty(t, events)
	assert.Equal(t, KindToolCallStart, events[0].Kind)
	assert.Equal(t, "echo", events[0].Name)

	last := events[len(events)-1]
	assert.Equal(t, KindToolCallEnd, last.Kind)
	assert.Equal(t, `{"text":"hi"}`, last.Arguments)
	assert.True(t, last.ValidJSON)
}

func TestTagParserSurvivesArbitraryChunkBoundaries(t *testing.T) {
	input := `before <tool_call><tool_name>echo</tool_name><tool_params>{"a":1}</tool_params></tool_call> after`
	p := NewTagParser(DefaultTagConfig())

	var events []Event
	for i := 0; i < len(input); i++ {
		events = append(events, p.Feed(input[i:i+1])...)
	}

	var text string
	var sawStart, sawEnd bool
	var args string
	for _, e := range events {
		switch e.Kind {
		case KindText:
			text += e.Content
		case KindToolCallStart:
			sawStart = true
			assert.Equal(t, "echo", e.Name)
		case KindToolCallEnd:
			sawEnd = true
			args = e.Arguments
		}
	}
	assert.True(t, sawStart)
	assert.True(t, sawEnd)
	assert.Equal(t, `{"a":1}`, args)
	assert.Contains(t, text, "before")
	assert.Contains(t, text, "after")
}

func TestTagParserToolCallWithoutParams(t *testing.T) {
	p := NewTagParser(DefaultTagConfig())
	input := `<tool_call><tool_name>ping</tool_name></tool_call>`
	events := feedAll(p, input)

	last := events[len(events)-1]
	assert.Equal(t, KindToolCallEnd, last.Kind)
	assert.Equal(t, "", last.Arguments)
}

func TestTagParserFlushOnUnterminatedCallEmitsEndWithAccumulatedArgs(t *testing.T) {
	p := NewTagParser(DefaultTagConfig())
	feedAll(p, `<tool_call><tool_name>echo</tool_name><tool_params>{"a":1}`)

	events := p.Flush()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, KindToolCallEnd, last.Kind)
	assert.Equal(t, `{"a":1}`, last.Arguments)
}

func TestTagParserFlushOnPlainTextMidTagEmitsText(t *testing.T) {
	p := NewTagParser(DefaultTagConfig())
	feedAll(p, "hello <tool")

	events := p.Flush()
	var text string
	for _, e := range events {
		if e.Kind == KindText {
			text += e.Content
		}
	}
	assert.Equal(t, "<tool", text)
}

func TestTagParserFlushIdleIsEmpty(t *testing.T) {
	p := NewTagParser(DefaultTagConfig())
	assert.Empty(t, p.Flush())
}

func TestTagParserCustomVocabulary(t *testing.T) {
	cfg := TagConfig{
		ToolCallStart:   "[[call]]",
		ToolCallEnd:     "[[/call]]",
		ToolNameStart:   "[[name]]",
		ToolNameEnd:     "[[/name]]",
		ToolParamsStart: "[[params]]",
		ToolParamsEnd:   "[[/params]]",
	}
	p := NewTagParser(cfg)
	input := `[[call]][[name]]echo[[/name]][[params]]{}[[/params]][[/call]]`
	events := feedAll(p, input)

	require.NotEmpty(t, events)
	assert.Equal(t, "echo", events[0].Name)
	assert.Equal(t, KindToolCallEnd, events[len(events)-1].Kind)
}

func TestTagParserMultipleSequentialCalls(t *testing.T) {
	p := NewTagParser(DefaultTagConfig())
	input := `<tool_call><tool_name>a</tool_name><tool_params>{}</tool_params></tool_call>` +
		`<tool_call><tool_name>b</tool_name><tool_params>{}</tool_params></tool_call>`
	events := feedAll(p, input)

	var names []string
	for _, e := range events {
		if e.Kind == KindToolCallStart {
			names = append(names, e.Name)
		}
	}
	assert.Equal(t, []string{"a", "b"}, names)
}

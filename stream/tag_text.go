package stream

import (
	"strings"

	"github.com/google/uuid"

	"github.com/bpowers/agentcore/chat"
)

// ParseText extracts complete tool-call tags from a non-streaming assistant
// response, returning the text with those tags removed and the calls found
// within them. It is the non-streaming counterpart to TagParser, used by
// the built-in advisor's after_call hook.
func ParseText(text string, cfg TagConfig) (remaining string, calls []chat.ToolCall) {
	var out strings.Builder
	pos := 0
	for {
		start := strings.Index(text[pos:], cfg.ToolCallStart)
		if start == -1 {
			out.WriteString(text[pos:])
			break
		}
		start += pos
		end := strings.Index(text[start:], cfg.ToolCallEnd)
		if end == -1 {
			out.WriteString(text[pos:])
			break
		}
		end += start

		out.WriteString(text[pos:start])

		block := text[start+len(cfg.ToolCallStart) : end]
		name := strings.TrimSpace(extractBetween(block, cfg.ToolNameStart, cfg.ToolNameEnd))
		params := strings.TrimSpace(extractBetween(block, cfg.ToolParamsStart, cfg.ToolParamsEnd))
		if params == "" {
			params = "{}"
		}
		if name != "" {
			calls = append(calls, chat.NewToolCall(uuid.NewString(), name, params))
		}

		pos = end + len(cfg.ToolCallEnd)
	}
	return out.String(), calls
}

func extractBetween(text, startTag, endTag string) string {
	start := strings.Index(text, startTag)
	if start == -1 {
		return ""
	}
	end := strings.Index(text[start+len(startTag):], endTag)
	if end == -1 {
		return ""
	}
	return text[start+len(startTag) : start+len(startTag)+end]
}

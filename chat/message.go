// Package chat defines the wire-level conversation data model shared by the
// rest of agentcore: messages, tool calls, and tool results.
package chat

import "encoding/json"

// Role identifies who produced a Message.
type Role string

const (
	// RoleSystem identifies the system prompt.
	RoleSystem Role = "system"
	// RoleUser identifies messages from the user.
	RoleUser Role = "user"
	// RoleAssistant identifies messages from the model.
	RoleAssistant Role = "assistant"
	// RoleTool identifies messages carrying the result of a tool execution.
	RoleTool Role = "tool"
)

// FunctionCall is the name/arguments pair carried by a ToolCall.
type FunctionCall struct {
	// Name is the tool to invoke.
	Name string `json:"name"`
	// Arguments is the JSON-encoded argument object, kept as a string so the
	// wire representation round-trips even when the JSON is malformed.
	Arguments string `json:"arguments"`
}

// ToolCall represents a single request from the model to invoke a tool.
type ToolCall struct {
	// ID is an opaque identifier unique within a turn.
	ID string `json:"id"`
	// Type is always "function"; kept as a field for forward compatibility
	// with providers that may introduce other call types.
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// NewToolCall builds a ToolCall of type "function".
func NewToolCall(id, name, arguments string) ToolCall {
	return ToolCall{
		ID:   id,
		Type: "function",
		Function: FunctionCall{
			Name:      name,
			Arguments: arguments,
		},
	}
}

// Message is a single turn of conversation history. Once appended to an
// Agent's history it is treated as immutable.
type Message struct {
	Role Role `json:"role"`
	// Content is the textual content of the message. Assistant messages that
	// only carry tool calls may have empty content.
	Content string `json:"content,omitempty"`
	// ToolCalls is set on assistant messages that requested tool invocations.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID references the ToolCall a RoleTool message answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// Name is the tool name associated with a RoleTool message.
	Name string `json:"name,omitempty"`
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant-role message, optionally carrying
// tool calls.
func AssistantMessage(content string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolMessage builds a tool-result message answering the given call id.
func ToolMessage(toolCallID, name, content string) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: toolCallID,
		Name:       name,
	}
}

// HasToolCalls reports whether the message requested any tool invocations.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// IsEmpty reports whether the message carries neither text nor tool calls.
func (m Message) IsEmpty() bool {
	return m.Content == "" && len(m.ToolCalls) == 0
}

// DecodeArguments unmarshals the call's Arguments string into v. Callers
// that need schema-driven coercion should use tool.Coerce instead of calling
// this directly.
func (tc ToolCall) DecodeArguments(v any) error {
	return json.Unmarshal([]byte(tc.Function.Arguments), v)
}

// Package tool defines the contract tools implement, a name-keyed registry,
// JSON-schema-driven argument coercion, and the tool-execution error
// taxonomy.
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bpowers/agentcore/schema"
)

// Def describes a tool to the model: its name, description, and parameter
// schema. It is the portion of Tool an LLMEngine needs to advertise a tool
// without being able to invoke it.
type Def interface {
	Name() string
	Description() string
	Parameters() *schema.JSON
}

// Tool is a named, schema-described callable exposed to the model.
type Tool interface {
	Def

	// RequiresApproval reports whether a human must confirm this call
	// before it runs.
	RequiresApproval() bool

	// Display renders a human-readable label for the pending call, shown
	// to the user before approval.
	Display(args map[string]any) string

	// Run executes the tool with coerced, schema-validated arguments and
	// returns its textual result. Run should return a plain error; the
	// registry wraps it as ExecutionError unless the tool itself returns
	// a *ParameterError or *ExecutionError.
	Run(ctx context.Context, args map[string]any) (string, error)
}

// BaseTool is embeddable by concrete tools to get a sensible default
// Display and approval policy, matching the teacher's "approval required by
// default" stance.
type BaseTool struct{}

// RequiresApproval defaults to true; embedders override to opt out.
func (BaseTool) RequiresApproval() bool { return true }

// Display defaults to a generic label; embedders override for something
// more specific.
func (BaseTool) Display(args map[string]any) string {
	return "use this tool"
}

// decodeArguments parses a tool call's raw JSON arguments into a
// map[string]any, returning a *ParameterError on malformed JSON.
func decodeArguments(name, raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, &ParameterError{ToolName: name, Message: "invalid JSON: " + err.Error(), Cause: err}
	}
	return args, nil
}

// checkRequired verifies every property in s.Required is present in args.
func checkRequired(name string, args map[string]any, s *schema.JSON) error {
	if s == nil {
		return nil
	}
	var missing []string
	for _, r := range s.Required {
		if _, ok := args[r]; !ok {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return &ParameterError{ToolName: name, Message: fmt.Sprintf("missing required parameters: %v", missing)}
	}
	return nil
}

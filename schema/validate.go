package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Compiled wraps a compiled draft-07 schema ready for repeated validation.
type Compiled struct {
	schema *jsonschema.Schema
}

// Compile validates that j is itself a well-formed JSON Schema document and
// returns a handle that can Validate argument payloads against it.
func Compile(j *JSON) (*Compiled, error) {
	raw, err := json.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	const resourceURL = "agentcore://tool-params.json"
	if err := c.AddResource(resourceURL, doc); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	compiled, err := c.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return &Compiled{schema: compiled}, nil
}

// Validate checks args (already-decoded JSON values; tool.Registry.Execute
// passes them after tool.Coerce) against the compiled schema.
func (c *Compiled) Validate(args map[string]any) error {
	return c.schema.Validate(args)
}

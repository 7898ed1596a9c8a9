package tool

import (
	"sync"

	"github.com/bpowers/agentcore/schema"
)

// schemaCache compiles each tool's parameter schema once and reuses it
// across calls; jsonschema.Compile is not cheap enough to redo per
// invocation.
type schemaCache struct {
	mu    sync.Mutex
	byTag map[string]*schema.Compiled
}

var compileCache = &schemaCache{byTag: make(map[string]*schema.Compiled)}

func (c *schemaCache) get(toolName string, s *schema.JSON) (*schema.Compiled, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if compiled, ok := c.byTag[toolName]; ok {
		return compiled, nil
	}
	compiled, err := schema.Compile(s)
	if err != nil {
		return nil, err
	}
	c.byTag[toolName] = compiled
	return compiled, nil
}

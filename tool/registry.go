package tool

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry is a name-keyed collection of Tools. Register and Deregister
// take the write lock and the accessors below take the read lock, so it is
// safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds t to the registry. Registering a second tool under the same
// name is a programmer error and returns an error describing the conflict;
// callers are expected to treat it as fatal at startup.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// MustRegister is Register, panicking on error. Intended for use during
// package-level or main() wiring where a duplicate name is a bug to fail
// fast on, not a condition to recover from.
func (r *Registry) MustRegister(t Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Deregister removes a tool by name. A no-op if name isn't registered.
func (r *Registry) Deregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tools[name]; !ok {
		return
	}
	delete(r.tools, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns the tool registered under name, if any.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns the registered tool names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns the registered tools in registration order.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.tools[n])
	}
	return out
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// sortedNames is used by error messages that list available tools, so the
// text is deterministic across runs.
func (r *Registry) sortedNames() []string {
	names := r.List()
	sort.Strings(names)
	return names
}

// Execute looks up name, coerces and validates rawArgs against its
// parameter schema, and runs it. The returned error, when non-nil, is
// always one of *UnknownToolError, *ParameterError, or *ExecutionError, per
// the execution-wrapper contract in §4.1/§7.
func (r *Registry) Execute(ctx context.Context, name, rawArgs string) (string, error) {
	t, ok := r.Get(name)
	if !ok {
		return "", &UnknownToolError{ToolName: name, Available: r.sortedNames()}
	}

	args, err := decodeArguments(name, rawArgs)
	if err != nil {
		return "", err
	}

	params := t.Parameters()
	if err := checkRequired(name, args, params); err != nil {
		return "", err
	}

	coerced, ok := Coerce(args, params).(map[string]any)
	if !ok {
		coerced = args
	}

	if params != nil {
		if compiled, err := compileCache.get(name, params); err == nil {
			if err := compiled.Validate(coerced); err != nil {
				return "", &ParameterError{ToolName: name, Message: err.Error(), Cause: err}
			}
		}
	}

	result, err := runTool(ctx, t, coerced)
	if err != nil {
		return "", classifyRunError(name, err)
	}
	return result, nil
}

// runTool recovers from panics in a tool's Run method, converting them into
// an ExecutionError rather than taking down the agent loop.
func runTool(ctx context.Context, t Tool, args map[string]any) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ExecutionError{ToolName: t.Name(), Message: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return t.Run(ctx, args)
}

func classifyRunError(name string, err error) error {
	switch err.(type) {
	case *ParameterError, *ExecutionError:
		return err
	default:
		return &ExecutionError{ToolName: name, Message: err.Error(), Cause: err}
	}
}

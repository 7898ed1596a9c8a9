// Package advisor implements the request/response middleware chain that
// sits between an agent's run loop and the raw llm.Engine it drives: each
// Advisor can rewrite a Request on the way in, and a response (or event
// stream) on the way out.
package advisor

import (
	"context"
	"sort"

	"github.com/bpowers/agentcore/llm"
	"github.com/bpowers/agentcore/stream"
)

// CallHandler performs (or continues wrapping) a non-streaming request.
type CallHandler func(ctx context.Context, req llm.Request) (llm.AgentResponse, error)

// StreamHandler performs (or continues wrapping) a streaming request,
// producing already-parsed stream.Event values rather than raw provider
// chunks — the base handler at the bottom of the chain always runs the
// request through stream.NativeParser first, so every Advisor operates on
// the same event vocabulary regardless of which engine is underneath.
type StreamHandler func(ctx context.Context, req llm.Request) (<-chan stream.Event, <-chan error)

// Advisor observes and can rewrite a request before it's sent, and a
// response (or event stream) after it comes back. Embed Base to get no-op
// defaults for the hooks a given advisor doesn't need.
type Advisor interface {
	// Name identifies the advisor for logging and Chain.Remove.
	Name() string
	// IsBuiltin reports whether this advisor is one agentcore installs
	// itself (e.g. ToolCallAdvisor), which always runs outermost.
	IsBuiltin() bool
	// Priority breaks ties among non-builtin advisors; higher runs first.
	Priority() int

	BeforeCall(ctx context.Context, req llm.Request) (llm.Request, error)
	AfterCall(ctx context.Context, req llm.Request, resp llm.AgentResponse) (llm.AgentResponse, error)

	BeforeStream(ctx context.Context, req llm.Request) (llm.Request, error)
	AfterStream(ctx context.Context, req llm.Request, events <-chan stream.Event, errs <-chan error) (<-chan stream.Event, <-chan error)
}

// Base gives embedders pass-through defaults for every Advisor hook.
type Base struct{}

func (Base) IsBuiltin() bool { return false }
func (Base) Priority() int   { return 0 }

func (Base) BeforeCall(_ context.Context, req llm.Request) (llm.Request, error) { return req, nil }
func (Base) AfterCall(_ context.Context, _ llm.Request, resp llm.AgentResponse) (llm.AgentResponse, error) {
	return resp, nil
}

func (Base) BeforeStream(_ context.Context, req llm.Request) (llm.Request, error) { return req, nil }
func (Base) AfterStream(_ context.Context, _ llm.Request, events <-chan stream.Event, errs <-chan error) (<-chan stream.Event, <-chan error) {
	return events, errs
}

// Chain holds an ordered set of advisors and wraps a base handler with all
// of them. Ordering is (is_builtin desc, priority desc, insertion order) —
// builtin advisors always run outermost, regardless of when they were
// added, so the request they see is closest to what the run loop intended.
type Chain struct {
	advisors []Advisor
}

// NewChain returns an empty Chain.
func NewChain() *Chain {
	return &Chain{}
}

// Add appends an advisor to the chain.
func (c *Chain) Add(a Advisor) {
	c.advisors = append(c.advisors, a)
}

// Remove drops the first advisor with the given name, if present.
func (c *Chain) Remove(name string) {
	for i, a := range c.advisors {
		if a.Name() == name {
			c.advisors = append(c.advisors[:i], c.advisors[i+1:]...)
			return
		}
	}
}

// Len returns the number of advisors currently in the chain.
func (c *Chain) Len() int {
	return len(c.advisors)
}

// sorted returns the advisors in the order they should wrap the base
// handler, from outermost to innermost.
func (c *Chain) sorted() []Advisor {
	out := make([]Advisor, len(c.advisors))
	copy(out, c.advisors)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsBuiltin() != out[j].IsBuiltin() {
			return out[i].IsBuiltin()
		}
		return out[i].Priority() > out[j].Priority()
	})
	return out
}

// WrapCall builds the full non-streaming handler: each advisor's
// BeforeCall/AfterCall wraps around final, with the first-sorted advisor
// outermost.
func (c *Chain) WrapCall(final CallHandler) CallHandler {
	handler := final
	for _, a := range reversed(c.sorted()) {
		handler = wrapCall(a, handler)
	}
	return handler
}

func wrapCall(a Advisor, next CallHandler) CallHandler {
	return func(ctx context.Context, req llm.Request) (llm.AgentResponse, error) {
		req, err := a.BeforeCall(ctx, req)
		if err != nil {
			return llm.AgentResponse{}, err
		}
		resp, err := next(ctx, req)
		if err != nil {
			return llm.AgentResponse{}, err
		}
		return a.AfterCall(ctx, req, resp)
	}
}

// WrapStream builds the full streaming handler, mirroring WrapCall.
func (c *Chain) WrapStream(final StreamHandler) StreamHandler {
	handler := final
	for _, a := range reversed(c.sorted()) {
		handler = wrapStream(a, handler)
	}
	return handler
}

func wrapStream(a Advisor, next StreamHandler) StreamHandler {
	return func(ctx context.Context, req llm.Request) (<-chan stream.Event, <-chan error) {
		req, err := a.BeforeStream(ctx, req)
		if err != nil {
			errs := make(chan error, 1)
			errs <- err
			close(errs)
			events := make(chan stream.Event)
			close(events)
			return events, errs
		}
		events, errs := next(ctx, req)
		return a.AfterStream(ctx, req, events, errs)
	}
}

// reversed returns a new slice with elements in reverse order, so that
// wrapping from the last element to the first leaves the first-sorted
// advisor outermost.
func reversed(advisors []Advisor) []Advisor {
	out := make([]Advisor, len(advisors))
	for i, a := range advisors {
		out[len(advisors)-1-i] = a
	}
	return out
}

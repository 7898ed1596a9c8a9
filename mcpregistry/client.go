// Package mcpregistry adapts tools exposed by an external MCP server into
// tool.Tool, so they can be registered on a tool.Registry and dispatched by
// the agent run loop exactly like a locally implemented tool.
package mcpregistry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bpowers/agentcore/schema"
	"github.com/bpowers/agentcore/tool"
)

// Client wraps an mcp-go stdio client connection and the list of tools it
// advertised at Dial time.
type Client struct {
	mu     sync.Mutex
	inner  *client.Client
	tools  []*remoteTool
	closed bool
}

// Dial spawns command as an MCP server over stdio, performs the
// initialize/tools-list handshake, and returns a Client exposing its tools.
func Dial(ctx context.Context, command string, args []string, env map[string]string) (*Client, error) {
	mcpClient, err := client.NewStdioMCPClient(command, envSlice(env), args...)
	if err != nil {
		return nil, fmt.Errorf("mcpregistry: spawn %s: %w", command, err)
	}

	if err := mcpClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("mcpregistry: start %s: %w", command, err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{Name: "agentcore", Version: "0.1.0"}
	initReq.Params.ProtocolVersion = "2024-11-05"
	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		_ = mcpClient.Close()
		return nil, fmt.Errorf("mcpregistry: initialize %s: %w", command, err)
	}

	listResp, err := mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		_ = mcpClient.Close()
		return nil, fmt.Errorf("mcpregistry: list tools on %s: %w", command, err)
	}

	c := &Client{inner: mcpClient}
	for _, t := range listResp.Tools {
		c.tools = append(c.tools, &remoteTool{
			client: c,
			name:   t.Name,
			desc:   t.Description,
			params: convertSchema(t.InputSchema),
		})
	}
	return c, nil
}

// Tools returns every tool.Tool this client's server advertised.
func (c *Client) Tools() []tool.Tool {
	out := make([]tool.Tool, len(c.tools))
	for i, t := range c.tools {
		out[i] = t
	}
	return out
}

// RegisterAll registers every tool this client exposes onto reg.
func (c *Client) RegisterAll(reg *tool.Registry) error {
	for _, t := range c.tools {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Close shuts down the underlying MCP connection. Safe to call more than
// once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.inner.Close()
}

func (c *Client) call(ctx context.Context, name string, args map[string]any) (string, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return "", fmt.Errorf("mcpregistry: client closed")
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	resp, err := c.inner.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("mcpregistry: call %s: %w", name, err)
	}
	return renderResult(resp), nil
}

// remoteTool adapts one MCP tool definition into tool.Tool, dispatching
// Run back through the owning Client's connection.
type remoteTool struct {
	client *Client
	name   string
	desc   string
	params *schema.JSON
}

func (t *remoteTool) Name() string             { return t.name }
func (t *remoteTool) Description() string      { return t.desc }
func (t *remoteTool) Parameters() *schema.JSON { return t.params }

// RequiresApproval always returns true: an external MCP server is
// untrusted relative to the tools this process implements itself, so every
// call to a remote tool is gated. There is no per-server opt-out.
func (t *remoteTool) RequiresApproval() bool { return true }

func (t *remoteTool) Display(args map[string]any) string {
	return fmt.Sprintf("call MCP tool %s with %v", t.name, args)
}

func (t *remoteTool) Run(ctx context.Context, args map[string]any) (string, error) {
	return t.client.call(ctx, t.name, args)
}

// renderResult flattens an MCP CallToolResult's text content blocks into a
// single string, since tool.Tool.Run returns plain text and the run loop
// wraps it in its own "Result of tool call" framing.
func renderResult(resp *mcp.CallToolResult) string {
	if resp == nil {
		return ""
	}

	var texts []string
	for _, content := range resp.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}

	out := ""
	for i, s := range texts {
		if i > 0 {
			out += "\n"
		}
		out += s
	}
	if resp.IsError && out == "" {
		out = "tool reported an error with no message"
	}
	return out
}

// convertSchema turns an MCP tool's JSON-Schema input description into our
// schema.JSON, round-tripping through JSON since mcp.ToolInputSchema has no
// exported conversion of its own.
func convertSchema(s mcp.ToolInputSchema) *schema.JSON {
	data, err := json.Marshal(s)
	if err != nil {
		return &schema.JSON{Type: schema.Object}
	}
	var out schema.JSON
	if err := json.Unmarshal(data, &out); err != nil {
		return &schema.JSON{Type: schema.Object}
	}
	return &out
}

func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

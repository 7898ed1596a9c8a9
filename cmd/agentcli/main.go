// Command agentcli is an interactive terminal driver for agentcore: it
// wires an llm.Engine, the fstools reference tool set, and optionally an
// MCP-backed tool registry into an agent.Agent, then drives it from
// stdin/stdout through ui.Terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bpowers/agentcore/agent"
	"github.com/bpowers/agentcore/internal/logging"
	"github.com/bpowers/agentcore/llm"
	"github.com/bpowers/agentcore/mcpregistry"
	"github.com/bpowers/agentcore/tool"
	"github.com/bpowers/agentcore/tools/fstools"
	"github.com/bpowers/agentcore/ui"
)

const defaultModel = "claude-opus-4-1"

// fileConfig is the shape of an optional YAML config file, layered under
// flag and environment-variable overrides.
type fileConfig struct {
	Model        string  `yaml:"model"`
	APIKey       string  `yaml:"apiKey"`
	BaseURL      string  `yaml:"baseURL"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"maxTokens"`
	SystemPrompt string  `yaml:"systemPrompt"`
	AutoApprove  bool    `yaml:"autoApprove"`
	MaxToolLoops int     `yaml:"maxToolLoops"`
}

// cliOptions collects the flags buildRootCmd parses, before they're merged
// with any config file into a runConfig.
type cliOptions struct {
	configFile   string
	model        string
	apiKey       string
	baseURL      string
	temperature  float64
	maxTokens    int
	systemPrompt string
	debug        bool
	autoApprove  bool
	maxToolLoops int
	mcpCommand   string
	mcpArgs      []string
}

// runConfig is the fully resolved configuration run() operates on.
type runConfig struct {
	Model        string
	APIKey       string
	BaseURL      string
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
	Debug        bool
	AutoApprove  bool
	MaxToolLoops int
	MCPCommand   string
	MCPArgs      []string
}

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "agentcli",
		Short: "Interactive agent loop driver",
		Long: `agentcli drives an agentcore Agent from a terminal: it streams model
output, announces and gates tool calls, and supports a small set of
in-loop commands (/help, /clear, /status).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(opts)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, os.Stdin, os.Stdout, os.Stderr)
		},
	}

	root.Flags().StringVar(&opts.configFile, "config", "", "path to a YAML config file")
	root.Flags().StringVar(&opts.model, "model", defaultModel, "model to use (e.g. gpt-5, claude-opus-4-1, gemini-2.5-flash)")
	root.Flags().StringVar(&opts.apiKey, "api-key", "", "API key (defaults to the provider's environment variable)")
	root.Flags().StringVar(&opts.baseURL, "base-url", "", "override the provider's default API base URL")
	root.Flags().Float64Var(&opts.temperature, "temperature", -1, "sampling temperature (-1 leaves the provider default)")
	root.Flags().IntVar(&opts.maxTokens, "max-tokens", 0, "maximum response tokens (0 leaves the provider default)")
	root.Flags().StringVar(&opts.systemPrompt, "system", "You are a helpful assistant.", "system prompt")
	root.Flags().BoolVar(&opts.debug, "debug", false, "enable verbose engine logging")
	root.Flags().BoolVar(&opts.autoApprove, "auto-approve", false, "skip the approval prompt for every tool call")
	root.Flags().IntVar(&opts.maxToolLoops, "max-tool-loops", agent.DefaultMaxToolLoops, "tool-call rounds allowed per user turn before giving up")
	root.Flags().StringVar(&opts.mcpCommand, "mcp-command", "", "optional MCP server command to spawn over stdio and register tools from")
	root.Flags().StringArrayVar(&opts.mcpArgs, "mcp-arg", nil, "argument to pass to --mcp-command (repeatable)")

	return root
}

// resolveConfig layers, in increasing priority: defaults, a YAML config
// file (if given), then explicit flags (tracked by cobra's own default
// values, so a flag the user never set still carries the file's value).
func resolveConfig(opts *cliOptions) (runConfig, error) {
	cfg := runConfig{
		Model:        opts.model,
		APIKey:       opts.apiKey,
		BaseURL:      opts.baseURL,
		Temperature:  opts.temperature,
		MaxTokens:    opts.maxTokens,
		SystemPrompt: opts.systemPrompt,
		Debug:        opts.debug,
		AutoApprove:  opts.autoApprove,
		MaxToolLoops: opts.maxToolLoops,
		MCPCommand:   opts.mcpCommand,
		MCPArgs:      opts.mcpArgs,
	}

	if opts.configFile == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(opts.configFile)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	if fc.Model != "" && opts.model == defaultModel {
		cfg.Model = fc.Model
	}
	if fc.APIKey != "" && opts.apiKey == "" {
		cfg.APIKey = fc.APIKey
	}
	if fc.BaseURL != "" && opts.baseURL == "" {
		cfg.BaseURL = fc.BaseURL
	}
	if fc.Temperature != 0 && opts.temperature == -1 {
		cfg.Temperature = fc.Temperature
	}
	if fc.MaxTokens != 0 && opts.maxTokens == 0 {
		cfg.MaxTokens = fc.MaxTokens
	}
	if fc.SystemPrompt != "" && opts.systemPrompt == "You are a helpful assistant." {
		cfg.SystemPrompt = fc.SystemPrompt
	}
	if fc.AutoApprove {
		cfg.AutoApprove = true
	}
	if fc.MaxToolLoops != 0 && opts.maxToolLoops == agent.DefaultMaxToolLoops {
		cfg.MaxToolLoops = fc.MaxToolLoops
	}

	return cfg, nil
}

func run(ctx context.Context, cfg runConfig, input io.Reader, output, errOutput io.Writer) error {
	if cfg.Debug {
		logging.SetLogLevel(slog.LevelDebug)
	}

	engine, err := llm.NewEngine(llm.Config{
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Debug:       cfg.Debug,
	})
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	registry := tool.NewRegistry()
	registry.MustRegister(fstools.ReadDirTool{})
	registry.MustRegister(fstools.ReadFileTool{})
	registry.MustRegister(fstools.WriteFileTool{})

	if cfg.MCPCommand != "" {
		mcpClient, err := mcpregistry.Dial(ctx, cfg.MCPCommand, cfg.MCPArgs, nil)
		if err != nil {
			return fmt.Errorf("failed to connect to MCP server %s: %w", cfg.MCPCommand, err)
		}
		defer mcpClient.Close()
		if err := mcpClient.RegisterAll(registry); err != nil {
			return fmt.Errorf("failed to register MCP tools: %w", err)
		}
	}

	term := ui.NewTerminal(input, output, errOutput)

	genConfig := llm.GenerateConfig{MaxTokens: cfg.MaxTokens}
	if cfg.Temperature >= 0 {
		genConfig.Temperature = &cfg.Temperature
	}

	a := agent.New(engine, cfg.Model, cfg.SystemPrompt, registry, llm.Capability{
		SupportsNativeToolCalls: llm.SupportsNativeToolCalls(cfg.Model),
	}, term,
		agent.WithAutoApprove(cfg.AutoApprove),
		agent.WithMaxToolLoops(cfg.MaxToolLoops),
		agent.WithGenerateConfig(genConfig),
	)

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}
	ctx = fstools.WithFS(ctx, os.DirFS(wd))

	term.Print("Chat started. Type /quit to end the conversation.")
	term.Print("Commands: /help, /clear, /quit, /status")
	term.Print("---")

	return repl(ctx, a, term, output)
}

// repl drives the command loop, reading each line through term's own
// buffered reader rather than a second bufio.Reader over the same stream:
// RequestApproval also reads from that stream mid-turn, and two
// independent bufio.Readers racing over one io.Reader would each buffer
// ahead and steal bytes from the other.
func repl(ctx context.Context, a *agent.Agent, term *ui.Terminal, output io.Writer) error {
	for {
		line, err := term.AcquireUserInput("\nYou: ")
		if err != nil && line == "" {
			term.Print("\nGoodbye!")
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch line {
		case "/quit":
			term.Print("Goodbye!")
			return nil
		case "/help":
			term.Print("Commands:")
			term.Print("  /help   - show this help")
			term.Print("  /clear  - reset the conversation")
			term.Print("  /quit   - end the conversation")
			term.Print("  /status - show the conversation length")
			continue
		case "/clear":
			a.Clear()
			term.Success("conversation cleared")
			continue
		case "/status":
			history := a.History()
			var toolCalls int
			for _, m := range history {
				toolCalls += len(m.ToolCalls)
			}
			term.Print(fmt.Sprintf("messages: %d, tool calls so far: %d", len(history), toolCalls))
			continue
		}

		fmt.Fprint(output, "\nAssistant:")
		if err := a.Run(ctx, line); err != nil {
			term.Error(err)
		}
		fmt.Fprintln(output)
	}
}

package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/bpowers/agentcore/internal/logging"
	"github.com/bpowers/agentcore/llm/claude"
	"github.com/bpowers/agentcore/llm/gemini"
	"github.com/bpowers/agentcore/llm/openai"
)

// Config holds the settings needed to construct an Engine for a given
// model, independent of which provider ends up serving it.
type Config struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Debug       bool
}

// Provider identifies which backend a model name resolves to.
type Provider int

const (
	ProviderOpenAI Provider = iota
	ProviderClaude
	ProviderGemini
	ProviderUnknown
)

// NewEngine constructs the Engine implementation matching cfg.Model's
// provider prefix, falling back to environment variables for API keys the
// same way the CLI's flags do.
func NewEngine(cfg Config) (Engine, error) {
	provider := DetectProvider(cfg.Model)
	apiKey := cfg.APIKey

	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("openAI API key required (set APIKey or OPENAI_API_KEY)")
		}
		opts := []openai.Option{openai.WithModel(cfg.Model)}
		if cfg.Debug {
			opts = append(opts, openai.WithDebug(true))
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = openai.DefaultURL
		}
		logging.Logger().Info("using openai engine", "model", cfg.Model)
		o, err := openai.NewEngine(baseURL, apiKey, opts...)
		if err != nil {
			return nil, err
		}
		return openaiAdapter{inner: o}, nil

	case ProviderClaude:
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic API key required (set APIKey or ANTHROPIC_API_KEY)")
		}
		opts := []claude.Option{claude.WithModel(cfg.Model)}
		if cfg.Debug {
			opts = append(opts, claude.WithDebug(true))
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = claude.DefaultURL
		}
		logging.Logger().Info("using claude engine", "model", cfg.Model)
		c, err := claude.NewEngine(baseURL, apiKey, opts...)
		if err != nil {
			return nil, err
		}
		return claudeAdapter{inner: c}, nil

	case ProviderGemini:
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("gemini API key required (set APIKey, GEMINI_API_KEY, or GOOGLE_API_KEY)")
		}
		opts := []gemini.Option{gemini.WithModel(cfg.Model)}
		if cfg.Debug {
			opts = append(opts, gemini.WithDebug(true))
		}
		logging.Logger().Info("using gemini engine", "model", cfg.Model)
		g, err := gemini.NewEngine(apiKey, opts...)
		if err != nil {
			return nil, err
		}
		return geminiAdapter{inner: g}, nil

	default:
		return nil, fmt.Errorf("unknown model provider for model: %s", cfg.Model)
	}
}

// DetectProvider infers a Provider from a model name's prefix.
func DetectProvider(model string) Provider {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "gpt-"), strings.HasPrefix(m, "o1-"), strings.HasPrefix(m, "o3"):
		return ProviderOpenAI
	case strings.HasPrefix(m, "claude-"):
		return ProviderClaude
	case strings.HasPrefix(m, "gemini-"):
		return ProviderGemini
	default:
		return ProviderUnknown
	}
}

// SupportsNativeToolCalls reports whether a provider's model family emits a
// structured tool_calls delta, vs. needing tag-mode emulation.
func SupportsNativeToolCalls(model string) bool {
	switch DetectProvider(model) {
	case ProviderOpenAI, ProviderClaude, ProviderGemini:
		return true
	default:
		return false
	}
}

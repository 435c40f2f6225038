package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/briefdoc/internal/common"
	"github.com/ternarybob/briefdoc/internal/interfaces"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses Google Gemini API with search grounding
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses Anthropic Claude API (no grounding)
	ProviderClaude ProviderType = "claude"
)

// DefaultTimeout bounds a single model call when the config leaves it empty
const DefaultTimeout = 5 * time.Minute

// DetectProvider determines the provider type from a model string.
// Model strings can be:
// - "claude-sonnet-4-20250514" -> Claude
// - "claude/claude-sonnet-4-20250514" -> Claude (with prefix)
// - "gemini-2.5-flash" -> Gemini
// - "gemini/gemini-2.5-flash" -> Gemini (with prefix)
// - anything else -> fallback
func DetectProvider(model string, fallback ProviderType) ProviderType {
	model = strings.ToLower(model)

	switch {
	case strings.HasPrefix(model, "claude/"), strings.HasPrefix(model, "anthropic/"), strings.HasPrefix(model, "claude-"):
		return ProviderClaude
	case strings.HasPrefix(model, "gemini/"), strings.HasPrefix(model, "google/"), strings.HasPrefix(model, "gemini-"):
		return ProviderGemini
	}

	if fallback == "" {
		return ProviderGemini
	}
	return fallback
}

// NormalizeModel removes provider prefix from model name if present
func NormalizeModel(model string) string {
	for _, prefix := range []string{"claude/", "anthropic/", "gemini/", "google/"} {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// NewAnalyst builds the market analyst for the configured provider.
// A non-empty model overrides the provider's configured model and may switch provider.
func NewAnalyst(config *common.Config, model string, logger arbor.ILogger) (interfaces.MarketAnalyst, error) {
	provider := DetectProvider(model, ProviderType(config.LLM.DefaultProvider))
	model = NormalizeModel(model)

	logger.Debug().
		Str("provider", string(provider)).
		Str("model", model).
		Msg("Initializing market analyst")

	switch provider {
	case ProviderClaude:
		if model == "" {
			model = config.Claude.Model
		}
		return NewClaudeAnalyst(&config.Claude, logger, WithModel(model))
	case ProviderGemini:
		if model == "" {
			model = config.Gemini.Model
		}
		return NewGeminiAnalyst(&config.Gemini, logger, WithModel(model))
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// Option customises an analyst at construction time
type Option func(*options)

type options struct {
	model   string
	baseURL string
	clock   func() time.Time
}

// WithModel overrides the configured model name
func WithModel(model string) Option {
	return func(o *options) {
		if model != "" {
			o.model = model
		}
	}
}

// WithBaseURL points the provider client at a different API endpoint
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithClock sets the time source stamped on analyses
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

func buildOptions(defaultModel string, opts []Option) *options {
	o := &options{model: defaultModel, clock: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func parseTimeout(value string) (time.Duration, error) {
	if value == "" {
		return DefaultTimeout, nil
	}
	timeout, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", value, err)
	}
	return timeout, nil
}

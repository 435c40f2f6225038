package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/briefdoc/internal/common"
	"github.com/ternarybob/briefdoc/internal/models"
)

// claudeSystemPrompt keeps the answer inside what the model already knows,
// since Claude runs without a search tool here.
const claudeSystemPrompt = "You are a financial market analyst. You do not have live search access: " +
	"state the date range your figures come from and say plainly when data may be out of date."

// ClaudeAnalyst queries Anthropic Claude. It is not grounded and returns no sources.
type ClaudeAnalyst struct {
	client      anthropic.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	clock       func() time.Time
	logger      arbor.ILogger
}

// NewClaudeAnalyst creates a Claude analyst from the [claude] config section
func NewClaudeAnalyst(config *common.ClaudeConfig, logger arbor.ILogger, opts ...Option) (*ClaudeAnalyst, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("claude: %w (set claude.api_key, BRIEFDOC_CLAUDE_API_KEY or ANTHROPIC_API_KEY)", ErrMissingAPIKey)
	}

	o := buildOptions(config.Model, opts)
	if o.model == "" {
		return nil, fmt.Errorf("claude: model name is required")
	}

	timeout, err := parseTimeout(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("claude: %w", err)
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(o.baseURL))
	}

	return &ClaudeAnalyst{
		client:      anthropic.NewClient(clientOpts...),
		model:       o.model,
		maxTokens:   maxTokens,
		temperature: config.Temperature,
		timeout:     timeout,
		clock:       o.clock,
		logger:      logger,
	}, nil
}

// Provider implements interfaces.MarketAnalyst
func (a *ClaudeAnalyst) Provider() string {
	return string(ProviderClaude)
}

// Model returns the Claude model in use
func (a *ClaudeAnalyst) Model() string {
	return a.model
}

// Close implements interfaces.MarketAnalyst
func (a *ClaudeAnalyst) Close() error {
	return nil
}

// Analyze sends the prompt once and concatenates the text blocks of the reply
func (a *ClaudeAnalyst) Analyze(ctx context.Context, prompt string) (*models.Analysis, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("prompt is empty")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(a.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		System: []anthropic.TextBlockParam{
			{Text: claudeSystemPrompt},
		},
	}
	if a.temperature > 0 {
		params.Temperature = anthropic.Float(float64(a.temperature))
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	a.logger.Info().
		Str("model", a.model).
		Int("prompt_length", len(prompt)).
		Msg("Querying Claude (no search grounding)")

	started := time.Now()
	resp, err := a.client.Messages.New(callCtx, params)
	if err != nil {
		a.logger.Error().
			Err(err).
			Str("model", a.model).
			Str("error_class", common.ClassifyRemoteError(err)).
			Msg("Claude request failed")
		return nil, fmt.Errorf("claude request failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, fmt.Errorf("empty response from Claude API")
	}

	a.logger.Info().
		Dur("duration", time.Since(started)).
		Int("text_length", text.Len()).
		Msg("Claude analysis received")

	return &models.Analysis{
		Text:        text.String(),
		Provider:    a.Provider(),
		Model:       a.model,
		GeneratedAt: a.clock(),
	}, nil
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/briefdoc/internal/common"
	"github.com/ternarybob/briefdoc/internal/models"
	"google.golang.org/genai"
)

// ErrMissingAPIKey is returned when a provider has no API key configured
var ErrMissingAPIKey = errors.New("API key is required")

// GeminiAnalyst queries Gemini with the GoogleSearch tool enabled, so answers are
// grounded on live search results and carry their source pages.
type GeminiAnalyst struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
	clock       func() time.Time
	logger      arbor.ILogger
}

// NewGeminiAnalyst creates a Gemini analyst from the [gemini] config section
func NewGeminiAnalyst(config *common.GeminiConfig, logger arbor.ILogger, opts ...Option) (*GeminiAnalyst, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w (set gemini.api_key, BRIEFDOC_GEMINI_API_KEY or GEMINI_API_KEY)", ErrMissingAPIKey)
	}

	o := buildOptions(config.Model, opts)
	if o.model == "" {
		return nil, fmt.Errorf("gemini: model name is required")
	}

	timeout, err := parseTimeout(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if o.baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: o.baseURL}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiAnalyst{
		client:      client,
		model:       o.model,
		temperature: config.Temperature,
		timeout:     timeout,
		clock:       o.clock,
		logger:      logger,
	}, nil
}

// Provider implements interfaces.MarketAnalyst
func (a *GeminiAnalyst) Provider() string {
	return string(ProviderGemini)
}

// Model returns the Gemini model in use
func (a *GeminiAnalyst) Model() string {
	return a.model
}

// Close implements interfaces.MarketAnalyst. The genai client holds no resources.
func (a *GeminiAnalyst) Close() error {
	return nil
}

// Analyze sends the prompt once. Failures are returned, not retried.
func (a *GeminiAnalyst) Analyze(ctx context.Context, prompt string) (*models.Analysis, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("prompt is empty")
	}

	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	if a.temperature > 0 {
		config.Temperature = genai.Ptr(a.temperature)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	a.logger.Info().
		Str("model", a.model).
		Int("prompt_length", len(prompt)).
		Msg("Querying Gemini with search grounding")

	started := time.Now()
	resp, err := a.client.Models.GenerateContent(
		callCtx,
		a.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		config,
	)
	if err != nil {
		a.logger.Error().
			Err(err).
			Str("model", a.model).
			Str("error_class", common.ClassifyRemoteError(err)).
			Msg("Gemini request failed")
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	analysis, err := extractAnalysis(resp)
	if err != nil {
		return nil, err
	}
	analysis.Provider = a.Provider()
	analysis.Model = a.model
	analysis.GeneratedAt = a.clock()

	a.logger.Info().
		Dur("duration", time.Since(started)).
		Int("text_length", len(analysis.Text)).
		Int("source_count", len(analysis.Sources)).
		Strs("search_queries", analysis.SearchQueries).
		Msg("Gemini analysis received")

	return analysis, nil
}

// extractAnalysis pulls the answer text and grounding metadata from the first candidate
func extractAnalysis(resp *genai.GenerateContentResponse) (*models.Analysis, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("gemini blocked the prompt: %s", resp.PromptFeedback.BlockReason)
		}
		return nil, fmt.Errorf("empty response from Gemini API")
	}

	candidate := resp.Candidates[0]

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		text.WriteString(part.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, fmt.Errorf("empty response from Gemini API (finish reason: %s)", candidate.FinishReason)
	}

	analysis := &models.Analysis{Text: text.String()}

	if gm := candidate.GroundingMetadata; gm != nil {
		analysis.SearchQueries = gm.WebSearchQueries
		for _, chunk := range gm.GroundingChunks {
			if chunk == nil || chunk.Web == nil {
				continue
			}
			analysis.Sources = append(analysis.Sources, models.Source{
				Title: chunk.Web.Title,
				URI:   chunk.Web.URI,
			})
		}
	}

	return analysis, nil
}

package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/briefdoc/internal/common"
	"google.golang.org/genai"
)

var fixedTime = time.Date(2025, 7, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		model    string
		fallback ProviderType
		want     ProviderType
	}{
		{"claude-sonnet-4-20250514", ProviderGemini, ProviderClaude},
		{"anthropic/claude-sonnet-4", ProviderGemini, ProviderClaude},
		{"gemini-2.5-flash", ProviderClaude, ProviderGemini},
		{"google/gemini-2.5-pro", ProviderClaude, ProviderGemini},
		{"", ProviderClaude, ProviderClaude},
		{"custom-model", "", ProviderGemini},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectProvider(tt.model, tt.fallback))
		})
	}
}

func TestNormalizeModel(t *testing.T) {
	assert.Equal(t, "claude-sonnet-4", NormalizeModel("claude/claude-sonnet-4"))
	assert.Equal(t, "gemini-2.5-flash", NormalizeModel("Gemini/gemini-2.5-flash"))
	assert.Equal(t, "gemini-2.5-flash", NormalizeModel("gemini-2.5-flash"))
}

func TestNewAnalyst_SelectsProvider(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Gemini.APIKey = "gemini-key"
	config.Claude.APIKey = "claude-key"
	logger := arbor.NewNoOpLogger()

	analyst, err := NewAnalyst(config, "", logger)
	require.NoError(t, err)
	assert.Equal(t, "gemini", analyst.Provider())
	assert.Equal(t, "gemini-2.5-flash", analyst.(*GeminiAnalyst).Model())

	analyst, err = NewAnalyst(config, "claude-opus-4-1", logger)
	require.NoError(t, err)
	assert.Equal(t, "claude", analyst.Provider())
	assert.Equal(t, "claude-opus-4-1", analyst.(*ClaudeAnalyst).Model())

	config.LLM.DefaultProvider = common.LLMProviderClaude
	analyst, err = NewAnalyst(config, "", logger)
	require.NoError(t, err)
	assert.Equal(t, config.Claude.Model, analyst.(*ClaudeAnalyst).Model())
}

func TestNewAnalyst_MissingKey(t *testing.T) {
	config := common.NewDefaultConfig()
	logger := arbor.NewNoOpLogger()

	_, err := NewAnalyst(config, "", logger)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewAnalyst(config, "claude-sonnet-4-20250514", logger)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewGeminiAnalyst_InvalidTimeout(t *testing.T) {
	config := &common.GeminiConfig{APIKey: "k", Model: "gemini-2.5-flash", Timeout: "soon"}
	_, err := NewGeminiAnalyst(config, arbor.NewNoOpLogger())
	assert.Error(t, err)
}

func TestExtractAnalysis(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: genai.RoleModel,
				Parts: []*genai.Part{
					{Text: "thinking...", Thought: true},
					{Text: "S&P 500 rose 1.2%. "},
					{Text: "KRW/USD 1,380.50"},
				},
			},
			GroundingMetadata: &genai.GroundingMetadata{
				WebSearchQueries: []string{"S&P 500 weekly change"},
				GroundingChunks: []*genai.GroundingChunk{
					{Web: &genai.GroundingChunkWeb{URI: "https://example.com/a", Title: "Market wrap"}},
					{},
					{Web: &genai.GroundingChunkWeb{URI: "https://example.com/b", Title: "Bank rates"}},
				},
			},
		}},
	}

	analysis, err := extractAnalysis(resp)
	require.NoError(t, err)
	assert.Equal(t, "S&P 500 rose 1.2%. KRW/USD 1,380.50", analysis.Text)
	assert.Equal(t, []string{"S&P 500 weekly change"}, analysis.SearchQueries)
	require.Len(t, analysis.Sources, 2)
	assert.Equal(t, "Market wrap", analysis.Sources[0].Title)
	assert.Equal(t, "https://example.com/b", analysis.Sources[1].URI)
}

func TestExtractAnalysis_Empty(t *testing.T) {
	_, err := extractAnalysis(nil)
	assert.Error(t, err)

	_, err = extractAnalysis(&genai.GenerateContentResponse{})
	assert.Error(t, err)

	_, err = extractAnalysis(&genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")

	_, err = extractAnalysis(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "  "}}}}},
	})
	assert.Error(t, err)
}

func TestGeminiAnalyst_Analyze(t *testing.T) {
	var requestBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "gemini-2.5-flash:generateContent") {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		requestBody = string(body)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": "주간 시장 요약"}},
				},
				"finishReason": "STOP",
				"groundingMetadata": map[string]any{
					"webSearchQueries": []string{"weekly market"},
					"groundingChunks": []map[string]any{
						{"web": map[string]any{"uri": "https://example.com/wrap", "title": "wrap"}},
					},
				},
			}},
		})
	}))
	defer server.Close()

	config := &common.GeminiConfig{APIKey: "test-key", Model: "gemini-2.5-flash", Timeout: "10s"}
	analyst, err := NewGeminiAnalyst(config, arbor.NewNoOpLogger(), WithBaseURL(server.URL), WithClock(fixedClock))
	require.NoError(t, err)

	analysis, err := analyst.Analyze(context.Background(), "summarise the week")
	require.NoError(t, err)

	assert.Contains(t, requestBody, "googleSearch")
	assert.Contains(t, requestBody, "summarise the week")
	assert.Equal(t, "주간 시장 요약", analysis.Text)
	assert.Equal(t, "gemini", analysis.Provider)
	assert.Equal(t, "gemini-2.5-flash", analysis.Model)
	assert.Equal(t, fixedTime, analysis.GeneratedAt)
	require.Len(t, analysis.Sources, 1)
	assert.Equal(t, "https://example.com/wrap", analysis.Sources[0].URI)
}

func TestGeminiAnalyst_RemoteError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad model","status":"INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	config := &common.GeminiConfig{APIKey: "test-key", Model: "gemini-2.5-flash"}
	analyst, err := NewGeminiAnalyst(config, arbor.NewNoOpLogger(), WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = analyst.Analyze(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestAnalyze_EmptyPrompt(t *testing.T) {
	gemini, err := NewGeminiAnalyst(&common.GeminiConfig{APIKey: "k", Model: "gemini-2.5-flash"}, arbor.NewNoOpLogger())
	require.NoError(t, err)
	_, err = gemini.Analyze(context.Background(), "   ")
	assert.Error(t, err)

	claude, err := NewClaudeAnalyst(&common.ClaudeConfig{APIKey: "k", Model: "claude-sonnet-4-20250514"}, arbor.NewNoOpLogger())
	require.NoError(t, err)
	_, err = claude.Analyze(context.Background(), "")
	assert.Error(t, err)
}

func TestClaudeAnalyst_Analyze(t *testing.T) {
	var request map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			http.NotFound(w, r)
			return
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&request))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "msg_01",
			"type":          "message",
			"role":          "assistant",
			"model":         "claude-sonnet-4-20250514",
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"content": []map[string]any{
				{"type": "text", "text": "Weekly summary. "},
				{"type": "text", "text": "Rates steady."},
			},
			"usage": map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	}))
	defer server.Close()

	config := &common.ClaudeConfig{APIKey: "test-key", Model: "claude-sonnet-4-20250514", MaxTokens: 1024}
	analyst, err := NewClaudeAnalyst(config, arbor.NewNoOpLogger(), WithBaseURL(server.URL), WithClock(fixedClock))
	require.NoError(t, err)

	analysis, err := analyst.Analyze(context.Background(), "summarise the week")
	require.NoError(t, err)

	assert.Equal(t, "claude-sonnet-4-20250514", request["model"])
	assert.EqualValues(t, 1024, request["max_tokens"])
	assert.Equal(t, "Weekly summary. Rates steady.", analysis.Text)
	assert.Equal(t, "claude", analysis.Provider)
	assert.Empty(t, analysis.Sources)
	assert.Equal(t, fixedTime, analysis.GeneratedAt)
}

func TestClaudeAnalyst_SingleAttempt(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
	}))
	defer server.Close()

	config := &common.ClaudeConfig{APIKey: "test-key", Model: "claude-sonnet-4-20250514"}
	analyst, err := NewClaudeAnalyst(config, arbor.NewNoOpLogger(), WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = analyst.Analyze(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

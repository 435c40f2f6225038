package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Credential modes for Google API access
const (
	CredentialsServiceAccount = "service_account"
	CredentialsOAuth          = "oauth"
)

// Google API scopes needed to list Drive files and edit Docs
const (
	ScopeDocuments = "https://www.googleapis.com/auth/documents"
	ScopeDrive     = "https://www.googleapis.com/auth/drive"
)

// Config represents the application configuration
type Config struct {
	Google   GoogleConfig   `toml:"google"`
	Report   ReportConfig   `toml:"report"`
	Gemini   GeminiConfig   `toml:"gemini"`
	Claude   ClaudeConfig   `toml:"claude"`
	LLM      LLMConfig      `toml:"llm"`
	Schedule ScheduleConfig `toml:"schedule"`
	Logging  LoggingConfig  `toml:"logging"`
}

// GoogleConfig controls how the Docs and Drive APIs are reached
type GoogleConfig struct {
	CredentialsMode    string   `toml:"credentials_mode" validate:"oneof=service_account oauth"`
	ServiceAccountFile string   `toml:"service_account_file"` // JSON key for service_account mode
	ClientSecretFile   string   `toml:"client_secret_file"`   // OAuth client JSON for oauth mode
	TokenFile          string   `toml:"token_file"`           // Cached OAuth token for oauth mode
	Scopes             []string `toml:"scopes" validate:"min=1,dive,url"`
	RequestsPerSecond  float64  `toml:"requests_per_second" validate:"gt=0"`
	RequestTimeout     string   `toml:"request_timeout"` // HTTP timeout per Google API call (default: "60s")
}

// ReportConfig describes the report document and how sections are rendered
type ReportConfig struct {
	DocumentTitle  string  `toml:"document_title" validate:"required"`
	SectionTitle   string  `toml:"section_title"` // Defaults to DocumentTitle when empty
	SeparatorWidth int     `toml:"separator_width" validate:"gte=1"`
	TitleFontSize  float64 `toml:"title_font_size" validate:"gt=0"`
	PlainText      bool    `toml:"plain_text"`      // Flatten model markdown before inserting
	IncludeSources bool    `toml:"include_sources"` // Append grounding sources to the body
	PromptFile     string  `toml:"prompt_file"`     // Optional YAML prompt override
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`   // default: "gemini-2.5-flash"
	Timeout     string  `toml:"timeout"` // default: "5m"
	Temperature float32 `toml:"temperature"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig selects the AI provider
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" validate:"oneof=gemini claude"`
}

// ScheduleConfig drives the schedule command
type ScheduleConfig struct {
	Cron    string `toml:"cron"`    // Cron spec with seconds field (default: "0 0 7 * * 1-5")
	Timeout string `toml:"timeout"` // Max duration of one scheduled run (default: "15m")
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=trace debug info warn error"`
	Output     []string `toml:"output" validate:"dive,oneof=stdout console file"`
	TimeFormat string   `toml:"time_format"`
	Dir        string   `toml:"dir"` // Log directory; empty means <executable dir>/logs
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Google: GoogleConfig{
			CredentialsMode:    CredentialsServiceAccount,
			ServiceAccountFile: "~/google-secrets/briefdoc-sa.json",
			ClientSecretFile:   "~/google-secrets/client_secret.json",
			TokenFile:          "~/google-secrets/token.json",
			Scopes:             []string{ScopeDocuments, ScopeDrive},
			RequestsPerSecond:  1,
			RequestTimeout:     "60s",
		},
		Report: ReportConfig{
			DocumentTitle:  "AI 금융 분석 보고서",
			SeparatorWidth: 80,
			TitleFontSize:  16,
		},
		Gemini: GeminiConfig{
			Model:   "gemini-2.5-flash",
			Timeout: "5m",
		},
		Claude: ClaudeConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 8192,
			Timeout:   "5m",
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		Schedule: ScheduleConfig{
			Cron:    "0 0 7 * * 1-5", // 07:00 on weekdays
			Timeout: "15m",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> env.
// Later files override earlier files. CLI flags are applied by the caller afterwards.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(ExpandPath(path))
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
// BRIEFDOC_* names win over the bare names kept for existing deployments.
func applyEnvOverrides(config *Config) {
	// Google
	if v := firstEnv("BRIEFDOC_GOOGLE_CREDENTIALS_MODE"); v != "" {
		config.Google.CredentialsMode = v
	}
	if v := firstEnv("BRIEFDOC_GOOGLE_SERVICE_ACCOUNT_FILE", "GOOGLE_SERVICE_ACCOUNT_FILE"); v != "" {
		config.Google.ServiceAccountFile = v
	}
	if v := firstEnv("BRIEFDOC_GOOGLE_CLIENT_SECRET_FILE"); v != "" {
		config.Google.ClientSecretFile = v
	}
	if v := firstEnv("BRIEFDOC_GOOGLE_TOKEN_FILE"); v != "" {
		config.Google.TokenFile = v
	}
	if v := firstEnv("BRIEFDOC_GOOGLE_REQUESTS_PER_SECOND"); v != "" {
		if rps, err := strconv.ParseFloat(v, 64); err == nil {
			config.Google.RequestsPerSecond = rps
		}
	}

	// Report
	if v := firstEnv("BRIEFDOC_REPORT_DOCUMENT_TITLE", "REPORT_DOCUMENT_TITLE"); v != "" {
		config.Report.DocumentTitle = v
	}
	if v := firstEnv("BRIEFDOC_REPORT_SECTION_TITLE"); v != "" {
		config.Report.SectionTitle = v
	}
	if v := firstEnv("BRIEFDOC_REPORT_PROMPT_FILE"); v != "" {
		config.Report.PromptFile = v
	}
	if v := firstEnv("BRIEFDOC_REPORT_PLAIN_TEXT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Report.PlainText = b
		}
	}
	if v := firstEnv("BRIEFDOC_REPORT_INCLUDE_SOURCES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Report.IncludeSources = b
		}
	}

	// Gemini
	if v := firstEnv("BRIEFDOC_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := firstEnv("BRIEFDOC_GEMINI_MODEL", "GEMINI_MODEL"); v != "" {
		config.Gemini.Model = v
	}
	if v := firstEnv("BRIEFDOC_GEMINI_TIMEOUT"); v != "" {
		config.Gemini.Timeout = v
	}

	// Claude
	if v := firstEnv("BRIEFDOC_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
	if v := firstEnv("BRIEFDOC_CLAUDE_MODEL"); v != "" {
		config.Claude.Model = v
	}

	// LLM
	if v := firstEnv("BRIEFDOC_LLM_DEFAULT_PROVIDER"); v != "" {
		config.LLM.DefaultProvider = LLMProvider(strings.ToLower(v))
	}

	// Schedule
	if v := firstEnv("BRIEFDOC_SCHEDULE_CRON"); v != "" {
		config.Schedule.Cron = v
	}

	// Logging
	if v := firstEnv("BRIEFDOC_LOG_LEVEL", "LOG_LEVEL"); v != "" {
		config.Logging.Level = strings.ToLower(v)
	}
	if v := firstEnv("BRIEFDOC_LOG_OUTPUT"); v != "" {
		config.Logging.Output = splitString(v, ",")
	}
	if v := firstEnv("BRIEFDOC_LOG_DIR"); v != "" {
		config.Logging.Dir = v
	}
}

// ApplyFlagOverrides applies command-line overrides (highest priority).
// Empty values leave the config untouched. A --model flag is not applied here
// because it may also switch provider; the analyst factory resolves it.
func ApplyFlagOverrides(config *Config, documentTitle, logLevel string) {
	if documentTitle != "" {
		config.Report.DocumentTitle = documentTitle
	}
	if logLevel != "" {
		config.Logging.Level = strings.ToLower(logLevel)
	}
}

// Validate checks struct constraints and the credential files the chosen mode needs
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch c.Google.CredentialsMode {
	case CredentialsServiceAccount:
		if c.Google.ServiceAccountFile == "" {
			return fmt.Errorf("invalid configuration: google.service_account_file is required for service_account mode")
		}
	case CredentialsOAuth:
		if c.Google.ClientSecretFile == "" || c.Google.TokenFile == "" {
			return fmt.Errorf("invalid configuration: google.client_secret_file and google.token_file are required for oauth mode")
		}
	}

	return nil
}

// SectionTitle returns the heading used for appended sections
func (c *Config) SectionTitle() string {
	if c.Report.SectionTitle != "" {
		return c.Report.SectionTitle
	}
	return c.Report.DocumentTitle
}

// ExpandPath expands a leading ~ to the user's home directory
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// splitString splits a string by separator and trims whitespace
func splitString(s, sep string) []string {
	var parts []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

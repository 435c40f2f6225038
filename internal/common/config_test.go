package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable applyEnvOverrides reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"BRIEFDOC_GOOGLE_CREDENTIALS_MODE", "BRIEFDOC_GOOGLE_SERVICE_ACCOUNT_FILE", "GOOGLE_SERVICE_ACCOUNT_FILE",
		"BRIEFDOC_GOOGLE_CLIENT_SECRET_FILE", "BRIEFDOC_GOOGLE_TOKEN_FILE", "BRIEFDOC_GOOGLE_REQUESTS_PER_SECOND",
		"BRIEFDOC_REPORT_DOCUMENT_TITLE", "REPORT_DOCUMENT_TITLE", "BRIEFDOC_REPORT_SECTION_TITLE",
		"BRIEFDOC_REPORT_PROMPT_FILE", "BRIEFDOC_REPORT_PLAIN_TEXT", "BRIEFDOC_REPORT_INCLUDE_SOURCES",
		"BRIEFDOC_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "BRIEFDOC_GEMINI_MODEL", "GEMINI_MODEL",
		"BRIEFDOC_GEMINI_TIMEOUT", "BRIEFDOC_CLAUDE_API_KEY", "ANTHROPIC_API_KEY", "BRIEFDOC_CLAUDE_MODEL",
		"BRIEFDOC_LLM_DEFAULT_PROVIDER", "BRIEFDOC_SCHEDULE_CRON", "BRIEFDOC_LOG_LEVEL", "LOG_LEVEL",
		"BRIEFDOC_LOG_OUTPUT", "BRIEFDOC_LOG_DIR",
	} {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, CredentialsServiceAccount, config.Google.CredentialsMode)
	assert.Equal(t, []string{ScopeDocuments, ScopeDrive}, config.Google.Scopes)
	assert.Equal(t, "AI 금융 분석 보고서", config.Report.DocumentTitle)
	assert.Equal(t, 80, config.Report.SeparatorWidth)
	assert.Equal(t, 16.0, config.Report.TitleFontSize)
	assert.Equal(t, "gemini-2.5-flash", config.Gemini.Model)
	assert.Equal(t, LLMProviderGemini, config.LLM.DefaultProvider)
	assert.NoError(t, config.Validate())
}

func TestLoadFromFiles_MergesInOrder(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	base := writeConfig(t, dir, "base.toml", `
[report]
document_title = "Weekly Brief"
plain_text = true

[gemini]
model = "gemini-2.5-pro"
`)
	override := writeConfig(t, dir, "override.toml", `
[report]
document_title = "Team Brief"

[logging]
level = "debug"
`)

	config, err := LoadFromFiles(base, "", override)
	require.NoError(t, err)

	assert.Equal(t, "Team Brief", config.Report.DocumentTitle)
	assert.True(t, config.Report.PlainText)
	assert.Equal(t, "gemini-2.5-pro", config.Gemini.Model)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, 80, config.Report.SeparatorWidth, "unset keys keep defaults")
}

func TestLoadFromFiles_Errors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := LoadFromFiles(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	broken := writeConfig(t, dir, "broken.toml", "[report\ndocument_title = ")
	_, err = LoadFromFiles(broken)
	assert.Error(t, err)
}

func TestLoadFromFiles_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "/secrets/sa.json")
	t.Setenv("REPORT_DOCUMENT_TITLE", "Env Title")
	t.Setenv("GEMINI_MODEL", "gemini-2.0-flash")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("ANTHROPIC_API_KEY", "claude-key")
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("BRIEFDOC_REPORT_INCLUDE_SOURCES", "true")
	t.Setenv("BRIEFDOC_LLM_DEFAULT_PROVIDER", "Claude")
	t.Setenv("BRIEFDOC_LOG_OUTPUT", "stdout, file")
	t.Setenv("BRIEFDOC_GOOGLE_REQUESTS_PER_SECOND", "2.5")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "/secrets/sa.json", config.Google.ServiceAccountFile)
	assert.Equal(t, "Env Title", config.Report.DocumentTitle)
	assert.Equal(t, "gemini-2.0-flash", config.Gemini.Model)
	assert.Equal(t, "gemini-key", config.Gemini.APIKey)
	assert.Equal(t, "claude-key", config.Claude.APIKey)
	assert.Equal(t, "warn", config.Logging.Level)
	assert.True(t, config.Report.IncludeSources)
	assert.Equal(t, LLMProviderClaude, config.LLM.DefaultProvider)
	assert.Equal(t, []string{"stdout", "file"}, config.Logging.Output)
	assert.Equal(t, 2.5, config.Google.RequestsPerSecond)
}

func TestLoadFromFiles_PrefixedEnvWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("REPORT_DOCUMENT_TITLE", "bare")
	t.Setenv("BRIEFDOC_REPORT_DOCUMENT_TITLE", "prefixed")

	config, err := LoadFromFiles()
	require.NoError(t, err)
	assert.Equal(t, "prefixed", config.Report.DocumentTitle)
}

func TestLoadFromFiles_EnvBeatsFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, t.TempDir(), "briefdoc.toml", "[report]\ndocument_title = \"From File\"\n")
	t.Setenv("REPORT_DOCUMENT_TITLE", "From Env")

	config, err := LoadFromFiles(path)
	require.NoError(t, err)
	assert.Equal(t, "From Env", config.Report.DocumentTitle)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, "", "")
	assert.Equal(t, "AI 금융 분석 보고서", config.Report.DocumentTitle)
	assert.Equal(t, "info", config.Logging.Level)

	ApplyFlagOverrides(config, "Flag Title", "DEBUG")
	assert.Equal(t, "Flag Title", config.Report.DocumentTitle)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty title", func(c *Config) { c.Report.DocumentTitle = "" }},
		{"unknown credentials mode", func(c *Config) { c.Google.CredentialsMode = "api_key" }},
		{"missing key file", func(c *Config) { c.Google.ServiceAccountFile = "" }},
		{"oauth without token file", func(c *Config) {
			c.Google.CredentialsMode = CredentialsOAuth
			c.Google.TokenFile = ""
		}},
		{"zero rate", func(c *Config) { c.Google.RequestsPerSecond = 0 }},
		{"bad scope", func(c *Config) { c.Google.Scopes = []string{"documents"} }},
		{"no scopes", func(c *Config) { c.Google.Scopes = nil }},
		{"zero separator", func(c *Config) { c.Report.SeparatorWidth = 0 }},
		{"unknown provider", func(c *Config) { c.LLM.DefaultProvider = "openai" }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"unknown log output", func(c *Config) { c.Logging.Output = []string{"syslog"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.modify(config)
			assert.Error(t, config.Validate())
		})
	}

	oauth := NewDefaultConfig()
	oauth.Google.CredentialsMode = CredentialsOAuth
	assert.NoError(t, oauth.Validate())
}

func TestSectionTitle(t *testing.T) {
	config := NewDefaultConfig()
	assert.Equal(t, config.Report.DocumentTitle, config.SectionTitle())

	config.Report.SectionTitle = "Morning brief"
	assert.Equal(t, "Morning brief", config.SectionTitle())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "google-secrets", "sa.json"), ExpandPath("~/google-secrets/sa.json"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, "/etc/briefdoc.toml", ExpandPath("/etc/briefdoc.toml"))
	assert.Equal(t, "~other/file", ExpandPath("~other/file"))
}

package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DatePlaceholder is replaced with the run date when a prompt is rendered
const DatePlaceholder = "{{date}}"

// DefaultMarketPrompt asks for last week's US indicators and index moves plus the
// latest bank-posted KRW exchange rate, answered from search results only.
const DefaultMarketPrompt = `오늘 날짜는 {{date}} 입니다.
오늘 날짜 기준으로 최근 일주일간 아래 두 가지 질문에 대해 전문적인 금융 투자가의 관점에서 답변해줘.
**답변을 생성할 때 반드시 구글 검색 결과만 사용해야 하며, 모델의 내부 지식으로 수치나 환율을 추정하거나 추측하지 마세요.**

1. 미국 주요 경제 지표 발표 내용과 미국 증시(S&P500, Nasdaq)의 흐름과 등락율을 요약해줘.
   주요 이벤트가 있었다면 그것이 시장에 미친 영향도 포함해줘.

2. 구글 검색을 통해 가장 최근 날짜의 은행 고시 기준 한국 원화 환율을 알려줘.
`

// Prompt is a named query template. SectionTitle, when set, replaces the
// configured heading of the appended report section.
type Prompt struct {
	Name         string `yaml:"name"`
	SectionTitle string `yaml:"section_title"`
	Text         string `yaml:"prompt"`
}

// Default returns the built-in market prompt
func Default() *Prompt {
	return &Prompt{
		Name: "weekly-market",
		Text: DefaultMarketPrompt,
	}
}

// Load reads a YAML prompt file. An empty path returns the default prompt.
func Load(path string) (*Prompt, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", path, err)
	}

	var p Prompt
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", path, err)
	}
	if strings.TrimSpace(p.Text) == "" {
		return nil, fmt.Errorf("prompt file %s has no prompt text", path)
	}
	if p.Name == "" {
		base := filepath.Base(path)
		p.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return &p, nil
}

// Render substitutes the run date into the prompt text
func (p *Prompt) Render(now time.Time) string {
	return strings.ReplaceAll(p.Text, DatePlaceholder, now.Format("2006-01-02"))
}

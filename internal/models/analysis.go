package models

import "time"

// Source is a web page the model cited through search grounding
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Analysis is the model output that becomes a report body
type Analysis struct {
	Text          string    `json:"text"`
	Sources       []Source  `json:"sources,omitempty"`
	SearchQueries []string  `json:"search_queries,omitempty"`
	Provider      string    `json:"provider"`
	Model         string    `json:"model"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// UniqueSources returns Sources with duplicate URIs removed, first occurrence wins
func (a *Analysis) UniqueSources() []Source {
	if a == nil {
		return nil
	}
	seen := make(map[string]bool, len(a.Sources))
	var out []Source
	for _, s := range a.Sources {
		if s.URI == "" || seen[s.URI] {
			continue
		}
		seen[s.URI] = true
		out = append(out, s)
	}
	return out
}

// PublishResult describes a completed publish
type PublishResult struct {
	DocumentID     string `json:"document_id"`
	URL            string `json:"url"`
	Created        bool   `json:"created"`
	InsertionIndex int    `json:"insertion_index"`
}

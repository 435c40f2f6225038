package interfaces

import (
	"context"

	"github.com/ternarybob/briefdoc/internal/models"
)

// MarketAnalyst asks a generative model for a market summary.
type MarketAnalyst interface {
	// Analyze sends the prompt and returns the model text with any grounding sources.
	Analyze(ctx context.Context, prompt string) (*models.Analysis, error)

	// Provider names the backing model provider ("gemini", "claude").
	Provider() string

	// Close releases client resources.
	Close() error
}

// ReportPublisher appends a report body to the named document, creating it when missing.
type ReportPublisher interface {
	Publish(ctx context.Context, title, body string) (*models.PublishResult, error)
}

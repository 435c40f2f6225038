package report

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/briefdoc/internal/common"
	"github.com/ternarybob/briefdoc/internal/interfaces"
)

// Creator makes new blank report documents
type Creator struct {
	store  interfaces.DocumentStore
	logger arbor.ILogger
}

// NewCreator creates a creator over the given store
func NewCreator(store interfaces.DocumentStore, logger arbor.ILogger) *Creator {
	return &Creator{store: store, logger: logger}
}

// Create makes a blank document titled title and returns its id
func (c *Creator) Create(ctx context.Context, title string) (string, error) {
	if title == "" {
		return "", ErrEmptyTitle
	}

	id, err := c.store.CreateDocument(ctx, title)
	if err != nil {
		c.logger.Error().
			Str("title", title).
			Str("error_class", common.ClassifyRemoteError(err)).
			Err(err).
			Msg("Document creation failed")
		return "", fmt.Errorf("failed to create document %q: %w", title, err)
	}
	if id == "" {
		return "", fmt.Errorf("failed to create document %q: store returned an empty id", title)
	}

	c.logger.Info().Str("document_id", id).Str("title", title).Msg("Report document created")
	return id, nil
}

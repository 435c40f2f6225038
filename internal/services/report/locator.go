// Package report appends timestamped report sections to a Google Doc,
// creating the document the first time a title is used.
package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/briefdoc/internal/common"
	"github.com/ternarybob/briefdoc/internal/interfaces"
	"github.com/ternarybob/briefdoc/internal/models"
)

// ErrEmptyTitle is returned when a lookup or create is attempted without a title
var ErrEmptyTitle = errors.New("document title is required")

// Locator finds an existing, non-trashed Google Doc by exact title
type Locator struct {
	store  interfaces.DocumentStore
	logger arbor.ILogger
}

// NewLocator creates a locator over the given store
func NewLocator(store interfaces.DocumentStore, logger arbor.ILogger) *Locator {
	return &Locator{store: store, logger: logger}
}

// Find returns the id of the first matching document. A missing document is
// reported with found == false and a nil error.
func (l *Locator) Find(ctx context.Context, title string) (string, bool, error) {
	if title == "" {
		return "", false, ErrEmptyTitle
	}

	l.logger.Info().Str("title", title).Msg("Searching Drive for report document")

	query := models.FileQuery{
		Name:     title,
		MimeType: models.GoogleDocMimeType,
	}
	files, err := l.store.ListFiles(ctx, query)
	if err != nil {
		l.logger.Error().
			Str("title", title).
			Str("error_class", common.ClassifyRemoteError(err)).
			Err(err).
			Msg("Document search failed")
		return "", false, fmt.Errorf("failed to search for document %q: %w", title, err)
	}

	// Drive's name operator is not case-sensitive; apply the exact filter again
	for _, f := range files {
		if query.Matches(f) {
			l.logger.Info().Str("document_id", f.ID).Msg("Report document found")
			return f.ID, true, nil
		}
	}

	l.logger.Info().Str("title", title).Msg("Report document not found")
	return "", false, nil
}

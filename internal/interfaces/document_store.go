// Package interfaces provides service interfaces for dependency injection.
package interfaces

import (
	"context"

	"github.com/ternarybob/briefdoc/internal/models"
)

// DocumentStore is the remote file and document API the report services talk to.
// Google Drive answers ListFiles; Google Docs answers the rest.
type DocumentStore interface {
	// ListFiles returns files matching the query in the store's own order.
	ListFiles(ctx context.Context, query models.FileQuery) ([]models.FileRef, error)

	// CreateDocument creates a blank document and returns its id.
	CreateDocument(ctx context.Context, title string) (string, error)

	// GetDocument reads the document structure.
	GetDocument(ctx context.Context, documentID string) (*models.Document, error)

	// BatchUpdate applies all requests atomically, in order.
	BatchUpdate(ctx context.Context, documentID string, requests []models.EditRequest) error
}

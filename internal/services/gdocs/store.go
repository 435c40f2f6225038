// Package gdocs implements the document store over Google Drive v3 and Google Docs v1.
package gdocs

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/briefdoc/internal/interfaces"
	"github.com/ternarybob/briefdoc/internal/models"
	"golang.org/x/time/rate"
	docs "google.golang.org/api/docs/v1"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	// DefaultRequestsPerSecond paces calls well under the Docs write quota (60/min/user)
	DefaultRequestsPerSecond = 1.0

	// listPageSize is the files.list page size; every page is read so an exact match
	// listed after many case variants is still found
	listPageSize = 100
)

// Store talks to Drive for lookups and Docs for reads and edits.
type Store struct {
	docs    *docs.Service
	drive   *drive.Service
	limiter *rate.Limiter
	logger  arbor.ILogger
}

var _ interfaces.DocumentStore = (*Store)(nil)

type storeOptions struct {
	docsEndpoint  string
	driveEndpoint string
	rps           float64
	logger        arbor.ILogger
}

// StoreOption configures the Store.
type StoreOption func(*storeOptions)

// WithDocsEndpoint overrides the Docs API base URL (tests, proxies)
func WithDocsEndpoint(endpoint string) StoreOption {
	return func(o *storeOptions) {
		o.docsEndpoint = endpoint
	}
}

// WithDriveEndpoint overrides the Drive API base URL (tests, proxies)
func WithDriveEndpoint(endpoint string) StoreOption {
	return func(o *storeOptions) {
		o.driveEndpoint = endpoint
	}
}

// WithRateLimit sets how many API calls per second the store may issue
func WithRateLimit(requestsPerSecond float64) StoreOption {
	return func(o *storeOptions) {
		if requestsPerSecond > 0 {
			o.rps = requestsPerSecond
		}
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) StoreOption {
	return func(o *storeOptions) {
		o.logger = logger
	}
}

// NewStore creates Docs and Drive services sharing the authorized client
func NewStore(ctx context.Context, httpClient *http.Client, opts ...StoreOption) (*Store, error) {
	o := &storeOptions{
		rps:    DefaultRequestsPerSecond,
		logger: arbor.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}

	docsOpts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if o.docsEndpoint != "" {
		docsOpts = append(docsOpts, option.WithEndpoint(o.docsEndpoint))
	}
	docsService, err := docs.NewService(ctx, docsOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Docs service: %w", err)
	}

	driveOpts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if o.driveEndpoint != "" {
		driveOpts = append(driveOpts, option.WithEndpoint(o.driveEndpoint))
	}
	driveService, err := drive.NewService(ctx, driveOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive service: %w", err)
	}

	return &Store{
		docs:    docsService,
		drive:   driveService,
		limiter: rate.NewLimiter(rate.Limit(o.rps), 1),
		logger:  o.logger,
	}, nil
}

// wait blocks until the limiter admits another call
func (s *Store) wait(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// ListFiles runs a Drive files.list with the rendered query
func (s *Store) ListFiles(ctx context.Context, query models.FileQuery) ([]models.FileRef, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	q := query.String()
	s.logger.Debug().Str("q", q).Msg("Drive files.list")

	var files []models.FileRef
	err := s.drive.Files.List().
		Q(q).
		Spaces("drive").
		PageSize(listPageSize).
		Fields("nextPageToken, files(id, name, mimeType, trashed)").
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				files = append(files, models.FileRef{
					ID:       f.Id,
					Name:     f.Name,
					MimeType: f.MimeType,
					Trashed:  f.Trashed,
				})
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("drive files.list failed: %w", err)
	}

	return files, nil
}

// CreateDocument creates a blank Google Doc
func (s *Store) CreateDocument(ctx context.Context, title string) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}

	s.logger.Debug().Str("title", title).Msg("Docs documents.create")

	doc, err := s.docs.Documents.Create(&docs.Document{Title: title}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("docs documents.create failed: %w", err)
	}
	return doc.DocumentId, nil
}

// GetDocument reads the body structure of a document
func (s *Store) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.logger.Debug().Str("document_id", documentID).Msg("Docs documents.get")

	doc, err := s.docs.Documents.Get(documentID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("docs documents.get failed: %w", err)
	}

	result := &models.Document{
		ID:    doc.DocumentId,
		Title: doc.Title,
	}
	if doc.Body != nil {
		for _, el := range doc.Body.Content {
			if el == nil {
				continue
			}
			result.Content = append(result.Content, models.StructuralElement{
				StartIndex: int(el.StartIndex),
				EndIndex:   int(el.EndIndex),
			})
		}
	}
	return result, nil
}

// BatchUpdate sends all requests in one documents.batchUpdate call
func (s *Store) BatchUpdate(ctx context.Context, documentID string, requests []models.EditRequest) error {
	if len(requests) == 0 {
		return nil
	}
	if err := s.wait(ctx); err != nil {
		return err
	}

	apiRequests, err := toAPIRequests(requests)
	if err != nil {
		return err
	}

	s.logger.Debug().
		Str("document_id", documentID).
		Int("request_count", len(apiRequests)).
		Msg("Docs documents.batchUpdate")

	_, err = s.docs.Documents.BatchUpdate(documentID, &docs.BatchUpdateDocumentRequest{
		Requests: apiRequests,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("docs documents.batchUpdate failed: %w", err)
	}
	return nil
}

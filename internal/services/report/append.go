package report

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/briefdoc/internal/common"
	"github.com/ternarybob/briefdoc/internal/interfaces"
	"github.com/ternarybob/briefdoc/internal/models"
)

// DefaultTitleFontSize is the point size applied to section title lines
const DefaultTitleFontSize = 16.0

// AppendEngine writes one report section at the end of a document
type AppendEngine struct {
	store          interfaces.DocumentStore
	logger         arbor.ILogger
	now            func() time.Time
	separatorWidth int
	titleFontSize  float64
}

// AppendOption configures the AppendEngine.
type AppendOption func(*AppendEngine)

// WithClock replaces time.Now as the section timestamp source
func WithClock(now func() time.Time) AppendOption {
	return func(e *AppendEngine) {
		e.now = now
	}
}

// WithSeparatorWidth sets the dash count of the separator line
func WithSeparatorWidth(width int) AppendOption {
	return func(e *AppendEngine) {
		if width > 0 {
			e.separatorWidth = width
		}
	}
}

// WithTitleFontSize sets the point size of the styled title line
func WithTitleFontSize(size float64) AppendOption {
	return func(e *AppendEngine) {
		if size > 0 {
			e.titleFontSize = size
		}
	}
}

// NewAppendEngine creates an append engine over the given store
func NewAppendEngine(store interfaces.DocumentStore, logger arbor.ILogger, opts ...AppendOption) *AppendEngine {
	e := &AppendEngine{
		store:          store,
		logger:         logger,
		now:            time.Now,
		separatorWidth: models.DefaultSeparatorWidth,
		titleFontSize:  DefaultTitleFontSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Append reads the document's current end, then inserts the rendered section and
// styles its title line in one batch. Calling it twice adds two sections.
func (e *AppendEngine) Append(ctx context.Context, documentID, sectionTitle, body string) error {
	_, err := e.append(ctx, documentID, sectionTitle, body)
	return err
}

func (e *AppendEngine) append(ctx context.Context, documentID, sectionTitle, body string) (*models.InsertionPlan, error) {
	doc, err := e.store.GetDocument(ctx, documentID)
	if err != nil {
		e.logger.Error().
			Str("document_id", documentID).
			Str("error_class", common.ClassifyRemoteError(err)).
			Err(err).
			Msg("Document update failed: could not read document")
		return nil, fmt.Errorf("failed to read document %s: %w", documentID, err)
	}

	section := models.NewReportSection(e.now().Truncate(time.Second), sectionTitle, body, e.separatorWidth)
	plan := models.PlanInsertion(doc.EndIndex(), section)

	e.logger.Debug().
		Str("document_id", documentID).
		Int("end_index", doc.EndIndex()).
		Int("insertion_index", plan.InsertionIndex).
		Int("style_start", plan.StyleStart).
		Int("style_end", plan.StyleEnd).
		Msg("Computed insertion plan")

	requests := models.BuildEditRequests(plan, e.titleFontSize)
	if err := e.store.BatchUpdate(ctx, documentID, requests); err != nil {
		e.logger.Error().
			Str("document_id", documentID).
			Str("error_class", common.ClassifyRemoteError(err)).
			Err(err).
			Msg("Document update failed: batch update rejected")
		return nil, fmt.Errorf("failed to update document %s: %w", documentID, err)
	}

	e.logger.Info().
		Str("document_id", documentID).
		Int("insertion_index", plan.InsertionIndex).
		Msg("Document updated, section appended at end")
	return &plan, nil
}

package report

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/briefdoc/internal/interfaces"
	"github.com/ternarybob/briefdoc/internal/models"
)

// Publisher runs locate-or-create, then append.
// The first failing step ends the call; nothing is retried.
type Publisher struct {
	locator *Locator
	creator *Creator
	engine  *AppendEngine
	logger  arbor.ILogger
}

var _ interfaces.ReportPublisher = (*Publisher)(nil)

// NewPublisher wires the three steps together
func NewPublisher(locator *Locator, creator *Creator, engine *AppendEngine, logger arbor.ILogger) *Publisher {
	return &Publisher{
		locator: locator,
		creator: creator,
		engine:  engine,
		logger:  logger,
	}
}

// NewStorePublisher builds a Publisher whose steps share one store
func NewStorePublisher(store interfaces.DocumentStore, logger arbor.ILogger, opts ...AppendOption) *Publisher {
	return NewPublisher(
		NewLocator(store, logger),
		NewCreator(store, logger),
		NewAppendEngine(store, logger, opts...),
		logger,
	)
}

// Publish appends body under a section titled title to the document titled title
func (p *Publisher) Publish(ctx context.Context, title, body string) (*models.PublishResult, error) {
	return p.PublishSection(ctx, title, title, body)
}

// PublishSection is Publish with a section heading that differs from the document title
func (p *Publisher) PublishSection(ctx context.Context, documentTitle, sectionTitle, body string) (*models.PublishResult, error) {
	documentID, found, err := p.locator.Find(ctx, documentTitle)
	if err != nil {
		return nil, err
	}

	result := &models.PublishResult{}
	if !found {
		documentID, err = p.creator.Create(ctx, documentTitle)
		if err != nil {
			return nil, err
		}
		result.Created = true
	}

	plan, err := p.engine.append(ctx, documentID, sectionTitle, body)
	if err != nil {
		return nil, fmt.Errorf("report not saved: %w", err)
	}

	result.DocumentID = documentID
	result.URL = models.DocumentURL(documentID)
	result.InsertionIndex = plan.InsertionIndex

	p.logger.Info().
		Str("document_id", documentID).
		Str("url", result.URL).
		Bool("created", result.Created).
		Msg("Report published")

	return result, nil
}

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/briefdoc/internal/common"
	"github.com/ternarybob/briefdoc/internal/interfaces"
	"github.com/ternarybob/briefdoc/internal/models"
	"github.com/ternarybob/briefdoc/internal/services/auth"
	"github.com/ternarybob/briefdoc/internal/services/gdocs"
	"github.com/ternarybob/briefdoc/internal/services/llm"
	"github.com/ternarybob/briefdoc/internal/services/markdown"
	"github.com/ternarybob/briefdoc/internal/services/prompts"
	"github.com/ternarybob/briefdoc/internal/services/report"
)

const consoleRule = "=================================================="

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Credentials interfaces.CredentialProvider
	Store       interfaces.DocumentStore
	Publisher   *report.Publisher
	Flattener   *markdown.Flattener
	Prompt      *prompts.Prompt

	analyst interfaces.MarketAnalyst
	model   string
	out     io.Writer
	clock   func() time.Time
}

// Option customises App construction
type Option func(*App)

// WithStore injects a document store instead of building the Google one
func WithStore(store interfaces.DocumentStore) Option {
	return func(a *App) { a.Store = store }
}

// WithAnalyst injects a market analyst instead of building one from config
func WithAnalyst(analyst interfaces.MarketAnalyst) Option {
	return func(a *App) { a.analyst = analyst }
}

// WithModel overrides the model (and possibly provider) used for analysis
func WithModel(model string) Option {
	return func(a *App) { a.model = model }
}

// WithOutput redirects console output (default os.Stdout)
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

// WithClock sets the time source for prompts and report timestamps
func WithClock(clock func() time.Time) Option {
	return func(a *App) { a.clock = clock }
}

// New initializes the application with all dependencies.
// The analyst and the document store are built lazily: commands that never query a
// model need no API key, and commands that never write need no Google credentials.
func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger, opts ...Option) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
		out:    os.Stdout,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	prompt, err := prompts.Load(common.ExpandPath(cfg.Report.PromptFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt: %w", err)
	}
	a.Prompt = prompt

	a.Flattener = markdown.NewFlattener(logger)

	logger.Debug().
		Str("document_title", cfg.Report.DocumentTitle).
		Str("prompt", prompt.Name).
		Msg("Application initialization complete")

	return a, nil
}

// initStore authorizes against Google and builds the Docs/Drive store
func (a *App) initStore(ctx context.Context) error {
	provider, err := auth.NewProvider(&a.Config.Google, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize credentials: %w", err)
	}
	a.Credentials = provider

	httpClient, err := provider.HTTPClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to authorize with Google (%s): %w", provider.Name(), err)
	}
	httpClient.Timeout = parseDuration(a.Config.Google.RequestTimeout, 60*time.Second)

	store, err := gdocs.NewStore(ctx, httpClient,
		gdocs.WithRateLimit(a.Config.Google.RequestsPerSecond),
		gdocs.WithLogger(a.Logger),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize document store: %w", err)
	}
	a.Store = store

	a.Logger.Info().
		Str("credentials", provider.Name()).
		Msg("Google Docs store ready")
	return nil
}

// ReportPublisher returns the document publisher, authorizing against Google on first use
func (a *App) ReportPublisher(ctx context.Context) (*report.Publisher, error) {
	if a.Publisher != nil {
		return a.Publisher, nil
	}
	if a.Store == nil {
		if err := a.initStore(ctx); err != nil {
			return nil, err
		}
	}
	a.Publisher = report.NewStorePublisher(
		a.Store,
		a.Logger,
		report.WithClock(a.clock),
		report.WithSeparatorWidth(a.Config.Report.SeparatorWidth),
		report.WithTitleFontSize(a.Config.Report.TitleFontSize),
	)
	return a.Publisher, nil
}

// Analyst returns the configured market analyst, building it on first use
func (a *App) Analyst() (interfaces.MarketAnalyst, error) {
	if a.analyst != nil {
		return a.analyst, nil
	}
	analyst, err := llm.NewAnalyst(a.Config, a.model, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize market analyst: %w", err)
	}
	a.analyst = analyst
	return analyst, nil
}

// BriefResult is the outcome of one query-and-publish run
type BriefResult struct {
	Analysis *models.Analysis
	Publish  *models.PublishResult
}

// RunBrief queries the model with the configured prompt, prints the analysis and
// appends it to the report document. A save failure still returns the analysis.
func (a *App) RunBrief(ctx context.Context) (*BriefResult, error) {
	logger := a.Logger.WithCorrelationId(uuid.New().String())
	result := &BriefResult{}

	fmt.Fprintln(a.out, "Searching for the latest market news...")

	analysis, err := a.analyze(ctx, a.Prompt.Render(a.clock()))
	if err != nil {
		logger.Error().Err(err).Msg("Market analysis failed")
		return result, err
	}
	result.Analysis = analysis

	a.printAnalysis(analysis)

	body, err := a.reportBody(analysis)
	if err != nil {
		return result, err
	}

	published, err := a.publish(ctx, body)
	if err != nil {
		logger.Error().Err(err).Msg("Report generated but saving to Google Docs failed")
		fmt.Fprintln(a.out, "\nReport generated, but saving to Google Docs failed.")
		a.printSources(analysis)
		return result, err
	}
	result.Publish = published

	logger.Info().
		Str("document_id", published.DocumentID).
		Bool("created", published.Created).
		Msg("Brief run complete")

	fmt.Fprintln(a.out, "\nReport generated and appended to Google Docs.")
	fmt.Fprintf(a.out, "Document: %s\n", published.URL)
	a.printSources(analysis)

	return result, nil
}

// Query asks the model without touching the document
func (a *App) Query(ctx context.Context, prompt string) (*models.Analysis, error) {
	if strings.TrimSpace(prompt) == "" {
		prompt = a.Prompt.Render(a.clock())
	}

	analysis, err := a.analyze(ctx, prompt)
	if err != nil {
		return nil, err
	}

	a.printAnalysis(analysis)
	a.printSources(analysis)
	return analysis, nil
}

// PublishText appends body to the report document without querying a model
func (a *App) PublishText(ctx context.Context, body string) (*models.PublishResult, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("nothing to publish: body is empty")
	}

	published, err := a.publish(ctx, body)
	if err != nil {
		fmt.Fprintln(a.out, "Saving to Google Docs failed.")
		return nil, err
	}

	fmt.Fprintln(a.out, "Text appended to Google Docs.")
	fmt.Fprintf(a.out, "Document: %s\n", published.URL)
	return published, nil
}

// Close releases the analyst client
func (a *App) Close() error {
	if a.analyst != nil {
		if err := a.analyst.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close market analyst")
			return err
		}
	}
	return nil
}

func (a *App) analyze(ctx context.Context, prompt string) (*models.Analysis, error) {
	analyst, err := a.Analyst()
	if err != nil {
		return nil, err
	}
	return analyst.Analyze(ctx, prompt)
}

func (a *App) publish(ctx context.Context, body string) (*models.PublishResult, error) {
	publisher, err := a.ReportPublisher(ctx)
	if err != nil {
		return nil, err
	}
	return publisher.PublishSection(ctx, a.Config.Report.DocumentTitle, a.sectionTitle(), body)
}

// sectionTitle prefers the prompt's own heading over the configured one
func (a *App) sectionTitle() string {
	if a.Prompt != nil && a.Prompt.SectionTitle != "" {
		return a.Prompt.SectionTitle
	}
	return a.Config.SectionTitle()
}

// reportBody applies the plain-text and source-listing options to the model text
func (a *App) reportBody(analysis *models.Analysis) (string, error) {
	body := analysis.Text
	if a.Config.Report.PlainText {
		flat, err := a.Flattener.Flatten(body)
		if err != nil {
			return "", err
		}
		body = flat
	}

	if a.Config.Report.IncludeSources {
		if sources := analysis.UniqueSources(); len(sources) > 0 {
			var b strings.Builder
			b.WriteString(strings.TrimRight(body, "\n"))
			b.WriteString("\n\nSources:\n")
			for _, s := range sources {
				fmt.Fprintf(&b, "- %s: %s\n", s.Title, s.URI)
			}
			body = strings.TrimRight(b.String(), "\n")
		}
	}

	return body, nil
}

func (a *App) printAnalysis(analysis *models.Analysis) {
	fmt.Fprintln(a.out, "\n"+consoleRule)
	fmt.Fprintf(a.out, " [Market Report by %s / %s]\n", analysis.Provider, analysis.Model)
	fmt.Fprintln(a.out, consoleRule)
	fmt.Fprintln(a.out, analysis.Text)
	fmt.Fprintln(a.out, consoleRule)
}

func (a *App) printSources(analysis *models.Analysis) {
	sources := analysis.UniqueSources()
	if len(sources) == 0 {
		return
	}
	fmt.Fprintln(a.out, "\nReferenced websites:")
	for _, s := range sources {
		fmt.Fprintf(a.out, "- %s: %s\n", s.Title, s.URI)
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

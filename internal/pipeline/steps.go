package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/reviewscan/internal/model"
	"github.com/nao1215/reviewscan/internal/report"
	"github.com/nao1215/reviewscan/internal/scraper"
)

// Scraper collects review records for a search request.
// *scraper.Scraper implements it.
type Scraper interface {
	Scrape(ctx context.Context, req model.SearchRequest) ([]model.ReviewRecord, scraper.Stats)
}

// Analyzer scores review records. *analysis.Analyzer implements it.
type Analyzer interface {
	ScoreSentiment(reviews []model.ReviewRecord) []model.SentimentRecord
	ScoreEmotions(reviews []model.ReviewRecord) []model.EmotionRecord
}

// RunStore persists finished runs. *database.ResultDB implements it.
type RunStore interface {
	SaveRun(ctx context.Context, run *model.Run) (int64, error)
}

// ErrNilDependency is returned when a step is built without its collaborator.
var ErrNilDependency = errors.New("nil pipeline dependency")

// ScrapeStep fetches every result page and fills run.Reviews.
//
// Design decision: a cancelled scrape keeps the records collected so far
// on the run but still reports the cancellation, so the pipeline stops
// before any file is written.
type ScrapeStep struct {
	scraper Scraper
	now     func() time.Time
}

// ScrapeStepOption configures a ScrapeStep.
type ScrapeStepOption func(*ScrapeStep)

// WithClock sets the clock used to stamp run.FinishedAt.
func WithClock(now func() time.Time) ScrapeStepOption {
	return func(s *ScrapeStep) {
		s.now = now
	}
}

// NewScrapeStep creates a scraping step.
func NewScrapeStep(sc Scraper, opts ...ScrapeStepOption) *ScrapeStep {
	s := &ScrapeStep{
		scraper: sc,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ScrapeStep) Name() string {
	return "scrape"
}

// Do executes the scrape step.
func (s *ScrapeStep) Do(ctx context.Context, run *model.Run) error {
	if s.scraper == nil {
		return fmt.Errorf("%w: scraper", ErrNilDependency)
	}

	records, stats := s.scraper.Scrape(ctx, run.Request)
	run.Reviews = records
	run.PagesFetched = stats.PagesFetched
	run.PagesSkipped = stats.PagesSkipped
	run.FinishedAt = s.now()

	return ctx.Err()
}

// SentimentStep scores every review and fills run.Sentiments.
type SentimentStep struct {
	analyzer Analyzer
}

// NewSentimentStep creates a sentiment scoring step.
func NewSentimentStep(a Analyzer) *SentimentStep {
	return &SentimentStep{analyzer: a}
}

// Name returns the step name.
func (s *SentimentStep) Name() string {
	return "sentiment"
}

// Do executes the sentiment step.
func (s *SentimentStep) Do(_ context.Context, run *model.Run) error {
	if s.analyzer == nil {
		return fmt.Errorf("%w: analyzer", ErrNilDependency)
	}
	run.Sentiments = s.analyzer.ScoreSentiment(run.Reviews)
	return nil
}

// EmotionStep tags every review and fills run.Emotions.
type EmotionStep struct {
	analyzer Analyzer
}

// NewEmotionStep creates an emotion tagging step.
func NewEmotionStep(a Analyzer) *EmotionStep {
	return &EmotionStep{analyzer: a}
}

// Name returns the step name.
func (s *EmotionStep) Name() string {
	return "emotion"
}

// Do executes the emotion step.
func (s *EmotionStep) Do(_ context.Context, run *model.Run) error {
	if s.analyzer == nil {
		return fmt.Errorf("%w: analyzer", ErrNilDependency)
	}
	run.Emotions = s.analyzer.ScoreEmotions(run.Reviews)
	return nil
}

// FileStep writes the run to one output file and prints a confirmation.
// The sink-specific constructors below fix its kind and writer.
type FileStep struct {
	name     string
	kind     string
	path     string
	factory  report.WriterFactory
	progress io.Writer
}

// FileStepOption configures a FileStep.
type FileStepOption func(*FileStep)

// WithProgress sets where the confirmation line is printed.
func WithProgress(w io.Writer) FileStepOption {
	return func(s *FileStep) {
		s.progress = w
	}
}

func newFileStep(name, kind, path string, factory report.WriterFactory, opts []FileStepOption) *FileStep {
	s := &FileStep{
		name:     name,
		kind:     kind,
		path:     path,
		factory:  factory,
		progress: io.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSentimentCSVStep writes the sentiment CSV to path.
func NewSentimentCSVStep(path string, opts ...FileStepOption) *FileStep {
	return newFileStep("sentiment_csv", "Sentiment analysis", path, func(w io.Writer) report.Writer {
		return report.NewSentimentCSVWriter(w)
	}, opts)
}

// NewEmotionTextStep writes the emotion report to path.
func NewEmotionTextStep(path string, opts ...FileStepOption) *FileStep {
	return newFileStep("emotion_text", "Emotion analysis", path, func(w io.Writer) report.Writer {
		return report.NewEmotionTextWriter(w)
	}, opts)
}

// NewMarkdownStep writes the Markdown summary to path.
func NewMarkdownStep(path string, opts ...FileStepOption) *FileStep {
	return newFileStep("markdown", "Markdown summary", path, func(w io.Writer) report.Writer {
		return report.NewMarkdownWriter(w)
	}, opts)
}

// NewJSONStep writes the whole run as JSON to path.
func NewJSONStep(path, version string, opts ...FileStepOption) *FileStep {
	return newFileStep("json", "JSON", path, func(w io.Writer) report.Writer {
		return report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(version))
	}, opts)
}

// Name returns the step name.
func (s *FileStep) Name() string {
	return s.name
}

// Path returns the output file path.
func (s *FileStep) Path() string {
	return s.path
}

// Do writes the file. Write failures are fatal to the run.
func (s *FileStep) Do(_ context.Context, run *model.Run) error {
	if err := report.SaveFile(s.path, s.factory, run); err != nil {
		return fmt.Errorf("write %s: %w", strings.ToLower(s.kind), err)
	}
	run.OutputFiles = append(run.OutputFiles, s.path)
	fmt.Fprintf(s.progress, "%s results saved to %s\n", s.kind, s.path)
	return nil
}

// StoreStep saves the run to the result history.
type StoreStep struct {
	store    RunStore
	progress io.Writer
	logger   *slog.Logger
}

// StoreStepOption configures a StoreStep.
type StoreStepOption func(*StoreStep)

// WithStoreProgress sets where the confirmation line is printed.
func WithStoreProgress(w io.Writer) StoreStepOption {
	return func(s *StoreStep) {
		s.progress = w
	}
}

// WithStoreLogger sets a custom logger for the store step.
func WithStoreLogger(logger *slog.Logger) StoreStepOption {
	return func(s *StoreStep) {
		s.logger = logger
	}
}

// NewStoreStep creates a step that saves the run to store.
func NewStoreStep(store RunStore, opts ...StoreStepOption) *StoreStep {
	s := &StoreStep{
		store:    store,
		progress: io.Discard,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *StoreStep) Name() string {
	return "store"
}

// Do executes the store step.
func (s *StoreStep) Do(ctx context.Context, run *model.Run) error {
	if s.store == nil {
		return fmt.Errorf("%w: store", ErrNilDependency)
	}
	id, err := s.store.SaveRun(ctx, run)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	s.logger.Debug("run stored", "run_id", id, "reviews", len(run.Reviews))
	fmt.Fprintf(s.progress, "Run saved to history as #%d\n", id)
	return nil
}

// SummaryStep prints the terminal summary of the run and optionally
// saves the same text to a file.
type SummaryStep struct {
	output  io.Writer
	path    string
	verbose bool
}

// SummaryStepOption configures a SummaryStep.
type SummaryStepOption func(*SummaryStep)

// WithSummaryFile also writes the summary to path.
func WithSummaryFile(path string) SummaryStepOption {
	return func(s *SummaryStep) {
		s.path = path
	}
}

// WithSummaryVerbose lists output files and keeps empty sections.
func WithSummaryVerbose(verbose bool) SummaryStepOption {
	return func(s *SummaryStep) {
		s.verbose = verbose
	}
}

// NewSummaryStep creates a step that prints the run summary to w.
func NewSummaryStep(w io.Writer, opts ...SummaryStepOption) *SummaryStep {
	s := &SummaryStep{output: w}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *SummaryStep) Name() string {
	return "summary"
}

// Do executes the summary step.
func (s *SummaryStep) Do(_ context.Context, run *model.Run) error {
	opts := []report.SimpleWriterOption{
		report.WithVerbose(s.verbose),
		report.WithShowEmpty(s.verbose),
	}

	if s.path == "" {
		if _, err := report.NewSimpleWriter(s.output, opts...).Write(run); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		return nil
	}

	// The file is listed before writing so the verbose summary names it too.
	run.OutputFiles = append(run.OutputFiles, s.path)
	err := report.SaveFile(s.path, func(f io.Writer) report.Writer {
		return report.NewMultiWriter(
			report.NewSimpleWriter(s.output, opts...),
			report.NewSimpleWriter(f, opts...),
		)
	}, run)
	if err != nil {
		run.OutputFiles = run.OutputFiles[:len(run.OutputFiles)-1]
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

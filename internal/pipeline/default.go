package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nao1215/reviewscan/internal/config"
)

// Deps are the collaborators the standard pipeline is assembled from.
type Deps struct {
	// Scraper collects the reviews. Required.
	Scraper Scraper

	// Analyzer scores the reviews. Required.
	Analyzer Analyzer

	// Store receives the finished run when saving is enabled.
	Store RunStore

	// Progress receives the human-readable confirmation lines.
	Progress io.Writer

	// Logger is used by the pipeline and its steps.
	Logger *slog.Logger

	// Version is recorded in the JSON output.
	Version string

	// Now stamps the end of the scrape. Defaults to time.Now.
	Now func() time.Time
}

// Default assembles the standard pipeline:
// scrape, sentiment, emotion, sentiment CSV, emotion report, then the
// optional Markdown summary, JSON dump, history store and terminal summary.
func Default(cfg *config.Config, deps Deps) (*Pipeline, error) {
	if deps.Scraper == nil {
		return nil, fmt.Errorf("%w: scraper", ErrNilDependency)
	}
	if deps.Analyzer == nil {
		return nil, fmt.Errorf("%w: analyzer", ErrNilDependency)
	}
	if cfg.SaveToDB && deps.Store == nil {
		return nil, fmt.Errorf("%w: store", ErrNilDependency)
	}

	progress := deps.Progress
	if progress == nil {
		progress = io.Discard
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	out := cfg.Output
	withProgress := WithProgress(progress)

	p := New(WithLogger(logger))
	p.AddSteps(
		NewScrapeStep(deps.Scraper, WithClock(now)),
		NewSentimentStep(deps.Analyzer),
		NewEmotionStep(deps.Analyzer),
		NewSentimentCSVStep(out.Path(out.SentimentFile), withProgress),
		NewEmotionTextStep(out.Path(out.EmotionFile), withProgress),
	)
	if out.Markdown {
		p.AddStep(NewMarkdownStep(out.Path(out.MarkdownFile), withProgress))
	}
	if out.JSON {
		p.AddStep(NewJSONStep(out.Path(out.JSONFile), deps.Version, withProgress))
	}
	if cfg.SaveToDB {
		p.AddStep(NewStoreStep(deps.Store, WithStoreProgress(progress), WithStoreLogger(logger)))
	}
	if out.Summary || out.SummaryFile != "" {
		opts := []SummaryStepOption{WithSummaryVerbose(cfg.Verbose)}
		if out.SummaryFile != "" {
			opts = append(opts, WithSummaryFile(out.Path(out.SummaryFile)))
		}
		p.AddStep(NewSummaryStep(progress, opts...))
	}

	return p, nil
}

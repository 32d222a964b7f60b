package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/url"

	"github.com/nao1215/reviewscan/internal/backoff"
	"github.com/nao1215/reviewscan/internal/extract"
	"github.com/nao1215/reviewscan/internal/fetch"
	"github.com/nao1215/reviewscan/internal/model"
)

// Construction errors.
var (
	// ErrNilFetcher is returned when no PageFetcher is given.
	ErrNilFetcher = errors.New("scraper requires a page fetcher")

	// ErrNilExtractor is returned when no PageExtractor is given.
	ErrNilExtractor = errors.New("scraper requires a page extractor")

	// ErrInvalidBaseURL is returned when the search base URL is not an
	// absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid search base URL: expected absolute http(s) URL")
)

// PageFetcher retrieves one result page. *fetch.Fetcher implements it.
type PageFetcher interface {
	Fetch(ctx context.Context, page model.PageURL) fetch.Outcome
}

// PageExtractor pulls the entity name and reviews out of a page body.
// *extract.Extractor implements it.
type PageExtractor interface {
	Extract(body string) (entityName string, reviews []string)
}

// Stats summarizes a scrape.
type Stats struct {
	// PagesFetched is the number of pages that returned a body.
	PagesFetched int

	// PagesSkipped is the number of pages whose fetch was exhausted.
	PagesSkipped int

	// Reviews is the number of records produced.
	Reviews int
}

// Scraper expands search requests into pages and collects their reviews.
//
// Design decision: the base URL, pacing policy and collaborators are fixed
// at construction and never change for the lifetime of a Scraper, so two
// runs with the same request visit the same URLs with the same policy.
type Scraper struct {
	// fetcher retrieves page bodies.
	fetcher PageFetcher

	// extractor parses page bodies.
	extractor PageExtractor

	// baseURL is the site's search URL.
	baseURL string

	// pacing is the delay between consecutive pages.
	pacing backoff.Jitter

	// sleeper waits out the pacing delay.
	sleeper backoff.Sleeper

	// rng draws pacing delays. nil uses the package-level generator.
	rng *rand.Rand

	// progress receives human-readable per-page lines.
	progress io.Writer

	// logger receives structured records.
	logger *slog.Logger
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithBaseURL sets the site's search URL.
func WithBaseURL(u string) Option {
	return func(s *Scraper) {
		s.baseURL = u
	}
}

// WithPacing sets the delay drawn between pages.
func WithPacing(j backoff.Jitter) Option {
	return func(s *Scraper) {
		s.pacing = j
	}
}

// WithSleeper replaces the real-time sleeper.
func WithSleeper(sl backoff.Sleeper) Option {
	return func(s *Scraper) {
		s.sleeper = sl
	}
}

// WithRand sets the source used to draw pacing delays.
func WithRand(r *rand.Rand) Option {
	return func(s *Scraper) {
		s.rng = r
	}
}

// WithProgress sets the writer receiving per-page progress lines.
func WithProgress(w io.Writer) Option {
	return func(s *Scraper) {
		s.progress = w
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scraper) {
		s.logger = l
	}
}

// New creates a Scraper. It fails fast on missing collaborators or an
// invalid configuration.
func New(fetcher PageFetcher, extractor PageExtractor, opts ...Option) (*Scraper, error) {
	if fetcher == nil {
		return nil, ErrNilFetcher
	}
	if extractor == nil {
		return nil, ErrNilExtractor
	}

	s := &Scraper{
		fetcher:   fetcher,
		extractor: extractor,
		baseURL:   DefaultBaseURL,
		pacing:    backoff.DefaultPacing(),
		sleeper:   backoff.TimerSleeper{},
		progress:  io.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}

	u, err := url.Parse(s.baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, s.baseURL)
	}
	if err := s.pacing.Validate(); err != nil {
		return nil, fmt.Errorf("pacing: %w", err)
	}
	if s.sleeper == nil {
		s.sleeper = backoff.TimerSleeper{}
	}
	if s.progress == nil {
		s.progress = io.Discard
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Pages returns the URLs a request would visit.
func (s *Scraper) Pages(req model.SearchRequest) []model.PageURL {
	return BuildPageURLs(s.baseURL, req)
}

// Scrape visits every page of req in order and returns the reviews found,
// in page-then-document order.
//
// It never returns an error: exhausted pages are skipped and a canceled
// context ends the loop early with the records gathered so far.
func (s *Scraper) Scrape(ctx context.Context, req model.SearchRequest) ([]model.ReviewRecord, Stats) {
	pages := s.Pages(req)
	records := make([]model.ReviewRecord, 0)
	var stats Stats

	for i, page := range pages {
		if ctx.Err() != nil {
			s.logger.Warn("scrape interrupted", "next_page", page.Index, "error", ctx.Err())
			break
		}

		s.printf("Fetching URL: %s\n", page.Target)
		outcome := s.fetcher.Fetch(ctx, page)
		if outcome.OK() {
			name, reviews := s.extractor.Extract(outcome.Body)
			for _, text := range reviews {
				records = append(records, model.NewReviewRecord(name, text))
			}
			stats.PagesFetched++
			s.logger.Info("page scraped",
				"page", page.Index,
				"entity", name,
				"reviews", len(reviews))
		} else {
			stats.PagesSkipped++
			s.logger.Warn("page skipped",
				"page", page.Index,
				"target", page.Target,
				"attempts", outcome.Attempts,
				"reason", outcome.Reason.String())
			s.printf("Skipping page %d: no data after %d attempt(s)\n", page.Index+1, outcome.Attempts)
		}

		if i == len(pages)-1 {
			break
		}
		if err := s.pause(ctx); err != nil {
			s.logger.Warn("scrape interrupted during pacing", "error", err)
			break
		}
	}

	stats.Reviews = len(records)
	return records, stats
}

// pause waits one pacing delay before the next page.
func (s *Scraper) pause(ctx context.Context) error {
	d := s.pacing.Draw(s.rng)
	if d <= 0 {
		return ctx.Err()
	}
	s.logger.Debug("pacing before next page", "delay", d)
	return s.sleeper.Sleep(ctx, d)
}

func (s *Scraper) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.progress, format, args...)
}

var (
	_ PageFetcher   = (*fetch.Fetcher)(nil)
	_ PageExtractor = (*extract.Extractor)(nil)
)

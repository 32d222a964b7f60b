package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/reviewscan/internal/analysis"
	"github.com/nao1215/reviewscan/internal/backoff"
	"github.com/nao1215/reviewscan/internal/config"
	"github.com/nao1215/reviewscan/internal/database"
	"github.com/nao1215/reviewscan/internal/extract"
	"github.com/nao1215/reviewscan/internal/fetch"
	"github.com/nao1215/reviewscan/internal/lexicon"
	seclog "github.com/nao1215/reviewscan/internal/log"
	"github.com/nao1215/reviewscan/internal/model"
	"github.com/nao1215/reviewscan/internal/pipeline"
	"github.com/nao1215/reviewscan/internal/scraper"
)

// errInterrupted is returned when a run is stopped by a signal.
var errInterrupted = errors.New("interrupted: no output files were written")

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape [query words]",
		Short: "Scrape reviews for a search and analyze them",
		Long: `Scrape fetches the requested number of search result pages through the
forwarding proxy, extracts the restaurant name and reviews from each page,
scores every review and writes the results.

Throttled (403/429), failed (500) and unreachable requests are retried with
randomized delays. A page that still fails is skipped and the run continues.

Examples:
  # Search with the configured defaults
  reviewscan scrape

  # Search for pizza in Austin, two pages
  reviewscan scrape pizza --location "Austin, TX" --pages 2

  # Also write a Markdown summary and save the run to the history
  reviewscan scrape "thai food" -l "Seattle, WA" --markdown --save

  # Use a saved search from the configuration file
  reviewscan scrape --profile austin-pizza

The API key is read from --api-key, then the REVIEWSCAN_API_KEY environment
variable, then the configuration file.`,
		Args: cobra.ArbitraryArgs,
		RunE: runScrapeCmd,
	}

	// Search flags
	cmd.Flags().StringP("query", "q", "",
		"Search query (positional words are used when set)")
	cmd.Flags().StringP("location", "l", config.DefaultLocation,
		"Search location")
	cmd.Flags().IntP("pages", "n", config.DefaultNumPages,
		"Number of result pages to fetch")
	cmd.Flags().StringP("profile", "p", "",
		"Use a named search from the configuration file")

	// Proxy flags
	cmd.Flags().String("api-key", "",
		"Forwarding proxy API key")
	cmd.Flags().String("endpoint", fetch.DefaultEndpoint,
		"Forwarding proxy endpoint")
	cmd.Flags().String("country-code", fetch.DefaultCountryCode,
		"Proxy exit country (empty to omit)")
	cmd.Flags().String("base-url", scraper.DefaultBaseURL,
		"Search page the result URLs are built from")
	cmd.Flags().String("upstream-proxy", "",
		"Tunnel proxy requests through a SOCKS5 proxy (host:port)")
	cmd.Flags().DurationP("timeout", "t", fetch.DefaultTimeout,
		"Timeout for each proxied request")
	cmd.Flags().Int("max-attempts", backoff.DefaultMaxAttempts,
		"Attempts per page before it is skipped")
	cmd.Flags().Bool("keep-empty", false,
		"Keep review paragraphs with empty text")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .reviewscan or XDG config dir)")

	// Output flags
	cmd.Flags().StringP("output-dir", "o", "",
		"Directory for the output files")
	cmd.Flags().String("sentiment-file", "",
		"Sentiment CSV file name")
	cmd.Flags().String("emotion-file", "",
		"Emotion report file name")
	cmd.Flags().BoolP("markdown", "m", false,
		"Also write a Markdown summary")
	cmd.Flags().BoolP("json", "j", false,
		"Also write the whole run as JSON")
	cmd.Flags().Bool("summary", false,
		"Print a summary table when done")
	cmd.Flags().String("summary-file", "",
		"Also save the summary to this file (implies --summary)")
	cmd.Flags().BoolP("save", "s", false,
		"Save the run to the local history")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data dir)")

	return cmd
}

// runScrapeCmd executes the scrape command.
func runScrapeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := seclog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	// Cancel the run on SIGINT/SIGTERM; steps observe the context.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScrape(ctx, cfg, runEnv{
		stdout:  cmd.OutOrStdout(),
		logger:  logger,
		sleeper: backoff.TimerSleeper{},
		now:     time.Now,
	})
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig loads the configuration file and applies command line flags.
// Only flags the user actually set override file values.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if profile, _ := flags.GetString("profile"); profile != "" {
		if err := cfg.ApplyProfile(profile); err != nil {
			return nil, fmt.Errorf("configuration error: %w", err)
		}
	}

	if len(args) > 0 {
		cfg.Query = strings.Join(args, " ")
	} else if flags.Changed("query") {
		cfg.Query, _ = flags.GetString("query")
	}

	stringFlags := map[string]*string{
		"location":       &cfg.Location,
		"api-key":        &cfg.APIKey,
		"endpoint":       &cfg.Endpoint,
		"country-code":   &cfg.CountryCode,
		"base-url":       &cfg.BaseURL,
		"upstream-proxy": &cfg.UpstreamProxy,
		"output-dir":     &cfg.Output.Dir,
		"sentiment-file": &cfg.Output.SentimentFile,
		"emotion-file":   &cfg.Output.EmotionFile,
		"summary-file":   &cfg.Output.SummaryFile,
		"db-dir":         &cfg.DBDir,
	}
	for name, dst := range stringFlags {
		if flags.Changed(name) {
			if *dst, err = flags.GetString(name); err != nil {
				return nil, err
			}
		}
	}

	boolFlags := map[string]*bool{
		"keep-empty": &cfg.KeepEmptyReviews,
		"markdown":   &cfg.Output.Markdown,
		"json":       &cfg.Output.JSON,
		"summary":    &cfg.Output.Summary,
		"save":       &cfg.SaveToDB,
	}
	for name, dst := range boolFlags {
		if flags.Changed(name) {
			if *dst, err = flags.GetBool(name); err != nil {
				return nil, err
			}
		}
	}

	if flags.Changed("pages") {
		if cfg.NumPages, err = flags.GetInt("pages"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-attempts") {
		if cfg.Retry.MaxAttempts, err = flags.GetInt("max-attempts"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// runEnv carries the process-level collaborators of a run.
// Tests replace the sleeper and clock to run without waiting.
type runEnv struct {
	stdout  io.Writer
	logger  *slog.Logger
	sleeper backoff.Sleeper
	rand    *rand.Rand
	now     func() time.Time
}

// runScrape assembles the components from cfg and executes one run.
func runScrape(ctx context.Context, cfg *config.Config, rt runEnv) error {
	logger := rt.logger
	if logger == nil {
		logger = slog.Default()
	}

	req, err := model.NewSearchRequest(cfg.Query, cfg.Location, cfg.NumPages)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	sc, err := newScraper(cfg, rt, logger)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	analyzer, err := newAnalyzer(cfg.Lexicons)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	deps := pipeline.Deps{
		Scraper:  sc,
		Analyzer: analyzer,
		Progress: rt.stdout,
		Logger:   logger,
		Version:  getVersion(),
		Now:      rt.now,
	}

	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		deps.Store = db
	}

	p, err := pipeline.Default(cfg, deps)
	if err != nil {
		return err
	}

	logger.Info("starting run",
		"query", req.Query(),
		"location", req.Location(),
		"pages", req.PageCount(),
	)

	run := model.NewRun(req, rt.now())
	if err := p.Execute(ctx, run); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return errInterrupted
		}
		return err
	}

	logger.Info("run finished",
		"reviews", len(run.Reviews),
		"pages_fetched", run.PagesFetched,
		"pages_skipped", run.PagesSkipped,
	)
	return nil
}

// newScraper builds the fetcher, extractor and scraper from cfg.
func newScraper(cfg *config.Config, rt runEnv, logger *slog.Logger) (*scraper.Scraper, error) {
	fetchOpts := []fetch.Option{
		fetch.WithEndpoint(cfg.Endpoint),
		fetch.WithCountryCode(cfg.CountryCode),
		fetch.WithPolicy(cfg.Retry),
		fetch.WithSleeper(rt.sleeper),
		fetch.WithRand(rt.rand),
		fetch.WithProgress(rt.stdout),
		fetch.WithLogger(logger),
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithUpstreamProxy(cfg.UpstreamProxy),
	}
	if cfg.UserAgent != "" {
		fetchOpts = append(fetchOpts, fetch.WithUserAgent(cfg.UserAgent))
	}
	if cfg.MaxBodySize > 0 {
		fetchOpts = append(fetchOpts, fetch.WithMaxBodySize(cfg.MaxBodySize))
	}
	fetcher, err := fetch.New(cfg.APIKey, fetchOpts...)
	if err != nil {
		return nil, err
	}

	locator, err := extract.NewSelectorLocator(cfg.Selectors.Name, cfg.Selectors.Review)
	if err != nil {
		return nil, err
	}
	extractor := extract.New(
		extract.WithLocator(locator),
		extract.WithKeepEmpty(cfg.KeepEmptyReviews),
	)

	return scraper.New(fetcher, extractor,
		scraper.WithBaseURL(cfg.BaseURL),
		scraper.WithPacing(cfg.Pacing),
		scraper.WithSleeper(rt.sleeper),
		scraper.WithRand(rt.rand),
		scraper.WithProgress(rt.stdout),
		scraper.WithLogger(logger),
	)
}

// newAnalyzer builds the analyzer from the embedded or configured lexicons.
func newAnalyzer(paths config.Lexicons) (*analysis.Analyzer, error) {
	if paths.AFINN == "" && paths.NRC == "" {
		return analysis.NewDefault()
	}

	var (
		afinn *lexicon.AFINN
		nrc   *lexicon.NRC
		err   error
	)

	if paths.AFINN == "" {
		afinn, err = lexicon.NewAFINN()
	} else {
		afinn, err = loadLexicon(paths.AFINN, lexicon.LoadAFINN)
	}
	if err != nil {
		return nil, fmt.Errorf("AFINN lexicon: %w", err)
	}

	if paths.NRC == "" {
		nrc, err = lexicon.NewNRC()
	} else {
		nrc, err = loadLexicon(paths.NRC, lexicon.LoadNRC)
	}
	if err != nil {
		return nil, fmt.Errorf("NRC lexicon: %w", err)
	}

	return analysis.New(afinn, nrc)
}

// loadLexicon opens path and parses it with load.
func loadLexicon[T any](path string, load func(io.Reader) (T, error)) (T, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided lexicon path is intentional
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()
	return load(f)
}

package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/reviewscan/internal/backoff"
	"github.com/nao1215/reviewscan/internal/extract"
	"github.com/nao1215/reviewscan/internal/fetch"
	"github.com/nao1215/reviewscan/internal/report"
	"github.com/nao1215/reviewscan/internal/scraper"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "reviewscan"

	// EnvAPIKey is the environment variable holding the proxy API key.
	EnvAPIKey = "REVIEWSCAN_API_KEY"

	// DefaultLocation is searched when no location is given.
	DefaultLocation = "Boston, MA"

	// DefaultNumPages is the number of result pages fetched per run.
	DefaultNumPages = 3

	// DefaultQuery is searched when no query is given.
	DefaultQuery = "restaurants"
)

// Config holds all configuration options for reviewscan.
// It is populated from defaults, then the config file, then the
// environment, then CLI flags, and passed through the application
// rather than kept as global state.
//
// Design decision: retry and pacing reuse the backoff types directly so
// the file format and the runtime policy cannot drift apart. Output
// settings are grouped because they are always consumed together.
type Config struct {
	// APIKey is the forwarding proxy credential. Never logged.
	APIKey string `yaml:"api_key,omitempty"`

	// Query is the search term, e.g. "pizza".
	Query string `yaml:"search_query,omitempty"`

	// Location is the free-text search location, e.g. "Austin, TX".
	Location string `yaml:"location,omitempty"`

	// NumPages is the number of result pages to fetch.
	NumPages int `yaml:"num_pages,omitempty"`

	// Endpoint is the forwarding proxy URL.
	Endpoint string `yaml:"endpoint,omitempty"`

	// BaseURL is the search page the page URLs are built from.
	BaseURL string `yaml:"base_url,omitempty"`

	// CountryCode selects the proxy exit country. Empty omits the parameter.
	CountryCode string `yaml:"country_code,omitempty"`

	// UpstreamProxy is an optional SOCKS5 "host:port" the proxy requests
	// are tunneled through.
	UpstreamProxy string `yaml:"upstream_proxy,omitempty"`

	// UserAgent is sent with every proxy request.
	UserAgent string `yaml:"user_agent,omitempty"`

	// Timeout bounds a single proxied request.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// MaxBodySize limits how many response bytes are read. Zero uses the default.
	MaxBodySize int64 `yaml:"max_body_size,omitempty"`

	// Retry is the per-page retry policy.
	Retry backoff.Policy `yaml:"retry,omitempty"`

	// Pacing is the pause between result pages.
	Pacing backoff.Jitter `yaml:"pacing,omitempty"`

	// Selectors locate the entity name and review bodies in a page.
	Selectors Selectors `yaml:"selectors,omitempty"`

	// KeepEmptyReviews keeps review nodes whose text is empty.
	KeepEmptyReviews bool `yaml:"keep_empty_reviews,omitempty"`

	// Lexicons optionally replace the embedded word lists.
	Lexicons Lexicons `yaml:"lexicons,omitempty"`

	// Output controls which files are written and where.
	Output Output `yaml:"output,omitempty"`

	// SaveToDB stores every finished run in the SQLite history.
	SaveToDB bool `yaml:"save_to_db,omitempty"`

	// DBDir is the directory holding the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/reviewscan on Linux).
	DBDir string `yaml:"db_dir,omitempty"`

	// Profiles are named searches selectable with --profile.
	Profiles map[string]Profile `yaml:"profiles,omitempty"`

	// Verbose enables debug logging. Set from the command line only.
	Verbose bool `yaml:"-"`

	// ConfigFilePath is the file the configuration was loaded from, if any.
	ConfigFilePath string `yaml:"-"`
}

// Selectors are CSS selectors for the extraction anchors.
type Selectors struct {
	// Name matches the entity name heading.
	Name string `yaml:"name,omitempty"`

	// Review matches each review paragraph.
	Review string `yaml:"review,omitempty"`
}

// Lexicons are paths to replacement word lists. Empty paths use the
// embedded lists.
type Lexicons struct {
	// AFINN is a tab-separated "term<TAB>score" file.
	AFINN string `yaml:"afinn,omitempty"`

	// NRC is a tab-separated "word<TAB>tag,tag" file.
	NRC string `yaml:"nrc,omitempty"`
}

// Output lists the files a run writes.
type Output struct {
	// Dir is prepended to every relative output file name.
	Dir string `yaml:"dir,omitempty"`

	// SentimentFile is the sentiment CSV.
	SentimentFile string `yaml:"sentiment_file,omitempty"`

	// EmotionFile is the emotion text report.
	EmotionFile string `yaml:"emotion_file,omitempty"`

	// Markdown enables the Markdown summary.
	Markdown bool `yaml:"markdown,omitempty"`

	// MarkdownFile is the Markdown summary path.
	MarkdownFile string `yaml:"markdown_file,omitempty"`

	// JSON enables the JSON dump of the whole run.
	JSON bool `yaml:"json,omitempty"`

	// JSONFile is the JSON dump path.
	JSONFile string `yaml:"json_file,omitempty"`

	// Summary prints a terminal summary after the files are written.
	Summary bool `yaml:"summary,omitempty"`

	// SummaryFile also saves the summary text. Setting it enables Summary.
	SummaryFile string `yaml:"summary_file,omitempty"`
}

// Path resolves name against Dir. Absolute names are returned unchanged.
func (o Output) Path(name string) string {
	if o.Dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(o.Dir, name)
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (retry delays, endpoint,
// page count). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Query:       DefaultQuery,
		Location:    DefaultLocation,
		NumPages:    DefaultNumPages,
		Endpoint:    fetch.DefaultEndpoint,
		BaseURL:     scraper.DefaultBaseURL,
		CountryCode: fetch.DefaultCountryCode,
		UserAgent:   fetch.DefaultUserAgent,
		Timeout:     fetch.DefaultTimeout,
		MaxBodySize: fetch.DefaultMaxBodySize,
		Retry:       backoff.DefaultPolicy(),
		Pacing:      backoff.DefaultPacing(),
		Selectors: Selectors{
			Name:   extract.DefaultNameSelector,
			Review: extract.DefaultReviewSelector,
		},
		Output: Output{
			SentimentFile: report.DefaultSentimentFile,
			EmotionFile:   report.DefaultEmotionFile,
			MarkdownFile:  report.DefaultMarkdownFile,
			JSONFile:      report.DefaultJSONFile,
		},
		DBDir: XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for reviewscan.
// On Linux: ~/.local/share/reviewscan
// On macOS: ~/Library/Application Support/reviewscan
// On Windows: %LOCALAPPDATA%\reviewscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for reviewscan.
// On Linux: ~/.config/reviewscan
// On macOS: ~/Library/Application Support/reviewscan
// On Windows: %APPDATA%\reviewscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast before any request is sent.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}

	if strings.TrimSpace(c.Query) == "" {
		return ErrEmptyQuery
	}

	if c.NumPages < 1 {
		return ErrInvalidPageCount
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if !isHTTPURL(c.Endpoint) {
		return ErrInvalidEndpoint
	}

	if !isHTTPURL(c.BaseURL) {
		return ErrInvalidBaseURL
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if err := c.Retry.Validate(); err != nil {
		return err
	}

	if err := c.Pacing.Validate(); err != nil {
		return err
	}

	if c.Output.SentimentFile == "" || c.Output.EmotionFile == "" {
		return ErrNoOutputFile
	}
	if c.Output.Markdown && c.Output.MarkdownFile == "" {
		return ErrNoOutputFile
	}
	if c.Output.JSON && c.Output.JSONFile == "" {
		return ErrNoOutputFile
	}

	return nil
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

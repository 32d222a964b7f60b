package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nao1215/reviewscan/internal/backoff"
	"github.com/nao1215/reviewscan/internal/model"
)

const (
	// DefaultEndpoint is the ScraperAPI forwarding endpoint.
	DefaultEndpoint = "https://api.scraperapi.com/"

	// DefaultCountryCode asks the proxy to exit from US addresses.
	DefaultCountryCode = "us"

	// DefaultTimeout bounds a single proxied request. Proxy providers render
	// and retry on their side, so responses can take tens of seconds.
	DefaultTimeout = 70 * time.Second

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize int64 = 10 * 1024 * 1024

	// DefaultUserAgent is sent to the proxy endpoint.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"

	// drainLimit caps how much of a failed response is discarded before
	// the connection is returned to the pool.
	drainLimit = 64 * 1024
)

// Fetcher retrieves pages through the forwarding proxy, retrying according
// to its backoff.Policy.
//
// Design decision: the retry loop lives here rather than in resty's built-in
// retry support because each failure class has its own delay interval and
// every attempt must be reported to the progress writer. resty is configured
// with zero retries and used for exactly one request per attempt.
type Fetcher struct {
	// client issues the proxied requests.
	client *resty.Client

	// endpoint is the proxy endpoint URL without query parameters.
	endpoint string

	// apiKey is the proxy API key. It is never logged or printed.
	apiKey string

	// countryCode is passed to the proxy as country_code.
	countryCode string

	// policy bounds attempts and provides per-reason delays.
	policy backoff.Policy

	// sleeper waits out the backoff delays.
	sleeper backoff.Sleeper

	// rng draws jittered delays. nil uses the package-level generator.
	rng *rand.Rand

	// progress receives one human-readable line per attempt.
	progress io.Writer

	// logger receives structured attempt records.
	logger *slog.Logger

	// timeout bounds each request.
	timeout time.Duration

	// maxBodySize limits the bytes read from a successful response.
	maxBodySize int64

	// userAgent is sent with every request.
	userAgent string

	// upstreamProxy is an optional SOCKS5 address for outbound connections.
	upstreamProxy string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithEndpoint sets the proxy endpoint URL.
func WithEndpoint(endpoint string) Option {
	return func(f *Fetcher) {
		f.endpoint = endpoint
	}
}

// WithCountryCode sets the country_code sent to the proxy.
func WithCountryCode(cc string) Option {
	return func(f *Fetcher) {
		f.countryCode = cc
	}
}

// WithPolicy sets the retry policy.
func WithPolicy(p backoff.Policy) Option {
	return func(f *Fetcher) {
		f.policy = p
	}
}

// WithSleeper replaces the real-time sleeper. Tests use it to record
// delays instead of waiting.
func WithSleeper(s backoff.Sleeper) Option {
	return func(f *Fetcher) {
		f.sleeper = s
	}
}

// WithRand sets the source used to draw jittered delays.
func WithRand(r *rand.Rand) Option {
	return func(f *Fetcher) {
		f.rng = r
	}
}

// WithProgress sets the writer receiving per-attempt progress lines.
func WithProgress(w io.Writer) Option {
	return func(f *Fetcher) {
		f.progress = w
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxBodySize sets the maximum number of body bytes read per response.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithUpstreamProxy routes outbound connections through a SOCKS5 proxy
// given as "host:port". An empty address disables it.
func WithUpstreamProxy(addr string) Option {
	return func(f *Fetcher) {
		f.upstreamProxy = addr
	}
}

// New creates a Fetcher for the given proxy API key.
//
// It validates configuration only. No connection is made until Fetch.
func New(apiKey string, opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		endpoint:    DefaultEndpoint,
		apiKey:      strings.TrimSpace(apiKey),
		countryCode: DefaultCountryCode,
		policy:      backoff.DefaultPolicy(),
		sleeper:     backoff.TimerSleeper{},
		progress:    io.Discard,
		timeout:     DefaultTimeout,
		maxBodySize: DefaultMaxBodySize,
		userAgent:   DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	u, err := url.Parse(f.endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, f.endpoint)
	}
	if err := f.policy.Validate(); err != nil {
		return nil, fmt.Errorf("retry policy: %w", err)
	}
	if f.sleeper == nil {
		f.sleeper = backoff.TimerSleeper{}
	}
	if f.progress == nil {
		f.progress = io.Discard
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}

	client := resty.New()
	client.SetTimeout(f.timeout)
	client.SetRetryCount(0)
	client.SetHeader("User-Agent", f.userAgent)
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetLogger(restyLogger{logger: f.logger})
	if f.upstreamProxy != "" {
		transport, err := newSOCKS5Transport(f.upstreamProxy)
		if err != nil {
			return nil, err
		}
		client.SetTransport(transport)
	}
	f.client = client

	return f, nil
}

// Fetch retrieves one page. It returns a KindSuccess outcome with the body,
// or KindExhausted once every attempt has failed or ctx is done.
//
// No delay is slept after the final attempt.
func (f *Fetcher) Fetch(ctx context.Context, page model.PageURL) Outcome {
	target := page.String()
	last := Outcome{Kind: KindExhausted}

	for attempt := 1; attempt <= f.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			last.Err = err
			break
		}

		result := f.attempt(ctx, target)
		result.Attempts = attempt
		if result.OK() {
			f.logger.Debug("page fetched",
				"target", target,
				"attempt", attempt,
				"bytes", len(result.Body))
			f.printf("Success: fetched content for %s\n", target)
			return result
		}
		last = result
		last.Kind = KindExhausted

		f.logger.Debug("fetch attempt failed",
			"target", target,
			"attempt", attempt,
			"max_attempts", f.policy.MaxAttempts,
			"reason", result.Reason.String(),
			"status", result.StatusCode)

		if ctx.Err() != nil {
			last.Err = ctx.Err()
			break
		}

		if attempt == f.policy.MaxAttempts {
			f.report(target, result, 0, false)
			break
		}

		delay := f.delayFor(result.Reason).Draw(f.rng)
		f.report(target, result, delay, true)
		if delay <= 0 {
			continue
		}
		if err := f.sleeper.Sleep(ctx, delay); err != nil {
			last.Err = err
			break
		}
	}

	f.logger.Warn("page exhausted",
		"target", target,
		"attempts", last.Attempts,
		"reason", last.Reason.String())
	f.printf("Giving up on %s after %d attempt(s)\n", target, last.Attempts)
	return last
}

// attempt issues exactly one request and classifies the result.
func (f *Fetcher) attempt(ctx context.Context, target string) Outcome {
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(BuildProxyURL(f.endpoint, f.apiKey, target, f.countryCode))
	if err != nil {
		return Outcome{Kind: KindRetryable, Reason: ReasonTransport, Err: f.redact(err)}
	}

	body := resp.RawBody()
	defer body.Close()

	status := resp.StatusCode()
	if reason := classify(status); reason != ReasonNone {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, drainLimit))
		return Outcome{Kind: KindRetryable, Reason: reason, StatusCode: status}
	}

	data, err := io.ReadAll(io.LimitReader(body, f.maxBodySize+1))
	if err != nil {
		return Outcome{Kind: KindRetryable, Reason: ReasonTransport, StatusCode: status, Err: f.redact(err)}
	}
	if int64(len(data)) > f.maxBodySize {
		return Outcome{Kind: KindRetryable, Reason: ReasonTransport, StatusCode: status, Err: errBodyTooLarge}
	}
	return Success(string(data), 0)
}

// delayFor returns the jitter interval configured for a failure reason.
func (f *Fetcher) delayFor(r Reason) backoff.Jitter {
	switch r {
	case ReasonBlocked:
		return f.policy.Blocked
	case ReasonServerError:
		return f.policy.ServerError
	case ReasonTransport:
		return f.policy.Transport
	default:
		return f.policy.Unexpected
	}
}

// report writes the progress line for a failed attempt.
func (f *Fetcher) report(target string, o Outcome, delay time.Duration, retrying bool) {
	var msg string
	switch o.Reason {
	case ReasonBlocked:
		msg = fmt.Sprintf("Access denied (%d) for %s", o.StatusCode, target)
	case ReasonServerError:
		msg = fmt.Sprintf("Server error (%d) for %s", o.StatusCode, target)
	case ReasonTransport:
		msg = fmt.Sprintf("Error fetching %s: %v", target, o.Err)
	default:
		msg = fmt.Sprintf("Unexpected status code %d for %s", o.StatusCode, target)
	}
	switch {
	case !retrying:
		f.printf("%s\n", msg)
	case delay > 0:
		f.printf("%s, retrying in %s...\n", msg, delay.Round(100*time.Millisecond))
	default:
		f.printf("%s, retrying...\n", msg)
	}
}

func (f *Fetcher) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(f.progress, format, args...)
}

// redact strips the request URL, which carries the API key, from transport
// errors and masks any remaining occurrence of the key.
func (f *Fetcher) redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}
	if err == nil || f.apiKey == "" {
		return err
	}
	msg := err.Error()
	masked := strings.ReplaceAll(msg, f.apiKey, "***REDACTED***")
	masked = strings.ReplaceAll(masked, url.QueryEscape(f.apiKey), "***REDACTED***")
	if masked == msg {
		return err
	}
	return errors.New(masked)
}

// BuildProxyURL wraps target as the url parameter of the proxy endpoint.
// Parameters appear in the order api_key, url, country_code. An empty
// country code is omitted.
func BuildProxyURL(endpoint, apiKey, target, countryCode string) string {
	var b strings.Builder
	b.WriteString(endpoint)
	if strings.Contains(endpoint, "?") {
		b.WriteByte('&')
	} else {
		b.WriteByte('?')
	}
	b.WriteString("api_key=")
	b.WriteString(url.QueryEscape(apiKey))
	b.WriteString("&url=")
	b.WriteString(url.QueryEscape(target))
	if countryCode != "" {
		b.WriteString("&country_code=")
		b.WriteString(url.QueryEscape(countryCode))
	}
	return b.String()
}

// restyLogger forwards resty's internal messages to slog.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "http")
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "http")
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "http")
}

package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrMissingAPIKey is returned when no proxy API key is configured.
	// The key can come from the config file, --api-key or REVIEWSCAN_API_KEY.
	ErrMissingAPIKey = errors.New("missing API key: set api_key, --api-key or " + EnvAPIKey)

	// ErrEmptyQuery is returned when the search query is blank.
	ErrEmptyQuery = errors.New("empty search query")

	// ErrInvalidPageCount is returned when fewer than one page is requested.
	ErrInvalidPageCount = errors.New("invalid page count: must be at least 1")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidEndpoint is returned when the proxy endpoint is not an absolute URL.
	ErrInvalidEndpoint = errors.New("invalid proxy endpoint: must be an absolute http(s) URL")

	// ErrInvalidBaseURL is returned when the search base URL is not an absolute URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http(s) URL")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrNoOutputFile is returned when a required output file name is empty.
	ErrNoOutputFile = errors.New("output file name must not be empty")

	// ErrUnknownProfile is returned when a named profile is not defined.
	ErrUnknownProfile = errors.New("unknown profile")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)

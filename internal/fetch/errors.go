package fetch

import "errors"

// Configuration errors returned by New. A Fetcher that cannot be built
// must stop the run before any request is made.
var (
	// ErrMissingAPIKey is returned when no proxy API key is configured.
	ErrMissingAPIKey = errors.New("proxy API key is required")

	// ErrInvalidEndpoint is returned when the proxy endpoint is not an
	// absolute http(s) URL.
	ErrInvalidEndpoint = errors.New("invalid proxy endpoint: expected absolute http(s) URL")

	// ErrInvalidProxyAddress is returned when the upstream SOCKS5 address
	// is not in "host:port" form.
	ErrInvalidProxyAddress = errors.New("invalid upstream proxy address format: expected host:port")
)

// errBodyTooLarge marks a response that exceeded the body size limit.
// It is classified as a transport failure.
var errBodyTooLarge = errors.New("response body exceeds size limit")

package backoff

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidMaxAttempts is returned when a policy allows fewer than one attempt.
var ErrInvalidMaxAttempts = errors.New("invalid max attempts: must be at least 1")

// Default delays. They match what the upstream proxy provider tolerates
// without escalating blocks.
const (
	// DefaultMaxAttempts is the number of tries per page before giving up.
	DefaultMaxAttempts = 3

	// DefaultBlockedMin and DefaultBlockedMax bound the wait after 403/429.
	DefaultBlockedMin = 10 * time.Second
	DefaultBlockedMax = 20 * time.Second

	// DefaultServerErrorMin and DefaultServerErrorMax bound the wait after 500.
	DefaultServerErrorMin = 20 * time.Second
	DefaultServerErrorMax = 30 * time.Second

	// DefaultTransportMin and DefaultTransportMax bound the wait after a
	// connection-level failure.
	DefaultTransportMin = 5 * time.Second
	DefaultTransportMax = 10 * time.Second

	// DefaultPacingMin and DefaultPacingMax bound the pause between pages.
	DefaultPacingMin = 10 * time.Second
	DefaultPacingMax = 15 * time.Second
)

// Policy is the retry policy applied to each page fetch.
// Each retryable outcome has its own delay interval.
type Policy struct {
	// MaxAttempts bounds the number of requests per page.
	MaxAttempts int `yaml:"max_attempts"`

	// Blocked is the delay after HTTP 403 or 429.
	Blocked Jitter `yaml:"blocked"`

	// ServerError is the delay after HTTP 500.
	ServerError Jitter `yaml:"server_error"`

	// Transport is the delay after a connection, DNS or timeout failure.
	Transport Jitter `yaml:"transport"`

	// Unexpected is the delay after any other status code. Zero by default:
	// the attempt is consumed but the next one starts immediately.
	Unexpected Jitter `yaml:"unexpected"`
}

// DefaultPolicy returns the standard retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Blocked:     Between(DefaultBlockedMin, DefaultBlockedMax),
		ServerError: Between(DefaultServerErrorMin, DefaultServerErrorMax),
		Transport:   Between(DefaultTransportMin, DefaultTransportMax),
		Unexpected:  NoDelay(),
	}
}

// ImmediatePolicy returns a policy with the given attempt count and no delays.
func ImmediatePolicy(maxAttempts int) Policy {
	return Policy{MaxAttempts: maxAttempts}
}

// DefaultPacing returns the standard pause between result pages.
func DefaultPacing() Jitter {
	return Between(DefaultPacingMin, DefaultPacingMax)
}

// Validate checks the attempt count and every delay interval.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	for name, j := range map[string]Jitter{
		"blocked":      p.Blocked,
		"server_error": p.ServerError,
		"transport":    p.Transport,
		"unexpected":   p.Unexpected,
	} {
		if err := j.Validate(); err != nil {
			return fmt.Errorf("%s delay: %w", name, err)
		}
	}
	return nil
}

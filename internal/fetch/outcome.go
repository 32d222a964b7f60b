package fetch

import "fmt"

// Kind is the final state of a page fetch.
type Kind int

const (
	// KindSuccess means a 200 response was received and Body is set.
	KindSuccess Kind = iota

	// KindRetryable describes a single failed attempt. Fetch never returns
	// it; it appears in per-attempt progress and in Attempt results.
	KindRetryable

	// KindExhausted means every attempt failed, or the context ended first.
	KindExhausted
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRetryable:
		return "retryable"
	case KindExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Reason classifies why an attempt did not succeed.
type Reason int

const (
	// ReasonNone is used for successful attempts.
	ReasonNone Reason = iota

	// ReasonBlocked is HTTP 403 or 429 from the proxy or the target.
	ReasonBlocked

	// ReasonServerError is HTTP 500.
	ReasonServerError

	// ReasonUnexpectedStatus is any status other than 200, 403, 429 and 500.
	ReasonUnexpectedStatus

	// ReasonTransport is a connection, DNS, timeout or body read failure.
	ReasonTransport
)

// String returns the reason as used in logs: blocked, server_error,
// unexpected_status or transport_error.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonBlocked:
		return "blocked"
	case ReasonServerError:
		return "server_error"
	case ReasonUnexpectedStatus:
		return "unexpected_status"
	case ReasonTransport:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Outcome is the result of fetching one page. It is consumed immediately
// by the extractor and never persisted.
type Outcome struct {
	// Kind is KindSuccess or KindExhausted for values returned by Fetch.
	Kind Kind

	// Body is the response body. Only set on success.
	Body string

	// Reason is the classification of the last failed attempt.
	// ReasonNone on success, or when the context ended before any attempt.
	Reason Reason

	// StatusCode is the HTTP status of the last response, 0 if none arrived.
	StatusCode int

	// Attempts is the number of requests actually issued.
	Attempts int

	// Err is the last transport error or context error, if any.
	Err error
}

// Success builds a successful outcome.
func Success(body string, attempts int) Outcome {
	return Outcome{Kind: KindSuccess, Body: body, StatusCode: 200, Attempts: attempts}
}

// Exhausted builds an exhausted outcome. Mostly useful for test stubs.
func Exhausted(reason Reason, attempts int) Outcome {
	return Outcome{Kind: KindExhausted, Reason: reason, Attempts: attempts}
}

// OK reports whether the outcome carries a body.
func (o Outcome) OK() bool {
	return o.Kind == KindSuccess
}

// String summarizes the outcome for logs.
func (o Outcome) String() string {
	if o.OK() {
		return fmt.Sprintf("success after %d attempt(s)", o.Attempts)
	}
	return fmt.Sprintf("%s after %d attempt(s), last reason %s", o.Kind, o.Attempts, o.Reason)
}

// classify maps an HTTP status code to the reason of a failed attempt.
// It returns ReasonNone for 200.
func classify(status int) Reason {
	switch status {
	case 200:
		return ReasonNone
	case 403, 429:
		return ReasonBlocked
	case 500:
		return ReasonServerError
	default:
		return ReasonUnexpectedStatus
	}
}

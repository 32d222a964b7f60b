// Package fetch retrieves result pages through a forwarding proxy API.
//
// Every request goes to the proxy endpoint with the real target URL carried
// as a query parameter, together with the API key and a country code:
//
//	https://api.scraperapi.com/?api_key=<key>&url=<escaped target>&country_code=us
//
// A Fetcher makes up to Policy.MaxAttempts requests per page. Each response
// is classified (see Reason) and the matching backoff delay is slept before
// the next attempt. Running out of attempts yields an Exhausted outcome,
// which callers treat as "no data for this page" rather than an error.
//
// Optionally the outbound connection itself can be routed through an
// upstream SOCKS5 proxy (see WithUpstreamProxy).
package fetch

// Package analysis maps scraped reviews through a sentiment scorer and an
// emotion scorer. Both scorers are injected, so tests can substitute
// deterministic stubs for the lexicons.
package analysis

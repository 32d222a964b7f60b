// Package backoff holds the timing policies used while talking to the
// listings site: per-outcome retry delays, the pause between result pages,
// and the sleeper that waits them out.
//
// Delays are jittered. Every policy stores its bounds as data (Jitter) so
// that configuration files can tune them and tests can substitute NoDelay
// or a recording Sleeper instead of patching time globally.
package backoff

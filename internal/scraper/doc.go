// Package scraper drives a search across result pages.
//
// A Scraper expands a model.SearchRequest into one URL per result page,
// fetches each page in order, extracts the entity name and reviews from
// every successful page, and waits a jittered pacing delay between pages.
// Pages that cannot be fetched are skipped; the run keeps whatever the other
// pages produced. Execution is strictly sequential: one request in flight.
package scraper

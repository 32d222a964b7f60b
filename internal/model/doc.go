// Package model defines the core data structures used throughout reviewscan.
//
// This package contains the following main types:
//   - SearchRequest: The immutable query that defines which pages are fetched
//   - PageURL: One fully-formed page target derived from a SearchRequest
//   - ReviewRecord: A single review text paired with the entity it belongs to
//   - SentimentRecord / EmotionRecord: Per-review analysis results
//   - Run: The accumulated state of one scrape-and-analyze execution
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The scraper, analysis, report and database packages all need
// these types, so centralizing them prevents import cycles.
//
// Records are plain values. Slices of records are handed from one stage to the
// next and are never mutated after creation.
package model

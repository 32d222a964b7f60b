// Package report writes run results to output files.
//
// This package contains writers for different output formats:
//   - SentimentCSVWriter: one row per review with score and label
//   - EmotionTextWriter: one block per review with its dominant emotions
//   - MarkdownWriter: run summary for documentation and sharing
//   - JSONWriter: structured dump of the whole run
//   - SimpleWriter: short human-readable summary for the terminal
//
// Design decision: We separate report writing from the data structures
// (which are in the model package), so new output formats can be added
// without touching the analysis code.
//
// All writers implement the Writer interface and produce byte-identical
// output for identical input.
package report

// Package main provides the entry point for the reviewscan CLI.
//
// reviewscan collects restaurant reviews from Yelp search result pages
// through the ScraperAPI forwarding proxy, scores each review for sentiment
// and emotion, and writes the results to CSV and text files.
//
// Usage:
//
//	reviewscan scrape pizza --location "Austin, TX" --pages 2
//	reviewscan history
//
// See --help for all available options.
package main

// main is the entry point for reviewscan.
func main() {
	Execute()
}

package model

import (
	"strings"
)

// PageOffsetStep is the number of results the listings site shows per search
// page. The offset of page i is i*PageOffsetStep.
const PageOffsetStep = 10

// SearchRequest describes what to search for and how many result pages to visit.
// Fields are unexported so that a request cannot change once it has been built;
// the set of page URLs derived from it is therefore stable.
type SearchRequest struct {
	query     string
	location  string
	pageCount int
}

// NewSearchRequest validates and builds a SearchRequest.
// Surrounding whitespace is trimmed from query and location.
func NewSearchRequest(query, location string, pageCount int) (SearchRequest, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchRequest{}, ErrEmptyQuery
	}
	if pageCount < 1 {
		return SearchRequest{}, ErrInvalidPageCount
	}
	return SearchRequest{
		query:     query,
		location:  strings.TrimSpace(location),
		pageCount: pageCount,
	}, nil
}

// Query returns the search terms.
func (r SearchRequest) Query() string { return r.query }

// Location returns the search location (for example "Boston, MA").
func (r SearchRequest) Location() string { return r.location }

// PageCount returns the number of result pages to fetch.
func (r SearchRequest) PageCount() int { return r.pageCount }

// Offset returns the result offset of the zero-based page index.
func (r SearchRequest) Offset(index int) int {
	return index * PageOffsetStep
}

// PageURL is a fully-formed request target for one search result page.
type PageURL struct {
	// Index is the zero-based page index within the request.
	Index int `json:"index"`

	// Offset is the result offset passed to the site (Index * PageOffsetStep).
	Offset int `json:"offset"`

	// Target is the absolute URL of the page on the listings site.
	Target string `json:"target"`
}

// String returns the target URL.
func (p PageURL) String() string {
	return p.Target
}

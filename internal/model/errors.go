package model

import "errors"

// Validation errors returned by NewSearchRequest.
var (
	// ErrInvalidPageCount is returned when a search request asks for fewer than one page.
	ErrInvalidPageCount = errors.New("invalid page count: must be at least 1")

	// ErrEmptyQuery is returned when the search query is blank.
	ErrEmptyQuery = errors.New("empty search query")
)

package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Default selectors for the listing site's search result markup.
const (
	// DefaultNameSelector matches the business heading.
	DefaultNameSelector = "h3.y-css-hcgwj4"

	// DefaultReviewSelector matches review snippet paragraphs.
	DefaultReviewSelector = "p.y-css-1d5urxi"
)

// ErrInvalidSelector is returned when a CSS selector does not compile.
var ErrInvalidSelector = errors.New("invalid CSS selector")

// Locator finds the entity name and review texts in a parsed document.
type Locator interface {
	// FindName returns the entity name and whether a name node was found.
	FindName(doc *goquery.Document) (string, bool)

	// FindReviews returns review texts in document order.
	FindReviews(doc *goquery.Document) []string
}

// SelectorLocator locates nodes with CSS selectors.
//
// Design decision: selectors are compiled once in NewSelectorLocator.
// goquery's Find silently matches nothing for a selector that does not
// parse, which would turn a typo in a config file into a run with zero
// reviews. Compiling up front makes it a startup error instead.
type SelectorLocator struct {
	name   cascadia.Selector
	review cascadia.Selector
}

// NewSelectorLocator compiles the two selectors.
func NewSelectorLocator(nameSelector, reviewSelector string) (*SelectorLocator, error) {
	name, err := cascadia.Compile(nameSelector)
	if err != nil {
		return nil, fmt.Errorf("%w: name %q: %v", ErrInvalidSelector, nameSelector, err)
	}
	review, err := cascadia.Compile(reviewSelector)
	if err != nil {
		return nil, fmt.Errorf("%w: review %q: %v", ErrInvalidSelector, reviewSelector, err)
	}
	return &SelectorLocator{name: name, review: review}, nil
}

// DefaultLocator returns a SelectorLocator for the default selectors.
func DefaultLocator() *SelectorLocator {
	l, err := NewSelectorLocator(DefaultNameSelector, DefaultReviewSelector)
	if err != nil {
		panic(err) // constants
	}
	return l
}

// FindName returns the normalized text of the first name node.
// A node whose text is blank counts as not found.
func (l *SelectorLocator) FindName(doc *goquery.Document) (string, bool) {
	sel := doc.FindMatcher(l.name).First()
	if sel.Length() == 0 {
		return "", false
	}
	name := normalizeText(sel.Text())
	return name, name != ""
}

// FindReviews returns the normalized text of every review node.
// Empty strings are kept; filtering is the Extractor's job.
func (l *SelectorLocator) FindReviews(doc *goquery.Document) []string {
	sel := doc.FindMatcher(l.review)
	reviews := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		reviews = append(reviews, normalizeText(s.Text()))
	})
	return reviews
}

// normalizeText trims s and collapses inner runs of whitespace to one space.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/reviewscan/internal/model"
)

// Extractor parses page bodies with a Locator.
type Extractor struct {
	locator   Locator
	keepEmpty bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLocator replaces the default selector locator.
func WithLocator(l Locator) Option {
	return func(e *Extractor) {
		e.locator = l
	}
}

// WithKeepEmpty keeps review nodes whose text is empty. By default they are
// dropped so that every ReviewRecord carries text.
func WithKeepEmpty(keep bool) Option {
	return func(e *Extractor) {
		e.keepEmpty = keep
	}
}

// New creates an Extractor using DefaultLocator unless overridden.
func New(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	if e.locator == nil {
		e.locator = DefaultLocator()
	}
	return e
}

// Extract returns the page's entity name and review texts in document order.
// The name is model.UnknownEntity when no name node is found. It never fails.
func (e *Extractor) Extract(body string) (string, []string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return model.UnknownEntity, []string{}
	}

	name, ok := e.locator.FindName(doc)
	if !ok {
		name = model.UnknownEntity
	}

	found := e.locator.FindReviews(doc)
	if e.keepEmpty {
		return name, found
	}
	reviews := make([]string, 0, len(found))
	for _, r := range found {
		if strings.TrimSpace(r) != "" {
			reviews = append(reviews, r)
		}
	}
	return name, reviews
}

// Package extract turns a fetched result page into an entity name and the
// review texts shown on it.
//
// What to look for is delegated to a Locator. The default SelectorLocator
// matches the listing site's CSS classes; when the site changes its markup
// only the selectors need to move. Extraction never fails: malformed or
// unrelated markup degrades to the "Unknown" entity and no reviews.
package extract

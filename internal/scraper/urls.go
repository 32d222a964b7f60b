package scraper

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/nao1215/reviewscan/internal/model"
)

// DefaultBaseURL is the listings site's search page.
const DefaultBaseURL = "https://www.yelp.com/search"

// BuildPageURLs returns one PageURL per requested page:
//
//	<base>?find_desc=<query>&find_loc=<location>&start=<offset>
//
// Query and location are percent-encoded with spaces as %20.
func BuildPageURLs(baseURL string, req model.SearchRequest) []model.PageURL {
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	prefix := baseURL + sep +
		"find_desc=" + escape(req.Query()) +
		"&find_loc=" + escape(req.Location()) +
		"&start="

	pages := make([]model.PageURL, req.PageCount())
	for i := range pages {
		offset := req.Offset(i)
		pages[i] = model.PageURL{
			Index:  i,
			Offset: offset,
			Target: prefix + strconv.Itoa(offset),
		}
	}
	return pages
}

// escape percent-encodes a query value. url.QueryEscape writes spaces as
// "+", which the site accepts, but %20 keeps the URLs unambiguous when they
// are nested inside the proxy URL.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

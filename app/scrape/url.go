package scrape

import (
	"fmt"
	"net/url"
	"strconv"
)

const searchBaseURL = "https://search.naver.com/search.naver"

// ListingURL builds one listing page query: keyword, date-range filter, 1-based
// result offset, and the optional publisher-category filter.
func ListingURL(keyword string, window SearchWindow, page, pageSize int, officeCategory string) string {
	offset := (page-1)*pageSize + 1

	v := url.Values{}
	v.Set("where", "news")
	v.Set("query", keyword)
	v.Set("nso", fmt.Sprintf("so:r,p:from%sto%s,a:all", window.StartParam(), window.EndParam()))
	v.Set("start", strconv.Itoa(offset))
	v.Set("service_area", "1")
	if officeCategory != "" {
		v.Set("office_category", officeCategory)
	}

	return searchBaseURL + "?" + v.Encode()
}

// ExpansionURL pages through a related-news expansion listing, which reuses
// the search offset convention.
func ExpansionURL(expansionLink string, offset int) string {
	return fmt.Sprintf("%s&start=%d", expansionLink, offset)
}

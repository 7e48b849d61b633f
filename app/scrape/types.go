package scrape

import (
	"cmp"
	"time"
)

// Record is one extracted news result. Title is the only mandatory field; a
// record with an empty RelatedTo is a top-level result, otherwise it was
// discovered through its parent's related-news listing.
type Record struct {
	Title              string
	NaverURL           string // backend-hosted mirror of the article
	OriginalURL        string // publisher-hosted copy, outside the mirror domains
	Source             string // publisher display name
	Published          string // raw display text, deliberately never parsed
	ImageURL           string
	RelatedTo          string
	RelatedOriginalURL string
	ScrapedAt          time.Time
	ScrapedURL         string
}

func (r Record) IsTopLevel() bool {
	return r.RelatedTo == ""
}

// DedupKey is the record's canonical identity: the mirror URL when present,
// else the publisher URL. An empty key means the record is never deduplicated.
func (r Record) DedupKey() string {
	return cmp.Or(r.NaverURL, r.OriginalURL)
}

package scrape

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/newslab-kr/navercrawl/app/browse"
)

const (
	minTitleLength    = 5
	maxLabelLength    = 50
	minFallbackText   = 10
	maxAncestorClimb  = 8
	mirrorURLFragment = "n.news.naver"
)

var dateShape = regexp.MustCompile(`^\d{4}\.\d{1,2}\.\d{1,2}`)

// Relative-time markers the result page uses instead of a date for fresh
// articles, plus the clock separator.
var relativeMarkers = []string{"시간", "분", "일", "월", "년", ":"}

var expansionMarkers = []string{"관련뉴스", "전체보기"}

// Extractor locates semantically-typed fields in a page whose class names are
// unstable. Each field kind owns an ordered selector cascade; patterns are
// tried in order and the first value passing the kind's acceptance predicate
// wins. Exhausting the cascade is a normal outcome, reported as absent.
type Extractor struct {
	patterns PatternSet
	excluded []string
}

func NewExtractor(patterns PatternSet, excludedHosts []string) *Extractor {
	return &Extractor{patterns: patterns, excluded: excludedHosts}
}

// Extract runs the cascade of the given value-producing field kind over scope.
// The second return is false when every pattern came up empty.
func (e *Extractor) Extract(scope browse.Node, kind FieldKind) (string, bool) {
	for _, pattern := range e.patterns[kind] {
		for _, node := range scope.Find(pattern) {
			if value, ok := e.accept(node, kind); ok {
				return value, true
			}
		}
	}
	return "", false
}

func (e *Extractor) accept(node browse.Node, kind FieldKind) (string, bool) {
	switch kind {
	case KindTitle, KindNestedTitle:
		text := node.Text()
		if utf8.RuneCountInString(text) > minTitleLength {
			return text, true
		}
	case KindPublisher, KindNestedPublisher:
		if text := node.Text(); text != "" {
			return text, true
		}
	case KindPublishedLabel, KindNestedPublished:
		if text := node.Text(); dateLike(text) {
			return text, true
		}
	case KindCanonicalLink:
		if href, ok := node.Attr("href"); ok && absoluteURL(href) {
			return href, true
		}
	case KindOriginalLink:
		if href, ok := node.Attr("href"); ok && absoluteURL(href) && !e.isExcluded(href) {
			return href, true
		}
	case KindThumbnail:
		if src, ok := node.Attr("src"); ok && absoluteURL(src) {
			return src, true
		}
		if src, ok := node.Attr("data-src"); ok && absoluteURL(src) {
			return src, true
		}
	}
	return "", false
}

// Container finds the page region holding the result list.
func (e *Extractor) Container(root browse.Node) (browse.Node, bool) {
	for _, pattern := range e.patterns[KindContainer] {
		if nodes := root.Find(pattern); len(nodes) > 0 {
			return nodes[0], true
		}
	}
	return nil, false
}

// Items finds the individual result nodes inside a container. A pattern that
// matches exactly one node is treated as a miss, because a listing page always
// carries several cards. When every pattern fails, the generic structural
// fallback takes every direct child with non-trivial text and at least one
// link -- the last line of defense against total pattern obsolescence.
func (e *Extractor) Items(container browse.Node) []browse.Node {
	for _, pattern := range e.patterns[KindItem] {
		if nodes := container.Find(pattern); len(nodes) > 1 {
			return nodes
		}
	}

	var fallback []browse.Node
	for _, child := range container.Children() {
		if utf8.RuneCountInString(child.Text()) <= minFallbackText {
			continue
		}
		if len(child.Find("a")) == 0 {
			continue
		}
		fallback = append(fallback, child)
	}
	return fallback
}

// OriginalLink finds the publisher-hosted URL. The headline's enclosing anchor
// with nocr="1" is the structurally exact source; the cascade below it grows
// progressively more permissive, always filtered through the excluded set.
func (e *Extractor) OriginalLink(item browse.Node) (string, bool) {
	for _, pattern := range e.patterns[KindTitle] {
		for _, headline := range item.Find(pattern) {
			anchor, ok := headline.Parent()
			if !ok || anchor.Tag() != "a" {
				continue
			}
			if nocr, ok := anchor.Attr("nocr"); !ok || nocr != "1" {
				continue
			}
			if href, ok := anchor.Attr("href"); ok && absoluteURL(href) && !e.isExcluded(href) {
				return href, true
			}
		}
	}

	return e.Extract(item, KindOriginalLink)
}

// ExpansionLink finds the "see all related news" affordance: a marker span
// carrying both marker texts, climbed upward to its enclosing anchor.
func (e *Extractor) ExpansionLink(item browse.Node) (string, bool) {
	for _, pattern := range e.patterns[KindExpansionMarker] {
		for _, span := range item.Find(pattern) {
			if !containsAll(span.Text(), expansionMarkers) {
				continue
			}
			node := span
			for depth := 0; depth < maxAncestorClimb; depth++ {
				parent, ok := node.Parent()
				if !ok {
					break
				}
				if parent.Tag() == "a" {
					if href, ok := parent.Attr("href"); ok && href != "" {
						return href, true
					}
					break
				}
				node = parent
			}
		}
	}
	return "", false
}

// RelatedLinks classifies every anchor of a nested related-news item into the
// mirror URL and the publisher URL.
func (e *Extractor) RelatedLinks(item browse.Node) (naverURL, originalURL string) {
	for _, anchor := range item.Find("a") {
		href, ok := anchor.Attr("href")
		if !ok || !absoluteURL(href) {
			continue
		}
		switch {
		case strings.Contains(href, mirrorURLFragment):
			if naverURL == "" {
				naverURL = href
			}
		case !e.isExcluded(href):
			if originalURL == "" {
				originalURL = href
			}
		}
	}
	return naverURL, originalURL
}

func (e *Extractor) isExcluded(href string) bool {
	for _, fragment := range e.excluded {
		if strings.Contains(href, fragment) {
			return true
		}
	}
	return false
}

func dateLike(text string) bool {
	if text == "" || utf8.RuneCountInString(text) >= maxLabelLength {
		return false
	}
	if dateShape.MatchString(text) {
		return true
	}
	for _, marker := range relativeMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func absoluteURL(s string) bool {
	return strings.HasPrefix(s, "http")
}

func containsAll(text string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(text, needle) {
			return false
		}
	}
	return true
}

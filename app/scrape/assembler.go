package scrape

import (
	"context"
	"log/slog"
	"time"

	"github.com/newslab-kr/navercrawl/app/browse"
	"github.com/newslab-kr/navercrawl/app/ratelimit"
)

const (
	expansionPageSize = 10
	inlineItemCap     = 10
)

// Assembler turns one item node into records: the top-level record first, then
// whatever related records its expansion or inline listing yields. A field
// that cannot be extracted is omitted, never a reason to drop the record; only
// a missing title invalidates an item.
type Assembler struct {
	extractor *Extractor
	governor  *ratelimit.Governor
	pageCap   int
}

func NewAssembler(extractor *Extractor, governor *ratelimit.Governor, expansionPageCap int) *Assembler {
	return &Assembler{
		extractor: extractor,
		governor:  governor,
		pageCap:   expansionPageCap,
	}
}

// Assemble extracts the top-level record for item and discovers its related
// records. The returned slice is empty when the item has no usable title.
// sess is the session owning the current listing page; expansion pages are
// fetched through an isolated context so the listing stays undisturbed.
func (a *Assembler) Assemble(ctx context.Context, sess browse.Session, item browse.Node, queryURL string) []Record {
	title, ok := a.extractor.Extract(item, KindTitle)
	if !ok {
		slog.Debug("Item skipped, title cascade exhausted")
		return nil
	}

	record := Record{
		Title:      title,
		ScrapedAt:  time.Now(),
		ScrapedURL: queryURL,
	}
	record.NaverURL, _ = a.extractor.Extract(item, KindCanonicalLink)
	record.OriginalURL, _ = a.extractor.OriginalLink(item)
	record.Source, _ = a.extractor.Extract(item, KindPublisher)
	record.Published, _ = a.extractor.Extract(item, KindPublishedLabel)
	record.ImageURL, _ = a.extractor.Extract(item, KindThumbnail)

	records := []Record{record}

	related, expanded := a.expandRelated(ctx, sess, item, record)
	if !expanded || len(related) == 0 {
		related = a.inlineRelated(item, record)
	}

	return append(records, related...)
}

// expandRelated walks the "see all related news" listing in an isolated
// browsing context. The first item of every expansion page repeats the origin
// record and is skipped; a page with at most one item, or one that adds
// nothing, ends the walk. The second return reports whether the affordance
// existed at all.
func (a *Assembler) expandRelated(ctx context.Context, sess browse.Session, item browse.Node, parent Record) ([]Record, bool) {
	link, ok := a.extractor.ExpansionLink(item)
	if !ok {
		return nil, false
	}

	var related []Record
	err := browse.InContext(sess, func(aux browse.Session) error {
		for page := 0; page < a.pageCap; page++ {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			a.governor.Clear("expansion")
			offset := page*expansionPageSize + 1
			pageURL := ExpansionURL(link, offset)

			root, err := aux.Navigate(ctx, pageURL)
			if err != nil {
				slog.Warn("Expansion page fetch failed", "url", pageURL, "error", err)
				return nil
			}

			container, found := a.extractor.Container(root)
			if !found {
				slog.Debug("Expansion page has no container", "url", pageURL)
				return nil
			}

			cards := a.extractor.Items(container)
			if len(cards) <= 1 {
				return nil
			}

			added := 0
			for i, card := range cards {
				if i == 0 {
					continue
				}
				if rec, ok := a.assembleRelated(card, parent); ok {
					related = append(related, rec)
					added++
				}
			}
			if added == 0 {
				return nil
			}
			slog.Debug("Expansion page processed", "page", page+1, "added", added)
		}
		return nil
	})
	if err != nil {
		slog.Warn("Expansion context failed", "parent", parent.Title, "error", err)
	}

	return related, true
}

// assembleRelated extracts one related record from an expansion page card,
// which uses the full result layout.
func (a *Assembler) assembleRelated(card browse.Node, parent Record) (Record, bool) {
	title, ok := a.extractor.Extract(card, KindTitle)
	if !ok || title == parent.Title {
		return Record{}, false
	}

	rec := Record{
		Title:              title,
		RelatedTo:          parent.Title,
		RelatedOriginalURL: parent.OriginalURL,
		ScrapedAt:          time.Now(),
		ScrapedURL:         parent.ScrapedURL,
	}
	rec.NaverURL, _ = a.extractor.Extract(card, KindCanonicalLink)
	rec.OriginalURL, _ = a.extractor.OriginalLink(card)
	rec.Source, _ = a.extractor.Extract(card, KindPublisher)
	rec.Published, _ = a.extractor.Extract(card, KindPublishedLabel)
	rec.ImageURL, _ = a.extractor.Extract(card, KindThumbnail)

	return rec, true
}

// inlineRelated collects related records from the compact listing nested
// inside the item itself, used when no expansion affordance exists or the
// expansion yielded nothing.
func (a *Assembler) inlineRelated(item browse.Node, parent Record) []Record {
	container, found := a.findNested(item, KindNestedContainer)
	if !found {
		return nil
	}

	var nestedItems []browse.Node
	for _, pattern := range a.extractor.patterns[KindNestedItem] {
		if nodes := container.Find(pattern); len(nodes) > 0 {
			nestedItems = nodes
			break
		}
	}
	if len(nestedItems) > inlineItemCap {
		nestedItems = nestedItems[:inlineItemCap]
	}

	var related []Record
	for _, nested := range nestedItems {
		title, ok := a.extractor.Extract(nested, KindNestedTitle)
		if !ok || title == parent.Title {
			// self-reference guard: the inline listing may repeat its owner
			continue
		}

		rec := Record{
			Title:              title,
			RelatedTo:          parent.Title,
			RelatedOriginalURL: parent.OriginalURL,
			ScrapedAt:          time.Now(),
			ScrapedURL:         parent.ScrapedURL,
		}
		rec.NaverURL, rec.OriginalURL = a.extractor.RelatedLinks(nested)
		rec.Source, _ = a.extractor.Extract(nested, KindNestedPublisher)
		rec.Published, _ = a.extractor.Extract(nested, KindNestedPublished)

		related = append(related, rec)
	}

	return related
}

func (a *Assembler) findNested(item browse.Node, kind FieldKind) (browse.Node, bool) {
	for _, pattern := range a.extractor.patterns[kind] {
		if nodes := item.Find(pattern); len(nodes) > 0 {
			return nodes[0], true
		}
	}
	return nil, false
}

package scrape

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/newslab-kr/navercrawl/app/browse"
	"github.com/newslab-kr/navercrawl/app/ratelimit"
)

// Sink receives assembled records as they stream out of the page loop.
type Sink interface {
	Add(Record)
}

// Progress is a read-only snapshot of where the walker currently is, exposed
// for the status server.
type Progress struct {
	Window string `json:"window"`
	Page   int    `json:"page"`
	Pages  int    `json:"pages_fetched"`
}

// Walker drives the date-window by page state machine over a campaign range.
// One window at a time, one page at a time; a short page finishes its window
// after being processed in full, and a failed page ends its window early
// without touching the rest of the campaign.
type Walker struct {
	sess      browse.Session
	governor  *ratelimit.Governor
	extractor *Extractor
	assembler *Assembler
	sink      Sink

	keyword        string
	officeCategory string
	pageSize       int
	shortPage      int

	mu       sync.Mutex
	progress Progress
}

func NewWalker(sess browse.Session, governor *ratelimit.Governor, extractor *Extractor,
	assembler *Assembler, sink Sink, keyword, officeCategory string, pageSize, shortPageThreshold int) *Walker {
	return &Walker{
		sess:           sess,
		governor:       governor,
		extractor:      extractor,
		assembler:      assembler,
		sink:           sink,
		keyword:        keyword,
		officeCategory: officeCategory,
		pageSize:       pageSize,
		shortPage:      shortPageThreshold,
	}
}

// Run walks every window of the campaign range. It returns an error only when
// the context is cancelled; page and window failures are contained.
func (w *Walker) Run(ctx context.Context, campaignStart, campaignEnd time.Time) error {
	for _, window := range SliceWindows(campaignStart, campaignEnd) {
		if err := ctx.Err(); err != nil {
			return err
		}

		slog.Info("Window started", "window", window.String(), "keyword", w.keyword)
		started := time.Now()
		pages := w.walkWindow(ctx, window)
		slog.Info("Window finished",
			"window", window.String(),
			"pages", pages,
			"duration", time.Since(started).String())
	}
	return nil
}

// Progress reports the walker's current position. Safe for concurrent use.
func (w *Walker) Progress() Progress {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progress
}

func (w *Walker) walkWindow(ctx context.Context, window SearchWindow) int {
	finished := false
	for page := 1; ; page++ {
		if ctx.Err() != nil {
			return page - 1
		}
		w.setProgress(window, page)

		w.governor.Clear("listing")
		pageURL := ListingURL(w.keyword, window, page, w.pageSize, w.officeCategory)
		slog.Info("Fetching listing page", "window", window.String(), "page", page, "url", pageURL)

		items, ok := w.fetchItems(ctx, pageURL)
		if !ok || len(items) == 0 {
			slog.Info("No more results", "window", window.String(), "page", page)
			return page - 1
		}

		slog.Info("Items found", "count", len(items), "page", page)
		if len(items) < w.shortPage {
			// still processed in full; the window just ends after this page
			finished = true
		}

		for i, item := range items {
			for _, rec := range w.processItem(ctx, item, pageURL, i) {
				w.sink.Add(rec)
			}
		}

		if finished {
			return page
		}
	}
}

// fetchItems navigates to one listing page and discovers its item nodes. Any
// failure is reported as an ordinary "nothing found" so the window ends early
// instead of the campaign.
func (w *Walker) fetchItems(ctx context.Context, pageURL string) (items []browse.Node, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Page processing panicked", "url", pageURL, "panic", r)
			items, ok = nil, false
		}
	}()

	root, err := w.sess.Navigate(ctx, pageURL)
	if err != nil {
		slog.Warn("Page fetch failed", "url", pageURL, "error", err)
		return nil, false
	}

	container, found := w.extractor.Container(root)
	if !found {
		slog.Debug("No result container on page", "url", pageURL)
		return nil, false
	}

	return w.extractor.Items(container), true
}

// processItem contains one item's failures so siblings are unaffected.
func (w *Walker) processItem(ctx context.Context, item browse.Node, pageURL string, index int) (records []Record) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Item processing panicked", "url", pageURL, "item", index+1, "panic", r)
			records = nil
		}
	}()

	records = w.assembler.Assemble(ctx, w.sess, item, pageURL)
	if len(records) > 1 {
		slog.Info("Related records added", "title", records[0].Title, "count", len(records)-1)
	}
	return records
}

func (w *Walker) setProgress(window SearchWindow, page int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.progress.Window = window.String()
	w.progress.Page = page
	w.progress.Pages++
}

package enrich

import (
	"context"
	"log/slog"
	"time"

	"github.com/newslab-kr/navercrawl/app/archive"
	"github.com/newslab-kr/navercrawl/app/ratelimit"
)

// Fetcher delivers raw page bytes. *browse.HTTPSession satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Enricher fetches each archived record's original article and stores its
// readable content. Runs after the flush; all requests go through the same
// governor as the crawl itself.
type Enricher struct {
	fetcher   Fetcher
	governor  *ratelimit.Governor
	extractor *ContentExtractor
	repo      *archive.RunRepository
}

func NewEnricher(fetcher Fetcher, governor *ratelimit.Governor, repo *archive.RunRepository) *Enricher {
	return &Enricher{
		fetcher:   fetcher,
		governor:  governor,
		extractor: NewContentExtractor(),
		repo:      repo,
	}
}

// Run enriches every record of the run that has a publisher URL. Per-record
// failures are logged and skipped.
func (e *Enricher) Run(ctx context.Context, runID int64) error {
	refs, err := e.repo.RecordsMissingContent(runID, 0)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		slog.Debug("No records need content extraction", "run_id", runID)
		return nil
	}

	slog.Info("Content extraction started", "run_id", runID, "records", len(refs))

	extracted := 0
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return err
		}

		e.governor.Clear("content")

		data, err := e.fetcher.Fetch(ctx, ref.OriginalURL)
		if err != nil {
			slog.Warn("Failed to fetch article", "record_id", ref.ID, "url", ref.OriginalURL, "error", err)
			continue
		}

		content, err := e.extractor.Run(data, ref.OriginalURL)
		if err != nil {
			slog.Warn("Failed to extract content", "record_id", ref.ID, "url", ref.OriginalURL, "error", err)
			continue
		}

		if err := e.repo.UpdateContent(ref.ID, content, time.Now()); err != nil {
			slog.Error("Failed to store content", "record_id", ref.ID, "error", err)
			continue
		}
		extracted++
	}

	slog.Info("Content extraction finished", "run_id", runID, "extracted", extracted, "total", len(refs))
	return nil
}

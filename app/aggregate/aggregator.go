package aggregate

import (
	"log/slog"
	"sync"

	"github.com/newslab-kr/navercrawl/app/scrape"
)

// Record is one deduplicated output record with its dense 1-based sequence id.
type Record struct {
	scrape.Record
	ID           int
	HasPublished bool
}

type Stats struct {
	Received         int `json:"received"`
	Duplicates       int `json:"duplicates"`
	Kept             int `json:"kept"`
	MissingPublished int `json:"missing_published"`
}

// Aggregator accumulates records for one run and owns the seen-key set for
// that run's lifetime. Add streams in any order; Finalize is a pure function
// of arrival order and dedup keys, so calling it twice without further adds
// yields the identical sequence.
type Aggregator struct {
	// the crawl is single-threaded; the mutex only covers the status
	// server's concurrent reads
	mu      sync.Mutex
	records []scrape.Record
}

func New() *Aggregator {
	return &Aggregator{}
}

func (a *Aggregator) Add(r scrape.Record) {
	if r.Title == "" {
		// invalid before aggregation, not a duplicate
		slog.Warn("Record without title discarded", "url", r.NaverURL)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, r)
}

// Finalize deduplicates in arrival order and assigns ids 1..N in survivor
// order. Records without a dedup key are always kept, even against each other.
func (a *Aggregator) Finalize() []Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	return finalize(a.records)
}

func (a *Aggregator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	kept := finalize(a.records)
	stats := Stats{
		Received:   len(a.records),
		Kept:       len(kept),
		Duplicates: len(a.records) - len(kept),
	}
	for _, r := range kept {
		if !r.HasPublished {
			stats.MissingPublished++
		}
	}
	return stats
}

func finalize(records []scrape.Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))

	for _, r := range records {
		if key := r.DedupKey(); key != "" {
			if _, dup := seen[key]; dup {
				slog.Info("Duplicate record dropped", "key", key, "title", r.Title)
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, Record{
			Record:       r,
			ID:           len(out) + 1,
			HasPublished: r.Published != "",
		})
	}

	return out
}

package archive

import (
	"fmt"
	"time"

	"github.com/newslab-kr/navercrawl/app/aggregate"
)

// RunRepository persists finalized runs. The in-run aggregation stays in
// memory; this is a write-once archive at flush time.
type RunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// StoreRun writes one run row plus all its records and returns the run id.
func (r *RunRepository) StoreRun(keyword, startDate, endDate string, startedAt, finishedAt time.Time,
	stats aggregate.Stats, records []aggregate.Record) (int64, error) {

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO runs (
			keyword, start_date, end_date, started_at, finished_at,
			total_received, duplicates, kept, missing_published
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, keyword, startDate, endDate, startedAt, finishedAt,
		stats.Received, stats.Duplicates, stats.Kept, stats.MissingPublished)
	if err != nil {
		return 0, fmt.Errorf("failed to store run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO records (
			run_id, seq, title, naver_url, original_url, source, published,
			has_published, image_url, related_to, related_original_url,
			scraped_at, scraped_url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		hasPublished := 0
		if rec.HasPublished {
			hasPublished = 1
		}
		if _, err := stmt.Exec(runID, rec.ID, rec.Title, rec.NaverURL, rec.OriginalURL,
			rec.Source, rec.Published, hasPublished, rec.ImageURL,
			rec.RelatedTo, rec.RelatedOriginalURL, rec.ScrapedAt, rec.ScrapedURL); err != nil {
			return 0, fmt.Errorf("failed to store record %d: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// RecordRef identifies one archived record awaiting content extraction.
type RecordRef struct {
	ID          int64
	OriginalURL string
}

// RecordsMissingContent returns archived records of the run that have a
// publisher URL but no extracted content yet. limit <= 0 means no limit.
func (r *RunRepository) RecordsMissingContent(runID int64, limit int) ([]RecordRef, error) {
	query := `
		SELECT id, original_url FROM records
		WHERE run_id = ? AND original_url != '' AND content = ''
		ORDER BY seq`
	args := []any{runID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records missing content: %w", err)
	}
	defer rows.Close()

	var refs []RecordRef
	for rows.Next() {
		var ref RecordRef
		if err := rows.Scan(&ref.ID, &ref.OriginalURL); err != nil {
			return nil, fmt.Errorf("failed to scan record ref: %w", err)
		}
		refs = append(refs, ref)
	}

	return refs, rows.Err()
}

// UpdateContent stores the readable content extracted for one record.
func (r *RunRepository) UpdateContent(recordID int64, content string, extractedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE records SET content = ?, content_extracted_at = ? WHERE id = ?
	`, content, extractedAt, recordID)
	if err != nil {
		return fmt.Errorf("failed to update record content: %w", err)
	}
	return nil
}

package output

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/newslab-kr/navercrawl/app/aggregate"
)

var columns = []string{
	"id", "title", "naver_url", "original_url", "source",
	"published", "has_published", "image_url", "scraped_at", "scraped_url",
}

// utf8BOM keeps spreadsheet applications from mangling Korean text.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Run writes the finalized dataset as one CSV file and returns its path. A run
// with zero records still produces a valid header-only file.
func (w *Writer) Run(filename string, records []aggregate.Record) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(utf8BOM); err != nil {
		return "", fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(columns); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range records {
		hasPublished := "N"
		if r.HasPublished {
			hasPublished = "Y"
		}
		row := []string{
			strconv.Itoa(r.ID),
			r.Title,
			r.NaverURL,
			r.OriginalURL,
			r.Source,
			r.Published,
			hasPublished,
			r.ImageURL,
			r.ScrapedAt.Format("2006-01-02 15:04:05"),
			r.ScrapedURL,
		}
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("failed to write record %d: %w", r.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to flush output file: %w", err)
	}

	slog.Info("Output file written", "path", path, "records", len(records))
	return path, nil
}

// Filename builds the run's output name from the keyword, the run timestamp
// and the campaign range.
func Filename(keyword, startDate, endDate string, now time.Time) string {
	return fmt.Sprintf("naver_news_%s_%s_%s_(%sto%s).csv",
		keyword, now.Format("060102"), now.Format("1504"), startDate, endDate)
}

package cfg

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type rawCfg struct {
	// Search configuration
	Keyword        string `long:"keyword" env:"KEYWORD" required:"true" description:"Search keyword (quote it for exact-phrase search)"`
	StartDate      string `long:"start-date" env:"START_DATE" required:"true" description:"Campaign start date (YYYYMMDD)"`
	EndDate        string `long:"end-date" env:"END_DATE" required:"true" description:"Campaign end date (YYYYMMDD)"`
	OfficeCategory string `long:"office-category" env:"OFFICE_CATEGORY" default:"3" description:"Publisher category filter (1: daily, 2: broadcast, 3: economy/IT, 4: internet; empty disables)"`

	// Crawl configuration
	PageSize           int    `long:"page-size" env:"PAGE_SIZE" default:"10" description:"Result items per listing page"`
	ShortPageThreshold int    `long:"short-page-threshold" env:"SHORT_PAGE_THRESHOLD" default:"8" description:"Item count below which a page is treated as the last one of its window"`
	ExpansionPageCap   int    `long:"expansion-page-cap" env:"EXPANSION_PAGE_CAP" default:"5" description:"Maximum related-news expansion pages per item"`
	MaxRequests        int    `long:"max-requests" env:"MAX_REQUESTS" default:"10" description:"Maximum outbound requests per rate window"`
	RateWindow         int    `long:"rate-window" env:"RATE_WINDOW" default:"60" description:"Rate window in seconds"`
	MinDelay           int    `long:"min-delay" env:"MIN_DELAY" default:"2" description:"Minimum delay between requests in seconds"`
	ExcludedHosts      string `long:"excluded-hosts" env:"EXCLUDED_HOSTS" default:"media.naver.com,n.news.naver.com,news.naver.com/cluster,search.naver.com,google." description:"Comma-separated URL fragments never accepted as publisher links"`
	PatternsFile       string `long:"patterns" env:"PATTERNS_FILE" description:"YAML file overriding selector cascades per field kind"`

	// Output configuration
	OutputDir      string `long:"output-dir" env:"OUTPUT_DIR" default:"results" description:"Directory for CSV output files"`
	ArchivePath    string `long:"archive" env:"ARCHIVE_PATH" description:"SQLite database path for the run archive (optional)"`
	ExtractContent bool   `long:"extract-content" env:"EXTRACT_CONTENT" description:"Fetch original articles and store readable content in the archive"`

	// Application configuration
	StatusPort string `long:"status-port" env:"STATUS_PORT" description:"Port for the run status HTTP server (optional)"`
	UserAgent  string `long:"user-agent" env:"USER_AGENT" description:"User agent string for HTTP requests"`
	Timezone   string `long:"timezone" env:"TZ" description:"Timezone for timestamps (e.g., UTC, Asia/Seoul)"`
	Debug      bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Keyword:            raw.Keyword,
		StartDate:          raw.StartDate,
		EndDate:            raw.EndDate,
		OfficeCategory:     raw.OfficeCategory,
		PageSize:           raw.PageSize,
		ShortPageThreshold: raw.ShortPageThreshold,
		ExpansionPageCap:   raw.ExpansionPageCap,
		MaxRequests:        raw.MaxRequests,
		RateWindow:         raw.RateWindow,
		MinDelay:           raw.MinDelay,
		ExcludedHosts:      raw.ExcludedHosts,
		PatternsFile:       raw.PatternsFile,
		OutputDir:          raw.OutputDir,
		ArchivePath:        raw.ArchivePath,
		ExtractContent:     raw.ExtractContent,
		StatusPort:         raw.StatusPort,
		UserAgent:          cmp.Or(raw.UserAgent, defaultUserAgent),
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// ExcludedHostList splits the configured fragment list, dropping empty entries.
func (c *Cfg) ExcludedHostList() []string {
	var hosts []string
	for _, h := range strings.Split(c.ExcludedHosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// CampaignRange parses the configured YYYYMMDD dates.
func (c *Cfg) CampaignRange() (time.Time, time.Time, error) {
	start, err := time.Parse("20060102", c.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", c.StartDate, err)
	}
	end, err := time.Parse("20060102", c.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", c.EndDate, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s precedes start date %s", c.EndDate, c.StartDate)
	}
	return start, end, nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}

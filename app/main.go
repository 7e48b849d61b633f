package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newslab-kr/navercrawl/app/aggregate"
	"github.com/newslab-kr/navercrawl/app/api"
	"github.com/newslab-kr/navercrawl/app/archive"
	"github.com/newslab-kr/navercrawl/app/browse"
	"github.com/newslab-kr/navercrawl/app/cfg"
	"github.com/newslab-kr/navercrawl/app/enrich"
	"github.com/newslab-kr/navercrawl/app/output"
	"github.com/newslab-kr/navercrawl/app/ratelimit"
	"github.com/newslab-kr/navercrawl/app/scrape"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		// help was shown
		return
	}

	setupLogging(appCfg.Debug)

	slog.Info("Starting Naver news crawler",
		"version", appCfg.Version,
		"keyword", appCfg.Keyword,
		"from", appCfg.StartDate,
		"to", appCfg.EndDate)

	campaignStart, campaignEnd, err := appCfg.CampaignRange()
	if err != nil {
		slog.Error("Invalid campaign range", "error", err)
		os.Exit(1)
	}

	patterns := scrape.DefaultPatterns()
	if appCfg.PatternsFile != "" {
		if err := patterns.MergeFile(appCfg.PatternsFile); err != nil {
			slog.Error("Failed to load pattern overrides", "file", appCfg.PatternsFile, "error", err)
			os.Exit(1)
		}
		slog.Info("Pattern overrides loaded", "file", appCfg.PatternsFile)
	}

	sess, err := browse.NewHTTPSession(appCfg.UserAgent)
	if err != nil {
		slog.Error("Failed to create browsing session", "error", err)
		os.Exit(1)
	}

	governor := ratelimit.NewGovernor(
		appCfg.MaxRequests,
		time.Duration(appCfg.RateWindow)*time.Second,
		time.Duration(appCfg.MinDelay)*time.Second)

	extractor := scrape.NewExtractor(patterns, appCfg.ExcludedHostList())
	assembler := scrape.NewAssembler(extractor, governor, appCfg.ExpansionPageCap)
	agg := aggregate.New()
	walker := scrape.NewWalker(sess, governor, extractor, assembler, agg,
		appCfg.Keyword, appCfg.OfficeCategory, appCfg.PageSize, appCfg.ShortPageThreshold)

	var statusServer *http.Server
	if appCfg.StatusPort != "" {
		statusServer = &http.Server{
			Addr:         ":" + appCfg.StatusPort,
			Handler:      api.NewServer(api.NewHandler(governor, agg, walker)),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("Status server listening", "port", appCfg.StatusPort)
			if err := statusServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Status server failed", "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startedAt := time.Now()
	runErr := walker.Run(ctx, campaignStart, campaignEnd)
	if runErr != nil {
		slog.Warn("Campaign interrupted", "error", runErr)
	}

	// The session teardown is the only run-fatal failure; everything the
	// aggregator holds is still flushed first.
	teardownErr := sess.Close()
	if teardownErr != nil {
		slog.Error("Browsing session teardown failed", "error", teardownErr)
	}

	records := agg.Finalize()
	stats := agg.Stats()
	finishedAt := time.Now()

	writer := output.NewWriter(appCfg.OutputDir)
	filename := output.Filename(appCfg.Keyword, appCfg.StartDate, appCfg.EndDate, startedAt)
	path, err := writer.Run(filename, records)
	if err != nil {
		slog.Error("Failed to write output file", "error", err)
		os.Exit(1)
	}

	if appCfg.ArchivePath != "" {
		archiveRun(ctx, appCfg, sess, governor, stats, records, startedAt, finishedAt)
	}

	governorStats := governor.Stats()
	slog.Info("Run summary",
		"received", stats.Received,
		"duplicates_dropped", stats.Duplicates,
		"kept", stats.Kept,
		"missing_published", stats.MissingPublished,
		"output", path)
	slog.Info("Request summary",
		"total_requests", governorStats.TotalRequests,
		"total_wait", governorStats.TotalWait.String(),
		"avg_wait", governorStats.AverageWait.String())
	slog.Info("Crawler finished", "duration", time.Since(startedAt).String())

	if statusServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := statusServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Status server shutdown error", "error", err)
		}
	}

	if teardownErr != nil {
		os.Exit(1)
	}
}

func archiveRun(ctx context.Context, appCfg *cfg.Cfg, sess *browse.HTTPSession,
	governor *ratelimit.Governor, stats aggregate.Stats, records []aggregate.Record,
	startedAt, finishedAt time.Time) {

	db, err := archive.Open(appCfg.ArchivePath)
	if err != nil {
		slog.Error("Failed to open archive", "error", err)
		return
	}
	defer db.Close()

	version, dirty, err := archive.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to migrate archive", "error", err)
		return
	}
	slog.Debug("Archive migrated", "version", version, "dirty", dirty)

	repo := archive.NewRunRepository(db)
	runID, err := repo.StoreRun(appCfg.Keyword, appCfg.StartDate, appCfg.EndDate,
		startedAt, finishedAt, stats, records)
	if err != nil {
		slog.Error("Failed to archive run", "error", err)
		return
	}
	slog.Info("Run archived", "run_id", runID, "path", appCfg.ArchivePath)

	if appCfg.ExtractContent {
		enricher := enrich.NewEnricher(sess, governor, repo)
		if err := enricher.Run(ctx, runID); err != nil {
			slog.Warn("Content extraction stopped", "error", err)
		}
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

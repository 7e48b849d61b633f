package ratelimit

import (
	"log/slog"
	"sync"
	"time"
)

const quotaMargin = 500 * time.Millisecond

type Stats struct {
	TotalRequests  int
	TotalWait      time.Duration
	AverageWait    time.Duration
	WindowRequests int
}

// Governor bounds outbound request cadence under a dual policy: a minimum
// delay between consecutive requests, and a sliding-window quota. Clear blocks
// until both are satisfied; it never fails.
type Governor struct {
	maxRequests int
	window      time.Duration
	minDelay    time.Duration

	mu            sync.Mutex
	history       []time.Time
	lastCleared   time.Time
	totalRequests int
	totalWait     time.Duration

	now   func() time.Time
	sleep func(time.Duration)
}

func NewGovernor(maxRequests int, window, minDelay time.Duration) *Governor {
	return &Governor{
		maxRequests: maxRequests,
		window:      window,
		minDelay:    minDelay,
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// Clear returns once the next request of the given kind may be issued. The
// spacing wait is applied first; the quota is then re-checked against the
// post-wait clock, and if the window is full Clear sleeps until the oldest
// clearance ages out, plus a small margin.
func (g *Governor) Clear(requestKind string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.totalRequests++

	if !g.lastCleared.IsZero() {
		if since := now.Sub(g.lastCleared); since < g.minDelay {
			wait := g.minDelay - since
			slog.Debug("Minimum spacing wait", "kind", requestKind, "wait", wait.String())
			g.sleep(wait)
			g.totalWait += wait
			now = g.now()
		}
	}

	g.evict(now)

	if len(g.history) >= g.maxRequests {
		oldest := g.history[0]
		if wait := g.window - now.Sub(oldest); wait > 0 {
			wait += quotaMargin
			slog.Info("Window quota reached, waiting",
				"kind", requestKind,
				"wait", wait.String(),
				"max_requests", g.maxRequests,
				"window", g.window.String())
			g.sleep(wait)
			g.totalWait += wait
			now = g.now()
			g.evict(now)
		}
	}

	g.history = append(g.history, now)
	g.lastCleared = now

	if g.totalRequests%10 == 0 {
		slog.Info("Request statistics",
			"total", g.totalRequests,
			"avg_wait", (g.totalWait / time.Duration(g.totalRequests)).String())
	}
}

// Stats is observability only; it never gates anything.
func (g *Governor) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	stats := Stats{
		TotalRequests:  g.totalRequests,
		TotalWait:      g.totalWait,
		WindowRequests: len(g.history),
	}
	if g.totalRequests > 0 {
		stats.AverageWait = g.totalWait / time.Duration(g.totalRequests)
	}
	return stats
}

func (g *Governor) evict(now time.Time) {
	kept := g.history[:0]
	for _, t := range g.history {
		if now.Sub(t) < g.window {
			kept = append(kept, t)
		}
	}
	g.history = kept
}

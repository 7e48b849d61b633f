package ratelimit

import (
	"testing"
	"time"
)

// fakeClock advances only when the governor sleeps or the test advances it
// explicitly, so wait arithmetic can be asserted exactly.
type fakeClock struct {
	t     time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.t = c.t.Add(d)
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestGovernor(maxRequests int, window, minDelay time.Duration) (*Governor, *fakeClock) {
	g := NewGovernor(maxRequests, window, minDelay)
	clock := newFakeClock()
	g.now = clock.now
	g.sleep = clock.sleep
	return g, clock
}

func TestClear_MinimumSpacing(t *testing.T) {
	g, clock := newTestGovernor(10, 60*time.Second, 2*time.Second)

	g.Clear("listing")
	first := g.lastCleared

	clock.advance(500 * time.Millisecond)
	g.Clear("listing")
	second := g.lastCleared

	if gap := second.Sub(first); gap < 2*time.Second {
		t.Errorf("Expected at least 2s between clearances, got %s", gap)
	}
	if len(clock.slept) != 1 {
		t.Fatalf("Expected exactly 1 sleep, got %d", len(clock.slept))
	}
	if clock.slept[0] != 1500*time.Millisecond {
		t.Errorf("Expected 1.5s spacing sleep, got %s", clock.slept[0])
	}
}

func TestClear_NoWaitWhenSpaced(t *testing.T) {
	g, clock := newTestGovernor(10, 60*time.Second, 2*time.Second)

	g.Clear("listing")
	clock.advance(3 * time.Second)
	g.Clear("listing")

	if len(clock.slept) != 0 {
		t.Errorf("Expected no sleeps for well-spaced calls, got %v", clock.slept)
	}
}

func TestClear_WindowQuota(t *testing.T) {
	g, clock := newTestGovernor(10, 60*time.Second, 0)

	for i := 0; i < 10; i++ {
		g.Clear("listing")
		clock.advance(time.Second)
	}
	if len(clock.slept) != 0 {
		t.Fatalf("First 10 calls should not wait, got sleeps %v", clock.slept)
	}

	// Eleventh call: the window holds 10 clearances, the oldest 10s old.
	// It must block until that one is 60s old, plus the safety margin.
	g.Clear("listing")

	if len(clock.slept) != 1 {
		t.Fatalf("Expected exactly 1 quota sleep, got %d", len(clock.slept))
	}
	want := 50*time.Second + 500*time.Millisecond
	if clock.slept[0] != want {
		t.Errorf("Expected quota sleep of %s, got %s", want, clock.slept[0])
	}
}

func TestClear_QuotaEvictsAfterWait(t *testing.T) {
	g, clock := newTestGovernor(3, 10*time.Second, 0)

	g.Clear("a")
	clock.advance(time.Second)
	g.Clear("b")
	clock.advance(time.Second)
	g.Clear("c")
	clock.advance(time.Second)
	g.Clear("d")

	// After the quota wait, the aged-out clearance must be gone and the new
	// one recorded.
	if got := g.Stats().WindowRequests; got > 3 {
		t.Errorf("Expected at most 3 clearances in the window, got %d", got)
	}
}

func TestStats(t *testing.T) {
	g, clock := newTestGovernor(10, 60*time.Second, 2*time.Second)

	g.Clear("listing")
	g.Clear("listing") // forces a 2s spacing wait
	clock.advance(5 * time.Second)
	g.Clear("expansion")

	stats := g.Stats()
	if stats.TotalRequests != 3 {
		t.Errorf("Expected 3 total requests, got %d", stats.TotalRequests)
	}
	if stats.TotalWait != 2*time.Second {
		t.Errorf("Expected 2s total wait, got %s", stats.TotalWait)
	}
	if stats.AverageWait == 0 {
		t.Error("Expected non-zero average wait")
	}
	if stats.WindowRequests != 3 {
		t.Errorf("Expected 3 clearances in window, got %d", stats.WindowRequests)
	}
}

func TestStats_Empty(t *testing.T) {
	g, _ := newTestGovernor(10, 60*time.Second, 2*time.Second)

	stats := g.Stats()
	if stats.TotalRequests != 0 || stats.TotalWait != 0 || stats.AverageWait != 0 {
		t.Errorf("Expected zero stats before any call, got %+v", stats)
	}
}

package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/moto-auction/internal/model"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeCloser records dispatches and can be made to fail.
type fakeCloser struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]int // remaining failures per auction
}

func newFakeCloser() *fakeCloser {
	return &fakeCloser{calls: make(map[string]int), fail: make(map[string]int)}
}

func (f *fakeCloser) CloseIfDue(_ context.Context, auctionID string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[auctionID]++
	if f.fail[auctionID] > 0 {
		f.fail[auctionID]--
		return errors.New("store unavailable")
	}
	return nil
}

func (f *fakeCloser) count(auctionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[auctionID]
}

type fakeLister struct{ auctions []model.Auction }

func (f *fakeLister) ListActiveEndingBefore(_ context.Context, t time.Time) ([]model.Auction, error) {
	var out []model.Auction
	for _, a := range f.auctions {
		if !a.EndTime.After(t) {
			out = append(out, a)
		}
	}
	return out, nil
}

func newTestScheduler() (*Scheduler, *fakeCloser, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	closer := newFakeCloser()
	return New(closer, clock.Now, time.Second), closer, clock
}

func TestSweepDispatchesDueAuctionsOnce(t *testing.T) {
	s, closer, clock := newTestScheduler()
	ctx := context.Background()

	s.Schedule("a1", clock.Now().Add(time.Minute))
	s.Schedule("a2", clock.Now().Add(time.Hour))

	s.Sweep(ctx)
	if closer.count("a1") != 0 || closer.count("a2") != 0 {
		t.Fatal("nothing is due yet")
	}

	clock.Advance(2 * time.Minute)
	s.Sweep(ctx)
	if closer.count("a1") != 1 {
		t.Fatalf("a1 dispatched %d times, want 1", closer.count("a1"))
	}
	if closer.count("a2") != 0 {
		t.Fatal("a2 is not due")
	}

	// Repeated sweeps must not re-dispatch a consumed deadline.
	s.Sweep(ctx)
	s.Sweep(ctx)
	if closer.count("a1") != 1 {
		t.Fatalf("a1 re-dispatched, count %d", closer.count("a1"))
	}

	clock.Advance(time.Hour)
	s.Sweep(ctx)
	if closer.count("a2") != 1 {
		t.Fatalf("a2 dispatched %d times, want 1", closer.count("a2"))
	}
}

func TestCancelledDeadlineIsSkipped(t *testing.T) {
	s, closer, clock := newTestScheduler()
	ctx := context.Background()

	s.Schedule("a1", clock.Now().Add(time.Minute))
	s.Cancel("a1")

	clock.Advance(time.Hour)
	s.Sweep(ctx)
	if closer.count("a1") != 0 {
		t.Fatal("cancelled auction must not be dispatched")
	}
}

func TestRescheduleKeepsLatestDeadline(t *testing.T) {
	s, closer, clock := newTestScheduler()
	ctx := context.Background()

	s.Schedule("a1", clock.Now().Add(time.Minute))
	s.Schedule("a1", clock.Now().Add(time.Hour)) // re-arm with a later end

	clock.Advance(2 * time.Minute)
	s.Sweep(ctx)
	if closer.count("a1") != 0 {
		t.Fatal("stale deadline fired after re-arm")
	}

	clock.Advance(time.Hour)
	s.Sweep(ctx)
	if closer.count("a1") != 1 {
		t.Fatalf("dispatched %d times, want 1", closer.count("a1"))
	}
}

func TestFailedDispatchIsRetriedNextSweep(t *testing.T) {
	s, closer, clock := newTestScheduler()
	ctx := context.Background()

	closer.fail["a1"] = 1
	s.Schedule("a1", clock.Now().Add(time.Minute))

	clock.Advance(2 * time.Minute)
	s.Sweep(ctx)
	if closer.count("a1") != 1 {
		t.Fatalf("first attempt count %d, want 1", closer.count("a1"))
	}

	// The failure re-armed the deadline; the next sweep succeeds.
	s.Sweep(ctx)
	if closer.count("a1") != 2 {
		t.Fatalf("retry count %d, want 2", closer.count("a1"))
	}
	s.Sweep(ctx)
	if closer.count("a1") != 2 {
		t.Fatal("successful close must not be retried")
	}
}

func TestRearmRestoresDeadlinesFromStore(t *testing.T) {
	s, closer, clock := newTestScheduler()
	ctx := context.Background()

	lister := &fakeLister{auctions: []model.Auction{
		{ID: "past", Status: model.AuctionActive, EndTime: clock.Now().Add(-time.Minute)},
		{ID: "future", Status: model.AuctionActive, EndTime: clock.Now().Add(time.Hour)},
		{ID: "multi-year", Status: model.AuctionActive, EndTime: clock.Now().Add(400 * 24 * time.Hour)},
	}}
	if err := s.Rearm(ctx, lister); err != nil {
		t.Fatalf("rearm: %v", err)
	}

	// The overdue auction is closed by the immediate sweep inside Rearm.
	if closer.count("past") != 1 {
		t.Fatalf("overdue auction dispatched %d times, want 1", closer.count("past"))
	}
	if closer.count("future") != 0 {
		t.Fatal("future auction dispatched early")
	}

	clock.Advance(2 * time.Hour)
	s.Sweep(ctx)
	if closer.count("future") != 1 {
		t.Fatalf("future auction dispatched %d times, want 1", closer.count("future"))
	}

	// Re-arming is not bounded by any horizon: an end time beyond a year
	// still fires once it is due.
	if closer.count("multi-year") != 0 {
		t.Fatal("multi-year auction dispatched early")
	}
	clock.Advance(401 * 24 * time.Hour)
	s.Sweep(ctx)
	if closer.count("multi-year") != 1 {
		t.Fatalf("multi-year auction dispatched %d times, want 1", closer.count("multi-year"))
	}
}

func TestStartSweepsOnTicker(t *testing.T) {
	clock := &fakeClock{t: time.Now().UTC()}
	closer := newFakeCloser()
	s := New(closer, clock.Now, 10*time.Millisecond)
	ctx := context.Background()

	s.Schedule("a1", clock.Now().Add(time.Millisecond))
	clock.Advance(time.Second)

	s.Start(ctx)
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for closer.count("a1") == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if closer.count("a1") != 1 {
		t.Fatalf("ticker sweep dispatched %d times, want 1", closer.count("a1"))
	}
}

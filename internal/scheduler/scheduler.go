// Package scheduler tracks every active auction's end time and triggers the
// close transition exactly once, independent of bid traffic. The trigger
// condition is re-evaluated from absolute state (end time versus the shared
// clock), so a missed sweep is caught by the next one and restarts self-heal
// by re-arming from the store.
package scheduler

import (
	"container/heap"
	"context"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/moto-auction/internal/model"
	"github.com/iliyamo/moto-auction/internal/store"
)

// Closer is the engine-side surface the scheduler dispatches to. CloseIfDue
// must be idempotent: the scheduler may fire for an auction that a
// concurrent cancel has already taken out of ACTIVE, and that attempt must
// be a no-op.
type Closer interface {
	CloseIfDue(ctx context.Context, auctionID string, force bool) error
}

// Lister is the store-side surface used to re-arm deadlines after a restart.
type Lister interface {
	ListActiveEndingBefore(ctx context.Context, t time.Time) ([]model.Auction, error)
}

// entry is one armed deadline in the heap. Cancelled entries stay in the
// heap flagged dead and are skipped when popped, which is cheaper than
// re-heapifying on every cancel.
type entry struct {
	auctionID string
	endTime   time.Time
	dead      bool
	index     int
}

// deadlineHeap orders entries by end time, earliest first.
type deadlineHeap []*entry

func (h deadlineHeap) Len() int           { return len(h) }
func (h deadlineHeap) Less(i, j int) bool { return h[i].endTime.Before(h[j].endTime) }
func (h deadlineHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *deadlineHeap) Push(x interface{}) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *deadlineHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Scheduler sweeps a time-ordered index of auction deadlines on a fixed
// interval and dispatches due auctions to the engine. It shares the
// engine's clock so expiry decisions and bid timestamps can never disagree
// about "now".
type Scheduler struct {
	closer   Closer
	now      func() time.Time
	interval time.Duration

	mu      sync.Mutex
	heap    deadlineHeap
	entries map[string]*entry

	stop    chan struct{}
	stopped sync.Once
	done    chan struct{}
}

// New builds a scheduler dispatching to closer, reading now for time and
// sweeping every interval.
func New(closer Closer, now func() time.Time, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Scheduler{
		closer:   closer,
		now:      now,
		interval: interval,
		entries:  make(map[string]*entry),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Schedule arms (or re-arms) the close timer for an auction.
func (s *Scheduler) Schedule(auctionID string, endTime time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.entries[auctionID]; ok {
		old.dead = true
	}
	e := &entry{auctionID: auctionID, endTime: endTime}
	s.entries[auctionID] = e
	heap.Push(&s.heap, e)
}

// Cancel disarms the timer for an auction. Unknown ids are ignored; the
// engine treats a late fire as a no-op anyway.
func (s *Scheduler) Cancel(auctionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[auctionID]; ok {
		e.dead = true
		delete(s.entries, auctionID)
	}
}

// Rearm loads every auction still ACTIVE in the store and arms its close
// timer, then runs one immediate sweep so deadlines that expired while the
// process was down are handled right away. Called once at boot; between
// restarts the in-process heap is authoritative.
func (s *Scheduler) Rearm(ctx context.Context, lister Lister) error {
	auctions, err := lister.ListActiveEndingBefore(ctx, store.MaxEndTime)
	if err != nil {
		return err
	}
	for _, a := range auctions {
		s.Schedule(a.ID, a.EndTime)
	}
	s.Sweep(ctx)
	return nil
}

// Start runs the sweep loop until Stop is called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep(ctx)
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the sweep loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.stopped.Do(func() { close(s.stop) })
	<-s.done
}

// Sweep pops every due deadline and dispatches it. Exported so tests and
// the boot path can drive it without waiting for the ticker. Dispatch
// happens outside the scheduler mutex; the engine's per-auction lock is the
// serialization point, and CloseIfDue re-checks state so a sweep racing a
// last-moment bid or a cancel resolves correctly.
func (s *Scheduler) Sweep(ctx context.Context) {
	now := s.now()
	var due []string

	s.mu.Lock()
	for s.heap.Len() > 0 {
		next := s.heap[0]
		if next.dead {
			heap.Pop(&s.heap)
			continue
		}
		if next.endTime.After(now) {
			break
		}
		heap.Pop(&s.heap)
		delete(s.entries, next.auctionID)
		due = append(due, next.auctionID)
	}
	s.mu.Unlock()

	for _, id := range due {
		if err := s.closer.CloseIfDue(ctx, id, false); err != nil {
			// The close stays due; the next sweep re-arms it from the store
			// if the in-memory entry is gone.
			log.Printf("scheduler: close of auction %s failed: %v", id, err)
			s.Schedule(id, now)
		}
	}
}

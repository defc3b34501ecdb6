// Package engine implements the auction lifecycle and bidding core: bid
// validation and commit, the auction state machine, the end-time close, and
// the consistency backstop that keeps auction and item status in agreement.
// All mutations of one auction run under that auction's lock; operations on
// different auctions never block each other.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/moto-auction/internal/broadcast"
	"github.com/iliyamo/moto-auction/internal/model"
	"github.com/iliyamo/moto-auction/internal/store"
)

// EndScheduler is how the engine arms and disarms end-time timers. The
// scheduler package satisfies it; tests plug in fakes.
type EndScheduler interface {
	Schedule(auctionID string, endTime time.Time)
	Cancel(auctionID string)
}

// Engine owns every mutation of auction and item state. Construct with New,
// then attach the scheduler with SetScheduler before serving traffic.
type Engine struct {
	store   store.Store
	hub     *broadcast.Hub
	locks   *lockTable
	now     func() time.Time
	reserve ReservePolicy
	sched   EndScheduler
}

// New builds an engine over the given store and hub. reserve may be nil, in
// which case any positive opening bid is accepted. The clock defaults to
// UTC wall time; tests override it with WithClock.
func New(st store.Store, hub *broadcast.Hub, reserve ReservePolicy) *Engine {
	if reserve == nil {
		reserve = FlatReserve(decimal.Zero)
	}
	return &Engine{
		store:   st,
		hub:     hub,
		locks:   newLockTable(),
		now:     func() time.Time { return time.Now().UTC() },
		reserve: reserve,
	}
}

// WithClock replaces the engine's time source. Bid timestamps, expiry checks
// and the scheduler all read this one clock so a bid accepted a tick before
// expiry can never race the close on skewed clocks.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// SetScheduler attaches the end-time scheduler. Must be called before
// CreateAuction is served; nil is tolerated for tests that drive closes
// directly.
func (e *Engine) SetScheduler(s EndScheduler) { e.sched = s }

// Now exposes the engine clock for components that must share it.
func (e *Engine) Now() time.Time { return e.now() }

// CreateAuction opens a new auction for a listed item and flips the item
// into IN_AUCTION in the same atomic write. The dealer must own the item
// and the bidding window must lie ahead of the clock.
func (e *Engine) CreateAuction(ctx context.Context, itemID string, dealerID uint64, start, end time.Time, visibility string) (*model.Auction, error) {
	if !end.After(start) || !end.After(e.now()) {
		return nil, ErrBadWindow
	}
	switch visibility {
	case model.VisibilityAll, model.VisibilityFavorites, model.VisibilityRadius:
	case "":
		visibility = model.VisibilityAll
	default:
		return nil, fmt.Errorf("unknown visibility %q", visibility)
	}

	// The LISTED -> IN_AUCTION flip is serialized per item: without this,
	// two concurrent creates could both observe LISTED and leave two live
	// auctions owning one item's status. The store's conditional write is
	// the backstop for writers outside this process.
	unlock := e.locks.acquire("item:" + itemID)
	defer unlock()

	it, err := e.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if it.DealerID != dealerID {
		return nil, ErrNotOwner
	}
	if it.Status != model.ItemListed {
		return nil, ErrItemUnavailable
	}

	now := e.now()
	a := &model.Auction{
		ID:         uuid.NewString(),
		ItemID:     it.ID,
		DealerID:   dealerID,
		StartTime:  start,
		EndTime:    end,
		Status:     model.AuctionActive,
		Visibility: visibility,
		EventSeq:   1, // auction_created
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	it.Status = model.ItemInAuction
	it.UpdatedAt = now

	if err := e.store.CreateAuction(ctx, a, it); err != nil {
		if errors.Is(err, store.ErrItemConflict) {
			return nil, ErrItemUnavailable
		}
		return nil, err
	}
	e.publish(a, broadcast.EventAuctionCreated, broadcast.CreatedPayload{
		ItemID:   it.ID,
		DealerID: dealerID,
		EndTime:  end,
	})
	if e.sched != nil {
		e.sched.Schedule(a.ID, a.EndTime)
	}
	return a, nil
}

// PlaceBid validates and commits a single bid. The whole read-modify-write
// runs under the auction's lock, so concurrent bids on the same auction are
// totally ordered: each attempt sees the high bid left by the previous one,
// and every attempt that loses the amount race is rejected with BidTooLow
// rather than dropped. Expiry is re-checked here under the same lock the
// close transition takes, closing the last-moment-bid race.
func (e *Engine) PlaceBid(ctx context.Context, auctionID string, bidderID uint64, amount decimal.Decimal) (*model.Bid, error) {
	if amount.Cmp(decimal.Zero) <= 0 {
		return nil, Reject(ReasonInvalidAmount, "amount must be positive, got %s", amount)
	}

	unlock := e.locks.acquire(auctionID)
	defer unlock()

	a, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.Status != model.AuctionActive {
		return nil, Reject(ReasonAuctionNotActive, "auction is %s", a.Status)
	}
	now := e.now()
	if !now.Before(a.EndTime) {
		// The sweep has not run yet but the window is over; never accept.
		return nil, Reject(ReasonAuctionExpired, "auction ended at %s", a.EndTime.Format(time.RFC3339))
	}
	if now.Before(a.StartTime) {
		return nil, Reject(ReasonAuctionNotActive, "bidding opens at %s", a.StartTime.Format(time.RFC3339))
	}
	if bidderID == a.DealerID {
		return nil, Reject(ReasonSelfBid, "dealers cannot bid on their own auctions")
	}
	if a.HasBids() {
		if amount.Cmp(*a.HighestBidAmount) <= 0 {
			return nil, Reject(ReasonBidTooLow, "current high bid is %s", a.HighestBidAmount)
		}
	} else if min := e.reserve(a); amount.Cmp(min) < 0 {
		return nil, Reject(ReasonBidTooLow, "opening bid must be at least %s", min)
	}

	b := &model.Bid{
		ID:        uuid.NewString(),
		AuctionID: a.ID,
		BidderID:  bidderID,
		Amount:    amount,
		PlacedAt:  now,
	}
	a.HighestBidAmount = &b.Amount
	a.HighestBidderID = &b.BidderID
	a.EventSeq++
	a.UpdatedAt = now
	if err := e.store.CommitBid(ctx, b, a); err != nil {
		return nil, err
	}
	e.publish(a, broadcast.EventBidPlaced, broadcast.BidPayload{
		BidderID: bidderID,
		Amount:   amount,
	})
	return b, nil
}

// GetAuction returns the current auction record. Reads take no lock; the
// store hands back a consistent snapshot because every write replaces whole
// records.
func (e *Engine) GetAuction(ctx context.Context, auctionID string) (*model.Auction, error) {
	return e.store.GetAuction(ctx, auctionID)
}

// publish stamps the event with the auction's already-persisted sequence
// number and hands it to the hub. Callers hold the auction lock, which is
// what makes per-auction event order equal commit order.
func (e *Engine) publish(a *model.Auction, typ string, payload interface{}) {
	if e.hub == nil {
		return
	}
	e.hub.Publish(broadcast.Event{
		Type:      typ,
		AuctionID: a.ID,
		Sequence:  a.EventSeq,
		Timestamp: e.now(),
		Payload:   payload,
	})
}

// logConsistencyFault records an auction/item status disagreement. Repeated
// faults on one auction mean some caller is writing around the engine.
func logConsistencyFault(auctionID, itemID, got, want string) {
	log.Printf("reconciler: item %s status %s disagrees with auction %s, correcting to %s",
		itemID, got, auctionID, want)
}

package engine

import (
	"context"

	"github.com/iliyamo/moto-auction/internal/broadcast"
	"github.com/iliyamo/moto-auction/internal/model"
)

// The lifecycle state machine. Only the methods in this file write
// Auction.Status, and every one of them writes the companion Item.Status in
// the same store operation. That dual write is the primary enforcement of
// the auction/item agreement; the reconciler is the backstop.

// CloseIfDue performs the end-of-window transition for one auction:
// ACTIVE → CLOSED_NO_BIDS when no bid was committed, ACTIVE →
// PENDING_ACCEPTANCE otherwise. It is idempotent and safe to call
// speculatively: an auction that is not ACTIVE or not yet due is left
// untouched. The scheduler dispatches here; an explicit early close can too
// with force set.
func (e *Engine) CloseIfDue(ctx context.Context, auctionID string, force bool) error {
	unlock := e.locks.acquire(auctionID)
	defer unlock()

	a, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return err
	}
	if a.Status != model.AuctionActive {
		// Already closed or cancelled, possibly by a concurrent sweep.
		return nil
	}
	now := e.now()
	if !force && now.Before(a.EndTime) {
		return nil
	}

	it, err := e.store.GetItem(ctx, a.ItemID)
	if err != nil {
		return err
	}

	if a.HasBids() {
		a.Status = model.AuctionPendingAcceptance
		// The item stays IN_AUCTION until the dealer acts.
	} else {
		a.Status = model.AuctionClosedNoBids
		it.Status = model.ItemListed
	}
	a.EventSeq++
	a.UpdatedAt = now
	it.UpdatedAt = now
	if err := e.store.PutAuctionItem(ctx, a, it); err != nil {
		return err
	}
	e.publish(a, broadcast.EventAuctionClosed, broadcast.ClosedPayload{
		Outcome:          a.Status,
		HighestBidAmount: a.HighestBidAmount,
		HighestBidderID:  a.HighestBidderID,
	})
	e.reconcileLocked(ctx, a)
	return nil
}

// AcceptBid records the dealer's acceptance of the highest bid. It sets
// BidAccepted, the winner, the item's PENDING_COLLECTION status and the
// sold date in one atomic operation. Acceptance is irreversible.
func (e *Engine) AcceptBid(ctx context.Context, auctionID string, dealerID uint64) (*model.Auction, error) {
	unlock := e.locks.acquire(auctionID)
	defer unlock()

	a, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.DealerID != dealerID {
		return nil, ErrNotOwner
	}
	if a.Status != model.AuctionPendingAcceptance {
		return nil, ErrWrongState
	}
	it, err := e.store.GetItem(ctx, a.ItemID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	winner := *a.HighestBidderID
	a.Status = model.AuctionPendingCollection
	a.BidAccepted = true
	a.WinningBidderID = &winner
	a.EventSeq++
	a.UpdatedAt = now
	it.Status = model.ItemPendingCollection
	if it.SoldDate == nil {
		sold := now
		it.SoldDate = &sold
	}
	it.UpdatedAt = now
	if err := e.store.PutAuctionItem(ctx, a, it); err != nil {
		return nil, err
	}
	e.publish(a, broadcast.EventBidAccepted, broadcast.AcceptedPayload{
		WinningBidderID: winner,
		Amount:          *a.HighestBidAmount,
	})
	e.reconcileLocked(ctx, a)
	return a, nil
}

// ConfirmDeal records the dealer's confirmation of the deal terms. The
// order of the two confirmations is unconstrained; whichever lands second
// completes the auction. Confirming an already-confirmed or completed
// auction is a no-op.
func (e *Engine) ConfirmDeal(ctx context.Context, auctionID string, actorID uint64) (*model.Auction, error) {
	return e.confirm(ctx, auctionID, actorID, true)
}

// ConfirmCollection records the winning bidder's confirmation that the
// motorcycle has been collected. Same completion rule as ConfirmDeal.
func (e *Engine) ConfirmCollection(ctx context.Context, auctionID string, actorID uint64) (*model.Auction, error) {
	return e.confirm(ctx, auctionID, actorID, false)
}

func (e *Engine) confirm(ctx context.Context, auctionID string, actorID uint64, deal bool) (*model.Auction, error) {
	unlock := e.locks.acquire(auctionID)
	defer unlock()

	a, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.Status == model.AuctionCompleted {
		// Terminal; a late confirmation changes nothing.
		return a, nil
	}
	if a.Status != model.AuctionPendingCollection {
		return nil, ErrWrongState
	}
	if deal {
		if actorID != a.DealerID {
			return nil, ErrNotOwner
		}
		if a.DealConfirmed {
			return a, nil
		}
		a.DealConfirmed = true
	} else {
		if a.WinningBidderID == nil || actorID != *a.WinningBidderID {
			return nil, ErrNotWinner
		}
		if a.CollectionConfirmed {
			return a, nil
		}
		a.CollectionConfirmed = true
	}

	it, err := e.store.GetItem(ctx, a.ItemID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	completed := a.DealConfirmed && a.CollectionConfirmed
	if completed {
		a.Status = model.AuctionCompleted
		it.Status = model.ItemSold
	}
	a.EventSeq++
	a.UpdatedAt = now
	it.UpdatedAt = now
	if err := e.store.PutAuctionItem(ctx, a, it); err != nil {
		return nil, err
	}
	e.publish(a, broadcast.EventCollectionConfirmed, broadcast.CollectionPayload{
		DealConfirmed:       a.DealConfirmed,
		CollectionConfirmed: a.CollectionConfirmed,
		Completed:           completed,
	})
	e.reconcileLocked(ctx, a)
	return a, nil
}

// Cancel withdraws an auction before a bid is accepted. The item returns to
// LISTED and no winner is ever recorded. Cancelling an already-cancelled
// auction is a no-op; cancelling past acceptance is a state conflict.
func (e *Engine) Cancel(ctx context.Context, auctionID string, dealerID uint64) (*model.Auction, error) {
	unlock := e.locks.acquire(auctionID)
	defer unlock()

	a, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.DealerID != dealerID {
		return nil, ErrNotOwner
	}
	switch a.Status {
	case model.AuctionCancelled:
		return a, nil
	case model.AuctionActive, model.AuctionPendingAcceptance:
	default:
		return nil, ErrWrongState
	}
	it, err := e.store.GetItem(ctx, a.ItemID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	a.Status = model.AuctionCancelled
	a.EventSeq++
	a.UpdatedAt = now
	it.Status = model.ItemListed
	it.UpdatedAt = now
	if err := e.store.PutAuctionItem(ctx, a, it); err != nil {
		return nil, err
	}
	e.publish(a, broadcast.EventAuctionCancelled, nil)
	if e.sched != nil {
		e.sched.Cancel(a.ID)
	}
	e.reconcileLocked(ctx, a)
	return a, nil
}

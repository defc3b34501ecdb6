package engine

import (
	"context"

	"github.com/iliyamo/moto-auction/internal/model"
)

// The reconciler re-derives the item status an auction implies and corrects
// the item record when they disagree. The atomic dual write in lifecycle.go
// is the primary mechanism; this is the backstop against external write
// paths and partial failures. It replaces the manual repair scripts the old
// marketplace ran against production data.

// Reconcile checks one auction/item pair and repairs the item if needed. It
// takes the auction's lock like every other mutator, is idempotent, and is
// side-effect-free when the pair already agrees. It returns whether a
// correction was written.
func (e *Engine) Reconcile(ctx context.Context, auctionID string) (bool, error) {
	unlock := e.locks.acquire(auctionID)
	defer unlock()

	a, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return false, err
	}
	return e.reconcileLocked(ctx, a), nil
}

// reconcileLocked does the actual comparison and repair. Callers hold the
// auction lock. Errors are logged, not returned: a failed repair leaves the
// drift for the next pass and must never fail the transition that invoked
// the backstop.
func (e *Engine) reconcileLocked(ctx context.Context, a *model.Auction) bool {
	it, err := e.store.GetItem(ctx, a.ItemID)
	if err != nil {
		logConsistencyFault(a.ID, a.ItemID, "unreadable", "unknown")
		return false
	}
	want, soldDateRequired := impliedItemStatus(a, it)
	if it.Status == want && (!soldDateRequired || it.SoldDate != nil) {
		return false
	}

	logConsistencyFault(a.ID, it.ID, it.Status, want)
	it.Status = want
	now := e.now()
	if soldDateRequired && it.SoldDate == nil {
		sold := now
		it.SoldDate = &sold
	}
	it.UpdatedAt = now
	if err := e.store.PutAuctionItem(ctx, a, it); err != nil {
		logConsistencyFault(a.ID, it.ID, it.Status, want+" (write failed)")
		return false
	}
	return true
}

// impliedItemStatus maps auction state onto the item status it requires,
// and whether a sold date must exist. A WITHDRAWN item is left alone for
// auction outcomes that merely return the item to market, since withdrawal
// is a dealer decision taken outside any auction.
func impliedItemStatus(a *model.Auction, it *model.Item) (status string, soldDateRequired bool) {
	switch a.Status {
	case model.AuctionActive, model.AuctionPendingAcceptance:
		return model.ItemInAuction, false
	case model.AuctionPendingCollection:
		return model.ItemPendingCollection, true
	case model.AuctionCompleted:
		return model.ItemSold, true
	case model.AuctionClosedNoBids, model.AuctionCancelled:
		if it.Status == model.ItemWithdrawn {
			return model.ItemWithdrawn, false
		}
		return model.ItemListed, false
	default:
		return it.Status, false
	}
}

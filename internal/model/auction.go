package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Auction status values forming the lifecycle graph:
//
//	ACTIVE → CLOSED_NO_BIDS                 (end time passed, no bids)
//	ACTIVE → PENDING_ACCEPTANCE            (end time passed, bids exist)
//	PENDING_ACCEPTANCE → PENDING_COLLECTION (dealer accepted highest bid)
//	PENDING_COLLECTION → COMPLETED          (deal and collection confirmed)
//	ACTIVE | PENDING_ACCEPTANCE → CANCELLED (dealer withdrew)
//
// CLOSED_NO_BIDS, COMPLETED and CANCELLED are terminal. Transitions never
// move backward.
const (
	AuctionActive            = "ACTIVE"
	AuctionClosedNoBids      = "CLOSED_NO_BIDS"
	AuctionPendingAcceptance = "PENDING_ACCEPTANCE"
	AuctionPendingCollection = "PENDING_COLLECTION"
	AuctionCompleted         = "COMPLETED"
	AuctionCancelled         = "CANCELLED"
)

// Auction visibility values. Visibility restricts who may see and bid on an
// auction and is evaluated at query time by an injected policy, never stored
// per bid.
const (
	VisibilityAll       = "ALL"
	VisibilityFavorites = "FAVORITES"
	VisibilityRadius    = "RADIUS"
)

// Auction binds one item to a fixed bidding window with a single monotonic
// high bid. Status, WinningBidderID, BidAccepted and the confirmation flags
// are written only by the lifecycle engine; HighestBidAmount/HighestBidderID
// are written only by the bid processor. Every status write is paired with
// the companion Item status write in the same operation so the two records
// can never disagree about the outcome.
//
// Fields:
//  ID                  – primary key (UUID).
//  ItemID              – item being auctioned; always resolves to an Item.
//  DealerID            – owner, equal to the item's dealer.
//  StartTime, EndTime  – bidding window; EndTime > StartTime, both immutable.
//  Status              – lifecycle status (constants above).
//  Visibility          – who may see and bid (constants above).
//  HighestBidAmount    – amount of the latest committed bid, nil if none.
//  HighestBidderID     – bidder of the latest committed bid, nil if none.
//  WinningBidderID     – set exactly once, when the dealer accepts; non-nil
//                        iff BidAccepted is true.
//  BidAccepted         – irreversible acceptance marker.
//  DealConfirmed       – dealer confirmed the deal terms.
//  CollectionConfirmed – trader confirmed collection of the motorcycle.
//  EventSeq            – last event sequence number issued for this auction;
//                        strictly increasing and gap-free.
//  CreatedAt, UpdatedAt – row timestamps.
type Auction struct {
	ID                  string           // auctions.id
	ItemID              string           // auctions.item_id
	DealerID            uint64           // auctions.dealer_id
	StartTime           time.Time        // auctions.start_time
	EndTime             time.Time        // auctions.end_time
	Status              string           // auctions.status
	Visibility          string           // auctions.visibility
	HighestBidAmount    *decimal.Decimal // auctions.highest_bid_amount (nullable)
	HighestBidderID     *uint64          // auctions.highest_bidder_id (nullable)
	WinningBidderID     *uint64          // auctions.winning_bidder_id (nullable)
	BidAccepted         bool             // auctions.bid_accepted
	DealConfirmed       bool             // auctions.deal_confirmed
	CollectionConfirmed bool             // auctions.collection_confirmed
	EventSeq            uint64           // auctions.event_seq
	CreatedAt           time.Time        // auctions.created_at
	UpdatedAt           time.Time        // auctions.updated_at
}

// Terminal reports whether the auction can never change state again.
func (a *Auction) Terminal() bool {
	switch a.Status {
	case AuctionClosedNoBids, AuctionCompleted, AuctionCancelled:
		return true
	}
	return false
}

// HasBids reports whether at least one bid has been committed.
func (a *Auction) HasBids() bool {
	return a.HighestBidAmount != nil && a.HighestBidderID != nil
}

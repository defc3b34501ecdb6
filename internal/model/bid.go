package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bid is an immutable, timestamped offer by a trader on an active auction.
// Only accepted bids are ever persisted; rejected attempts leave no record.
//
// Fields:
//  ID        – primary key (UUID).
//  AuctionID – auction the bid was placed on.
//  BidderID  – trader who placed the bid.
//  Amount    – offered price; strictly greater than the auction's high bid
//              at the moment the bid was committed.
//  PlacedAt  – commit timestamp, taken from the engine clock.
type Bid struct {
	ID        string          // bids.id
	AuctionID string          // bids.auction_id
	BidderID  uint64          // bids.bidder_id
	Amount    decimal.Decimal // bids.amount
	PlacedAt  time.Time       // bids.placed_at
}

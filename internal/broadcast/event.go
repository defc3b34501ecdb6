// Package broadcast delivers ordered lifecycle and bid events to observers.
// Delivery is at-most-once per subscriber connection and nothing is retained
// across restarts; reconnecting clients re-fetch current auction state over
// HTTP instead of relying on replay.
package broadcast

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event type values. The set is part of the wire contract and stable across
// transports (WebSocket, AMQP).
const (
	EventAuctionCreated      = "auction_created"
	EventBidPlaced           = "bid_placed"
	EventAuctionClosed       = "auction_closed"
	EventBidAccepted         = "bid_accepted"
	EventCollectionConfirmed = "collection_confirmed"
	EventAuctionCancelled    = "auction_cancelled"
)

// Event is the envelope published for every auction state change. Sequence
// is strictly increasing and gap-free per auction; it is allocated by the
// engine under the same lock that commits the change, so subscribers observe
// events in commit order.
type Event struct {
	Type      string      `json:"type"`
	AuctionID string      `json:"auction_id"`
	Sequence  uint64      `json:"sequence"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// CreatedPayload accompanies auction_created events.
type CreatedPayload struct {
	ItemID   string    `json:"item_id"`
	DealerID uint64    `json:"dealer_id"`
	EndTime  time.Time `json:"end_time"`
}

// BidPayload accompanies bid_placed events with the new high bid.
type BidPayload struct {
	BidderID uint64          `json:"bidder_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// ClosedPayload accompanies auction_closed events. Outcome is the auction
// status after the close, CLOSED_NO_BIDS or PENDING_ACCEPTANCE.
type ClosedPayload struct {
	Outcome          string           `json:"outcome"`
	HighestBidAmount *decimal.Decimal `json:"highest_bid_amount,omitempty"`
	HighestBidderID  *uint64          `json:"highest_bidder_id,omitempty"`
}

// AcceptedPayload accompanies bid_accepted events.
type AcceptedPayload struct {
	WinningBidderID uint64          `json:"winning_bidder_id"`
	Amount          decimal.Decimal `json:"amount"`
}

// CollectionPayload accompanies collection_confirmed events. Completed is
// true once both confirmations are in and the auction reached COMPLETED.
type CollectionPayload struct {
	DealConfirmed       bool `json:"deal_confirmed"`
	CollectionConfirmed bool `json:"collection_confirmed"`
	Completed           bool `json:"completed"`
}

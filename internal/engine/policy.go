package engine

import (
	"github.com/shopspring/decimal"

	"github.com/iliyamo/moto-auction/internal/model"
)

// ReservePolicy supplies the minimum acceptable opening bid for an auction.
// The exact business rule (flat reserve, per-dealer minimum, appraisal
// based) lives outside the engine; it is injected so the bidding core never
// guesses pricing intent. The policy is consulted only while the auction has
// no bids – after that the monotonic rule applies.
type ReservePolicy func(a *model.Auction) decimal.Decimal

// FlatReserve returns a policy demanding the same minimum for every auction.
func FlatReserve(min decimal.Decimal) ReservePolicy {
	return func(*model.Auction) decimal.Decimal { return min }
}

// VisibilityPolicy decides whether a viewer may see (and therefore bid on)
// an auction. Evaluated at query time, never stored per bid. The favorites
// and radius rules are domain policy owned by the marketplace layer; the
// default admits everyone, and the auction's own dealer always sees it.
type VisibilityPolicy func(a *model.Auction, viewerID uint64, role string) bool

// OpenVisibility admits every viewer regardless of the auction's
// visibility setting.
func OpenVisibility(*model.Auction, uint64, string) bool { return true }

// Package store defines the durable mapping from identifiers to auction,
// item, bid and user records. It is the only layer that persists state. The
// contract deliberately assumes nothing beyond per-record atomic replace plus
// a handful of paired writes; consistency across records is provided by the
// engine's per-auction serialization, not by the store.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/moto-auction/internal/model"
)

// ErrItemNotFound is returned when an item id does not resolve to a record.
// Handlers should translate this into an HTTP 404 response.
var ErrItemNotFound = errors.New("item not found")

// ErrAuctionNotFound is returned when an auction id does not resolve to a
// record. Handlers should translate this into an HTTP 404 response.
var ErrAuctionNotFound = errors.New("auction not found")

// ErrUserNotFound is returned when a user id or email does not resolve to a
// record.
var ErrUserNotFound = errors.New("user not found")

// ErrItemConflict is returned by CreateAuction when the stored item is no
// longer LISTED at write time, i.e. a concurrent auction claimed it first.
var ErrItemConflict = errors.New("item already claimed by another auction")

// MaxEndTime is the far-future bound callers pass to ListActiveEndingBefore
// to mean "every ACTIVE auction regardless of end time". Chosen to stay
// inside the range a MySQL DATETIME can represent.
var MaxEndTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// Store is the persistence contract consumed by the engine, the scheduler
// and the handlers. The paired-write methods (CreateAuction, CommitBid,
// PutAuctionItem) must apply both records or neither; the MySQL
// implementation uses a transaction, the in-memory one a single critical
// section. Callers must hold the per-auction lock when invoking any method
// that mutates auction state.
type Store interface {
	// Items.
	CreateItem(ctx context.Context, it *model.Item) error
	GetItem(ctx context.Context, id string) (*model.Item, error)
	PutItem(ctx context.Context, it *model.Item) error

	// Auctions.
	GetAuction(ctx context.Context, id string) (*model.Auction, error)
	PutAuction(ctx context.Context, a *model.Auction) error

	// CreateAuction inserts a new auction and updates the item's status in
	// one atomic operation: both records change or neither does. The item
	// write is conditional on the stored item still being LISTED; when
	// another auction claimed it first the whole operation fails with
	// ErrItemConflict.
	CreateAuction(ctx context.Context, a *model.Auction, it *model.Item) error

	// PutAuctionItem replaces an auction and its item together. Every status
	// transition goes through this method so the pair can never be observed
	// half-written.
	PutAuctionItem(ctx context.Context, a *model.Auction, it *model.Item) error

	// CommitBid appends an accepted bid and replaces the auction record
	// carrying the new high bid in one atomic operation.
	CommitBid(ctx context.Context, b *model.Bid, a *model.Auction) error

	// ListBids returns all committed bids for an auction ordered by placement.
	ListBids(ctx context.Context, auctionID string) ([]model.Bid, error)

	// ListActiveEndingBefore returns every auction still in ACTIVE status
	// whose end time is at or before the given instant. The scheduler uses it
	// to re-arm timers after a restart and to sweep for due closes.
	ListActiveEndingBefore(ctx context.Context, t time.Time) ([]model.Auction, error)

	// Users.
	GetUser(ctx context.Context, id uint64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, u *model.User) error
}

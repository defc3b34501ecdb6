package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/moto-auction/internal/model"
)

// Memory is an in-process Store used by unit tests and available as a
// storage backend when the service runs without MySQL. A single mutex
// guards the maps; consistency of concurrent auction mutations is still the
// engine's per-auction lock, the mutex only keeps individual operations
// atomic the way a row write is.
type Memory struct {
	mu       sync.RWMutex
	items    map[string]model.Item
	auctions map[string]model.Auction
	bids     map[string][]model.Bid
	users    map[uint64]model.User
	byEmail  map[string]uint64
	nextUser uint64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		items:    make(map[string]model.Item),
		auctions: make(map[string]model.Auction),
		bids:     make(map[string][]model.Bid),
		users:    make(map[uint64]model.User),
		byEmail:  make(map[string]uint64),
	}
}

func (s *Memory) CreateItem(_ context.Context, it *model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[it.ID] = cloneItem(it)
	return nil
}

func (s *Memory) GetItem(_ context.Context, id string) (*model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	out := cloneItem(&it)
	return &out, nil
}

func (s *Memory) PutItem(_ context.Context, it *model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[it.ID]; !ok {
		return ErrItemNotFound
	}
	s.items[it.ID] = cloneItem(it)
	return nil
}

func (s *Memory) GetAuction(_ context.Context, id string) (*model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.auctions[id]
	if !ok {
		return nil, ErrAuctionNotFound
	}
	out := cloneAuction(&a)
	return &out, nil
}

func (s *Memory) PutAuction(_ context.Context, a *model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.auctions[a.ID]; !ok {
		return ErrAuctionNotFound
	}
	s.auctions[a.ID] = cloneAuction(a)
	return nil
}

func (s *Memory) CreateAuction(_ context.Context, a *model.Auction, it *model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[it.ID]
	if !ok {
		return ErrItemNotFound
	}
	if cur.Status != model.ItemListed {
		return ErrItemConflict
	}
	s.auctions[a.ID] = cloneAuction(a)
	s.items[it.ID] = cloneItem(it)
	return nil
}

func (s *Memory) PutAuctionItem(_ context.Context, a *model.Auction, it *model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.auctions[a.ID]; !ok {
		return ErrAuctionNotFound
	}
	if _, ok := s.items[it.ID]; !ok {
		return ErrItemNotFound
	}
	s.auctions[a.ID] = cloneAuction(a)
	s.items[it.ID] = cloneItem(it)
	return nil
}

func (s *Memory) CommitBid(_ context.Context, b *model.Bid, a *model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.auctions[a.ID]; !ok {
		return ErrAuctionNotFound
	}
	s.bids[b.AuctionID] = append(s.bids[b.AuctionID], *b)
	s.auctions[a.ID] = cloneAuction(a)
	return nil
}

func (s *Memory) ListBids(_ context.Context, auctionID string) ([]model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.bids[auctionID]
	out := make([]model.Bid, len(src))
	copy(out, src)
	return out, nil
}

func (s *Memory) ListActiveEndingBefore(_ context.Context, t time.Time) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Auction
	for _, a := range s.auctions {
		if a.Status == model.AuctionActive && !a.EndTime.After(t) {
			out = append(out, cloneAuction(&a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	return out, nil
}

func (s *Memory) GetUser(_ context.Context, id uint64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (s *Memory) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *Memory) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUser++
	u.ID = s.nextUser
	s.users[u.ID] = *u
	s.byEmail[u.Email] = u.ID
	return nil
}

// cloneItem and cloneAuction copy pointer fields so callers can never mutate
// stored state through a returned record.
func cloneItem(it *model.Item) model.Item {
	out := *it
	if it.SoldDate != nil {
		t := *it.SoldDate
		out.SoldDate = &t
	}
	return out
}

func cloneAuction(a *model.Auction) model.Auction {
	out := *a
	if a.HighestBidAmount != nil {
		d := *a.HighestBidAmount
		out.HighestBidAmount = &d
	}
	if a.HighestBidderID != nil {
		v := *a.HighestBidderID
		out.HighestBidderID = &v
	}
	if a.WinningBidderID != nil {
		v := *a.WinningBidderID
		out.WinningBidderID = &v
	}
	return out
}

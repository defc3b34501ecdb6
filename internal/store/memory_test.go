package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/moto-auction/internal/model"
)

func seedAuction(t *testing.T, st *Memory, id string, status string, end time.Time) *model.Auction {
	t.Helper()
	ctx := context.Background()
	it := &model.Item{ID: "item-" + id, DealerID: 1, Status: model.ItemListed}
	if err := st.CreateItem(ctx, it); err != nil {
		t.Fatal(err)
	}
	a := &model.Auction{
		ID:       id,
		ItemID:   it.ID,
		DealerID: 1,
		Status:   status,
		EndTime:  end,
		EventSeq: 1,
	}
	it.Status = model.ItemInAuction
	if err := st.CreateAuction(ctx, a, it); err != nil {
		t.Fatal(err)
	}
	return a
}

func TestMemoryNotFoundSentinels(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	if _, err := st.GetItem(ctx, "nope"); err != ErrItemNotFound {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	if _, err := st.GetAuction(ctx, "nope"); err != ErrAuctionNotFound {
		t.Fatalf("expected ErrAuctionNotFound, got %v", err)
	}
	if _, err := st.GetUser(ctx, 1); err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := st.PutAuction(ctx, &model.Auction{ID: "nope"}); err != ErrAuctionNotFound {
		t.Fatalf("put of unknown auction: expected ErrAuctionNotFound, got %v", err)
	}
}

func TestMemoryListActiveEndingBefore(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	seedAuction(t, st, "due-late", model.AuctionActive, base.Add(2*time.Hour))
	seedAuction(t, st, "due-early", model.AuctionActive, base.Add(time.Minute))
	seedAuction(t, st, "closed", model.AuctionClosedNoBids, base.Add(time.Minute))

	got, err := st.ListActiveEndingBefore(ctx, base.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "due-early" {
		t.Fatalf("expected only due-early, got %+v", got)
	}

	// Wider horizon returns both active auctions in end-time order.
	got, err = st.ListActiveEndingBefore(ctx, base.Add(3*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "due-early" || got[1].ID != "due-late" {
		t.Fatalf("expected [due-early due-late], got %+v", got)
	}
}

func TestMemoryCreateAuctionRequiresListedItem(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := seedAuction(t, st, "a1", model.AuctionActive, base.Add(time.Hour))

	// The item is IN_AUCTION now; a second auction must not claim it.
	b := &model.Auction{
		ID:       "a2",
		ItemID:   a.ItemID,
		DealerID: 1,
		Status:   model.AuctionActive,
		EndTime:  base.Add(2 * time.Hour),
		EventSeq: 1,
	}
	it := &model.Item{ID: a.ItemID, DealerID: 1, Status: model.ItemInAuction}
	if err := st.CreateAuction(ctx, b, it); err != ErrItemConflict {
		t.Fatalf("expected ErrItemConflict, got %v", err)
	}
	if _, err := st.GetAuction(ctx, "a2"); err != ErrAuctionNotFound {
		t.Fatalf("losing auction must not be persisted, got %v", err)
	}
}

func TestMemoryCommitBidUpdatesBothRecords(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := seedAuction(t, st, "a1", model.AuctionActive, base.Add(time.Hour))

	amount := decimal.NewFromInt(1000)
	bidder := uint64(7)
	a.HighestBidAmount = &amount
	a.HighestBidderID = &bidder
	a.EventSeq++
	b := &model.Bid{ID: "b1", AuctionID: a.ID, BidderID: bidder, Amount: amount, PlacedAt: base}
	if err := st.CommitBid(ctx, b, a); err != nil {
		t.Fatal(err)
	}

	got, err := st.GetAuction(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.HighestBidAmount == nil || got.HighestBidAmount.Cmp(amount) != 0 {
		t.Fatalf("high bid not persisted: %+v", got)
	}
	bids, err := st.ListBids(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(bids) != 1 || bids[0].ID != "b1" {
		t.Fatalf("expected one bid b1, got %+v", bids)
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := seedAuction(t, st, "a1", model.AuctionActive, base.Add(time.Hour))

	got, _ := st.GetAuction(ctx, a.ID)
	got.Status = model.AuctionCancelled // mutate the returned copy

	again, _ := st.GetAuction(ctx, a.ID)
	if again.Status != model.AuctionActive {
		t.Fatal("store state mutated through a returned record")
	}
}

func TestMemoryUsersByEmail(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	u := &model.User{Email: "dealer@example.com", PasswordHash: "x", Role: model.RoleDealer}
	if err := st.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	if u.ID == 0 {
		t.Fatal("CreateUser must assign an id")
	}
	got, err := st.GetUserByEmail(ctx, "dealer@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID || got.Role != model.RoleDealer {
		t.Fatalf("unexpected user %+v", got)
	}
}

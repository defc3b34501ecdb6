package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/moto-auction/internal/model"
)

// MySQL implements Store on top of a *sql.DB opened by the database package.
// Paired writes run inside a transaction so both rows change or neither
// does. Monetary amounts are stored as DECIMAL(12,2) and scanned through
// strings to avoid float rounding.
type MySQL struct {
	db *sql.DB
}

// NewMySQL returns a MySQL store bound to the provided database handle.
func NewMySQL(db *sql.DB) *MySQL { return &MySQL{db: db} }

// DB exposes the underlying handle for health checks.
func (s *MySQL) DB() *sql.DB { return s.db }

func (s *MySQL) CreateItem(ctx context.Context, it *model.Item) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (id, dealer_id, brand, model, year, mileage, status, sold_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.DealerID, it.Brand, it.Model, it.Year, it.Mileage, it.Status, it.SoldDate, it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (s *MySQL) GetItem(ctx context.Context, id string) (*model.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, dealer_id, brand, model, year, mileage, status, sold_date, created_at, updated_at
		 FROM items WHERE id = ?`, id)
	return scanItem(row)
}

func (s *MySQL) PutItem(ctx context.Context, it *model.Item) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE items SET dealer_id = ?, brand = ?, model = ?, year = ?, mileage = ?, status = ?, sold_date = ?, updated_at = ?
		 WHERE id = ?`,
		it.DealerID, it.Brand, it.Model, it.Year, it.Mileage, it.Status, it.SoldDate, it.UpdatedAt, it.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// UPDATE with identical values also reports zero rows; confirm the
		// row exists before reporting not-found.
		if _, getErr := s.GetItem(ctx, it.ID); getErr != nil {
			return getErr
		}
	}
	return nil
}

func (s *MySQL) GetAuction(ctx context.Context, id string) (*model.Auction, error) {
	row := s.db.QueryRowContext(ctx, auctionSelect+` WHERE id = ?`, id)
	return scanAuction(row)
}

func (s *MySQL) PutAuction(ctx context.Context, a *model.Auction) error {
	_, err := s.db.ExecContext(ctx, auctionUpdate, auctionUpdateArgs(a)...)
	if err != nil {
		return fmt.Errorf("update auction: %w", err)
	}
	return nil
}

func (s *MySQL) CreateAuction(ctx context.Context, a *model.Auction, it *model.Item) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		// Claim the item first, conditional on it still being LISTED. A
		// concurrent create loses here and the transaction rolls back.
		res, err := tx.ExecContext(ctx,
			`UPDATE items SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			it.Status, it.UpdatedAt, it.ID, model.ItemListed,
		)
		if err != nil {
			return fmt.Errorf("claim item for new auction: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrItemConflict
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO auctions (id, item_id, dealer_id, start_time, end_time, status, visibility,
								   highest_bid_amount, highest_bidder_id, winning_bidder_id,
								   bid_accepted, deal_confirmed, collection_confirmed, event_seq,
								   created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.ItemID, a.DealerID, a.StartTime, a.EndTime, a.Status, a.Visibility,
			nullDecimal(a.HighestBidAmount), a.HighestBidderID, a.WinningBidderID,
			a.BidAccepted, a.DealConfirmed, a.CollectionConfirmed, a.EventSeq,
			a.CreatedAt, a.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert auction: %w", err)
		}
		return nil
	})
}

func (s *MySQL) PutAuctionItem(ctx context.Context, a *model.Auction, it *model.Item) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, auctionUpdate, auctionUpdateArgs(a)...); err != nil {
			return fmt.Errorf("update auction: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET status = ?, sold_date = ?, updated_at = ? WHERE id = ?`,
			it.Status, it.SoldDate, it.UpdatedAt, it.ID,
		); err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		return nil
	})
}

func (s *MySQL) CommitBid(ctx context.Context, b *model.Bid, a *model.Auction) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO bids (id, auction_id, bidder_id, amount, placed_at) VALUES (?, ?, ?, ?, ?)`,
			b.ID, b.AuctionID, b.BidderID, b.Amount.String(), b.PlacedAt,
		); err != nil {
			return fmt.Errorf("insert bid: %w", err)
		}
		if _, err := tx.ExecContext(ctx, auctionUpdate, auctionUpdateArgs(a)...); err != nil {
			return fmt.Errorf("update auction high bid: %w", err)
		}
		return nil
	})
}

func (s *MySQL) ListBids(ctx context.Context, auctionID string) ([]model.Bid, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, auction_id, bidder_id, amount, placed_at
		 FROM bids WHERE auction_id = ? ORDER BY placed_at, id`, auctionID)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	defer rows.Close()

	var bids []model.Bid
	for rows.Next() {
		var b model.Bid
		var amount string
		if err := rows.Scan(&b.ID, &b.AuctionID, &b.BidderID, &amount, &b.PlacedAt); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("bad bid amount %q: %w", amount, err)
		}
		b.Amount = d
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

func (s *MySQL) ListActiveEndingBefore(ctx context.Context, t time.Time) ([]model.Auction, error) {
	rows, err := s.db.QueryContext(ctx,
		auctionSelect+` WHERE status = ? AND end_time <= ? ORDER BY end_time`,
		model.AuctionActive, t,
	)
	if err != nil {
		return nil, fmt.Errorf("list active auctions: %w", err)
	}
	defer rows.Close()

	var out []model.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *MySQL) GetUser(ctx context.Context, id uint64) (*model.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, role, created_at FROM users WHERE id = ?`, id))
}

func (s *MySQL) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, role, created_at FROM users WHERE email = ?`, email))
}

func (s *MySQL) CreateUser(ctx context.Context, u *model.User) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, role, created_at) VALUES (?, ?, ?, ?)`,
		u.Email, u.PasswordHash, u.Role, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// withTx runs fn inside a transaction, rolling back unless commit succeeds.
func (s *MySQL) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

const auctionSelect = `SELECT id, item_id, dealer_id, start_time, end_time, status, visibility,
	   highest_bid_amount, highest_bidder_id, winning_bidder_id,
	   bid_accepted, deal_confirmed, collection_confirmed, event_seq,
	   created_at, updated_at
  FROM auctions`

const auctionUpdate = `UPDATE auctions
   SET status = ?, visibility = ?,
	   highest_bid_amount = ?, highest_bidder_id = ?, winning_bidder_id = ?,
	   bid_accepted = ?, deal_confirmed = ?, collection_confirmed = ?, event_seq = ?,
	   updated_at = ?
 WHERE id = ?`

func auctionUpdateArgs(a *model.Auction) []interface{} {
	return []interface{}{
		a.Status, a.Visibility,
		nullDecimal(a.HighestBidAmount), a.HighestBidderID, a.WinningBidderID,
		a.BidAccepted, a.DealConfirmed, a.CollectionConfirmed, a.EventSeq,
		a.UpdatedAt,
		a.ID,
	}
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(r rowScanner) (*model.Item, error) {
	var it model.Item
	var soldDate sql.NullTime
	err := r.Scan(&it.ID, &it.DealerID, &it.Brand, &it.Model, &it.Year, &it.Mileage,
		&it.Status, &soldDate, &it.CreatedAt, &it.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	if soldDate.Valid {
		t := soldDate.Time
		it.SoldDate = &t
	}
	return &it, nil
}

func scanAuction(r rowScanner) (*model.Auction, error) {
	var a model.Auction
	var amount sql.NullString
	var bidder, winner sql.NullInt64
	err := r.Scan(&a.ID, &a.ItemID, &a.DealerID, &a.StartTime, &a.EndTime, &a.Status, &a.Visibility,
		&amount, &bidder, &winner,
		&a.BidAccepted, &a.DealConfirmed, &a.CollectionConfirmed, &a.EventSeq,
		&a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrAuctionNotFound
	}
	if err != nil {
		return nil, err
	}
	if amount.Valid {
		d, derr := decimal.NewFromString(amount.String)
		if derr != nil {
			return nil, fmt.Errorf("bad high bid amount %q: %w", amount.String, derr)
		}
		a.HighestBidAmount = &d
	}
	if bidder.Valid {
		v := uint64(bidder.Int64)
		a.HighestBidderID = &v
	}
	if winner.Valid {
		v := uint64(winner.Int64)
		a.WinningBidderID = &v
	}
	return &a, nil
}

func (s *MySQL) scanUser(r rowScanner) (*model.User, error) {
	var u model.User
	err := r.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func nullDecimal(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

package model

import "time"

// Item status values. An item moves from LISTED into IN_AUCTION when an
// auction is created for it, and from there either back to LISTED (no sale),
// on to PENDING_COLLECTION when a bid is accepted, and finally to SOLD once
// the buyer has collected the motorcycle. WITHDRAWN is terminal and set only
// by the dealer outside any running auction.
const (
	ItemListed            = "LISTED"
	ItemInAuction         = "IN_AUCTION"
	ItemPendingCollection = "PENDING_COLLECTION"
	ItemSold              = "SOLD"
	ItemWithdrawn         = "WITHDRAWN"
)

// Item represents a motorcycle listing owned by a dealer. The descriptive
// attributes (brand, model, year, notes) are opaque to the auction engine;
// only Status and SoldDate participate in lifecycle invariants. Status is
// never written directly by handlers – the engine updates it together with
// the owning auction's status in a single operation.
//
// Fields:
//  ID        – primary key (UUID).
//  DealerID  – user who owns the listing.
//  Brand     – manufacturer name, display only.
//  Model     – model name, display only.
//  Year      – model year, display only.
//  Mileage   – odometer reading in kilometres, display only.
//  Status    – sale lifecycle status (see constants above).
//  SoldDate  – set once, on the first transition into PENDING_COLLECTION;
//              nil while the item has never been sold.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Item struct {
	ID        string     // items.id
	DealerID  uint64     // items.dealer_id
	Brand     string     // items.brand
	Model     string     // items.model
	Year      int        // items.year
	Mileage   int        // items.mileage
	Status    string     // items.status
	SoldDate  *time.Time // items.sold_date (nullable)
	CreatedAt time.Time  // items.created_at
	UpdatedAt time.Time  // items.updated_at
}

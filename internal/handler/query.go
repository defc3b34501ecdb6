package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/moto-auction/internal/model"
	"github.com/iliyamo/moto-auction/internal/store"
)

// ListAuctions handles GET /v1/auctions. It returns every ACTIVE auction
// the viewer may see, soonest-ending first.
func (h *AuctionHandler) ListAuctions(c echo.Context) error {
	viewerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role := getRole(c)
	auctions, err := h.Store.ListActiveEndingBefore(c.Request().Context(), store.MaxEndTime)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]echo.Map, 0, len(auctions))
	for i := range auctions {
		a := &auctions[i]
		if viewerID != a.DealerID && !h.Visibility(a, viewerID, role) {
			continue
		}
		out = append(out, auctionView(a))
	}
	return c.JSON(http.StatusOK, echo.Map{"auctions": out})
}

// GetAuction handles GET /v1/auctions/:id. It returns the current auction
// state; reconnecting event-stream clients use this instead of event replay.
func (h *AuctionHandler) GetAuction(c echo.Context) error {
	viewerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	a, err := h.Engine.GetAuction(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	if viewerID != a.DealerID && !h.Visibility(a, viewerID, getRole(c)) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "auction not found"})
	}
	return c.JSON(http.StatusOK, auctionView(a))
}

// ListBids handles GET /v1/auctions/:id/bids, returning the committed bid
// history in placement order.
func (h *AuctionHandler) ListBids(c echo.Context) error {
	viewerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	a, err := h.Engine.GetAuction(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	if viewerID != a.DealerID && !h.Visibility(a, viewerID, getRole(c)) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "auction not found"})
	}
	bids, err := h.Store.ListBids(c.Request().Context(), a.ID)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]echo.Map, 0, len(bids))
	for _, b := range bids {
		out = append(out, echo.Map{
			"bid_id":    b.ID,
			"bidder_id": b.BidderID,
			"amount":    b.Amount,
			"placed_at": b.PlacedAt.Format(time.RFC3339Nano),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"auction_id": a.ID, "bids": out})
}

// auctionView shapes an auction record for JSON responses.
func auctionView(a *model.Auction) echo.Map {
	v := echo.Map{
		"id":                   a.ID,
		"item_id":              a.ItemID,
		"dealer_id":            a.DealerID,
		"start_time":           a.StartTime.Format(time.RFC3339),
		"end_time":             a.EndTime.Format(time.RFC3339),
		"status":               a.Status,
		"visibility":           a.Visibility,
		"bid_accepted":         a.BidAccepted,
		"deal_confirmed":       a.DealConfirmed,
		"collection_confirmed": a.CollectionConfirmed,
	}
	if a.HighestBidAmount != nil {
		v["highest_bid_amount"] = a.HighestBidAmount
	}
	if a.HighestBidderID != nil {
		v["highest_bidder_id"] = a.HighestBidderID
	}
	if a.WinningBidderID != nil {
		v["winning_bidder_id"] = a.WinningBidderID
	}
	return v
}

// itemView shapes an item record for JSON responses.
func itemView(it *model.Item) echo.Map {
	v := echo.Map{
		"id":        it.ID,
		"dealer_id": it.DealerID,
		"brand":     it.Brand,
		"model":     it.Model,
		"year":      it.Year,
		"mileage":   it.Mileage,
		"status":    it.Status,
	}
	if it.SoldDate != nil {
		v["sold_date"] = it.SoldDate.Format(time.RFC3339)
	}
	return v
}

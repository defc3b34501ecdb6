package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/moto-auction/internal/engine"
	"github.com/iliyamo/moto-auction/internal/model"
	"github.com/iliyamo/moto-auction/internal/store"
)

// AuctionHandler exposes the auction command surface: listing creation,
// auction creation, bidding, acceptance, the confirmation pair,
// cancellation and on-demand reconciliation.
type AuctionHandler struct {
	Store      store.Store
	Engine     *engine.Engine
	Visibility engine.VisibilityPolicy
}

// NewAuctionHandler constructs an AuctionHandler. visibility may be nil, in
// which case every authenticated user sees every auction.
func NewAuctionHandler(st store.Store, eng *engine.Engine, visibility engine.VisibilityPolicy) *AuctionHandler {
	if st == nil || eng == nil {
		panic("nil dependency passed to NewAuctionHandler")
	}
	if visibility == nil {
		visibility = engine.OpenVisibility
	}
	return &AuctionHandler{Store: st, Engine: eng, Visibility: visibility}
}

// CreateItem handles POST /v1/items. Dealers list a motorcycle before
// opening an auction for it.
func (h *AuctionHandler) CreateItem(c echo.Context) error {
	dealerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Brand   string `json:"brand"`
		Model   string `json:"model"`
		Year    int    `json:"year"`
		Mileage int    `json:"mileage"`
	}
	if err := c.Bind(&body); err != nil || body.Brand == "" || body.Model == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "brand and model are required"})
	}
	now := h.Engine.Now()
	it := &model.Item{
		ID:        uuid.NewString(),
		DealerID:  dealerID,
		Brand:     body.Brand,
		Model:     body.Model,
		Year:      body.Year,
		Mileage:   body.Mileage,
		Status:    model.ItemListed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Store.CreateItem(c.Request().Context(), it); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, itemView(it))
}

// CreateAuction handles POST /v1/auctions. The caller must own the item.
func (h *AuctionHandler) CreateAuction(c echo.Context) error {
	dealerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ItemID     string `json:"item_id"`
		StartTime  string `json:"start_time"`
		EndTime    string `json:"end_time"`
		Visibility string `json:"visibility"`
	}
	if err := c.Bind(&body); err != nil || body.ItemID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "item_id is required"})
	}
	start, err := time.Parse(time.RFC3339, body.StartTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be RFC3339"})
	}
	end, err := time.Parse(time.RFC3339, body.EndTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be RFC3339"})
	}
	a, err := h.Engine.CreateAuction(c.Request().Context(), body.ItemID, dealerID, start, end, body.Visibility)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, auctionView(a))
}

// PlaceBid handles POST /v1/auctions/:id/bids.
func (h *AuctionHandler) PlaceBid(c echo.Context) error {
	bidderID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	auctionID := c.Param("id")
	var body struct {
		Amount string `json:"amount"`
	}
	if err := c.Bind(&body); err != nil || body.Amount == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount is required"})
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be a decimal number"})
	}

	// Visibility gates bidding the same way it gates viewing.
	a, err := h.Engine.GetAuction(c.Request().Context(), auctionID)
	if err != nil {
		return writeError(c, err)
	}
	if !h.Visibility(a, bidderID, getRole(c)) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "auction not found"})
	}

	bid, err := h.Engine.PlaceBid(c.Request().Context(), auctionID, bidderID, amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"bid_id":    bid.ID,
		"amount":    bid.Amount,
		"placed_at": bid.PlacedAt.Format(time.RFC3339Nano),
	})
}

// AcceptBid handles POST /v1/auctions/:id/accept.
func (h *AuctionHandler) AcceptBid(c echo.Context) error {
	dealerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	a, err := h.Engine.AcceptBid(c.Request().Context(), c.Param("id"), dealerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, auctionView(a))
}

// ConfirmDeal handles POST /v1/auctions/:id/confirm-deal.
func (h *AuctionHandler) ConfirmDeal(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	a, err := h.Engine.ConfirmDeal(c.Request().Context(), c.Param("id"), actorID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, auctionView(a))
}

// ConfirmCollection handles POST /v1/auctions/:id/confirm-collection.
func (h *AuctionHandler) ConfirmCollection(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	a, err := h.Engine.ConfirmCollection(c.Request().Context(), c.Param("id"), actorID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, auctionView(a))
}

// CancelAuction handles POST /v1/auctions/:id/cancel.
func (h *AuctionHandler) CancelAuction(c echo.Context) error {
	dealerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	a, err := h.Engine.Cancel(c.Request().Context(), c.Param("id"), dealerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, auctionView(a))
}

// Reconcile handles POST /v1/auctions/:id/reconcile. Admin-only repair
// entry point; safe to call at any time on any auction.
func (h *AuctionHandler) Reconcile(c echo.Context) error {
	changed, err := h.Engine.Reconcile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"corrected": changed})
}

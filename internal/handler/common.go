// Package handler implements the HTTP command surface over the auction
// engine: auction creation, bidding, the acceptance/confirmation flow and
// state queries. Handlers bind and validate input, call the engine or
// store, and translate typed failures into JSON error responses; they never
// mutate auction or item state themselves.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/moto-auction/internal/engine"
	"github.com/iliyamo/moto-auction/internal/store"
)

// getUserID extracts the authenticated user id placed in context by the
// JWT middleware. JSON claims arrive as float64; tokens minted elsewhere
// may carry strings.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole extracts the role claim set by the JWT middleware.
func getRole(c echo.Context) string {
	if r, ok := c.Get("role").(string); ok {
		return r
	}
	return ""
}

// writeError maps engine and store failures onto HTTP responses. Bid
// rejections carry their reason so clients can distinguish a lost race
// (retry with fresh state) from a malformed request (do not retry).
func writeError(c echo.Context, err error) error {
	if rej, ok := engine.AsRejection(err); ok {
		status := http.StatusConflict
		switch rej.Reason {
		case engine.ReasonInvalidAmount, engine.ReasonSelfBid:
			status = http.StatusBadRequest
		}
		return c.JSON(status, echo.Map{
			"error":  "bid_rejected",
			"reason": string(rej.Reason),
			"detail": rej.Detail,
		})
	}
	switch {
	case errors.Is(err, store.ErrAuctionNotFound),
		errors.Is(err, store.ErrItemNotFound),
		errors.Is(err, store.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrNotOwner), errors.Is(err, engine.ErrNotWinner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrWrongState), errors.Is(err, engine.ErrItemUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrBadWindow):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

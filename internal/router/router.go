// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/moto-auction/internal/broadcast"
	"github.com/iliyamo/moto-auction/internal/handler"
	"github.com/iliyamo/moto-auction/internal/middleware"
	"github.com/iliyamo/moto-auction/internal/model"
)

// RegisterRoutes registers the routes that do not require authentication:
// the health check, the token endpoints and the event stream. Stream
// clients that cannot see an auction receive events they could also derive
// from public state; payloads never contain more than the auction view.
func RegisterRoutes(e *echo.Echo, a *handler.AuthHandler, hub *broadcast.Hub) {
	e.GET("/healthz", handler.Health)

	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/token", a.Token)

	// Live event streams: one auction's topic, or "all" for everything.
	e.GET("/v1/auctions/:id/stream", broadcast.StreamHandler(hub))
}

// RegisterAuction registers the authenticated auction command surface.
// Bid submission gets the rate limiter and the view routes get the Redis
// micro-cache; dealer-paced lifecycle commands need neither.
func RegisterAuction(e *echo.Echo, h *handler.AuctionHandler, jwtSecret string, bidLimiter, viewCache echo.MiddlewareFunc) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))

	dealers := auth.Group("", middleware.RequireRole(model.RoleDealer))
	dealers.POST("/items", h.CreateItem)
	dealers.POST("/auctions", h.CreateAuction)
	dealers.POST("/auctions/:id/accept", h.AcceptBid)
	dealers.POST("/auctions/:id/confirm-deal", h.ConfirmDeal)
	dealers.POST("/auctions/:id/cancel", h.CancelAuction)

	traders := auth.Group("", middleware.RequireRole(model.RoleTrader))
	if bidLimiter != nil {
		traders.POST("/auctions/:id/bids", h.PlaceBid, bidLimiter)
	} else {
		traders.POST("/auctions/:id/bids", h.PlaceBid)
	}
	traders.POST("/auctions/:id/confirm-collection", h.ConfirmCollection)

	viewers := auth.Group("", middleware.RequireRole(model.RoleDealer, model.RoleTrader, model.RoleAdmin))
	if viewCache != nil {
		viewers.Use(viewCache)
	}
	viewers.GET("/auctions", h.ListAuctions)
	viewers.GET("/auctions/:id", h.GetAuction)
	viewers.GET("/auctions/:id/bids", h.ListBids)

	admin := auth.Group("", middleware.RequireRole(model.RoleAdmin))
	admin.POST("/auctions/:id/reconcile", h.Reconcile)
}

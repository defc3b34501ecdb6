package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/moto-auction/internal/broadcast"
	"github.com/iliyamo/moto-auction/internal/config"
	"github.com/iliyamo/moto-auction/internal/database"
	"github.com/iliyamo/moto-auction/internal/engine"
	"github.com/iliyamo/moto-auction/internal/handler"
	"github.com/iliyamo/moto-auction/internal/middleware"
	"github.com/iliyamo/moto-auction/internal/router"
	"github.com/iliyamo/moto-auction/internal/scheduler"
	"github.com/iliyamo/moto-auction/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	var st store.Store
	switch cfg.StoreBackend {
	case "memory":
		st = store.NewMemory()
		log.Printf("using in-memory store; state will not survive restarts")
	default:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		st = store.NewMySQL(db)
	}

	hub := broadcast.NewHub()
	defer hub.Close()

	eng := engine.New(st, hub, engine.FlatReserve(cfg.Auction.MinOpeningBid))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(eng, eng.Now, cfg.Auction.SweepInterval)
	eng.SetScheduler(sched)
	if err := sched.Rearm(ctx, st); err != nil {
		log.Fatalf("scheduler: re-arm failed: %v", err)
	}
	sched.Start(ctx)
	defer sched.Stop()

	if cfg.AMQPURL != "" {
		relay := broadcast.NewAMQPRelay(cfg.AMQPURL, hub)
		go relay.Run(ctx)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; bid rate limiting and view caching disabled")
	}
	bidLimiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	viewCache := middleware.NewViewCache(config.LoadCacheConfig(), rdb)

	e := echo.New()
	auth := handler.NewAuthHandler(st, cfg.JWTSecret, cfg.AccessTTLMin, cfg.BcryptCost)
	auth.Now = eng.Now
	auctions := handler.NewAuctionHandler(st, eng, nil)
	router.RegisterRoutes(e, auth, hub)
	router.RegisterAuction(e, auctions, cfg.JWTSecret, bidLimiter, viewCache)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

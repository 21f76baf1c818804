package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/avelarm/shopyard-backend/api/routes"
	"github.com/avelarm/shopyard-backend/internal/cart"
	products "github.com/avelarm/shopyard-backend/internal/products"
	"github.com/avelarm/shopyard-backend/internal/wishlist"
	"github.com/avelarm/shopyard-backend/pkg/config"
	"github.com/avelarm/shopyard-backend/pkg/db"
	"github.com/avelarm/shopyard-backend/pkg/env"
	"github.com/avelarm/shopyard-backend/pkg/logger"
	"github.com/avelarm/shopyard-backend/pkg/migrate"
	"github.com/avelarm/shopyard-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := multierr.Combine(dbClient.Close(), redisClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing shared resources", err)
		}
	}()

	cartRepo := cart.NewRepository(dbClient.DB())
	productRepo := products.NewRepository(dbClient.DB())

	productService, err := products.NewService(productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:          cartRepo,
		TX:            dbClient,
		Cache:         cart.NewSnapshotCache(redisClient, cfg.Cart.SnapshotTTL),
		Products:      productService,
		Guard:         cart.NewInventoryGuard(),
		Logger:        logg,
		TTL:           cfg.Cart.TTL(),
		TokenAttempts: cfg.Cart.TokenAttempts,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		Repo:     wishlist.NewRepository(dbClient.DB()),
		Products: productService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist service", err)
		os.Exit(1)
	}

	secureCookies := cfg.App.IsProd()
	router := routes.NewRouter(routes.RouterParams{
		Logger:          logg,
		DBPinger:        dbClient,
		RedisPinger:     redisClient,
		CartService:     cartService,
		CartTokens:      cart.NewTokenManager(cfg.Cart.CookieName, cfg.Cart.CookieMaxAge(), secureCookies),
		WishlistService: wishlistService,
		WishlistTokens:  cart.NewTokenManager(cfg.Cart.WishlistCookieName, cfg.Cart.CookieMaxAge(), secureCookies),
		ProductService:  productService,
	})

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server shutting down gracefully")
}

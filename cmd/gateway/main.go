// Package main starts the HTTP server of the storefront gateway.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gameshop/gateway/internal/cache"
	"github.com/gameshop/gateway/internal/config"
	"github.com/gameshop/gateway/internal/handler"
	"github.com/gameshop/gateway/internal/middleware"
	"github.com/gameshop/gateway/internal/repository"
	"github.com/gameshop/gateway/internal/service"
	"github.com/gameshop/gateway/internal/shop"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	var shopClient *shop.Client
	if cfg.ShopAddress != "" {
		shopClient = shop.NewClient(cfg.ShopAddress)
	}

	cartCache := newCartCache(cfg.RedisURL, sugar)

	svc := service.NewService(repo, shopClient, cartCache, logger)
	defer svc.Close()

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret)
	h := handler.NewHandler(svc, logger, authMiddleware)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting gateway server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}

// newCartCache connects the cart cache. An unreachable redis is not fatal,
// the gateway falls back to repository-only reads.
func newCartCache(redisURL string, sugar *zap.SugaredLogger) cache.CartCache {
	if redisURL == "" {
		return nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		sugar.Warnw("parse redis URL failed, running without cache", "error", err.Error())
		return nil
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		sugar.Warnw("redis connection failed, running without cache", "error", err.Error())
		_ = client.Close()
		return nil
	}

	return cache.NewRedisCache(client)
}

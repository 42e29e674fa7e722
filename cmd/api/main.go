package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/farmconnect-backend/api/routes"
	"github.com/angelmondragon/farmconnect-backend/internal/auth"
	"github.com/angelmondragon/farmconnect-backend/internal/bootstrap"
	"github.com/angelmondragon/farmconnect-backend/internal/cart"
	"github.com/angelmondragon/farmconnect-backend/internal/checkout"
	"github.com/angelmondragon/farmconnect-backend/internal/notifications"
	"github.com/angelmondragon/farmconnect-backend/internal/orders"
	"github.com/angelmondragon/farmconnect-backend/internal/products"
	"github.com/angelmondragon/farmconnect-backend/internal/reviews"
	"github.com/angelmondragon/farmconnect-backend/internal/subscriptions"
	"github.com/angelmondragon/farmconnect-backend/internal/users"
	"github.com/angelmondragon/farmconnect-backend/pkg/auth/session"
	"github.com/angelmondragon/farmconnect-backend/pkg/config"
	"github.com/angelmondragon/farmconnect-backend/pkg/env"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
	"github.com/angelmondragon/farmconnect-backend/pkg/metrics"
	"github.com/angelmondragon/farmconnect-backend/pkg/redis"
	"github.com/angelmondragon/farmconnect-backend/pkg/security"
	"github.com/angelmondragon/farmconnect-backend/pkg/store"
)

const shutdownTimeout = 15 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	st, err := bootstrap.OpenStore(ctx, cfg, logg, redisClient)
	if err != nil {
		logg.Error(ctx, "failed to open store", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logg.Error(context.Background(), "error closing store", err)
		}
	}()

	hasher := security.NewHasher(cfg.Password)
	if cfg.Store.SeedSampleData {
		seeded, err := store.Seed(ctx, st.Store, hasher.Hash, time.Now())
		if err != nil {
			logg.Error(ctx, "failed to seed sample data", err)
			os.Exit(1)
		}
		if seeded {
			logg.Info(ctx, "store.seeded")
		}
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	marketplaceMetrics := metrics.NewMarketplaceMetrics(registry)

	services, err := buildServices(cfg, logg, st.Store, hasher, sessionManager, marketplaceMetrics)
	if err != nil {
		logg.Error(ctx, "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": env.InstanceID(),
		"store":    cfg.Store.Driver,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Infra{
			Store:    st,
			Redis:    redisClient,
			Sessions: sessionManager,
			Gatherer: registry,
		}, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server shut down gracefully")
	}
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	st *store.Store,
	hasher security.Hasher,
	sessionManager *session.Manager,
	marketplaceMetrics *metrics.MarketplaceMetrics,
) (routes.Services, error) {
	var (
		svc routes.Services
		err error
	)
	if svc.Users, err = users.NewService(users.ServiceParams{Store: st, Hasher: hasher}); err != nil {
		return svc, err
	}
	if svc.Auth, err = auth.NewService(auth.ServiceParams{
		Users:          svc.Users,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	}); err != nil {
		return svc, err
	}
	if svc.Subscriptions, err = subscriptions.NewService(subscriptions.ServiceParams{
		Store:  st,
		Period: cfg.Marketplace.SubscriptionPeriod(),
		Logger: logg,
	}); err != nil {
		return svc, err
	}
	if svc.Products, err = products.NewService(st, nil); err != nil {
		return svc, err
	}
	if svc.Cart, err = cart.NewService(cart.ServiceParams{Store: st, Pricing: cart.PricingFromConfig(cfg.Marketplace)}); err != nil {
		return svc, err
	}
	if svc.Checkout, err = checkout.NewService(checkout.ServiceParams{Store: st, Metrics: marketplaceMetrics, Logger: logg}); err != nil {
		return svc, err
	}
	if svc.Orders, err = orders.NewService(orders.ServiceParams{Store: st, Metrics: marketplaceMetrics, Logger: logg}); err != nil {
		return svc, err
	}
	if svc.Reviews, err = reviews.NewService(st, nil); err != nil {
		return svc, err
	}
	if svc.Notifications, err = notifications.NewService(st); err != nil {
		return svc, err
	}
	return svc, nil
}

// Command storefront serves the storefront client core over HTTP: session,
// cart and product endpoints plus the guarded pages of the route table.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	storefront "github.com/MrEthical07/storefront"
	"github.com/MrEthical07/storefront/authapi"
	"github.com/MrEthical07/storefront/cart"
	"github.com/MrEthical07/storefront/catalog"
	"github.com/MrEthical07/storefront/credential"
	"github.com/MrEthical07/storefront/internal/envconfig"
	"github.com/MrEthical07/storefront/internal/rate"
	"github.com/MrEthical07/storefront/internal/shell"
	"github.com/MrEthical07/storefront/metrics/export/prometheus"
	"github.com/MrEthical07/storefront/session"
)

func main() {
	envconfig.LoadDotenv()
	cfg := envconfig.Load()
	logger := storefront.NewLogger(cfg.AppName, cfg.Env)
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("storefront")
	}
	logger.Info("exited")
}

// run owns every resource so deferred closes happen before main exits.
func run(cfg *envconfig.Config, logger *logrus.Logger) error {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	breaker := authapi.BreakerConfig{ConsecutiveFailures: uint32(cfg.BreakerFailures), OpenTimeout: cfg.BreakerOpen}

	api, err := authapi.New(authapi.Config{BaseURL: cfg.AuthAPIURL, HTTPClient: httpClient, Breaker: breaker})
	if err != nil {
		return fmt.Errorf("auth api client: %w", err)
	}

	var (
		storage  session.CredentialStorage
		cartP    cart.Persister
		cache    catalog.Cache
		throttle *rate.Throttle
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer func() { _ = rdb.Close() }()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}

		storage = credential.NewRedis(rdb, cfg.CredentialPrefix, cfg.CredentialTTL)
		if cartP, err = cart.NewRedisPersister(rdb, "", cfg.CartID, cfg.CartTTL); err != nil {
			return fmt.Errorf("cart persister: %w", err)
		}
		cache = catalog.NewRedisCache(rdb, "", cfg.ProductCacheTTL, cfg.ProductCacheTTL/5)
		throttle = rate.New(rdb, rate.Config{MaxAttempts: cfg.LoginMaxAttempts, Window: cfg.LoginWindow, PerIP: true})
		logger.WithField("addr", cfg.RedisAddr).Info("using redis for credentials, cart and product cache")
	} else {
		storage = credential.NewFile(cfg.CredentialFile)
		logger.WithField("path", cfg.CredentialFile).Info("using file credential storage, cart is not persisted")
	}

	products, err := catalog.New(catalog.Config{
		BaseURL:    cfg.CatalogAPIURL,
		HTTPClient: httpClient,
		Breaker:    breaker,
		Cache:      cache,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("catalog client: %w", err)
	}

	clientCfg := storefront.DefaultConfig()
	clientCfg.Session.LocalExpiryCheck = cfg.LocalExpiryCheck
	clientCfg.Session.InitializeOnBuild = true
	clientCfg.Gate.PendingWait = cfg.PendingWait

	b := storefront.New().
		WithConfig(clientCfg).
		WithAuthenticator(api).
		WithCredentialStorage(storage).
		WithLogger(logger)
	if cartP != nil {
		b.WithCartPersister(cartP)
	}
	if cfg.AuditEnabled {
		b.WithAuditSink(storefront.NewLogrusSink(logger.WithField("component", "audit")))
	}
	client, err := b.Build()
	if err != nil {
		return fmt.Errorf("build client: %w", err)
	}
	defer client.Close()

	router := shell.NewRouter(shell.Deps{
		Client:   client,
		Catalog:  products,
		Throttle: throttle,
		Metrics:  prometheus.New(client).Handler(),
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 40 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("storefront listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("forced shutdown")
	}
	return nil
}

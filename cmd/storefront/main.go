// Package main runs the storefront API server: the cart state machine,
// checkout orchestration and catalog cache behind a REST surface.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	app "github.com/mealbox/storefront/internal/app"
	"github.com/mealbox/storefront/internal/app/httpapi"
	"github.com/mealbox/storefront/internal/app/services/catalog"
	"github.com/mealbox/storefront/internal/app/storage/postgres"
	redisstore "github.com/mealbox/storefront/internal/app/storage/redis"
	"github.com/mealbox/storefront/internal/config"
	"github.com/mealbox/storefront/internal/remotedb"
	"github.com/mealbox/storefront/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/storefront.yaml", "Path to configuration file")
	flag.Parse()

	log := logger.NewDefault("storefront")

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Errorf("load config: %v", err)
		os.Exit(1)
	}

	stores, cleanup, err := buildStores(cfg, log)
	if err != nil {
		log.Errorf("configure storage: %v", err)
		os.Exit(1)
	}
	defer cleanup()

	opts := app.Options{MenuRefreshInterval: cfg.Menu.RefreshInterval}
	if cfg.Remote.BaseURL != "" {
		remote, err := remotedb.New(remotedb.Config{
			BaseURL:    cfg.Remote.BaseURL,
			APIKey:     cfg.Remote.APIKey,
			Timeout:    cfg.Remote.Timeout,
			MaxRetries: cfg.Remote.MaxRetries,
			Log:        log.Named("remotedb"),
		})
		if err != nil {
			log.Errorf("configure remote backend: %v", err)
			os.Exit(1)
		}
		fetcher, err := catalog.NewRemoteFetcher(remote, log.Named("catalog-fetcher"))
		if err != nil {
			log.Errorf("configure menu fetcher: %v", err)
			os.Exit(1)
		}
		opts.Remote = remote
		opts.MenuFetcher = fetcher
	} else {
		log.Warn("remote backend not configured; checkout submission and menu refresh disabled")
	}

	application, err := app.New(stores, opts, log)
	if err != nil {
		log.Errorf("build application: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		log.Errorf("start application: %v", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           httpapi.NewHandler(application),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Listen)
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("received %s, shutting down", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Errorf("server: %v", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http server shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("application stop")
	}
}

// buildStores selects the persistence backend from configuration. The redis
// driver only covers cart snapshots; the rest stays in memory.
func buildStores(cfg config.Config, log *logger.Logger) (app.Stores, func(), error) {
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := sql.Open("postgres", cfg.Storage.PostgresDSN)
		if err != nil {
			return app.Stores{}, nil, fmt.Errorf("open postgres: %w", err)
		}
		store := postgres.New(db)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return app.Stores{}, nil, err
		}
		log.Info("using postgres storage")
		return app.Stores{Carts: store, Orders: store, Menu: store}, func() { db.Close() }, nil

	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr: cfg.Storage.RedisAddr,
			DB:   cfg.Storage.RedisDB,
		})
		log.Info("using redis cart storage")
		return app.Stores{Carts: redisstore.New(client)}, func() { client.Close() }, nil

	default:
		log.Info("using in-memory storage")
		return app.Stores{}, func() {}, nil
	}
}

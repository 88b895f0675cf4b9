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

	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/catalog"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/config"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/database"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/docstore"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/events"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/inventory"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/logging"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/memstore"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/messaging"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/router"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/service"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/ws"
	"github.com/sirupsen/logrus"
)

// backend is everything the services need from a store driver.
type backend interface {
	catalog.Store
	inventory.Store
	service.OrderStore
	Ping(ctx context.Context) error
}

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	hub := ws.NewHub()
	go hub.Run(ctx)

	publishers := events.Fanout{hub}
	if cfg.AMQPURL != "" {
		conn, err := messaging.Dial(cfg.AMQPURL, logger)
		if err != nil {
			return fmt.Errorf("connect to broker: %w", err)
		}
		defer conn.Close()
		publishers = append(publishers, messaging.NewPublisher(conn, logger))
	}

	menu := catalog.NewService(store, cfg.MenuCacheTTL, logger)
	ledger := inventory.NewLedger(store, publishers, logger)
	orders := service.NewOrderService(store, ledger, publishers, logger)

	r := router.New(cfg, router.Services{
		Menu:      menu,
		Orders:    orders,
		Inventory: ledger,
		Store:     store,
	}, hub, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{"port": cfg.Port, "driver": cfg.StoreDriver}).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStore connects the configured store driver. The returned func releases
// its connections.
func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (backend, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		pool, err := database.Connect(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return database.NewStore(pool), pool.Close, nil

	case config.DriverMongo:
		store, err := docstore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				logger.WithError(err).Warn("close mongo client")
			}
		}, nil

	case config.DriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return memstore.New(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	corecfg "github.com/bookstore-lab/bookstore/internal/core/config"
	"github.com/bookstore-lab/bookstore/internal/inventory"
	"github.com/bookstore-lab/bookstore/internal/migrations"
	"github.com/bookstore-lab/bookstore/internal/provider"
	"github.com/bookstore-lab/bookstore/internal/server"
)

func main() {
	configPath := flag.String("config", "bookstore.yaml", "Path to configuration file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config",
		"inventory_store", cfg.Inventory.Store,
		"broker_kind", cfg.Broker.Kind,
		"topic", cfg.Broker.Topic,
		"group_id", cfg.Broker.GroupID)

	prov := provider.New(cfg)

	store, db, closeStore, err := prov.InventoryStore()
	if err != nil {
		slog.Error("Failed to initialize inventory store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	if db != nil {
		if err := migrations.Run(db, migrations.Inventory, cfg.Database.AutoMigrate); err != nil {
			slog.Error("Failed to run database migrations", "error", err)
			os.Exit(1)
		}
	}

	sub, err := prov.Subscriber()
	if err != nil {
		slog.Error("Failed to initialize subscriber", "error", err)
		os.Exit(1)
	}
	defer sub.Close()

	consumer := inventory.NewConsumer(sub, store)

	srv := server.New(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port), db, cfg.Server.Mode)
	inventory.NewAPI(store).RegisterRoutes(srv.Engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// The consumer and the HTTP server run side by side; if either fails
	// the shared context brings the other one down.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Run(gctx)
	})
	g.Go(func() error {
		return srv.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Service stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

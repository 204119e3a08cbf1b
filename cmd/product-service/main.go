package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bookstore-lab/bookstore/internal/catalog"
	corecfg "github.com/bookstore-lab/bookstore/internal/core/config"
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
		"catalog_store", cfg.Catalog.Store,
		"broker_kind", cfg.Broker.Kind,
		"topic", cfg.Broker.Topic)

	prov := provider.New(cfg)

	repo, db, closeRepo, err := prov.CatalogRepository()
	if err != nil {
		slog.Error("Failed to initialize catalog repository", "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	if db != nil {
		if err := migrations.Run(db, migrations.Catalog, cfg.Database.AutoMigrate); err != nil {
			slog.Error("Failed to run database migrations", "error", err)
			os.Exit(1)
		}
	}

	pub, err := prov.Publisher()
	if err != nil {
		slog.Error("Failed to initialize publisher", "error", err)
		os.Exit(1)
	}
	defer pub.Close()

	svc := catalog.NewService(repo, pub, cfg.Broker.Topic)

	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), db, cfg.Server.Mode)
	svc.RegisterRoutes(srv.Engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}

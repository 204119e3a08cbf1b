package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/bookstore-lab/bookstore/internal/catalog"
	corecfg "github.com/bookstore-lab/bookstore/internal/core/config"
	"github.com/bookstore-lab/bookstore/internal/migrations"
	"github.com/bookstore-lab/bookstore/internal/provider"
)

type fixtureFile struct {
	Products []fixtureProduct `yaml:"products"`
}

type fixtureProduct struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	Quantity    int    `yaml:"quantity"`
	Category    string `yaml:"category"`
}

func main() {
	configPath := flag.String("config", "bookstore.yaml", "Path to configuration file")
	fixturesPath := flag.String("fixtures", "seed/products.yaml", "Path to product fixtures")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	fixtures, err := loadFixtures(*fixturesPath)
	if err != nil {
		slog.Error("Failed to load fixtures", "path", *fixturesPath, "error", err)
		os.Exit(1)
	}

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

	// Seeding goes through the service so every created product also
	// publishes its event, same as a regular API write.
	svc := catalog.NewService(repo, pub, cfg.Broker.Topic)

	ctx := context.Background()
	created := 0
	for _, f := range fixtures.Products {
		price, err := decimal.NewFromString(f.Price)
		if err != nil {
			slog.Error("Skipping fixture with invalid price", "name", f.Name, "price", f.Price, "error", err)
			continue
		}

		p := &catalog.Product{
			Name:        f.Name,
			Description: f.Description,
			Price:       price,
			Quantity:    f.Quantity,
			Category:    f.Category,
		}
		if _, err := svc.Create(ctx, p); err != nil {
			slog.Error("Failed to create product", "name", f.Name, "error", err)
			continue
		}
		slog.Info("Created product", "id", p.ID, "name", p.Name)
		created++
	}

	slog.Info("Seeding complete", "created", created, "total", len(fixtures.Products))
}

func loadFixtures(path string) (*fixtureFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}

	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if len(f.Products) == 0 {
		return nil, fmt.Errorf("no products in fixtures file")
	}
	return &f, nil
}

package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Store kinds selectable at startup.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Broker kinds selectable at startup.
const (
	BrokerKafka   = "kafka"
	BrokerChannel = "channel"
)

// Config is the top-level application config shared by the product and
// inventory services. Provider choices (store kind, broker kind) are read
// once at startup and fixed for the process lifetime.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Inventory InventoryConfig `koanf:"inventory"`
	Broker    BrokerConfig    `koanf:"broker"`
}

type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`
	Mode string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type CatalogConfig struct {
	Store string `koanf:"store"` // memory | postgres
}

type InventoryConfig struct {
	Store string `koanf:"store"` // memory | postgres
}

type BrokerConfig struct {
	Kind    string   `koanf:"kind"` // kafka | channel
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
	GroupID string   `koanf:"group_id"`
}

func validStore(kind string) bool {
	return kind == StoreMemory || kind == StorePostgres
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if !validStore(c.Catalog.Store) {
		return fmt.Errorf("invalid catalog.store %q (must be %s or %s)",
			c.Catalog.Store, StoreMemory, StorePostgres)
	}
	if !validStore(c.Inventory.Store) {
		return fmt.Errorf("invalid inventory.store %q (must be %s or %s)",
			c.Inventory.Store, StoreMemory, StorePostgres)
	}

	if c.Catalog.Store == StorePostgres || c.Inventory.Store == StorePostgres {
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database.dsn is required for a postgres store")
		}
		if c.Database.MaxOpenConns <= 0 {
			return fmt.Errorf("database.max_open_conns must be > 0")
		}
		if c.Database.MaxIdleConns <= 0 {
			return fmt.Errorf("database.max_idle_conns must be > 0")
		}
	}

	switch c.Broker.Kind {
	case BrokerChannel:
		// in-process broker needs no connection info
	case BrokerKafka:
		if len(c.Broker.Brokers) == 0 {
			return fmt.Errorf("broker.brokers is required for the kafka broker")
		}
		if strings.TrimSpace(c.Broker.GroupID) == "" {
			return fmt.Errorf("broker.group_id is required for the kafka broker")
		}
	default:
		return fmt.Errorf("invalid broker.kind %q (must be %s or %s)",
			c.Broker.Kind, BrokerKafka, BrokerChannel)
	}

	if strings.TrimSpace(c.Broker.Topic) == "" {
		return fmt.Errorf("broker.topic is required")
	}

	return nil
}

// Load parses config from file + env and validates it.
// Environment variables override the file, e.g. BOOKSTORE_BROKER__TOPIC
// overrides broker.topic.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":             8080,
		"server.host":             "0.0.0.0",
		"server.mode":             "release",
		"database.dsn":            "",
		"database.max_open_conns": 25,
		"database.max_idle_conns": 25,
		"database.auto_migrate":   true,
		"catalog.store":           StoreMemory,
		"inventory.store":         StoreMemory,
		"broker.kind":             BrokerKafka,
		"broker.brokers":          []string{"localhost:9092"},
		"broker.topic":            "products",
		"broker.group_id":         "inventory-group",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("BOOKSTORE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "BOOKSTORE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Package provider selects the concrete store and broker implementations at
// process start. Selection is configuration-driven and happens exactly once;
// there is no runtime re-selection.
package provider

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/bookstore-lab/bookstore/internal/catalog"
	catalogstorage "github.com/bookstore-lab/bookstore/internal/catalog/storage"
	catalogpostgres "github.com/bookstore-lab/bookstore/internal/catalog/storage/postgres"
	"github.com/bookstore-lab/bookstore/internal/core/config"
	"github.com/bookstore-lab/bookstore/internal/inventory"
	inventorystorage "github.com/bookstore-lab/bookstore/internal/inventory/storage"
	inventorypostgres "github.com/bookstore-lab/bookstore/internal/inventory/storage/postgres"
	"github.com/bookstore-lab/bookstore/internal/messaging"
	"github.com/bookstore-lab/bookstore/internal/messaging/channel"
	"github.com/bookstore-lab/bookstore/internal/messaging/kafka"
)

// Closer releases a provider-constructed resource.
type Closer func() error

func noopCloser() error { return nil }

// Provider constructs concrete implementations per the configured kinds.
// When the broker kind is "channel", publisher and subscriber share one
// in-process broker owned by the Provider.
type Provider struct {
	cfg *config.Config

	mu            sync.Mutex
	channelBroker *channel.Broker
}

func New(cfg *config.Config) *Provider {
	if cfg == nil {
		panic("provider: config must not be nil")
	}
	return &Provider{cfg: cfg}
}

// ChannelBroker returns the process-wide in-memory broker, creating it on
// first use. Only meaningful for the "channel" broker kind.
func (p *Provider) ChannelBroker() *channel.Broker {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channelBroker == nil {
		p.channelBroker = channel.NewBroker()
	}
	return p.channelBroker
}

// InventoryStore builds the configured inventory.Store. The returned *sql.DB
// is nil for the memory store and exposed otherwise for health checks and
// migrations.
func (p *Provider) InventoryStore() (inventory.Store, *sql.DB, Closer, error) {
	switch p.cfg.Inventory.Store {
	case config.StoreMemory:
		return inventorystorage.NewMemoryStore(), nil, noopCloser, nil
	case config.StorePostgres:
		adapter, err := inventorypostgres.NewAdapter(
			p.cfg.Database.DSN,
			p.cfg.Database.MaxOpenConns,
			p.cfg.Database.MaxIdleConns,
		)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize postgres inventory store: %w", err)
		}
		return adapter, adapter.DB(), adapter.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported inventory store kind %q", p.cfg.Inventory.Store)
	}
}

// CatalogRepository builds the configured catalog.Repository.
func (p *Provider) CatalogRepository() (catalog.Repository, *sql.DB, Closer, error) {
	switch p.cfg.Catalog.Store {
	case config.StoreMemory:
		return catalogstorage.NewMemoryRepository(), nil, noopCloser, nil
	case config.StorePostgres:
		adapter, err := catalogpostgres.NewAdapter(
			p.cfg.Database.DSN,
			p.cfg.Database.MaxOpenConns,
			p.cfg.Database.MaxIdleConns,
		)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize postgres catalog repository: %w", err)
		}
		return adapter, adapter.DB(), adapter.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported catalog store kind %q", p.cfg.Catalog.Store)
	}
}

// Publisher builds the configured messaging.Publisher.
func (p *Provider) Publisher() (messaging.Publisher, error) {
	switch p.cfg.Broker.Kind {
	case config.BrokerKafka:
		return kafka.NewPublisher(p.cfg.Broker.Brokers), nil
	case config.BrokerChannel:
		return p.ChannelBroker(), nil
	default:
		return nil, fmt.Errorf("unsupported broker kind %q", p.cfg.Broker.Kind)
	}
}

// Subscriber builds the configured messaging.Subscriber for the products
// topic.
func (p *Provider) Subscriber() (messaging.Subscriber, error) {
	switch p.cfg.Broker.Kind {
	case config.BrokerKafka:
		return kafka.NewSubscriber(p.cfg.Broker.Brokers, p.cfg.Broker.Topic, p.cfg.Broker.GroupID), nil
	case config.BrokerChannel:
		return p.ChannelBroker().Subscribe(p.cfg.Broker.Topic), nil
	default:
		return nil, fmt.Errorf("unsupported broker kind %q", p.cfg.Broker.Kind)
	}
}

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	v1 "github.com/bookstore-lab/bookstore/internal/api/v1"
	"github.com/bookstore-lab/bookstore/internal/catalog"
	"github.com/bookstore-lab/bookstore/internal/core/config"
	"github.com/bookstore-lab/bookstore/internal/inventory"
	"github.com/bookstore-lab/bookstore/internal/provider"
)

// pipelineHarness wires both services the way the binaries do, on the
// in-process broker and memory stores, and exposes their HTTP surfaces
// through httptest servers.
type pipelineHarness struct {
	productSrv   *httptest.Server
	inventorySrv *httptest.Server
	client       *http.Client
	svc          *catalog.Service
	prov         *provider.Provider
	cancel       context.CancelFunc
	consumerDone chan error
}

func newPipelineHarness(t *testing.T) *pipelineHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server:    config.ServerConfig{Port: 8080, Host: "127.0.0.1", Mode: "release"},
		Catalog:   config.CatalogConfig{Store: config.StoreMemory},
		Inventory: config.InventoryConfig{Store: config.StoreMemory},
		Broker:    config.BrokerConfig{Kind: config.BrokerChannel, Topic: "products"},
	}
	require.NoError(t, cfg.Validate())

	prov := provider.New(cfg)

	repo, _, _, err := prov.CatalogRepository()
	require.NoError(t, err)
	store, _, _, err := prov.InventoryStore()
	require.NoError(t, err)
	pub, err := prov.Publisher()
	require.NoError(t, err)
	sub, err := prov.Subscriber()
	require.NoError(t, err)

	svc := catalog.NewService(repo, pub, cfg.Broker.Topic)
	consumer := inventory.NewConsumer(sub, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- consumer.Run(ctx)
	}()

	productEngine := gin.New()
	svc.RegisterRoutes(productEngine)
	inventoryEngine := gin.New()
	inventory.NewAPI(store).RegisterRoutes(inventoryEngine)

	h := &pipelineHarness{
		productSrv:   httptest.NewServer(productEngine),
		inventorySrv: httptest.NewServer(inventoryEngine),
		client:       &http.Client{Timeout: 5 * time.Second},
		svc:          svc,
		prov:         prov,
		cancel:       cancel,
		consumerDone: done,
	}
	t.Cleanup(func() { h.close(t) })
	return h
}

func (h *pipelineHarness) close(t *testing.T) {
	t.Helper()

	h.cancel()
	select {
	case err := <-h.consumerDone:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Log("consumer shutdown timed out")
	}

	h.productSrv.Close()
	h.inventorySrv.Close()
}

func (h *pipelineHarness) createProduct(t *testing.T, body string) *catalog.Product {
	t.Helper()

	resp, err := h.client.Post(h.productSrv.URL+"/v1/products", "application/json",
		bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var p catalog.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	require.NotEmpty(t, p.ID)
	return &p
}

// getRecord polls the inventory API until the predicate holds or the
// deadline passes. Event application is asynchronous, so reads after a
// catalog write have to wait for the projection to catch up.
func (h *pipelineHarness) getRecord(t *testing.T, productID string, ok func(*inventory.Record) bool) *inventory.Record {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := h.client.Get(h.inventorySrv.URL + "/v1/inventory/" + productID)
		require.NoError(t, err)
		if resp.StatusCode == http.StatusOK {
			var rec inventory.Record
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
			resp.Body.Close()
			if ok(&rec) {
				return &rec
			}
		} else {
			resp.Body.Close()
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("inventory record for %s did not reach expected state", productID)
	return nil
}

func TestCatalogWriteProjectsIntoInventory(t *testing.T) {
	h := newPipelineHarness(t)

	p := h.createProduct(t, `{"name":"Go in Action","description":"","price":29.99,"quantity":10,"category":"programming"}`)

	rec := h.getRecord(t, p.ID, func(r *inventory.Record) bool { return r.Quantity == 10 })
	require.Equal(t, p.ID, rec.ProductID)
	require.False(t, rec.LastUpdated.IsZero())
}

func TestRedeliveredEventOverwritesQuantity(t *testing.T) {
	h := newPipelineHarness(t)

	p := h.createProduct(t, `{"name":"Refactoring","price":42.00,"quantity":10}`)
	first := h.getRecord(t, p.ID, func(r *inventory.Record) bool { return r.Quantity == 10 })

	// A later envelope for the same product id overwrites quantity in
	// place and refreshes the timestamp; no second record appears.
	evt := v1.ProductCreatedEvent{ID: p.ID, Name: p.Name, Price: p.Price, Quantity: 7}
	payload, err := evt.Encode()
	require.NoError(t, err)
	require.NoError(t, h.prov.ChannelBroker().Publish(context.Background(), "products", []byte(p.ID), payload))

	second := h.getRecord(t, p.ID, func(r *inventory.Record) bool { return r.Quantity == 7 })
	require.Equal(t, first.ID, second.ID)
	require.True(t, second.LastUpdated.After(first.LastUpdated))

	resp, err := h.client.Get(h.inventorySrv.URL + "/v1/inventory")
	require.NoError(t, err)
	defer resp.Body.Close()
	var records []inventory.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	require.Len(t, records, 1)
}

func TestMalformedEventDoesNotStallPipeline(t *testing.T) {
	h := newPipelineHarness(t)

	// Poison payload first, then a valid write; the consumer must drop
	// the former and still apply the latter.
	require.NoError(t, h.prov.ChannelBroker().Publish(context.Background(), "products",
		[]byte("poison"), []byte(`{"Id":"","Quantity":-3`)))

	p := h.createProduct(t, `{"name":"Clean Architecture","price":31.50,"quantity":4}`)
	h.getRecord(t, p.ID, func(r *inventory.Record) bool { return r.Quantity == 4 })

	resp, err := h.client.Get(h.inventorySrv.URL + "/v1/inventory/poison")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductNotInCatalogReturns404(t *testing.T) {
	h := newPipelineHarness(t)

	resp, err := h.client.Get(h.productSrv.URL + "/v1/products/" + fmt.Sprintf("%d", time.Now().UnixNano()))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

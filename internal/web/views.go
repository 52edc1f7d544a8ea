package web

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"github.com/sweeney/stockwise/internal/aggregate"
	"github.com/sweeney/stockwise/internal/inventory"
	"github.com/sweeney/stockwise/internal/metrics"
)

// view is the live state of one location held for API reads.
type view struct {
	inventory *aggregate.InventoryStore
	devices   *aggregate.DevicesStore

	mu           sync.Mutex
	shelves      []inventory.ShelfConfig
	unsubShelves aggregate.Unsubscribe
}

func (v *view) shelfList() []inventory.ShelfConfig {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.shelves
}

func (v *view) close() {
	v.inventory.Unsubscribe()
	v.devices.Unsubscribe()
	v.unsubShelves()
}

// ViewCache keeps recently read locations subscribed, so repeated API reads
// are served from live stores instead of rebuilding them. Entries expire
// after the TTL; eviction unsubscribes the stores.
type ViewCache struct {
	configs   aggregate.ConfigSource
	telemetry aggregate.TelemetrySource
	cfg       aggregate.InventoryConfig
	log       zerolog.Logger

	mu  sync.Mutex
	lru *expirable.LRU[aggregate.Key, *view]
}

// NewViewCache creates a cache holding at most size locations for ttl each.
func NewViewCache(configs aggregate.ConfigSource, telemetry aggregate.TelemetrySource, size int, ttl time.Duration, cfg aggregate.InventoryConfig) *ViewCache {
	c := &ViewCache{
		configs:   configs,
		telemetry: telemetry,
		cfg:       cfg,
		log:       cfg.Logger.With().Str("component", "view_cache").Logger(),
	}
	// The eviction callback runs under the LRU's lock and must not call back into it.
	c.lru = expirable.NewLRU[aggregate.Key, *view](size, func(k aggregate.Key, v *view) {
		v.close()
		metrics.ViewStores.Dec()
		c.log.Debug().Str("location_id", k.LocationID).Msg("view evicted")
	}, ttl)
	return c
}

// get returns the view of a location, subscribing it on first use.
func (c *ViewCache) get(networkID, locationID string) *view {
	key := aggregate.Key{NetworkID: networkID, LocationID: locationID}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.lru.Get(key); ok {
		return v
	}
	// Get misses an expired entry that has not been purged yet, and Add would
	// replace it without running the eviction callback.
	c.lru.Remove(key)

	v := &view{
		inventory: aggregate.NewInventoryStore(c.configs, c.telemetry, c.cfg),
		devices:   aggregate.NewDevicesStore(c.configs, c.telemetry, c.cfg.Logger),
	}
	v.inventory.Subscribe(networkID, locationID)
	v.devices.Subscribe(networkID, locationID)
	v.unsubShelves = c.configs.SubscribeShelves(networkID, locationID, func(s []inventory.ShelfConfig) {
		v.mu.Lock()
		v.shelves = s
		v.mu.Unlock()
	}, func(err error) {
		c.log.Warn().Err(err).Str("location_id", locationID).Msg("shelves subscription error")
	})

	c.lru.Add(key, v)
	metrics.ViewStores.Inc()
	c.log.Debug().Str("network_id", networkID).Str("location_id", locationID).Msg("view created")
	return v
}

// Len returns the number of views held.
func (c *ViewCache) Len() int {
	return c.lru.Len()
}

// Close unsubscribes every held view.
func (c *ViewCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

package aggregate

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/stockwise/internal/devices"
	"github.com/sweeney/stockwise/internal/inventory"
)

// DefaultDebounce coalesces bursts of telemetry into one projection.
const DefaultDebounce = 100 * time.Millisecond

// InventoryConfig configures an InventoryStore.
type InventoryConfig struct {
	Debounce     time.Duration // zero means DefaultDebounce
	LowThreshold int           // zero means inventory.DefaultLowThreshold
	Clock        Clock         // nil means SystemClock
	Logger       zerolog.Logger
}

// InventoryStore holds the projected slot list of one location. It is
// idle until Subscribe and rebuilds the list, debounced, whenever any of
// its four input caches is replaced.
type InventoryStore struct {
	configs   SlotConfigSource
	telemetry TelemetrySource
	debounce  time.Duration
	low       int
	clock     Clock
	log       zerolog.Logger

	mu         sync.Mutex
	subscribed bool
	key        Key
	gen        uint64 // bumped on every teardown; stale callbacks compare against it
	unsubs     []Unsubscribe
	timer      Timer
	seq        uint64

	slotConfigs map[string]inventory.SlotConfig
	skus        map[string]inventory.SkuConfig
	live        map[string]inventory.SlotLiveState
	online      inventory.NodeSet

	slots     []inventory.SlotViewModel
	state     LoadState
	listeners []func([]inventory.SlotViewModel)

	notifyMu  sync.Mutex
	delivered uint64
}

// NewInventoryStore creates an idle store.
func NewInventoryStore(configs SlotConfigSource, telemetry TelemetrySource, cfg InventoryConfig) *InventoryStore {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.LowThreshold <= 0 {
		cfg.LowThreshold = inventory.DefaultLowThreshold
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	s := &InventoryStore{
		configs:   configs,
		telemetry: telemetry,
		debounce:  cfg.Debounce,
		low:       cfg.LowThreshold,
		clock:     cfg.Clock,
		log:       cfg.Logger.With().Str("component", "inventory_store").Logger(),
	}
	s.clearLocked()
	return s
}

// OnChange registers fn to receive every new projection. fn must treat the
// slice as read-only and must not call Subscribe or Unsubscribe. Projections
// are delivered in order; an older one is dropped if a newer one was already
// delivered, and none is delivered once the subscription that produced it
// is torn down.
func (s *InventoryStore) OnChange(fn func([]inventory.SlotViewModel)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Subscribe binds the store to a location. Subscribing to the current
// location is a no-op; a different location tears down the previous
// subscriptions and starts from empty caches.
func (s *InventoryStore) Subscribe(networkID, locationID string) {
	key := Key{NetworkID: networkID, LocationID: locationID}

	s.notifyMu.Lock()
	s.mu.Lock()
	if s.subscribed && s.key == key {
		s.mu.Unlock()
		s.notifyMu.Unlock()
		return
	}
	old := s.teardownLocked()
	s.subscribed = true
	s.key = key
	s.state = LoadState{Loading: true}
	gen := s.gen
	s.mu.Unlock()
	s.notifyMu.Unlock()

	for _, u := range old {
		u()
	}

	s.log.Debug().Str("network_id", networkID).Str("location_id", locationID).Msg("subscribe")

	// Collaborators may push the first snapshot synchronously, so the lock
	// is not held while subscribing.
	unsubs := []Unsubscribe{
		s.configs.SubscribeSlotConfigs(networkID, locationID, func(m map[string]inventory.SlotConfig) {
			s.apply(gen, func() { s.slotConfigs = m })
		}, s.fail(gen, "slot configs")),
		s.configs.SubscribeSkus(networkID, locationID, func(m map[string]inventory.SkuConfig) {
			s.apply(gen, func() { s.skus = m })
		}, s.fail(gen, "skus")),
		s.telemetry.SubscribeLiveReadings(locationID, func(m map[string]inventory.SlotLiveState) {
			s.apply(gen, func() { s.live = m })
		}, s.fail(gen, "live readings")),
		s.telemetry.SubscribeNodesLive(locationID, func(m map[string]devices.NodeLiveState) {
			online := devices.OnlineNodeIDs(m)
			s.apply(gen, func() { s.online = online })
		}, s.fail(gen, "nodes live")),
	}

	s.mu.Lock()
	if gen != s.gen {
		// Superseded while subscribing.
		s.mu.Unlock()
		for _, u := range unsubs {
			u()
		}
		return
	}
	s.unsubs = unsubs
	s.mu.Unlock()
}

// Unsubscribe cancels the pending projection and all subscriptions, clears
// the caches and returns the store to idle.
func (s *InventoryStore) Unsubscribe() {
	// Waits for an in-flight delivery, so no listener runs after return.
	s.notifyMu.Lock()
	s.mu.Lock()
	if !s.subscribed {
		s.mu.Unlock()
		s.notifyMu.Unlock()
		return
	}
	old := s.teardownLocked()
	s.subscribed = false
	s.key = Key{}
	s.mu.Unlock()
	s.notifyMu.Unlock()

	for _, u := range old {
		u()
	}
	s.log.Debug().Msg("unsubscribe")
}

// Refresh schedules a projection with the current clock, so readings age
// into STALE without new telemetry.
func (s *InventoryStore) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscribed {
		s.scheduleLocked(s.gen)
	}
}

// Slots returns a copy of the latest projection.
func (s *InventoryStore) Slots() []inventory.SlotViewModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]inventory.SlotViewModel, len(s.slots))
	copy(out, s.slots)
	return out
}

// State returns the loading/error state.
func (s *InventoryStore) State() LoadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribed returns the bound location, if any.
func (s *InventoryStore) Subscribed() (Key, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key, s.subscribed
}

func (s *InventoryStore) apply(gen uint64, replace func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	replace()
	s.state.Err = nil
	s.scheduleLocked(gen)
}

func (s *InventoryStore) fail(gen uint64, what string) ErrorFunc {
	return func(err error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen {
			return
		}
		s.state.Err = err
		s.log.Warn().Err(err).Str("source", what).Str("location_id", s.key.LocationID).Msg("subscription error")
	}
}

func (s *InventoryStore) scheduleLocked(gen uint64) {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.clock.AfterFunc(s.debounce, func() { s.project(gen) })
}

func (s *InventoryStore) project(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	slots := inventory.ProjectLocation(s.slotConfigs, s.live, s.skus, s.online, s.clock.Now().UnixMilli(), s.low)
	s.slots = slots
	s.state.Loading = false
	s.seq++
	seq := s.seq
	listeners := append([]func([]inventory.SlotViewModel){}, s.listeners...)
	s.mu.Unlock()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.mu.Lock()
	current := gen == s.gen
	s.mu.Unlock()
	if !current || seq <= s.delivered {
		return
	}
	s.delivered = seq
	for _, fn := range listeners {
		fn(slots)
	}
}

// teardownLocked invalidates in-flight callbacks, cancels the timer and
// returns the subscriptions for the caller to cancel outside the lock.
func (s *InventoryStore) teardownLocked() []Unsubscribe {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	old := s.unsubs
	s.unsubs = nil
	s.clearLocked()
	return old
}

func (s *InventoryStore) clearLocked() {
	s.slotConfigs = map[string]inventory.SlotConfig{}
	s.skus = map[string]inventory.SkuConfig{}
	s.live = map[string]inventory.SlotLiveState{}
	s.online = inventory.NodeSet{}
	s.slots = []inventory.SlotViewModel{}
	s.state = LoadState{}
}

package aggregate

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/sweeney/stockwise/internal/devices"
)

// DevicesStore holds brain and node views for one location. It
// re-projects immediately on every push; there is no debounce.
type DevicesStore struct {
	configs   DeviceConfigSource
	telemetry TelemetrySource
	log       zerolog.Logger

	mu         sync.Mutex
	subscribed bool
	key        Key
	gen        uint64
	unsubs     []Unsubscribe

	brainConfigs []devices.BrainConfig
	nodeConfigs  []devices.NodeConfig
	brainsLive   map[string]devices.BrainLiveState
	nodesLive    map[string]devices.NodeLiveState

	brains []devices.BrainView
	nodes  []devices.NodeView
	state  LoadState
}

// NewDevicesStore creates an idle store.
func NewDevicesStore(configs DeviceConfigSource, telemetry TelemetrySource, logger zerolog.Logger) *DevicesStore {
	s := &DevicesStore{
		configs:   configs,
		telemetry: telemetry,
		log:       logger.With().Str("component", "devices_store").Logger(),
	}
	s.clearLocked()
	return s
}

// Subscribe binds the store to a location; same semantics as
// InventoryStore.Subscribe.
func (s *DevicesStore) Subscribe(networkID, locationID string) {
	key := Key{NetworkID: networkID, LocationID: locationID}

	s.mu.Lock()
	if s.subscribed && s.key == key {
		s.mu.Unlock()
		return
	}
	old := s.teardownLocked()
	s.subscribed = true
	s.key = key
	s.state = LoadState{Loading: true}
	gen := s.gen
	s.mu.Unlock()

	for _, u := range old {
		u()
	}

	unsubs := []Unsubscribe{
		s.configs.SubscribeBrains(networkID, locationID, func(c []devices.BrainConfig) {
			s.apply(gen, func() { s.brainConfigs = c })
		}, s.fail(gen, "brains")),
		s.configs.SubscribeNodes(networkID, locationID, func(c []devices.NodeConfig) {
			s.apply(gen, func() { s.nodeConfigs = c })
		}, s.fail(gen, "nodes")),
		s.telemetry.SubscribeBrainsLive(locationID, func(m map[string]devices.BrainLiveState) {
			s.apply(gen, func() { s.brainsLive = m })
		}, s.fail(gen, "brains live")),
		s.telemetry.SubscribeNodesLive(locationID, func(m map[string]devices.NodeLiveState) {
			s.apply(gen, func() { s.nodesLive = m })
		}, s.fail(gen, "nodes live")),
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		for _, u := range unsubs {
			u()
		}
		return
	}
	s.unsubs = unsubs
	s.mu.Unlock()
}

// Unsubscribe cancels all subscriptions and clears the store.
func (s *DevicesStore) Unsubscribe() {
	s.mu.Lock()
	if !s.subscribed {
		s.mu.Unlock()
		return
	}
	old := s.teardownLocked()
	s.subscribed = false
	s.key = Key{}
	s.mu.Unlock()

	for _, u := range old {
		u()
	}
}

// Brains returns a copy of the current brain views.
func (s *DevicesStore) Brains() []devices.BrainView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]devices.BrainView{}, s.brains...)
}

// Nodes returns a copy of the current node views.
func (s *DevicesStore) Nodes() []devices.NodeView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]devices.NodeView{}, s.nodes...)
}

// State returns the loading/error state.
func (s *DevicesStore) State() LoadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *DevicesStore) apply(gen uint64, replace func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	replace()
	s.brains = devices.ProjectBrains(s.brainConfigs, s.brainsLive)
	s.nodes = devices.ProjectNodes(s.nodeConfigs, s.nodesLive)
	s.state = LoadState{}
}

func (s *DevicesStore) fail(gen uint64, what string) ErrorFunc {
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

func (s *DevicesStore) teardownLocked() []Unsubscribe {
	s.gen++
	old := s.unsubs
	s.unsubs = nil
	s.clearLocked()
	return old
}

func (s *DevicesStore) clearLocked() {
	s.brainConfigs = nil
	s.nodeConfigs = nil
	s.brainsLive = map[string]devices.BrainLiveState{}
	s.nodesLive = map[string]devices.NodeLiveState{}
	s.brains = []devices.BrainView{}
	s.nodes = []devices.NodeView{}
	s.state = LoadState{}
}

package telemetry

import (
	"maps"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sweeney/stockwise/internal/aggregate"
	"github.com/sweeney/stockwise/internal/devices"
	"github.com/sweeney/stockwise/internal/inventory"
	"github.com/sweeney/stockwise/internal/metrics"
)

var _ aggregate.TelemetrySource = (*Hub)(nil)

// Sink accepts live record writes.
type Sink interface {
	Ingest(msg Message) error
}

// Hub keeps the latest live records per location and pushes a full
// snapshot of a collection to its subscribers after every write. It only
// holds what the hardware wrote; nothing is synthesized.
type Hub struct {
	log zerolog.Logger

	// deliver orders snapshot deliveries; mu guards the maps.
	deliver sync.Mutex
	mu      sync.Mutex

	slots  liveSet[inventory.SlotLiveState]
	nodes  liveSet[devices.NodeLiveState]
	brains liveSet[devices.BrainLiveState]
}

type liveSet[T any] struct {
	records map[string]map[string]T // location -> id -> record
	subs    map[*hubSub[T]]struct{}
}

type hubSub[T any] struct {
	location string
	onChange func(map[string]T)
}

func newLiveSet[T any]() liveSet[T] {
	return liveSet[T]{records: map[string]map[string]T{}, subs: map[*hubSub[T]]struct{}{}}
}

// snapshot returns a copy of one location's records. Caller holds the hub lock.
func (s *liveSet[T]) snapshot(location string) map[string]T {
	out := make(map[string]T, len(s.records[location]))
	maps.Copy(out, s.records[location])
	return out
}

func (s *liveSet[T]) put(location, id string, v T) {
	m, ok := s.records[location]
	if !ok {
		m = map[string]T{}
		s.records[location] = m
	}
	m[id] = v
}

func (s *liveSet[T]) remove(location, id string) bool {
	m := s.records[location]
	if _, ok := m[id]; !ok {
		return false
	}
	delete(m, id)
	if len(m) == 0 {
		delete(s.records, location)
	}
	return true
}

func (s *liveSet[T]) targets(location string) []*hubSub[T] {
	var out []*hubSub[T]
	for sub := range s.subs {
		if sub.location == location {
			out = append(out, sub)
		}
	}
	return out
}

func (s *liveSet[T]) count() int {
	n := 0
	for _, m := range s.records {
		n += len(m)
	}
	return n
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		log:    logger.With().Str("component", "telemetry_hub").Logger(),
		slots:  newLiveSet[inventory.SlotLiveState](),
		nodes:  newLiveSet[devices.NodeLiveState](),
		brains: newLiveSet[devices.BrainLiveState](),
	}
}

// Ingest applies one write and notifies the location's subscribers of that
// collection. Undecodable payloads are rejected and leave the hub unchanged.
func (h *Hub) Ingest(msg Message) error {
	var err error
	switch msg.Kind {
	case KindInventory:
		err = apply(h, &h.slots, msg, DecodeSlot)
	case KindNodes:
		err = apply(h, &h.nodes, msg, DecodeNode)
	case KindBrains:
		err = apply(h, &h.brains, msg, DecodeBrain)
	default:
		err = ErrUnknownTopic
	}
	if err != nil {
		metrics.TelemetryMessages.WithLabelValues(string(msg.Kind), "rejected").Inc()
		h.log.Warn().Err(err).Str("location_id", msg.LocationID).Str("kind", string(msg.Kind)).
			Str("id", msg.ID).Msg("telemetry rejected")
	}
	return err
}

func apply[T any](h *Hub, set *liveSet[T], msg Message, decode func(string, []byte) (T, error)) error {
	var v T
	remove := len(msg.Payload) == 0
	if !remove {
		var err error
		if v, err = decode(msg.ID, msg.Payload); err != nil {
			return err
		}
	}

	h.deliver.Lock()
	defer h.deliver.Unlock()

	h.mu.Lock()
	if remove {
		if !set.remove(msg.LocationID, msg.ID) {
			h.mu.Unlock()
			return nil
		}
	} else {
		set.put(msg.LocationID, msg.ID, v)
	}
	targets := set.targets(msg.LocationID)
	snaps := make([]map[string]T, len(targets))
	for i := range targets {
		snaps[i] = set.snapshot(msg.LocationID)
	}
	h.mu.Unlock()

	result := "applied"
	if remove {
		result = "removed"
	}
	metrics.TelemetryMessages.WithLabelValues(string(msg.Kind), result).Inc()

	for i, sub := range targets {
		sub.onChange(snaps[i])
	}
	return nil
}

func subscribe[T any](h *Hub, set *liveSet[T], location string, onChange func(map[string]T)) aggregate.Unsubscribe {
	sub := &hubSub[T]{location: location, onChange: onChange}

	h.deliver.Lock()
	h.mu.Lock()
	set.subs[sub] = struct{}{}
	snap := set.snapshot(location)
	h.mu.Unlock()
	onChange(snap)
	h.deliver.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(set.subs, sub)
			h.mu.Unlock()
		})
	}
}

// SubscribeLiveReadings streams a location's slot readings keyed by slot ID.
// The hub never fails, so onErr is unused.
func (h *Hub) SubscribeLiveReadings(locationID string, onChange func(map[string]inventory.SlotLiveState), _ aggregate.ErrorFunc) aggregate.Unsubscribe {
	return subscribe(h, &h.slots, locationID, onChange)
}

// SubscribeNodesLive streams a location's node heartbeats keyed by node MAC.
func (h *Hub) SubscribeNodesLive(locationID string, onChange func(map[string]devices.NodeLiveState), _ aggregate.ErrorFunc) aggregate.Unsubscribe {
	return subscribe(h, &h.nodes, locationID, onChange)
}

// SubscribeBrainsLive streams a location's brain heartbeats keyed by brain ID.
func (h *Hub) SubscribeBrainsLive(locationID string, onChange func(map[string]devices.BrainLiveState), _ aggregate.ErrorFunc) aggregate.Unsubscribe {
	return subscribe(h, &h.brains, locationID, onChange)
}

// Slots returns a copy of a location's slot readings.
func (h *Hub) Slots(locationID string) map[string]inventory.SlotLiveState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.slots.snapshot(locationID)
}

// Nodes returns a copy of a location's node heartbeats.
func (h *Hub) Nodes(locationID string) map[string]devices.NodeLiveState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.nodes.snapshot(locationID)
}

// Brains returns a copy of a location's brain heartbeats.
func (h *Hub) Brains(locationID string) map[string]devices.BrainLiveState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.brains.snapshot(locationID)
}

// Counts returns the number of live records held per kind.
func (h *Hub) Counts() map[Kind]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return map[Kind]int{
		KindInventory: h.slots.count(),
		KindNodes:     h.nodes.count(),
		KindBrains:    h.brains.count(),
	}
}

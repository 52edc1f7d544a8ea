// Package status provides a thread-safe status tracker for the stockwise daemon.
// It is read by HTTP handlers and the MQTT heartbeat.
package status

import (
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/sweeney/stockwise/internal/inventory"
)

// Config contains daemon configuration for display.
type Config struct {
	Backend      string // telemetry backend: mqtt or kafka
	Broker       string
	Database     string // driver name
	HTTPAddr     string
	LowThreshold int
	DebounceMs   int64
	RefreshMs    int64
	HeartbeatMs  int64
}

// Location is the last known state of one watched location.
type Location struct {
	NetworkID      string
	LocationID     string
	Slots          int
	Counts         inventory.StatusCounts
	Transitions    int
	LastProjection time.Time
	Loading        bool
	Err            string
}

// Alerting returns the number of slots needing attention.
func (l Location) Alerting() int {
	return l.Counts.Alerting()
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	StartTime      time.Time
	Now            time.Time
	MQTTConnected  bool
	RedisConnected bool
	LampOn         bool
	Live           map[string]int // live records held, by kind
	Locations      []Location     // sorted by location ID
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Alerting returns the number of alerting slots across all locations.
func (s Snapshot) Alerting() int {
	n := 0
	for _, l := range s.Locations {
		n += l.Alerting()
	}
	return n
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu        sync.RWMutex
	snap      Snapshot
	locations map[string]Location
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		locations: map[string]Location{},
	}
}

// UpdateLocation records a new projection of a location. The transition
// count accumulates across calls.
func (t *Tracker) UpdateLocation(networkID, locationID string, slots []inventory.SlotViewModel, transitions int, at time.Time) {
	t.mu.Lock()
	l := t.locations[locationID]
	l.NetworkID = networkID
	l.LocationID = locationID
	l.Slots = len(slots)
	l.Counts = inventory.CountStatuses(slots)
	l.Transitions += transitions
	l.LastProjection = at
	l.Loading = false
	t.locations[locationID] = l
	t.mu.Unlock()
}

// SetLoadState records a location's collaborator state.
func (t *Tracker) SetLoadState(networkID, locationID string, loading bool, err error) {
	t.mu.Lock()
	l := t.locations[locationID]
	l.NetworkID = networkID
	l.LocationID = locationID
	l.Loading = loading
	l.Err = ""
	if err != nil {
		l.Err = err.Error()
	}
	t.locations[locationID] = l
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetRedisConnected sets the Redis connection status.
func (t *Tracker) SetRedisConnected(connected bool) {
	t.mu.Lock()
	t.snap.RedisConnected = connected
	t.mu.Unlock()
}

// SetLamp records the alert lamp state.
func (t *Tracker) SetLamp(on bool) {
	t.mu.Lock()
	t.snap.LampOn = on
	t.mu.Unlock()
}

// SetLive records the number of live records held per kind.
func (t *Tracker) SetLive(counts map[string]int) {
	t.mu.Lock()
	t.snap.Live = maps.Clone(counts)
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Live = maps.Clone(t.snap.Live)
	s.Locations = make([]Location, 0, len(t.locations))
	for _, l := range t.locations {
		l.Counts = maps.Clone(l.Counts)
		s.Locations = append(s.Locations, l)
	}
	t.mu.RUnlock()

	sort.Slice(s.Locations, func(i, j int) bool {
		return s.Locations[i].LocationID < s.Locations[j].LocationID
	})
	s.Now = time.Now()
	return s
}

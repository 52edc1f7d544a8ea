// Package monitor runs the daemon loop over the watched locations. Each
// location gets its own InventoryStore; every new projection is diffed
// against the previous one and the resulting slot status transitions are
// published, counted and reflected on the alert lamp.
package monitor

import (
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/stockwise/internal/aggregate"
	"github.com/sweeney/stockwise/internal/gpio"
	"github.com/sweeney/stockwise/internal/inventory"
	"github.com/sweeney/stockwise/internal/metrics"
	"github.com/sweeney/stockwise/internal/mqtt"
	"github.com/sweeney/stockwise/internal/status"
	"github.com/sweeney/stockwise/internal/telemetry"
)

// LiveCounter reports how many live records are held per kind.
type LiveCounter interface {
	Counts() map[telemetry.Kind]int
}

// Config configures a Monitor.
type Config struct {
	Watch        []aggregate.Key
	Debounce     time.Duration
	LowThreshold int
	Clock        aggregate.Clock // nil means SystemClock

	Publisher mqtt.Publisher
	MQTT      mqtt.ConnectionStatus // optional
	Tracker   *status.Tracker
	Lamp      gpio.Lamp   // optional
	Live      LiveCounter // optional
	Logger    zerolog.Logger
}

type watch struct {
	key   aggregate.Key
	store *aggregate.InventoryStore
	prev  []inventory.SlotViewModel
}

// Monitor owns one InventoryStore per watched location.
type Monitor struct {
	pub     mqtt.Publisher
	conn    mqtt.ConnectionStatus
	tracker *status.Tracker
	lamp    gpio.Lamp
	live    LiveCounter
	clock   aggregate.Clock
	log     zerolog.Logger

	watches []*watch

	mu       sync.Mutex
	alerting map[string]int
	lampOn   bool
}

// New creates a Monitor. Nothing is subscribed until Start.
func New(configs aggregate.SlotConfigSource, live aggregate.TelemetrySource, cfg Config) *Monitor {
	if cfg.Clock == nil {
		cfg.Clock = aggregate.SystemClock{}
	}
	m := &Monitor{
		pub:      cfg.Publisher,
		conn:     cfg.MQTT,
		tracker:  cfg.Tracker,
		lamp:     cfg.Lamp,
		live:     cfg.Live,
		clock:    cfg.Clock,
		log:      cfg.Logger.With().Str("component", "monitor").Logger(),
		alerting: map[string]int{},
	}
	for _, key := range cfg.Watch {
		w := &watch{key: key}
		w.store = aggregate.NewInventoryStore(configs, live, aggregate.InventoryConfig{
			Debounce:     cfg.Debounce,
			LowThreshold: cfg.LowThreshold,
			Clock:        cfg.Clock,
			Logger:       cfg.Logger,
		})
		w.store.OnChange(func(slots []inventory.SlotViewModel) { m.onProjection(w, slots) })
		m.watches = append(m.watches, w)
	}
	return m
}

// Start subscribes every watched location and publishes the STARTUP event.
func (m *Monitor) Start() {
	for _, w := range m.watches {
		m.tracker.SetLoadState(w.key.NetworkID, w.key.LocationID, true, nil)
		w.store.Subscribe(w.key.NetworkID, w.key.LocationID)
		m.log.Info().Str("network_id", w.key.NetworkID).Str("location_id", w.key.LocationID).Msg("watching location")
	}
	m.publishSystem("STARTUP", "")
}

// Stop unsubscribes every watched location.
func (m *Monitor) Stop() {
	for _, w := range m.watches {
		w.store.Unsubscribe()
	}
}

// Slots returns the latest projection of a watched location.
func (m *Monitor) Slots(locationID string) ([]inventory.SlotViewModel, bool) {
	for _, w := range m.watches {
		if w.key.LocationID == locationID {
			return w.store.Slots(), true
		}
	}
	return nil, false
}

// Run services refresh and heartbeat ticks until a signal arrives, then
// publishes SHUTDOWN and unsubscribes. A nil channel disables that tick.
func (m *Monitor) Run(refresh, heartbeat <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			m.log.Info().Str("signal", s.String()).Msg("shutting down")
			m.publishSystem("SHUTDOWN", signalName(s))
			m.Stop()
			return nil

		case <-refresh:
			m.Refresh()

		case <-heartbeat:
			snap := m.syncTracker()
			m.log.Info().
				Dur("uptime", snap.Uptime()).
				Int("alerting", snap.Alerting()).
				Int("locations", len(snap.Locations)).
				Msg("heartbeat")
			m.publishSystem("HEARTBEAT", "")
		}
	}
}

// Refresh re-projects every watched location with the current clock, so
// readings age into STALE without new telemetry.
func (m *Monitor) Refresh() {
	for _, w := range m.watches {
		w.store.Refresh()
		st := w.store.State()
		m.tracker.SetLoadState(w.key.NetworkID, w.key.LocationID, st.Loading, st.Err)
	}
	m.syncTracker()
}

func (m *Monitor) onProjection(w *watch, slots []inventory.SlotViewModel) {
	now := m.clock.Now()
	loc := w.key.LocationID

	m.mu.Lock()
	transitions := inventory.Transitions(w.prev, slots, now.UnixMilli())
	w.prev = slots
	counts := inventory.CountStatuses(slots)
	m.alerting[loc] = counts.Alerting()
	m.updateLampLocked()
	m.mu.Unlock()

	metrics.Projections.WithLabelValues(loc).Inc()
	for _, s := range inventory.AllStatuses {
		metrics.SlotsByStatus.WithLabelValues(loc, string(s)).Set(float64(counts[s]))
	}
	m.tracker.UpdateLocation(w.key.NetworkID, loc, slots, len(transitions), now)

	for _, t := range transitions {
		metrics.Transitions.WithLabelValues(loc, string(t.To)).Inc()
		m.log.Info().
			Str("location_id", loc).
			Str("slot_id", t.SlotID).
			Str("from", string(t.From)).
			Str("to", string(t.To)).
			Int("quantity", t.Quantity).
			Msg("slot status changed")
		if err := m.pub.PublishTransition(t); err != nil {
			m.log.Warn().Err(err).Str("slot_id", t.SlotID).Msg("publish transition failed")
		}
	}
}

// updateLampLocked drives the lamp on iff any watched slot is alerting.
func (m *Monitor) updateLampLocked() {
	on := false
	for _, n := range m.alerting {
		if n > 0 {
			on = true
			break
		}
	}
	if on == m.lampOn {
		return
	}
	if m.lamp != nil {
		if err := m.lamp.Set(on); err != nil {
			m.log.Warn().Err(err).Bool("on", on).Msg("alert lamp write failed")
			return
		}
	}
	m.lampOn = on
	m.tracker.SetLamp(on)
	m.log.Info().Bool("on", on).Msg("alert lamp")
}

func (m *Monitor) syncTracker() status.Snapshot {
	if m.conn != nil {
		m.tracker.SetMQTTConnected(m.conn.IsConnected())
	}
	if m.live != nil {
		counts := m.live.Counts()
		live := make(map[string]int, len(counts))
		for k, n := range counts {
			live[string(k)] = n
		}
		m.tracker.SetLive(live)
	}
	return m.tracker.Snapshot()
}

func (m *Monitor) publishSystem(event, reason string) {
	snap := m.syncTracker()
	e := mqtt.SystemEvent{
		Timestamp:  m.clock.Now(),
		Event:      event,
		Reason:     reason,
		Retained:   event != "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := m.pub.PublishSystem(e); err != nil {
		m.log.Warn().Err(err).Str("event", event).Msg("publish system event failed")
		return
	}
	m.log.Debug().Str("event", event).Msg("published system event")
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

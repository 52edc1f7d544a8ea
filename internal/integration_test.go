package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/stockwise/internal/aggregate"
	"github.com/sweeney/stockwise/internal/config"
	"github.com/sweeney/stockwise/internal/gpio"
	"github.com/sweeney/stockwise/internal/inventory"
	"github.com/sweeney/stockwise/internal/monitor"
	"github.com/sweeney/stockwise/internal/mqtt"
	"github.com/sweeney/stockwise/internal/status"
	"github.com/sweeney/stockwise/internal/store"
	"github.com/sweeney/stockwise/internal/telemetry"
)

var start = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

const (
	debounce = 100 * time.Millisecond
	prefix   = "tenants"
	nodeMAC  = "AABBCCDDEEFF"
)

type env struct {
	db      *store.DB
	hub     *telemetry.Hub
	handler *mqtt.Handler
	clock   *aggregate.FakeClock
	pub     *mqtt.FakePublisher
	lamp    *gpio.FakeLamp
	tracker *status.Tracker
	mon     *monitor.Monitor

	networkID  string
	locationID string
	slot       inventory.SlotConfig
}

// newEnv seeds one location holding one active slot and starts a monitor
// watching it. Telemetry enters through the MQTT handler, configuration
// through the database.
func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "stockwise.db")},
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	e := &env{
		db:      db,
		hub:     telemetry.NewHub(zerolog.Nop()),
		clock:   aggregate.NewFakeClock(start),
		pub:     mqtt.NewFakePublisher(),
		lamp:    gpio.NewFakeLamp(),
		tracker: status.NewTracker(start, status.Config{Backend: "mqtt", Database: "sqlite", LowThreshold: 2}),
	}
	e.handler = mqtt.NewHandler(prefix, e.hub, zerolog.Nop())
	e.pub.Connected = true

	n, err := db.CreateNetwork(ctx, "Acme")
	if err != nil {
		t.Fatalf("create network: %v", err)
	}
	loc, err := db.CreateLocation(ctx, n.NetworkID, "Depot", "Europe/London")
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	sh, err := db.CreateShelf(ctx, inventory.ShelfConfig{NetworkID: n.NetworkID, LocationID: loc.LocationID, Name: "Bay 1"})
	if err != nil {
		t.Fatalf("create shelf: %v", err)
	}
	sku, err := db.CreateSku(ctx, n.NetworkID, loc.LocationID, inventory.SkuConfig{Name: "Bolts", Active: true})
	if err != nil {
		t.Fatalf("create sku: %v", err)
	}
	slot, err := db.CreateSlot(ctx, inventory.SlotConfig{
		NetworkID:  n.NetworkID,
		LocationID: loc.LocationID,
		ShelfID:    sh.ShelfID,
		Name:       "A1",
		NodeID:     nodeMAC,
		SkuID:      sku.SkuID,
		TareG:      150,
		Status:     inventory.LifecycleActive,
	})
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}
	e.networkID, e.locationID, e.slot = n.NetworkID, loc.LocationID, slot

	e.mon = monitor.New(store.NewSource(db, zerolog.Nop()), e.hub, monitor.Config{
		Watch:        []aggregate.Key{{NetworkID: e.networkID, LocationID: e.locationID}},
		Debounce:     debounce,
		LowThreshold: 2,
		Clock:        e.clock,
		Publisher:    e.pub,
		MQTT:         e.pub,
		Tracker:      e.tracker,
		Lamp:         e.lamp,
		Live:         e.hub,
		Logger:       zerolog.Nop(),
	})
	e.mon.Start()
	t.Cleanup(e.mon.Stop)
	return e
}

// reading delivers a node heartbeat and a slot reading as the broker would.
func (e *env) reading(qty int) {
	now := e.clock.Now().UnixMilli()
	e.handler.Handle(fmt.Sprintf("%s/%s/nodes_live/%s", prefix, e.locationID, nodeMAC),
		[]byte(fmt.Sprintf(`{"last_seen": %d, "rssi": -60}`, now)))
	e.handler.Handle(fmt.Sprintf("%s/%s/inventory_live/%s", prefix, e.locationID, e.slot.SlotID),
		[]byte(fmt.Sprintf(`{"quantity": %d, "updated_at": %d, "flags": 1}`, qty, now)))
}

func (e *env) statuses(t *testing.T) []inventory.Status {
	t.Helper()
	var got []inventory.Status
	for _, tr := range e.pub.Published() {
		got = append(got, tr.To)
	}
	return got
}

func equalStatuses(a, b []inventory.Status) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestIntegrationFullFlow(t *testing.T) {
	e := newEnv(t)

	// Configured but silent: the slot's node is offline.
	e.clock.Advance(debounce)
	e.reading(10)
	e.clock.Advance(debounce)
	e.clock.Advance(time.Second)
	e.reading(1)
	e.clock.Advance(debounce)
	e.reading(0)
	e.clock.Advance(debounce)

	want := []inventory.Status{inventory.StatusOfflineNode, inventory.StatusOK, inventory.StatusLow, inventory.StatusEmpty}
	if got := e.statuses(t); !equalStatuses(got, want) {
		t.Fatalf("transitions: got %v, want %v", got, want)
	}

	tr := e.pub.Published()
	for i := 1; i < len(tr); i++ {
		if tr[i].From != tr[i-1].To {
			t.Errorf("transition %d: from %s, want %s", i, tr[i].From, tr[i-1].To)
		}
	}
	if tr[0].SlotName != "A1" || tr[0].LocationID != e.locationID {
		t.Errorf("transition 0: got %+v", tr[0])
	}

	// Lamp follows alerting slots: OFFLINE_NODE on, OK off, EMPTY on.
	wantLamp := []bool{true, false, true}
	if len(e.lamp.History) != len(wantLamp) {
		t.Fatalf("lamp history: got %v, want %v", e.lamp.History, wantLamp)
	}
	for i := range wantLamp {
		if e.lamp.History[i] != wantLamp[i] {
			t.Errorf("lamp[%d]: got %v, want %v", i, e.lamp.History[i], wantLamp[i])
		}
	}

	snap := e.tracker.Snapshot()
	if len(snap.Locations) != 1 {
		t.Fatalf("locations: got %d, want 1", len(snap.Locations))
	}
	loc := snap.Locations[0]
	if loc.Transitions != 4 || loc.Counts[inventory.StatusEmpty] != 1 || loc.Loading {
		t.Errorf("location: got %+v", loc)
	}
	if !snap.LampOn {
		t.Error("expected lamp on in snapshot")
	}
}

func TestIntegrationNoDuplicateTransitions(t *testing.T) {
	e := newEnv(t)
	e.clock.Advance(debounce)

	for i := 0; i < 5; i++ {
		e.reading(10)
		e.clock.Advance(debounce)
	}
	want := []inventory.Status{inventory.StatusOfflineNode, inventory.StatusOK}
	if got := e.statuses(t); !equalStatuses(got, want) {
		t.Errorf("transitions: got %v, want %v", got, want)
	}
}

func TestIntegrationBurstIsDebounced(t *testing.T) {
	e := newEnv(t)
	e.clock.Advance(debounce)

	// Three writes inside one debounce window produce one projection.
	e.reading(10)
	e.clock.Advance(debounce / 4)
	e.reading(1)
	e.clock.Advance(debounce / 4)
	e.reading(0)
	e.clock.Advance(debounce)

	want := []inventory.Status{inventory.StatusOfflineNode, inventory.StatusEmpty}
	if got := e.statuses(t); !equalStatuses(got, want) {
		t.Errorf("transitions: got %v, want %v", got, want)
	}
}

func TestIntegrationConfigWriteReprojects(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.clock.Advance(debounce)
	e.reading(1)
	e.clock.Advance(debounce)

	disabled := e.slot
	disabled.Status = inventory.LifecycleDisabled
	if err := e.db.UpdateSlot(ctx, disabled); err != nil {
		t.Fatalf("disable slot: %v", err)
	}
	e.clock.Advance(debounce)

	if slots, ok := e.mon.Slots(e.locationID); !ok || len(slots) != 0 {
		t.Fatalf("after disable: got %v (ok=%v), want no slots", slots, ok)
	}

	if err := e.db.UpdateSlot(ctx, e.slot); err != nil {
		t.Fatalf("enable slot: %v", err)
	}
	e.clock.Advance(debounce)

	// A disappearing slot is not reported; its return is a fresh transition.
	tr := e.pub.Published()
	want := []inventory.Status{inventory.StatusOfflineNode, inventory.StatusLow, inventory.StatusLow}
	if got := e.statuses(t); !equalStatuses(got, want) {
		t.Fatalf("transitions: got %v, want %v", got, want)
	}
	if tr[2].From != "" {
		t.Errorf("re-enabled slot: from %q, want empty", tr[2].From)
	}
}

func TestIntegrationSlotGoesStale(t *testing.T) {
	e := newEnv(t)
	e.clock.Advance(debounce)
	e.reading(10)
	e.clock.Advance(debounce)

	// Node keeps checking in, slot reading ages past the staleness limit.
	e.clock.Advance(6 * time.Minute)
	now := e.clock.Now().UnixMilli()
	e.handler.Handle(fmt.Sprintf("%s/%s/nodes_live/%s", prefix, e.locationID, nodeMAC),
		[]byte(fmt.Sprintf(`{"last_seen": %d}`, now)))
	e.clock.Advance(debounce)

	got := e.statuses(t)
	if len(got) != 3 || got[2] != inventory.StatusStale {
		t.Errorf("transitions: got %v, want last STALE", got)
	}
}

func TestIntegrationTransitionPayloadFormat(t *testing.T) {
	e := newEnv(t)
	e.clock.Advance(debounce)

	payloads := e.pub.Payloads
	if len(payloads) != 1 {
		t.Fatalf("got %d payloads, want 1", len(payloads))
	}
	var p mqtt.TransitionPayload
	if err := json.Unmarshal(payloads[0], &p); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if p.Slot.To != "OFFLINE_NODE" || !p.Slot.Alerting || p.Slot.SlotID != e.slot.SlotID {
		t.Errorf("payload: got %+v", p.Slot)
	}
	if _, err := time.Parse(time.RFC3339, p.Slot.Timestamp); err != nil {
		t.Errorf("timestamp %q: %v", p.Slot.Timestamp, err)
	}
}

func TestIntegrationStartupThenShutdown(t *testing.T) {
	e := newEnv(t)
	e.clock.Advance(debounce)

	sig := make(chan os.Signal, 1)
	sig <- syscall.SIGTERM
	if err := e.mon.Run(nil, nil, sig); err != nil {
		t.Fatalf("run: %v", err)
	}

	events := e.pub.Events()
	if len(events) != 2 {
		t.Fatalf("got %d system events, want 2", len(events))
	}
	if events[0].Event != "STARTUP" || events[1].Event != "SHUTDOWN" || events[1].Reason != "SIGTERM" {
		t.Errorf("events: got %s, %s/%s", events[0].Event, events[1].Event, events[1].Reason)
	}

	var sj status.StatusJSON
	if err := json.Unmarshal(events[1].RawPayload, &sj); err != nil {
		t.Fatalf("invalid shutdown payload: %v", err)
	}
	if sj.Status.Event != "SHUTDOWN" || len(sj.Status.Locations) != 1 || sj.Status.Alerting != 1 {
		t.Errorf("shutdown status: got %+v", sj.Status)
	}
}

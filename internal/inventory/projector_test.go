package inventory

import (
	"testing"
)

// now is a fixed wall-clock instant (2026-01-01T12:00:00Z) in epoch ms.
const now int64 = 1767268800000

func activeConfig() SlotConfig {
	return SlotConfig{
		SlotID:     "slot-1",
		ShelfID:    "shelf-1",
		LocationID: "loc-1",
		NetworkID:  "net-1",
		Name:       "A1",
		NodeID:     "AABBCCDDEEFF",
		SkuID:      "sku-1",
		TareG:      150,
		MinQtyStep: 1,
		Status:     LifecycleActive,
	}
}

func freshLive(qty int, flags Flags) *SlotLiveState {
	return &SlotLiveState{
		SlotID:     "slot-1",
		NetWeightG: 500,
		Quantity:   qty,
		UpdatedAt:  now - 1000,
		Confidence: 0.9,
		Flags:      flags,
		SourceNode: "AABBCCDDEEFF",
		Seq:        42,
	}
}

func TestResolveStatusRules(t *testing.T) {
	tests := []struct {
		name   string
		cfg    func(c *SlotConfig)
		live   *SlotLiveState
		online bool
		want   Status
	}{
		{"no live", nil, nil, true, StatusOfflineNode},
		{"node offline", nil, freshLive(5, FlagStable), false, StatusOfflineNode},
		{"stale", nil, &SlotLiveState{Quantity: 5, UpdatedAt: now - StaleThresholdMs - 1}, true, StatusStale},
		{"sensor error", nil, freshLive(5, FlagSensorError), true, StatusErrorSensor},
		{"calibrating", nil, freshLive(5, FlagCalibration), true, StatusCalibrating},
		{"uncalibrated", func(c *SlotConfig) { c.TareG = 0 }, freshLive(5, FlagStable), true, StatusUncalibrated},
		{"empty zero", nil, freshLive(0, FlagStable), true, StatusEmpty},
		{"empty negative", nil, freshLive(-1, FlagStable), true, StatusEmpty},
		{"low at threshold", nil, freshLive(2, FlagStable), true, StatusLow},
		{"low one", nil, freshLive(1, 0), true, StatusLow},
		{"ok above threshold", nil, freshLive(3, FlagStable), true, StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := activeConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			got := ResolveStatus(cfg, tt.live, tt.online, now, DefaultLowThreshold)
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolveStatusOfflineWinsOverEverything(t *testing.T) {
	cfg := activeConfig()
	cfg.TareG = 0
	live := &SlotLiveState{
		Quantity:  -3,
		UpdatedAt: now - 10*StaleThresholdMs,
		Flags:     FlagSensorError | FlagCalibration | FlagOverload,
	}

	if got := ResolveStatus(cfg, live, false, now, DefaultLowThreshold); got != StatusOfflineNode {
		t.Errorf("got %s, want %s", got, StatusOfflineNode)
	}
}

func TestResolveStatusStaleBoundary(t *testing.T) {
	cfg := activeConfig()

	atThreshold := &SlotLiveState{Quantity: 5, UpdatedAt: now - 300000}
	if got := ResolveStatus(cfg, atThreshold, true, now, DefaultLowThreshold); got != StatusOK {
		t.Errorf("age 300000: got %s, want %s", got, StatusOK)
	}

	past := &SlotLiveState{Quantity: 5, UpdatedAt: now - 300001}
	if got := ResolveStatus(cfg, past, true, now, DefaultLowThreshold); got != StatusStale {
		t.Errorf("age 300001: got %s, want %s", got, StatusStale)
	}
}

func TestResolveStatusLowBoundary(t *testing.T) {
	cfg := activeConfig()
	for _, threshold := range []int{0, 2, 5} {
		if got := ResolveStatus(cfg, freshLive(threshold, 0), true, now, threshold); threshold > 0 && got != StatusLow {
			t.Errorf("threshold %d, qty %d: got %s, want %s", threshold, threshold, got, StatusLow)
		}
		if got := ResolveStatus(cfg, freshLive(threshold+1, 0), true, now, threshold); got != StatusOK {
			t.Errorf("threshold %d, qty %d: got %s, want %s", threshold, threshold+1, got, StatusOK)
		}
	}
}

func TestResolveStatusSensorErrorBeatsCalibration(t *testing.T) {
	got := ResolveStatus(activeConfig(), freshLive(5, FlagSensorError|FlagCalibration), true, now, DefaultLowThreshold)
	if got != StatusErrorSensor {
		t.Errorf("got %s, want %s", got, StatusErrorSensor)
	}
}

func TestResolveStatusCalibratingRegardlessOfTare(t *testing.T) {
	for _, tare := range []float64{0, 150} {
		cfg := activeConfig()
		cfg.TareG = tare
		if got := ResolveStatus(cfg, freshLive(5, FlagCalibration), true, now, DefaultLowThreshold); got != StatusCalibrating {
			t.Errorf("tare %v: got %s, want %s", tare, got, StatusCalibrating)
		}
	}
}

func TestResolveStatusTotal(t *testing.T) {
	valid := make(map[Status]bool)
	for _, s := range AllStatuses {
		valid[s] = true
	}

	cfg := activeConfig()
	for _, tare := range []float64{0, 100} {
		cfg.TareG = tare
		for flags := Flags(0); flags < 16; flags++ {
			for _, age := range []int64{0, StaleThresholdMs, StaleThresholdMs + 1} {
				for _, qty := range []int{-1, 0, 2, 3} {
					for _, online := range []bool{true, false} {
						live := &SlotLiveState{Quantity: qty, UpdatedAt: now - age, Flags: flags}
						got := ResolveStatus(cfg, live, online, now, DefaultLowThreshold)
						if !valid[got] {
							t.Fatalf("unexpected status %q", got)
						}
						if got.Label() == "" {
							t.Fatalf("status %q has no label", got)
						}
					}
				}
			}
		}
	}
}

func TestEndToEndScenarios(t *testing.T) {
	live := &SlotLiveState{Quantity: 5, UpdatedAt: now - 1000, Flags: 0x01}

	cfg := activeConfig()
	if got := ResolveStatus(cfg, live, true, now, DefaultLowThreshold); got != StatusOK {
		t.Errorf("calibrated: got %s, want OK", got)
	}

	cfg.TareG = 0
	if got := ResolveStatus(cfg, live, true, now, DefaultLowThreshold); got != StatusUncalibrated {
		t.Errorf("tare 0: got %s, want UNCALIBRATED", got)
	}

	calibrating := *live
	calibrating.Flags = 0x08
	if got := ResolveStatus(cfg, &calibrating, true, now, DefaultLowThreshold); got != StatusCalibrating {
		t.Errorf("calibration bit: got %s, want CALIBRATING", got)
	}
}

func TestProjectSlotWithoutLive(t *testing.T) {
	vm := ProjectSlot(activeConfig(), nil, &SkuConfig{SkuID: "sku-1", Name: "Bolts"}, true, now, DefaultLowThreshold)

	if vm.Quantity != 0 || vm.Confidence != 0 || vm.NetWeightG != 0 {
		t.Errorf("expected zero live fields, got qty=%d conf=%v net=%v", vm.Quantity, vm.Confidence, vm.NetWeightG)
	}
	if !vm.IsOffline {
		t.Error("expected IsOffline=true")
	}
	if vm.IsStale {
		t.Error("expected IsStale=false")
	}
	if vm.HasError {
		t.Error("expected HasError=false")
	}
	if vm.IsOverloaded || vm.IsCalibrating || vm.IsWeightStable {
		t.Error("expected flag booleans false without live")
	}
	if vm.Status != StatusOfflineNode {
		t.Errorf("Status: got %s, want %s", vm.Status, StatusOfflineNode)
	}
	if vm.StatusLabel != "Offline" {
		t.Errorf("StatusLabel: got %q, want %q", vm.StatusLabel, "Offline")
	}
	if vm.SkuName != "Bolts" {
		t.Errorf("SkuName: got %q, want %q", vm.SkuName, "Bolts")
	}
}

func TestProjectSlotWithoutSku(t *testing.T) {
	vm := ProjectSlot(activeConfig(), freshLive(5, FlagStable), nil, true, now, DefaultLowThreshold)
	if vm.SkuName != "" {
		t.Errorf("SkuName: got %q, want empty", vm.SkuName)
	}
	if vm.SkuID != "sku-1" {
		t.Errorf("SkuID: got %q, want sku-1", vm.SkuID)
	}
}

func TestProjectSlotFields(t *testing.T) {
	live := freshLive(7, FlagStable|FlagOverload)
	vm := ProjectSlot(activeConfig(), live, &SkuConfig{Name: "Nuts"}, true, now, DefaultLowThreshold)

	if vm.SlotID != "slot-1" || vm.ShelfID != "shelf-1" || vm.LocationID != "loc-1" || vm.NetworkID != "net-1" {
		t.Errorf("identity fields not copied: %+v", vm)
	}
	if vm.SlotName != "A1" {
		t.Errorf("SlotName: got %q, want A1", vm.SlotName)
	}
	if vm.Quantity != 7 {
		t.Errorf("Quantity: got %d, want 7", vm.Quantity)
	}
	if vm.Confidence != 0.9 {
		t.Errorf("Confidence: got %v, want 0.9", vm.Confidence)
	}
	if vm.NetWeightG != 500 {
		t.Errorf("NetWeightG: got %v, want 500", vm.NetWeightG)
	}
	if !vm.IsOverloaded {
		t.Error("expected IsOverloaded")
	}
	if !vm.IsWeightStable {
		t.Error("expected IsWeightStable")
	}
	if vm.IsCalibrating {
		t.Error("expected IsCalibrating=false")
	}
	if vm.Status != StatusOK || vm.StatusLabel != "In Stock" {
		t.Errorf("status: got %s/%q, want OK/In Stock", vm.Status, vm.StatusLabel)
	}
	if vm.NodeID != "AABBCCDDEEFF" || vm.UpdatedAt != now-1000 || vm.Flags != FlagStable|FlagOverload || vm.Seq != 42 {
		t.Errorf("diagnostics not copied: %+v", vm)
	}
	if !vm.IsActive {
		t.Error("expected IsActive")
	}
}

func TestProjectSlotBooleansRestateStatus(t *testing.T) {
	cfg := activeConfig()
	cases := []*SlotLiveState{
		nil,
		{Quantity: 5, UpdatedAt: now - StaleThresholdMs - 1},
		freshLive(5, FlagSensorError),
		freshLive(5, FlagCalibration),
		freshLive(0, 0),
		freshLive(5, 0),
	}
	for _, live := range cases {
		vm := ProjectSlot(cfg, live, nil, true, now, DefaultLowThreshold)
		if vm.IsStale != (vm.Status == StatusStale) {
			t.Errorf("%s: IsStale=%v", vm.Status, vm.IsStale)
		}
		if vm.IsOffline != (vm.Status == StatusOfflineNode) {
			t.Errorf("%s: IsOffline=%v", vm.Status, vm.IsOffline)
		}
		if vm.HasError != (vm.Status == StatusErrorSensor) {
			t.Errorf("%s: HasError=%v", vm.Status, vm.HasError)
		}
	}
}

func TestProjectSlotInactiveConfig(t *testing.T) {
	cfg := activeConfig()
	cfg.Status = LifecycleDisabled
	vm := ProjectSlot(cfg, freshLive(5, 0), nil, true, now, DefaultLowThreshold)
	if vm.IsActive {
		t.Error("expected IsActive=false for disabled slot")
	}
}

func TestProjectLocationSkipsInactive(t *testing.T) {
	configs := map[string]SlotConfig{}
	for _, c := range []struct {
		id     string
		status Lifecycle
	}{
		{"a", LifecycleActive},
		{"b", LifecycleProvisioning},
		{"c", LifecycleDisabled},
		{"d", LifecycleActive},
	} {
		cfg := activeConfig()
		cfg.SlotID = c.id
		cfg.Status = c.status
		configs[c.id] = cfg
	}
	live := map[string]SlotLiveState{}
	for id := range configs {
		l := freshLive(5, FlagStable)
		l.SlotID = id
		live[id] = *l
	}
	online := NodeSet{"AABBCCDDEEFF": {}}

	got := ProjectLocation(configs, live, nil, online, now, DefaultLowThreshold)
	if len(got) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(got))
	}
	if got[0].SlotID != "a" || got[1].SlotID != "d" {
		t.Errorf("got slots %s,%s, want a,d", got[0].SlotID, got[1].SlotID)
	}
	for _, vm := range got {
		if vm.Status != StatusOK {
			t.Errorf("slot %s: got %s, want OK", vm.SlotID, vm.Status)
		}
	}
}

func TestProjectLocationEmptyOnlineSet(t *testing.T) {
	configs := map[string]SlotConfig{}
	live := map[string]SlotLiveState{}
	for _, id := range []string{"a", "b", "c"} {
		cfg := activeConfig()
		cfg.SlotID = id
		configs[id] = cfg
		l := freshLive(5, FlagStable)
		live[id] = *l
	}

	for _, online := range []NodeSet{nil, {}} {
		got := ProjectLocation(configs, live, nil, online, now, DefaultLowThreshold)
		if len(got) != 3 {
			t.Fatalf("expected 3 slots, got %d", len(got))
		}
		for _, vm := range got {
			if vm.Status != StatusOfflineNode {
				t.Errorf("slot %s: got %s, want OFFLINE_NODE", vm.SlotID, vm.Status)
			}
		}
	}
}

func TestProjectLocationLookups(t *testing.T) {
	withSku := activeConfig()
	withSku.SlotID = "a"
	noSku := activeConfig()
	noSku.SlotID = "b"
	noSku.SkuID = "missing"
	otherNode := activeConfig()
	otherNode.SlotID = "c"
	otherNode.NodeID = "112233445566"

	configs := map[string]SlotConfig{"a": withSku, "b": noSku, "c": otherNode}
	live := map[string]SlotLiveState{
		"a": *freshLive(9, 0),
		"c": *freshLive(9, 0),
	}
	skus := map[string]SkuConfig{"sku-1": {SkuID: "sku-1", Name: "Washers"}}
	online := NodeSet{"AABBCCDDEEFF": {}}

	got := ProjectLocation(configs, live, skus, online, now, DefaultLowThreshold)
	if len(got) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(got))
	}

	if got[0].SkuName != "Washers" || got[0].Status != StatusOK {
		t.Errorf("slot a: got %q/%s, want Washers/OK", got[0].SkuName, got[0].Status)
	}
	if got[1].SkuName != "" || got[1].Status != StatusOfflineNode {
		t.Errorf("slot b: got %q/%s, want \"\"/OFFLINE_NODE", got[1].SkuName, got[1].Status)
	}
	if got[2].Status != StatusOfflineNode {
		t.Errorf("slot c: got %s, want OFFLINE_NODE", got[2].Status)
	}
}

func TestProjectLocationKeysLiveBySlotID(t *testing.T) {
	cfg := activeConfig()
	cfg.SlotID = "slot-7"
	// The config map key is not the slot ID; live records are keyed by slot ID.
	configs := map[string]SlotConfig{"row-1": cfg}
	live := map[string]SlotLiveState{"slot-7": *freshLive(9, FlagStable)}
	online := NodeSet{"AABBCCDDEEFF": {}}

	got := ProjectLocation(configs, live, nil, online, now, DefaultLowThreshold)
	if len(got) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(got))
	}
	if got[0].SlotID != "slot-7" || got[0].Status != StatusOK || got[0].Quantity != 9 {
		t.Errorf("got %s/%s/%d, want slot-7/OK/9", got[0].SlotID, got[0].Status, got[0].Quantity)
	}
}

func TestProjectLocationEmptyInputs(t *testing.T) {
	got := ProjectLocation(nil, nil, nil, nil, now, DefaultLowThreshold)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestFlagsAccessors(t *testing.T) {
	tests := []struct {
		flags                                     Flags
		stable, overload, sensorError, calibrating bool
	}{
		{0x00, false, false, false, false},
		{0x01, true, false, false, false},
		{0x02, false, true, false, false},
		{0x04, false, false, true, false},
		{0x08, false, false, false, true},
		{0x0F, true, true, true, true},
		{0x05, true, false, true, false},
	}
	for _, tt := range tests {
		if tt.flags.Stable() != tt.stable || tt.flags.Overloaded() != tt.overload ||
			tt.flags.SensorError() != tt.sensorError || tt.flags.Calibrating() != tt.calibrating {
			t.Errorf("flags 0x%02x decoded incorrectly", uint32(tt.flags))
		}
	}
}

func TestSlotConfigWithDefaults(t *testing.T) {
	c := SlotConfig{SlotID: "x"}.WithDefaults()
	if c.MinQtyStep != 1 {
		t.Errorf("MinQtyStep: got %d, want 1", c.MinQtyStep)
	}
	if c.Status != LifecycleProvisioning {
		t.Errorf("Status: got %q, want provisioning", c.Status)
	}

	c = SlotConfig{MinQtyStep: 5, Status: LifecycleActive}.WithDefaults()
	if c.MinQtyStep != 5 || c.Status != LifecycleActive {
		t.Errorf("explicit values overwritten: %+v", c)
	}
}

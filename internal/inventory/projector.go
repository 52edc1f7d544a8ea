package inventory

import "sort"

// ResolveStatus returns the single status of a slot. The first matching
// rule wins:
//
//	OFFLINE_NODE  no live reading, or the node is not online
//	STALE         reading older than StaleThresholdMs
//	ERROR_SENSOR  sensor-error flag
//	CALIBRATING   calibration flag
//	UNCALIBRATED  tare is exactly 0
//	EMPTY         quantity <= 0
//	LOW           quantity <= lowThreshold
//	OK            otherwise
//
// nodeOnline must come from node presence, not from the slot reading.
func ResolveStatus(cfg SlotConfig, live *SlotLiveState, nodeOnline bool, nowMs int64, lowThreshold int) Status {
	if live == nil || !nodeOnline {
		return StatusOfflineNode
	}
	if nowMs-live.UpdatedAt > StaleThresholdMs {
		return StatusStale
	}
	if live.Flags.SensorError() {
		return StatusErrorSensor
	}
	if live.Flags.Calibrating() {
		return StatusCalibrating
	}
	if cfg.TareG == 0 {
		return StatusUncalibrated
	}
	if live.Quantity <= 0 {
		return StatusEmpty
	}
	if live.Quantity <= lowThreshold {
		return StatusLow
	}
	return StatusOK
}

// ProjectSlot merges a slot's config, live reading, SKU and node presence
// into a view model. live and sku may be nil.
func ProjectSlot(cfg SlotConfig, live *SlotLiveState, sku *SkuConfig, nodeOnline bool, nowMs int64, lowThreshold int) SlotViewModel {
	status := ResolveStatus(cfg, live, nodeOnline, nowMs, lowThreshold)

	vm := SlotViewModel{
		SlotID:     cfg.SlotID,
		ShelfID:    cfg.ShelfID,
		LocationID: cfg.LocationID,
		NetworkID:  cfg.NetworkID,
		SlotName:   cfg.Name,
		SkuID:      cfg.SkuID,
		NodeID:     cfg.NodeID,

		Status:      status,
		StatusLabel: status.Label(),
		IsStale:     status == StatusStale,
		IsOffline:   status == StatusOfflineNode,
		HasError:    status == StatusErrorSensor,

		IsActive: cfg.Status == LifecycleActive,
	}
	if sku != nil {
		vm.SkuName = sku.Name
	}
	if live != nil {
		vm.Quantity = live.Quantity
		vm.Confidence = live.Confidence
		vm.NetWeightG = live.NetWeightG
		vm.IsOverloaded = live.Flags.Overloaded()
		vm.IsCalibrating = live.Flags.Calibrating()
		vm.IsWeightStable = live.Flags.Stable()
		vm.UpdatedAt = live.UpdatedAt
		vm.Flags = live.Flags
		vm.Seq = live.Seq
	}
	return vm
}

// ProjectLocation projects every active slot of a location. Slots that are
// provisioning or disabled are skipped even when they have live data.
// Results are ordered by slot ID.
func ProjectLocation(configs map[string]SlotConfig, live map[string]SlotLiveState, skus map[string]SkuConfig, online NodeSet, nowMs int64, lowThreshold int) []SlotViewModel {
	active := make([]SlotConfig, 0, len(configs))
	for _, cfg := range configs {
		if cfg.Status != LifecycleActive {
			continue
		}
		active = append(active, cfg)
	}
	sort.Slice(active, func(i, j int) bool { return active[i].SlotID < active[j].SlotID })

	out := make([]SlotViewModel, 0, len(active))
	for _, cfg := range active {
		var livePtr *SlotLiveState
		if l, ok := live[cfg.SlotID]; ok {
			livePtr = &l
		}
		var skuPtr *SkuConfig
		if s, ok := skus[cfg.SkuID]; ok {
			skuPtr = &s
		}

		out = append(out, ProjectSlot(cfg, livePtr, skuPtr, online.Contains(cfg.NodeID), nowMs, lowThreshold))
	}
	return out
}

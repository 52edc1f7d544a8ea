package inventory

import "sort"

// UnassignedShelfID keys the group holding slots whose shelf is unknown.
const UnassignedShelfID = "unassigned"

// ShelfGroup is one shelf's slots for dashboard display.
type ShelfGroup struct {
	ShelfID   string          `json:"shelf_id"`
	ShelfName string          `json:"shelf_name"`
	Slots     []SlotViewModel `json:"slots"`
}

// GroupByShelf groups slots by shelf in OrderIndex order. Shelves without
// slots are kept. Slots referencing an unknown shelf are collected in a
// trailing unassigned group, which is omitted when empty.
func GroupByShelf(slots []SlotViewModel, shelves []ShelfConfig) []ShelfGroup {
	ordered := make([]ShelfConfig, len(shelves))
	copy(ordered, shelves)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderIndex < ordered[j].OrderIndex
	})

	groups := make([]ShelfGroup, 0, len(ordered)+1)
	index := make(map[string]int, len(ordered))
	for _, sh := range ordered {
		index[sh.ShelfID] = len(groups)
		groups = append(groups, ShelfGroup{ShelfID: sh.ShelfID, ShelfName: sh.Name, Slots: []SlotViewModel{}})
	}

	var unassigned []SlotViewModel
	for _, s := range slots {
		i, ok := index[s.ShelfID]
		if !ok {
			unassigned = append(unassigned, s)
			continue
		}
		groups[i].Slots = append(groups[i].Slots, s)
	}
	if len(unassigned) > 0 {
		groups = append(groups, ShelfGroup{ShelfID: UnassignedShelfID, ShelfName: "Unassigned", Slots: unassigned})
	}
	return groups
}

// StatusCounts is the number of slots in each status.
type StatusCounts map[Status]int

// CountStatuses tallies slots per status. Every status is present in the
// result, zero or not.
func CountStatuses(slots []SlotViewModel) StatusCounts {
	counts := make(StatusCounts, len(AllStatuses))
	for _, s := range AllStatuses {
		counts[s] = 0
	}
	for _, s := range slots {
		counts[s.Status]++
	}
	return counts
}

// Alerting returns the number of slots in an alerting status.
func (c StatusCounts) Alerting() int {
	n := 0
	for s, v := range c {
		if s.Alerting() {
			n += v
		}
	}
	return n
}

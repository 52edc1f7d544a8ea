package inventory

// Transition is a change of resolved status for one slot between two
// consecutive projections.
type Transition struct {
	SlotID     string `json:"slot_id"`
	LocationID string `json:"location_id"`
	SlotName   string `json:"slot_name"`
	From       Status `json:"from"` // empty for a slot not present before
	To         Status `json:"to"`
	Quantity   int    `json:"quantity"`
	AtMs       int64  `json:"at"`
}

// Transitions returns the status changes from prev to next, in next's
// order. Slots that disappeared are not reported.
func Transitions(prev, next []SlotViewModel, nowMs int64) []Transition {
	before := make(map[string]Status, len(prev))
	for _, s := range prev {
		before[s.SlotID] = s.Status
	}

	var out []Transition
	for _, s := range next {
		from, ok := before[s.SlotID]
		if ok && from == s.Status {
			continue
		}
		out = append(out, Transition{
			SlotID:     s.SlotID,
			LocationID: s.LocationID,
			SlotName:   s.SlotName,
			From:       from,
			To:         s.Status,
			Quantity:   s.Quantity,
			AtMs:       nowMs,
		})
	}
	return out
}

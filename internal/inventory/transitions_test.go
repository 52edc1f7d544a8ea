package inventory

import "testing"

func TestTransitionsInitialProjection(t *testing.T) {
	next := []SlotViewModel{vm("a", "", StatusOK), vm("b", "", StatusEmpty)}

	got := Transitions(nil, next, now)
	if len(got) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(got))
	}
	if got[0].From != "" || got[0].To != StatusOK {
		t.Errorf("a: got %q -> %q", got[0].From, got[0].To)
	}
	if got[1].AtMs != now {
		t.Errorf("AtMs: got %d, want %d", got[1].AtMs, now)
	}
}

func TestTransitionsOnlyChanges(t *testing.T) {
	prev := []SlotViewModel{vm("a", "", StatusOK), vm("b", "", StatusLow), vm("c", "", StatusOK)}
	next := []SlotViewModel{vm("a", "", StatusOK), vm("b", "", StatusEmpty)}

	got := Transitions(prev, next, now)
	if len(got) != 1 {
		t.Fatalf("expected 1 transition, got %d: %+v", len(got), got)
	}
	if got[0].SlotID != "b" || got[0].From != StatusLow || got[0].To != StatusEmpty {
		t.Errorf("got %+v", got[0])
	}
}

func TestTransitionsNoChange(t *testing.T) {
	slots := []SlotViewModel{vm("a", "", StatusOK)}
	if got := Transitions(slots, slots, now); len(got) != 0 {
		t.Errorf("expected no transitions, got %d", len(got))
	}
}

package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sweeney/stockwise/internal/inventory"
)

var errViewsDisabled = errors.New("live views disabled")

func (s *Server) locationView(w http.ResponseWriter, r *http.Request) (*view, bool) {
	if s.views == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: errViewsDisabled.Error()})
		return nil, false
	}
	return s.views.get(chi.URLParam(r, "networkID"), chi.URLParam(r, "locationID")), true
}

// handleSlots returns the location's projected slots, or shelf groups with
// ?group=shelf. A freshly opened view reports loading until its first
// projection.
func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	v, ok := s.locationView(w, r)
	if !ok {
		return
	}
	st := v.inventory.State()
	resp := SlotsResponse{Loading: st.Loading, Error: errorString(st.Err)}

	slots := v.inventory.Slots()
	switch r.URL.Query().Get("group") {
	case "shelf":
		resp.Groups = inventory.GroupByShelf(slots, v.shelfList())
	case "":
		resp.Slots = slots
	default:
		writeError(w, errBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	v, ok := s.locationView(w, r)
	if !ok {
		return
	}
	st := v.inventory.State()
	slots := v.inventory.Slots()
	counts := inventory.CountStatuses(slots)

	resp := SummaryResponse{
		Loading:  st.Loading,
		Error:    errorString(st.Err),
		Total:    len(slots),
		Alerting: counts.Alerting(),
		Counts:   make(map[string]int, len(counts)),
	}
	for k, n := range counts {
		resp.Counts[string(k)] = n
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	v, ok := s.locationView(w, r)
	if !ok {
		return
	}
	st := v.devices.State()
	writeJSON(w, http.StatusOK, DevicesResponse{
		Loading: st.Loading,
		Error:   errorString(st.Err),
		Brains:  v.devices.Brains(),
		Nodes:   v.devices.Nodes(),
	})
}

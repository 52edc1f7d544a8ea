package web

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/sweeney/stockwise/internal/devices"
	"github.com/sweeney/stockwise/internal/inventory"
	"github.com/sweeney/stockwise/internal/tenant"
)

// Update handlers load the record, decode the body over it and pin the
// path identifiers, so a partial body only changes the fields it names.

func pathIDs(r *http.Request) (networkID, locationID string) {
	return chi.URLParam(r, "networkID"), chi.URLParam(r, "locationID")
}

// --- networks ---

type createNetworkRequest struct {
	Name string `json:"name"`
}

func (s *Server) listNetworks(w http.ResponseWriter, r *http.Request) {
	list, err := s.db.ListNetworks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createNetwork(w http.ResponseWriter, r *http.Request) {
	var req createNetworkRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name == "" {
		writeError(w, fmt.Errorf("%w: name is required", errBadRequest))
		return
	}
	n, err := s.db.CreateNetwork(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) getNetwork(w http.ResponseWriter, r *http.Request) {
	n, err := s.db.GetNetwork(r.Context(), chi.URLParam(r, "networkID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) updateNetwork(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "networkID")
	n, err := s.db.GetNetwork(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decodeBody(w, r, &n); err != nil {
		writeError(w, err)
		return
	}
	n.NetworkID = id
	if err := s.db.UpdateNetwork(r.Context(), n); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) deleteNetwork(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteNetwork(r.Context(), chi.URLParam(r, "networkID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- members ---

type setMemberRequest struct {
	Role string `json:"role"`
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	list, err := s.db.ListMembers(r.Context(), chi.URLParam(r, "networkID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) setMember(w http.ResponseWriter, r *http.Request) {
	var req setMemberRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	m := tenant.MemberConfig{
		UID:       chi.URLParam(r, "uid"),
		NetworkID: chi.URLParam(r, "networkID"),
		Role:      tenant.ParseRole(req.Role),
	}
	if err := s.db.SetMember(r.Context(), m.NetworkID, m.UID, m.Role); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) deleteMember(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteMember(r.Context(), chi.URLParam(r, "networkID"), chi.URLParam(r, "uid")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- locations ---

type createLocationRequest struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

func (s *Server) listLocations(w http.ResponseWriter, r *http.Request) {
	list, err := s.db.ListLocations(r.Context(), chi.URLParam(r, "networkID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createLocation(w http.ResponseWriter, r *http.Request) {
	var req createLocationRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name == "" {
		writeError(w, fmt.Errorf("%w: name is required", errBadRequest))
		return
	}
	networkID := chi.URLParam(r, "networkID")
	if _, err := s.db.GetNetwork(r.Context(), networkID); err != nil {
		writeError(w, err)
		return
	}
	l, err := s.db.CreateLocation(r.Context(), networkID, req.Name, req.Timezone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (s *Server) getLocation(w http.ResponseWriter, r *http.Request) {
	l, err := s.db.GetLocation(r.Context(), chi.URLParam(r, "networkID"), chi.URLParam(r, "locationID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) updateLocation(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	l, err := s.db.GetLocation(r.Context(), networkID, locationID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decodeBody(w, r, &l); err != nil {
		writeError(w, err)
		return
	}
	l.NetworkID, l.LocationID = networkID, locationID
	if err := s.db.UpdateLocation(r.Context(), l); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) deleteLocation(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	if err := s.db.DeleteLocation(r.Context(), networkID, locationID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- shelves ---

func (s *Server) listShelves(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	list, err := s.db.ListShelves(r.Context(), networkID, locationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createShelf(w http.ResponseWriter, r *http.Request) {
	var sh inventory.ShelfConfig
	if err := decodeBody(w, r, &sh); err != nil {
		writeError(w, err)
		return
	}
	sh.NetworkID, sh.LocationID = pathIDs(r)
	sh, err := s.db.CreateShelf(r.Context(), sh)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sh)
}

func (s *Server) updateShelf(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	sh, err := s.db.GetShelf(r.Context(), networkID, locationID, chi.URLParam(r, "shelfID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decodeBody(w, r, &sh); err != nil {
		writeError(w, err)
		return
	}
	sh.NetworkID, sh.LocationID, sh.ShelfID = networkID, locationID, chi.URLParam(r, "shelfID")
	if err := s.db.UpdateShelf(r.Context(), sh); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sh)
}

func (s *Server) deleteShelf(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	if err := s.db.DeleteShelf(r.Context(), networkID, locationID, chi.URLParam(r, "shelfID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- slot configs ---

func (s *Server) listSlotConfigs(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	m, err := s.db.ListSlots(r.Context(), networkID, locationID)
	if err != nil {
		writeError(w, err)
		return
	}
	list := make([]inventory.SlotConfig, 0, len(m))
	for _, c := range m {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SlotID < list[j].SlotID })
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createSlotConfig(w http.ResponseWriter, r *http.Request) {
	var c inventory.SlotConfig
	if err := decodeBody(w, r, &c); err != nil {
		writeError(w, err)
		return
	}
	c.NetworkID, c.LocationID = pathIDs(r)
	c, err := s.db.CreateSlot(r.Context(), c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) getSlotConfig(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	c, err := s.db.GetSlot(r.Context(), networkID, locationID, chi.URLParam(r, "slotID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) updateSlotConfig(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	slotID := chi.URLParam(r, "slotID")
	c, err := s.db.GetSlot(r.Context(), networkID, locationID, slotID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decodeBody(w, r, &c); err != nil {
		writeError(w, err)
		return
	}
	c.NetworkID, c.LocationID, c.SlotID = networkID, locationID, slotID
	if err := s.db.UpdateSlot(r.Context(), c); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteSlotConfig(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	if err := s.db.DeleteSlot(r.Context(), networkID, locationID, chi.URLParam(r, "slotID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- skus ---

func (s *Server) listSkus(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	m, err := s.db.ListSkus(r.Context(), networkID, locationID)
	if err != nil {
		writeError(w, err)
		return
	}
	list := make([]inventory.SkuConfig, 0, len(m))
	for _, k := range m {
		list = append(list, k)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SkuID < list[j].SkuID })
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createSku(w http.ResponseWriter, r *http.Request) {
	k := inventory.SkuConfig{Active: true}
	if err := decodeBody(w, r, &k); err != nil {
		writeError(w, err)
		return
	}
	networkID, locationID := pathIDs(r)
	k, err := s.db.CreateSku(r.Context(), networkID, locationID, k)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, k)
}

func (s *Server) getSku(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	k, err := s.db.GetSku(r.Context(), networkID, locationID, chi.URLParam(r, "skuID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, k)
}

func (s *Server) updateSku(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	skuID := chi.URLParam(r, "skuID")
	k, err := s.db.GetSku(r.Context(), networkID, locationID, skuID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decodeBody(w, r, &k); err != nil {
		writeError(w, err)
		return
	}
	k.SkuID = skuID
	if err := s.db.UpdateSku(r.Context(), networkID, locationID, k); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, k)
}

func (s *Server) deleteSku(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	if err := s.db.DeleteSku(r.Context(), networkID, locationID, chi.URLParam(r, "skuID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- brains ---

func (s *Server) listBrains(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	list, err := s.db.ListBrains(r.Context(), networkID, locationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createBrain(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	b, err := s.db.CreateBrain(r.Context(), networkID, locationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) getBrain(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	b, err := s.db.GetBrain(r.Context(), networkID, locationID, chi.URLParam(r, "brainID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) updateBrain(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	brainID := chi.URLParam(r, "brainID")
	b, err := s.db.GetBrain(r.Context(), networkID, locationID, brainID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decodeBody(w, r, &b); err != nil {
		writeError(w, err)
		return
	}
	b.NetworkID, b.LocationID, b.BrainID, b.Type = networkID, locationID, brainID, devices.DeviceTypeBrain
	if err := s.db.UpdateBrain(r.Context(), b); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) decommissionBrain(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	if err := s.db.DecommissionBrain(r.Context(), networkID, locationID, chi.URLParam(r, "brainID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteBrain(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	if err := s.db.DeleteBrain(r.Context(), networkID, locationID, chi.URLParam(r, "brainID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- nodes ---

type registerNodeRequest struct {
	NodeMAC       string `json:"node_mac"`
	PairedToBrain string `json:"paired_to_brain"`
}

func (s *Server) listNodes(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	list, err := s.db.ListNodes(r.Context(), networkID, locationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) registerNode(w http.ResponseWriter, r *http.Request) {
	var req registerNodeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.NodeMAC == "" {
		writeError(w, fmt.Errorf("%w: node_mac is required", errBadRequest))
		return
	}
	networkID, locationID := pathIDs(r)
	n, err := s.db.RegisterNode(r.Context(), networkID, locationID, req.NodeMAC, req.PairedToBrain)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) getNode(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	n, err := s.db.GetNode(r.Context(), networkID, locationID, chi.URLParam(r, "nodeID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) updateNode(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	nodeID := chi.URLParam(r, "nodeID")
	n, err := s.db.GetNode(r.Context(), networkID, locationID, nodeID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decodeBody(w, r, &n); err != nil {
		writeError(w, err)
		return
	}
	n.NetworkID, n.LocationID, n.NodeID = networkID, locationID, nodeID
	if err := s.db.UpdateNode(r.Context(), n); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	networkID, locationID := pathIDs(r)
	if err := s.db.DeleteNode(r.Context(), networkID, locationID, chi.URLParam(r, "nodeID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sweeney/stockwise/internal/devices"
	"github.com/sweeney/stockwise/internal/inventory"
	"github.com/sweeney/stockwise/internal/store"
)

// maxBodyBytes bounds request bodies on write endpoints.
const maxBodyBytes = 1 << 20

// SlotsResponse is the body of the slots view endpoint. Groups is set
// instead of Slots when grouping by shelf.
type SlotsResponse struct {
	Loading bool                      `json:"loading"`
	Error   string                    `json:"error,omitempty"`
	Slots   []inventory.SlotViewModel `json:"slots,omitempty"`
	Groups  []inventory.ShelfGroup    `json:"groups,omitempty"`
}

// SummaryResponse is the body of the summary endpoint.
type SummaryResponse struct {
	Loading  bool           `json:"loading"`
	Error    string         `json:"error,omitempty"`
	Total    int            `json:"total"`
	Alerting int            `json:"alerting"`
	Counts   map[string]int `json:"counts"`
}

// DevicesResponse is the body of the devices endpoint.
type DevicesResponse struct {
	Loading bool                `json:"loading"`
	Error   string              `json:"error,omitempty"`
	Brains  []devices.BrainView `json:"brains"`
	Nodes   []devices.NodeView  `json:"nodes"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps store sentinels to status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, store.ErrInvalid), errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// decodeBody decodes a JSON body into v. Fields absent from the body keep
// the values v already holds.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

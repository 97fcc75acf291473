// Package handler exposes the pipeline over HTTP: checkout, staff status
// updates, availability, dashboard queries and the realtime stream.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/availability"
	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/customer"
	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/order"
	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/events"
)

// Handler holds the HTTP endpoints over the pipeline services.
type Handler struct {
	orders    *order.Service
	customers customer.Repository
	gate      *availability.Gate
	bus       *events.Bus
	auth      *OperatorAuth
	// loc is the store timezone; date query parameters are calendar days
	// in this zone, not UTC.
	loc *time.Location
}

// NewHandler constructs the Handler with the required collaborators.
func NewHandler(
	orders *order.Service,
	customers customer.Repository,
	gate *availability.Gate,
	bus *events.Bus,
	auth *OperatorAuth,
	loc *time.Location,
) *Handler {
	return &Handler{
		orders:    orders,
		customers: customers,
		gate:      gate,
		bus:       bus,
		auth:      auth,
		loc:       loc,
	}
}

// Routes registers every endpoint on a fresh mux. Staff-only routes are
// wrapped with the operator key check.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/orders", h.placeOrder)
	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("GET /api/availability", h.getAvailability)

	staff := h.auth.Require
	mux.Handle("PATCH /api/orders/{id}/status", staff(http.HandlerFunc(h.updateStatus)))
	mux.Handle("GET /api/customers/top", staff(http.HandlerFunc(h.topCustomers)))
	mux.Handle("PUT /api/availability/override", staff(http.HandlerFunc(h.setOverride)))
	mux.Handle("DELETE /api/availability/override", staff(http.HandlerFunc(h.clearOverride)))
	mux.Handle("GET /api/dashboard/stream", staff(http.HandlerFunc(h.streamEvents)))

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends the uniform failure envelope. err may be a string (single
// user-facing message) or a field-error map.
func writeError(w http.ResponseWriter, status int, err any) {
	writeJSON(w, status, map[string]any{"success": false, "error": err})
}

func logFrom(r *http.Request) *zap.Logger {
	return zctx.From(r.Context())
}

// decodeJSON reads the request body with a size cap and strict field checking.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, errors.New("must be positive")
	}
	return n, nil
}

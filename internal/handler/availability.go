package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

type availabilityResponse struct {
	IsOpen    bool       `json:"isOpen"`
	IsManual  bool       `json:"isManual"`
	Message   string     `json:"message"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// getAvailability reports whether the storefront currently accepts orders.
func (h *Handler) getAvailability(w http.ResponseWriter, r *http.Request) {
	st := h.gate.Current(r.Context())
	writeJSON(w, http.StatusOK, availabilityResponse{
		IsOpen:    st.IsOpen,
		IsManual:  st.IsManual,
		Message:   st.Message,
		ExpiresAt: st.ExpiresAt,
	})
}

// setOverride lets staff force the store open or closed for a limited time.
func (h *Handler) setOverride(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		IsOpen          bool   `json:"isOpen"`
		Reason          string `json:"reason"`
		DurationMinutes int    `json:"durationMinutes"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	ov, err := h.gate.SetOverride(r.Context(), payload.IsOpen, payload.Reason,
		time.Duration(payload.DurationMinutes)*time.Minute)
	if err != nil {
		logFrom(r).Error("set override failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to update store status")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"isOpen":    ov.IsOpen,
		"expiresAt": ov.ExpiresAt,
	})
}

// clearOverride removes the manual override; the schedule applies again
// immediately.
func (h *Handler) clearOverride(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.ClearOverride(r.Context()); err != nil {
		logFrom(r).Error("clear override failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to update store status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

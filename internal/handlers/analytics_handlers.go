package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ricoauto/gatepass/internal/response"
)

// Analytics returns the dashboard aggregation for the requested day
// window. Out-of-allow-list ranges fall back to the default.
func (h *Handlers) Analytics(w http.ResponseWriter, r *http.Request) {
	rangeDays, _ := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("rangeDays")))

	result, err := h.analytics.Aggregate(r.Context(), rangeDays)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load analytics.")
		return
	}

	response.WriteJSON(w, http.StatusOK, result)
}

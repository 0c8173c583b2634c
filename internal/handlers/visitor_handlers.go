package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ricoauto/gatepass/internal/response"
	"github.com/ricoauto/gatepass/internal/service"
)

// NameSuggestions serves autocomplete for the visitor name field.
func (h *Handlers) NameSuggestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	suggestions, err := h.matcher.Suggestions(r.Context(), query, service.DefaultSuggestionLimit)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load name suggestions.")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"suggestions": suggestions,
	})
}

type checkVisitorRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// CheckVisitor runs the advisory duplicate check against the submitted
// name and/or phone.
func (h *Handlers) CheckVisitor(w http.ResponseWriter, r *http.Request) {
	var req checkVisitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	result, err := h.matcher.Check(r.Context(), req.Name, req.Phone)
	if err != nil {
		writeServiceError(w, r, err, "Failed to check visitor.")
		return
	}

	response.WriteJSON(w, http.StatusOK, result)
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ricoauto/gatepass/internal/domain"
	"github.com/ricoauto/gatepass/internal/response"
	"github.com/ricoauto/gatepass/internal/service"
)

// CreatePass issues a new gate pass from a front-desk form submission.
func (h *Handlers) CreatePass(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	result, err := h.passes.Issue(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create gate pass.")
		return
	}

	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"success":       true,
		"message":       "Gate pass issued",
		"passId":        result.PassID,
		"qrCodeDataUrl": result.QRCodeDataURL,
		"visitor":       result.Visitor,
	})
}

type passLookupRequest struct {
	PassID string `json:"passId"`
	Phone  string `json:"phone"`
}

// ValidatePass authenticates a pass by id, optionally narrowed by phone.
// Responses carry a "valid" flag instead of the standard error shape, for
// the gate scanner UI.
func (h *Handlers) ValidatePass(w http.ResponseWriter, r *http.Request) {
	var req passLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"valid":   false,
			"message": "Invalid JSON format",
		})
		return
	}

	visitor, err := h.passes.Validate(r.Context(), req.PassID, req.Phone)
	if err != nil {
		status := http.StatusInternalServerError
		message := "Failed to validate pass."
		switch {
		case errors.Is(err, service.ErrNotFound):
			status, message = http.StatusNotFound, err.Error()
		case errors.Is(err, service.ErrInvalidInput):
			status, message = http.StatusBadRequest, err.Error()
		}
		response.WriteJSON(w, status, map[string]any{
			"valid":   false,
			"message": message,
		})
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"valid":   true,
		"message": "User authenticated",
		"visitor": visitor,
	})
}

// MarkExit closes an active pass. A second call on the same pass succeeds
// without changing anything.
func (h *Handlers) MarkExit(w http.ResponseWriter, r *http.Request) {
	var req passLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	visitor, already, err := h.passes.MarkExit(r.Context(), req.PassID, req.Phone)
	if err != nil {
		writeServiceError(w, r, err, "Failed to mark exit.")
		return
	}

	message := "Exit marked successfully."
	if already {
		message = "Exit already marked."
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": message,
		"visitor": visitor,
	})
}

type deletePassRequest struct {
	PassID        string `json:"passId"`
	AdminPassword string `json:"adminPassword"`
}

func (h *Handlers) deletePass(w http.ResponseWriter, r *http.Request, passID, bodySecret string) {
	deleted, err := h.passes.Delete(r.Context(), passID, adminSecret(r, bodySecret))
	if err != nil {
		writeServiceError(w, r, err, "Failed to delete pass.")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Pass deleted successfully",
		"passId":  deleted,
	})
}

// DeletePassByPath deletes a pass addressed by URL parameter.
func (h *Handlers) DeletePassByPath(w http.ResponseWriter, r *http.Request) {
	h.deletePass(w, r, chi.URLParam(r, "passId"), "")
}

// DeletePassByBody is the body-parameter form of pass deletion, kept for
// older clients. Same semantics as DeletePassByPath.
func (h *Handlers) DeletePassByBody(w http.ResponseWriter, r *http.Request) {
	var req deletePassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	h.deletePass(w, r, req.PassID, req.AdminPassword)
}

// TodayVisitors lists all passes issued during the current calendar day.
func (h *Handlers) TodayVisitors(w http.ResponseWriter, r *http.Request) {
	visitors, err := h.passes.ListToday(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch today's visitors.")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"count":    len(visitors),
		"visitors": visitorsOrEmpty(visitors),
	})
}

// ActivePasses lists passes still inside the facility. Admin gated.
func (h *Handlers) ActivePasses(w http.ResponseWriter, r *http.Request) {
	visitors, err := h.passes.ListActive(r.Context(), adminSecret(r, ""))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch active passes.")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"count":    len(visitors),
		"visitors": visitorsOrEmpty(visitors),
	})
}

// PassHistory lists passes filtered by an explicit date range or a
// rolling day-count window. Admin gated.
func (h *Handlers) PassHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	visitors, filters, err := h.passes.History(r.Context(),
		adminSecret(r, ""), q.Get("rangeDays"), q.Get("fromDate"), q.Get("toDate"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch pass history.")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"count":    len(visitors),
		"visitors": visitorsOrEmpty(visitors),
		"filters":  filters,
	})
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ricoauto/gatepass/internal/response"
)

type vipGenerateRequest struct {
	Label         string `json:"label"`
	AdminPassword string `json:"adminPassword"`
}

// VipGenerate creates a new reusable VIP access code. Admin gated.
func (h *Handlers) VipGenerate(w http.ResponseWriter, r *http.Request) {
	var req vipGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	code, err := h.vips.Generate(r.Context(), adminSecret(r, req.AdminPassword), req.Label)
	if err != nil {
		writeServiceError(w, r, err, "Failed to generate VIP pass ID.")
		return
	}

	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"message":     "VIP pass ID generated",
		"vipAccessId": code.VipAccessID,
		"vipPass":     code,
	})
}

type vipLookupRequest struct {
	PassID      string `json:"passId"`
	VipAccessID string `json:"vipAccessId"`
}

// VipIssue mints a gate pass against an active VIP access code.
func (h *Handlers) VipIssue(w http.ResponseWriter, r *http.Request) {
	var req vipLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	result, err := h.vips.Issue(r.Context(), req.VipAccessID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to issue VIP gate pass.")
		return
	}

	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"success":       true,
		"message":       "Gate pass issued",
		"passId":        result.PassID,
		"vipAccessId":   result.Visitor.VipAccessID,
		"qrCodeDataUrl": result.QRCodeDataURL,
		"visitor":       result.Visitor,
	})
}

// VipVerify looks up the most recent VIP visit by pass id or access code.
func (h *Handlers) VipVerify(w http.ResponseWriter, r *http.Request) {
	var req vipLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	visitor, err := h.vips.Verify(r.Context(), req.PassID, req.VipAccessID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to verify VIP entry.")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"visitor": visitor,
	})
}

// VipCheckout marks the most recent active VIP visit as exited.
func (h *Handlers) VipCheckout(w http.ResponseWriter, r *http.Request) {
	var req vipLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	visitor, err := h.vips.Checkout(r.Context(), req.PassID, req.VipAccessID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to complete VIP checkout.")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "VIP visitor checked out",
		"visitor": visitor,
	})
}

// VipLogs lists recent VIP visits, newest first.
func (h *Handlers) VipLogs(w http.ResponseWriter, r *http.Request) {
	visitors, err := h.vips.Logs(r.Context(), r.URL.Query().Get("limit"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to load VIP logs.")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"count":    len(visitors),
		"visitors": visitorsOrEmpty(visitors),
	})
}

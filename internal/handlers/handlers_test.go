package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricoauto/gatepass/internal/repository"
	"github.com/ricoauto/gatepass/internal/service"
	"github.com/ricoauto/gatepass/pkg/events"
)

const testAdminPassword = "admin123"

func newTestRouter(t *testing.T) (chi.Router, *repository.MemoryVisitorRepository) {
	t.Helper()

	visitors := repository.NewMemoryVisitorRepository()
	vipCodes := repository.NewMemoryVipPassRepository()
	idgen := service.NewIDGenerator(visitors, vipCodes)
	passes := service.NewPassService(visitors, idgen, events.NopPublisher{}, testAdminPassword, 260)
	vips := service.NewVipService(visitors, vipCodes, idgen, passes)
	matcher := service.NewMatcher(visitors)
	analytics := service.NewAnalytics(visitors)

	h := New(passes, vips, matcher, analytics)

	noLimit := func(next http.Handler) http.Handler { return next }
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.Routes(r, noLimit)
	})
	return r, visitors
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func createPassPayload() map[string]any {
	return map[string]any{
		"adminPassword": testAdminPassword,
		"name":          "Asha Rao",
		"phone":         "9000000111",
		"visitType":     "Meeting",
		"personToMeet":  "Plant Head",
	}
}

func issueTestPass(t *testing.T, r chi.Router) string {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/api/createPass", createPassPayload())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	passID, _ := body["passId"].(string)
	require.NotEmpty(t, passID)
	return passID
}

func TestCreatePass(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/createPass", createPassPayload())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Gate pass issued", body["message"])
	assert.Contains(t, body["passId"], "PASS-")
	qrURL, _ := body["qrCodeDataUrl"].(string)
	assert.True(t, strings.HasPrefix(qrURL, "data:image/png;base64,"))

	visitor, ok := body["visitor"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Asha Rao", visitor["name"])
	assert.Equal(t, "active", visitor["status"])
}

func TestCreatePassUnauthorized(t *testing.T) {
	r, _ := newTestRouter(t)
	payload := createPassPayload()
	payload["adminPassword"] = "wrong"

	rec := doJSON(t, r, http.MethodPost, "/api/createPass", payload)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Unauthorized", body["message"])
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestCreatePassMissingFields(t *testing.T) {
	r, _ := newTestRouter(t)
	payload := createPassPayload()
	delete(payload, "phone")

	rec := doJSON(t, r, http.MethodPost, "/api/createPass", payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Missing required fields: phone", body["message"])
	assert.Equal(t, "INVALID_INPUT", body["code"])
}

func TestCreatePassInvalidJSON(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/createPass", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Invalid JSON format", body["message"])
}

func TestCreatePassIgnoresHeaderSecret(t *testing.T) {
	r, _ := newTestRouter(t)
	payload := createPassPayload()
	delete(payload, "adminPassword")

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/createPass", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Password", testAdminPassword)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	// Pass creation reads the secret from the request body only.
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidatePass(t *testing.T) {
	r, _ := newTestRouter(t)
	passID := issueTestPass(t, r)

	rec := doJSON(t, r, http.MethodPost, "/api/validatePass", map[string]any{"passId": passID})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "User authenticated", body["message"])
	require.NotNil(t, body["visitor"])
}

func TestValidatePassNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/validatePass", map[string]any{"passId": "PASS-20250309-0042"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, "Pass not found.", body["message"])
}

func TestValidatePassMissingID(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/validatePass", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, "Pass ID is required.", body["message"])
}

func TestMarkExitTwice(t *testing.T) {
	r, _ := newTestRouter(t)
	passID := issueTestPass(t, r)

	rec := doJSON(t, r, http.MethodPost, "/api/markExit", map[string]any{"passId": passID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Exit marked successfully.", decodeBody(t, rec)["message"])

	rec = doJSON(t, r, http.MethodPost, "/api/markExit", map[string]any{"passId": passID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Exit already marked.", decodeBody(t, rec)["message"])
}

func TestDeletePassByPath(t *testing.T) {
	r, visitors := newTestRouter(t)
	passID := issueTestPass(t, r)

	req := httptest.NewRequest(http.MethodDelete, "/api/pass/"+passID, nil)
	req.Header.Set("X-Admin-Password", testAdminPassword)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "Pass deleted successfully", body["message"])
	assert.Equal(t, passID, body["passId"])

	exists, _ := visitors.PassIDExists(req.Context(), passID)
	assert.False(t, exists)
}

func TestDeletePassWrongSecret(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/pass/PASS-20250309-0042?adminPassword=wrong", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	// Secret is rejected before the pass is even looked up.
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", decodeBody(t, rec)["message"])
}

func TestDeletePassByBody(t *testing.T) {
	r, _ := newTestRouter(t)
	passID := issueTestPass(t, r)

	rec := doJSON(t, r, http.MethodPost, "/api/deletePass", map[string]any{
		"passId":        passID,
		"adminPassword": testAdminPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, passID, decodeBody(t, rec)["passId"])
}

func TestCheckVisitor(t *testing.T) {
	r, _ := newTestRouter(t)
	issueTestPass(t, r)

	rec := doJSON(t, r, http.MethodPost, "/api/checkVisitor", map[string]any{
		"name":  "asha rao",
		"phone": "9000000111",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["exists"])
	assert.Equal(t, true, body["phoneMatch"])
	assert.Equal(t, "User already exists. Please renew gate pass.", body["message"])
}

func TestCheckVisitorRequiresInput(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/checkVisitor", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Enter either name or phone number.", decodeBody(t, rec)["message"])
}

func TestNameSuggestions(t *testing.T) {
	r, _ := newTestRouter(t)
	issueTestPass(t, r)

	req := httptest.NewRequest(http.MethodGet, "/api/nameSuggestions?q=ash", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	suggestions, ok := body["suggestions"].([]any)
	require.True(t, ok)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Asha Rao", suggestions[0])
}

func TestTodayVisitors(t *testing.T) {
	r, _ := newTestRouter(t)
	issueTestPass(t, r)

	req := httptest.NewRequest(http.MethodGet, "/api/todayVisitors", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
}

func TestActivePassesGated(t *testing.T) {
	r, _ := newTestRouter(t)
	issueTestPass(t, r)

	req := httptest.NewRequest(http.MethodGet, "/api/activePasses", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/activePasses?adminPassword="+testAdminPassword, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["count"])
}

func TestPassHistoryFilters(t *testing.T) {
	r, _ := newTestRouter(t)
	issueTestPass(t, r)

	req := httptest.NewRequest(http.MethodGet, "/api/passHistory?rangeDays=30", nil)
	req.Header.Set("X-Admin-Password", testAdminPassword)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
	filters, ok := body["filters"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(30), filters["rangeDays"])
}

func TestPassHistoryBadDates(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/passHistory?fromDate=2025-03-09", nil)
	req.Header.Set("X-Admin-Password", testAdminPassword)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Both FROM and TO dates are required.", decodeBody(t, rec)["message"])
}

func TestAnalytics(t *testing.T) {
	r, _ := newTestRouter(t)
	issueTestPass(t, r)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics?rangeDays=9", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	// 9 is not an allowed window, so the default applies.
	assert.Equal(t, float64(7), body["rangeDays"])
	assert.Equal(t, float64(1), body["totalVisitors"])
	assert.Equal(t, float64(1), body["activePasses"])

	trend, ok := body["trend"].(map[string]any)
	require.True(t, ok)
	labels, ok := trend["labels"].([]any)
	require.True(t, ok)
	assert.Len(t, labels, 7)
}

func TestVipLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/vip/generate", map[string]any{
		"label":         "Board Visit",
		"adminPassword": testAdminPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "VIP pass ID generated", body["message"])
	vipAccessID, _ := body["vipAccessId"].(string)
	require.True(t, strings.HasPrefix(vipAccessID, "VIPKEY-"))

	rec = doJSON(t, r, http.MethodPost, "/api/vip/issue", map[string]any{"vipAccessId": vipAccessID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body = decodeBody(t, rec)
	assert.Equal(t, "Gate pass issued", body["message"])
	passID, _ := body["passId"].(string)
	require.True(t, strings.HasPrefix(passID, "VIP-"))
	visitor, ok := body["visitor"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "VIP Visitor - Board Visit", visitor["name"])
	assert.Equal(t, true, visitor["isVip"])

	rec = doJSON(t, r, http.MethodPost, "/api/vip/verify", map[string]any{"vipAccessId": vipAccessID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])

	rec = doJSON(t, r, http.MethodPost, "/api/vip/checkout", map[string]any{"passId": passID})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "VIP visitor checked out", body["message"])

	rec = doJSON(t, r, http.MethodPost, "/api/vip/checkout", map[string]any{"passId": passID})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Active VIP visit not found.", decodeBody(t, rec)["message"])

	req := httptest.NewRequest(http.MethodGet, "/api/vip/logs", nil)
	logRec := httptest.NewRecorder()
	r.ServeHTTP(logRec, req)
	require.Equal(t, http.StatusOK, logRec.Code)
	assert.Equal(t, float64(1), decodeBody(t, logRec)["count"])
}

func TestVipGenerateGated(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/vip/generate", map[string]any{"label": "X"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVipIssueUnknownCode(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/vip/issue", map[string]any{"vipAccessId": "VIPKEY-20250309-0042"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "VIP pass ID not found or inactive.", decodeBody(t, rec)["message"])
}

func TestUnknownRoute(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/doesNotExist", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "API route not found. Restart backend and try again.", body["message"])
	assert.Equal(t, "NOT_FOUND", body["code"])
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ricoauto/gatepass/internal/domain"
	"github.com/ricoauto/gatepass/internal/response"
	"github.com/ricoauto/gatepass/internal/service"
	"github.com/ricoauto/gatepass/pkg/logger"
)

type Handlers struct {
	passes    *service.PassService
	vips      *service.VipService
	matcher   *service.Matcher
	analytics *service.Analytics
}

func New(
	passes *service.PassService,
	vips *service.VipService,
	matcher *service.Matcher,
	analytics *service.Analytics,
) *Handlers {
	return &Handlers{
		passes:    passes,
		vips:      vips,
		matcher:   matcher,
		analytics: analytics,
	}
}

// Routes mounts every API route on the given router. publicLimiter
// guards the unauthenticated lookup endpoints.
func (h *Handlers) Routes(r chi.Router, publicLimiter func(http.Handler) http.Handler) {
	r.Get("/nameSuggestions", h.NameSuggestions)
	r.With(publicLimiter).Post("/checkVisitor", h.CheckVisitor)
	r.Post("/createPass", h.CreatePass)
	r.With(publicLimiter).Post("/validatePass", h.ValidatePass)
	r.Post("/markExit", h.MarkExit)
	r.Get("/activePasses", h.ActivePasses)
	r.Delete("/pass/{passId}", h.DeletePassByPath)
	r.Post("/deletePass", h.DeletePassByBody)
	r.Get("/todayVisitors", h.TodayVisitors)
	r.Get("/passHistory", h.PassHistory)
	r.Get("/analytics", h.Analytics)

	r.Route("/vip", func(r chi.Router) {
		r.Post("/generate", h.VipGenerate)
		r.Post("/issue", h.VipIssue)
		r.Post("/verify", h.VipVerify)
		r.Post("/checkout", h.VipCheckout)
		r.Get("/logs", h.VipLogs)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "API route not found. Restart backend and try again.")
	})
}

// adminSecret resolves the shared admin secret from a request: body field
// first, then the X-Admin-Password header, then the query parameter.
func adminSecret(r *http.Request, bodyValue string) string {
	if v := strings.TrimSpace(bodyValue); v != "" {
		return v
	}
	if v := strings.TrimSpace(r.Header.Get("X-Admin-Password")); v != "" {
		return v
	}
	return strings.TrimSpace(r.URL.Query().Get("adminPassword"))
}

// writeServiceError maps a service error onto the HTTP taxonomy. Anything
// unclassified is logged and reported as the generic fallback.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		response.Unauthorized(w, "Unauthorized")
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(w, err.Error())
	default:
		logger.ErrorContext(r.Context(), fallback, "error", err)
		response.InternalError(w, fallback)
	}
}

// visitorsOrEmpty keeps list responses as [] rather than null.
func visitorsOrEmpty(visitors []domain.VisitorPass) []domain.VisitorPass {
	if visitors == nil {
		return []domain.VisitorPass{}
	}
	return visitors
}

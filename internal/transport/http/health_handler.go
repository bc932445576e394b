package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// SourceChecker reports whether the source workbook is currently resolvable.
type SourceChecker interface {
	Stat() (string, bool)
}

// HealthHandler serves liveness and readiness information.
type HealthHandler struct {
	source SourceChecker
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(source SourceChecker) *HealthHandler {
	return &HealthHandler{source: source}
}

// Routes returns the health routes.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetHealth)
	return r
}

// GetHealth handles GET /healthz. The process is healthy even without a
// workbook; the payload just says so.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	path, ok := h.source.Stat()

	render.JSON(w, r, map[string]interface{}{
		"status":           "ok",
		"workbook":         path,
		"workbook_present": ok,
	})
}

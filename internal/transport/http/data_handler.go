// Package http contains the chi handlers exposing the consolidated dataset:
// company lookup, per-company history and report, the industry trend, and
// downloadable snapshot exports.
package http

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"dtxcli/internal/dataprocessing"
	apierrors "dtxcli/internal/errors"
	"dtxcli/internal/exporter"
	"dtxcli/internal/services"
)

// DataHandler handles data-related HTTP requests.
type DataHandler struct {
	service      DataServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler.
func NewDataHandler(service DataServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/table", h.GetTable)
	r.Get("/companies", h.GetCompanies)
	r.Get("/trend", h.GetTrend)

	r.Route("/company/{code}", func(r chi.Router) {
		r.Use(h.CodeCtx)
		r.Get("/history", h.GetCompanyHistory)
		r.Get("/report", h.GetCompanyReport)
		r.Get("/export", h.ExportCompanyHistory)
	})

	r.Get("/export/trend", h.ExportTrend)

	return r
}

// CodeCtx validates the stock-code parameter.
func (h *DataHandler) CodeCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if code == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("code", "Stock code is required"))
			return
		}
		if len(code) > 10 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("code", "Invalid stock code format"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetTable handles GET /api/data/table: the full calculated table, for
// tabular display and client-side filtering by code, name or year.
func (h *DataHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	table, err := h.service.Table(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   table,
		"count":  len(table.Records),
	})
}

// GetCompanies handles GET /api/data/companies. With a ?q= parameter it
// searches by code or name substring; an empty match set is a success.
func (h *DataHandler) GetCompanies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		refs []services.CompanyRef
		err  error
	)
	if query := r.URL.Query().Get("q"); query != "" {
		refs, err = h.service.Search(ctx, query)
	} else {
		refs, err = h.service.ListCompanies(ctx)
	}
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   refs,
		"count":  len(refs),
	})
}

// GetCompanyHistory handles GET /api/data/company/{code}/history.
func (h *DataHandler) GetCompanyHistory(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	series, err := h.service.CompanyHistory(r.Context(), code)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   series,
	})
}

// GetCompanyReport handles GET /api/data/company/{code}/report.
func (h *DataHandler) GetCompanyReport(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	h.logger.InfoContext(r.Context(), "generating report",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("code", code))

	report, err := h.service.Report(r.Context(), code)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   report,
	})
}

// GetTrend handles GET /api/data/trend.
func (h *DataHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	trend, err := h.service.IndustryTrend(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   trend,
		"count":  len(trend),
	})
}

// ExportCompanyHistory handles GET /api/data/company/{code}/export?format=csv|xlsx
// and responds with the snapshot file as an attachment.
func (h *DataHandler) ExportCompanyHistory(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	format, ok := h.snapshotFormat(w, r)
	if !ok {
		return
	}

	path, err := h.service.ExportHistory(r.Context(), code, format)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.serveSnapshot(w, r, path)
}

// ExportTrend handles GET /api/data/export/trend?format=csv|xlsx.
func (h *DataHandler) ExportTrend(w http.ResponseWriter, r *http.Request) {
	format, ok := h.snapshotFormat(w, r)
	if !ok {
		return
	}

	path, err := h.service.ExportTrend(r.Context(), format)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.serveSnapshot(w, r, path)
}

func (h *DataHandler) snapshotFormat(w http.ResponseWriter, r *http.Request) (exporter.Format, bool) {
	raw := r.URL.Query().Get("format")
	if raw == "" {
		raw = string(exporter.FormatCSV)
	}
	format := exporter.Format(raw)
	if !format.Valid() {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", "Format must be csv or xlsx"))
		return "", false
	}
	return format, true
}

func (h *DataHandler) serveSnapshot(w http.ResponseWriter, r *http.Request, path string) {
	w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(path))
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeFile(w, r, path)
}

// handleServiceError maps service sentinels to API errors.
func (h *DataHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNoData):
		h.errorHandler.HandleError(w, r, apierrors.NoDataError(err.Error()))
	case errors.Is(err, dataprocessing.ErrCompanyNotFound):
		h.errorHandler.HandleError(w, r, apierrors.ErrCompanyNotFound)
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

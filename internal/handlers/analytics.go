package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/campusfound/apiserver/internal/services"
)

// AnalyticsHandler provides the admin reporting endpoints.
type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

// NewAnalyticsHandler constructs a handler with the provided dependencies.
func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// AnalyticsRouter registers analytics routes on the given router. The
// caller is expected to wrap the router in auth and admin middleware.
func AnalyticsRouter(r chi.Router, analyticsService *services.AnalyticsService) {
	handler := NewAnalyticsHandler(analyticsService)

	r.Get("/dashboard", handler.Dashboard)
	r.Get("/specific/{analyticsType}", handler.Specific)
	r.Get("/export", handler.Export)
}

// Dashboard returns the full analytics report.
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	report, err := h.analyticsService.Dashboard(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build analytics")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Specific returns one analytics section by type.
func (h *AnalyticsHandler) Specific(w http.ResponseWriter, r *http.Request) {
	analyticsType := chi.URLParam(r, "analyticsType")

	section, err := h.analyticsService.Specific(r.Context(), analyticsType)
	if err != nil {
		if errors.Is(err, services.ErrUnknownAnalyticsType) {
			writeError(w, http.StatusBadRequest, "unknown analytics type")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to build analytics")
		return
	}

	writeJSON(w, http.StatusOK, section)
}

// Export streams the analytics report as a CSV download.
func (h *AnalyticsHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.analyticsService.ExportCSV(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to export analytics")
		return
	}

	filename := fmt.Sprintf("analytics-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

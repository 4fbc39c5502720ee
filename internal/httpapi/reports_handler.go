package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"citysense/internal/export"
	"citysense/internal/metrics"
	"citysense/internal/models"
	"citysense/internal/service"
)

// ReportsHandler 市民上报的 HTTP 入口
type ReportsHandler struct {
	reports *service.ReportService
	logger  *zap.Logger
}

func NewReportsHandler(reports *service.ReportService, logger *zap.Logger) *ReportsHandler {
	return &ReportsHandler{reports: reports, logger: logger}
}

func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, err := reportFiltersFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	reports, err := h.reports.List(r.Context(), filters)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (h *ReportsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var report models.PopulationReport
	if err := readBodyJSON(r, maxBodyBytes, &report); err != nil {
		writeError(w, err)
		return
	}
	if err := h.reports.Create(r.Context(), &report); err != nil {
		writeError(w, err)
		return
	}
	metrics.ReportsFiledTotal.WithLabelValues("api").Inc()
	writeJSON(w, http.StatusCreated, report)
}

func (h *ReportsHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.Statistics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Export 导出上报 Excel
func (h *ReportsHandler) Export(w http.ResponseWriter, r *http.Request) {
	filters, err := reportFiltersFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	reports, err := h.reports.List(r.Context(), filters)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := export.GenerateReportExport(reports)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="population-reports-%s.xlsx"`, time.Now().UTC().Format("2006-01-02")))
	w.Write(data)
}

type statusUpdateRequest struct {
	Status     models.ReportStatus `json:"status"`
	AdminNotes *string             `json:"adminNotes,omitempty"`
}

// ByID dispatches /api/v1/population/{id} and the status transition.
func (h *ReportsHandler) ByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/population/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		writeError(w, models.ErrInvalidInput)
		return
	}

	if len(parts) > 1 {
		if parts[1] != "status" || r.Method != http.MethodPatch {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var body statusUpdateRequest
		if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
			writeError(w, err)
			return
		}
		report, err := h.reports.UpdateStatus(r.Context(), id, body.Status, body.AdminNotes)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
		return
	}

	switch r.Method {
	case http.MethodGet:
		report, err := h.reports.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	case http.MethodDelete:
		if err := h.reports.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func reportFiltersFromQuery(r *http.Request) (models.ReportFilters, error) {
	var filters models.ReportFilters
	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		status := models.ReportStatus(s)
		if !status.Valid() {
			return filters, fmt.Errorf("unknown report status %q: %w", s, models.ErrInvalidInput)
		}
		filters.Status = &status
	}
	if t := q.Get("type"); t != "" {
		reportType := models.ReportType(t)
		if !reportType.Valid() {
			return filters, fmt.Errorf("unknown report type %q: %w", t, models.ErrInvalidInput)
		}
		filters.Type = &reportType
	}
	return filters, nil
}

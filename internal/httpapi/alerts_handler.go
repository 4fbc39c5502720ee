package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"citysense/internal/export"
	"citysense/internal/models"
	"citysense/internal/service"
)

// AlertsHandler 告警生命周期的 HTTP 入口
type AlertsHandler struct {
	alerts *service.AlertManager
	logger *zap.Logger
}

func NewAlertsHandler(alerts *service.AlertManager, logger *zap.Logger) *AlertsHandler {
	return &AlertsHandler{alerts: alerts, logger: logger}
}

func (h *AlertsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, err := alertFiltersFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	alerts, err := h.alerts.List(r.Context(), filters)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (h *AlertsHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alerts.ListActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

// Create 手工/外部告警录入（无去重，面向运营侧）
func (h *AlertsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var alert models.Alert
	if err := readBodyJSON(r, maxBodyBytes, &alert); err != nil {
		writeError(w, err)
		return
	}
	if err := h.alerts.Create(r.Context(), &alert); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, alert)
}

// Export 导出告警历史 Excel
func (h *AlertsHandler) Export(w http.ResponseWriter, r *http.Request) {
	filters, err := alertFiltersFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	alerts, err := h.alerts.List(r.Context(), filters)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := export.GenerateAlertExport(alerts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="alerts-%s.xlsx"`, time.Now().UTC().Format("2006-01-02")))
	w.Write(data)
}

// ByID dispatches /api/v1/alerts/{id} and the lifecycle transitions.
func (h *AlertsHandler) ByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/alerts/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		writeError(w, models.ErrInvalidInput)
		return
	}

	if len(parts) > 1 {
		if r.Method != http.MethodPatch {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		switch parts[1] {
		case "acknowledge":
			alert, err := h.alerts.Acknowledge(r.Context(), id)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, alert)
		case "resolve":
			alert, err := h.alerts.Resolve(r.Context(), id)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, alert)
		default:
			http.NotFound(w, r)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		alert, err := h.alerts.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, alert)
	case http.MethodDelete:
		if err := h.alerts.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func alertFiltersFromQuery(r *http.Request) (models.AlertFilters, error) {
	var filters models.AlertFilters
	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		status := models.AlertStatus(s)
		if !status.Valid() {
			return filters, fmt.Errorf("unknown alert status %q: %w", s, models.ErrInvalidInput)
		}
		filters.Status = &status
	}
	if l := q.Get("level"); l != "" {
		level := models.AlertLevel(l)
		if !level.Valid() {
			return filters, fmt.Errorf("unknown alert level %q: %w", l, models.ErrInvalidInput)
		}
		filters.Level = &level
	}
	if s := q.Get("sensorId"); s != "" {
		filters.SensorID = &s
	}
	return filters, nil
}

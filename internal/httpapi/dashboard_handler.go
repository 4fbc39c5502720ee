package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"citysense/internal/service"
)

// DashboardHandler 仪表盘聚合视图的 HTTP 入口
type DashboardHandler struct {
	dashboard *service.Dashboard
	logger    *zap.Logger
}

func NewDashboardHandler(dashboard *service.Dashboard, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, logger: logger}
}

func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.dashboard.GetOverview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (h *DashboardHandler) MapData(w http.ResponseWriter, r *http.Request) {
	mapData, err := h.dashboard.GetMapData(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapData)
}

func (h *DashboardHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.dashboard.GetAnalytics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

// Package httpapi is the engine's HTTP surface: sensor CRUD and
// proximity queries, the alert lifecycle, population reports and the
// dashboard views.
package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"citysense/internal/metrics"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Handle registers an instrumented route. The endpoint label is the
// registered pattern, not the raw path, to keep metric cardinality
// bounded.
func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, req)

		status := strconv.Itoa(rec.status)
		metrics.HTTPRequestsTotal.WithLabelValues(req.Method, pattern, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(req.Method, pattern, status).
			Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RegisterOpsRoutes wires health and Prometheus endpoints.
func (r *Router) RegisterOpsRoutes() {
	r.mux.Handle("/metrics", promhttp.Handler())
	r.Handle("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// RegisterSensorRoutes wires the sensor registry surface.
func (r *Router) RegisterSensorRoutes(h *SensorsHandler) {
	r.Handle("/api/v1/sensors", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.List(w, req)
		case http.MethodPost:
			h.Create(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	r.Handle("/api/v1/sensors/nearby", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Nearby(w, req)
	})
	r.Handle("/api/v1/sensors/initialize", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Initialize(w, req)
	})
	r.Handle("/api/v1/sensors/", func(w http.ResponseWriter, req *http.Request) {
		h.ByID(w, req)
	})
}

// RegisterAlertRoutes wires the alert lifecycle surface.
func (r *Router) RegisterAlertRoutes(h *AlertsHandler) {
	r.Handle("/api/v1/alerts", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.List(w, req)
		case http.MethodPost:
			h.Create(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	r.Handle("/api/v1/alerts/active", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ListActive(w, req)
	})
	r.Handle("/api/v1/alerts/export", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Export(w, req)
	})
	r.Handle("/api/v1/alerts/", func(w http.ResponseWriter, req *http.Request) {
		h.ByID(w, req)
	})
}

// RegisterReportRoutes wires the population report surface.
func (r *Router) RegisterReportRoutes(h *ReportsHandler) {
	r.Handle("/api/v1/population", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.List(w, req)
		case http.MethodPost:
			h.Create(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	r.Handle("/api/v1/population/statistics", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Statistics(w, req)
	})
	r.Handle("/api/v1/population/export", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Export(w, req)
	})
	r.Handle("/api/v1/population/", func(w http.ResponseWriter, req *http.Request) {
		h.ByID(w, req)
	})
}

// RegisterDashboardRoutes wires the aggregate read-side views.
func (r *Router) RegisterDashboardRoutes(h *DashboardHandler) {
	r.Handle("/api/v1/dashboard/overview", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Overview(w, req)
	})
	r.Handle("/api/v1/dashboard/map-data", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.MapData(w, req)
	})
	r.Handle("/api/v1/dashboard/analytics", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Analytics(w, req)
	})
}

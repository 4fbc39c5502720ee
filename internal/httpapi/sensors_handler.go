package httpapi

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"citysense/internal/models"
	"citysense/internal/service"
)

const maxBodyBytes = 1 << 20

// SensorsHandler 传感器注册表的 HTTP 入口
type SensorsHandler struct {
	registry *service.SensorRegistry
	logger   *zap.Logger
}

func NewSensorsHandler(registry *service.SensorRegistry, logger *zap.Logger) *SensorsHandler {
	return &SensorsHandler{registry: registry, logger: logger}
}

func (h *SensorsHandler) List(w http.ResponseWriter, r *http.Request) {
	sensors, err := h.registry.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sensors)
}

func (h *SensorsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var sensor models.Sensor
	if err := readBodyJSON(r, maxBodyBytes, &sensor); err != nil {
		writeError(w, err)
		return
	}
	if err := h.registry.Create(r.Context(), &sensor); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sensor)
}

// Nearby 按坐标与半径查询附近传感器（半径默认 5km）
func (h *SensorsHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("latitude") == "" || q.Get("longitude") == "" {
		writeError(w, models.ErrInvalidInput)
		return
	}
	lat := parseFloat(q.Get("latitude"), 0)
	lng := parseFloat(q.Get("longitude"), 0)
	radius := parseFloat(q.Get("radius"), service.DefaultNearbyRadiusKm)

	sensors, err := h.registry.FindNearby(r.Context(), lat, lng, radius)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sensors)
}

// Initialize 首次部署时安装内置的圣保罗传感器
func (h *SensorsHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	created, err := h.registry.Seed(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"created": created})
}

// ByID dispatches /api/v1/sensors/{id} and its subresources.
func (h *SensorsHandler) ByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/sensors/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		writeError(w, models.ErrInvalidInput)
		return
	}

	if len(parts) > 1 {
		switch parts[1] {
		case "realtime":
			if r.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.realtime(w, r, id)
		case "reading":
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.ingestReading(w, r, id)
		default:
			http.NotFound(w, r)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		sensor, err := h.registry.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sensor)
	case http.MethodPatch:
		var patch models.SensorPatch
		if err := readBodyJSON(r, maxBodyBytes, &patch); err != nil {
			writeError(w, err)
			return
		}
		sensor, err := h.registry.Update(r.Context(), id, &patch)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sensor)
	case http.MethodDelete:
		if err := h.registry.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *SensorsHandler) realtime(w http.ResponseWriter, r *http.Request, id string) {
	reading, err := h.registry.LatestReading(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

type readingRequest struct {
	Value      *float64   `json:"value"`
	RecordedAt *time.Time `json:"recordedAt,omitempty"`
}

// ingestReading 提供给网关直推读数的 HTTP 备用通道（MQTT 之外）
func (h *SensorsHandler) ingestReading(w http.ResponseWriter, r *http.Request, id string) {
	var body readingRequest
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.Value == nil {
		writeError(w, models.ErrInvalidInput)
		return
	}
	at := time.Now().UTC()
	if body.RecordedAt != nil {
		at = body.RecordedAt.UTC()
	}
	if err := h.registry.IngestReading(r.Context(), id, *body.Value, at); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

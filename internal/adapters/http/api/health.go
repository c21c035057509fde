package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/heatguard/pkg/metrics"
)

// HealthProvider reports readiness of the assessment pipeline.
type HealthProvider interface {
	Ready() bool
	ModelVersion() string
}

// HealthHandler handles health and metrics requests.
type HealthHandler struct {
	provider HealthProvider
	metrics  http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(provider HealthProvider) *HealthHandler {
	return &HealthHandler{
		provider: provider,
		metrics:  promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

type healthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}

// HandleHealth handles GET /healthz. It answers 503 until the model and
// store are ready.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	if !h.provider.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Model: h.provider.ModelVersion()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Model: h.provider.ModelVersion()})
}

// HandleMetrics serves the custom Prometheus registry.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

package handler

import (
	"net/http"
)

// MetricsHandler exposes the Prometheus registry.
type MetricsHandler struct {
	exposer http.Handler
}

// NewMetricsHandler wraps an exposition handler such as
// metrics.PrometheusRecorder.Handler(). A nil handler answers 503.
func NewMetricsHandler(exposer http.Handler) *MetricsHandler {
	return &MetricsHandler{exposer: exposer}
}

// Metrics handles GET /metrics.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.exposer == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	h.exposer.ServeHTTP(w, r)
}

package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/battrend/pkg/metrics"
)

// StatsProvider reports store, queue and refresh state for GET /stats.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatusHandler serves the operational endpoints: the Prometheus scrape,
// which doubles as the liveness probe, and the service stats.
type StatusHandler struct {
	scrape http.Handler
	stats  StatsProvider
}

// NewStatusHandler builds a StatusHandler over the engine's metrics registry.
func NewStatusHandler(stats StatsProvider) *StatusHandler {
	return &StatusHandler{
		scrape: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
		stats:  stats,
	}
}

// HandleMetrics handles GET /healthz and GET /metrics.
func (h *StatusHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.scrape.ServeHTTP(w, r)
}

// HandleStats handles GET /stats.
func (h *StatusHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, h.stats.GetStats())
}

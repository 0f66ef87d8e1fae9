package monitoring

import (
	"fmt"
	"net/http"
)

// HealthHandlers exposes the monitor over HTTP. The handlers are
// registered on the caller's mux so they share the API server's port.
type HealthHandlers struct {
	monitor *Monitor
}

func NewHealthHandlers(monitor *Monitor) *HealthHandlers {
	return &HealthHandlers{monitor: monitor}
}

func (h *HealthHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.healthHandler)
	mux.HandleFunc("/status", h.statusHandler)
}

func (h *HealthHandlers) healthHandler(w http.ResponseWriter, r *http.Request) {
	if h.monitor.IsHealthy() {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK - %s", h.monitor.GetStatusSummary())
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "Service unhealthy - %s", h.monitor.GetStatusSummary())
	}
}

func (h *HealthHandlers) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%s", h.monitor.GetStatusSummary())
}

package relay

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/faultline-io/faultline/common/middleware"
)

// NewRouter constructs a ServeMux with the relay intake routes registered.
func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/projects/{project}/envelope", h.Submit)

	mux.HandleFunc("/healthz", h.Health)
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}

package observe

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMux serves /healthz and /metrics.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, "ok")
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// NewServer builds the observability HTTP server for addr; callers own its lifecycle.
func NewServer(addr string) *http.Server {
	return &http.Server{Addr: addr, Handler: NewMux()}
}

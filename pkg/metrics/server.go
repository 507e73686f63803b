package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/health"
)

// NewMux routes /metrics to g and the health probes to checker. A nil
// checker leaves the probes unrouted.
func NewMux(g prometheus.Gatherer, checker *health.Checker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	if checker != nil {
		mux.HandleFunc("/health/live", checker.LiveHandler())
		mux.HandleFunc("/health/ready", checker.ReadyHandler())
	}
	return mux
}

// StartServer serves NewMux on port in the background and returns its
// shutdown function.
func StartServer(port int, g prometheus.Gatherer, checker *health.Checker) (shutdown func(context.Context) error) {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      NewMux(g, checker),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return server.Shutdown
}

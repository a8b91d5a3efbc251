package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"newsbot/internal/infra/notifier"
	"newsbot/internal/infra/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// channelHealthResponse is served by /health/channels.
type channelHealthResponse struct {
	Healthy  bool                     `json:"healthy"`
	Channels []notifier.ChannelStatus `json:"channels"`
}

// channelHealthSource is satisfied by *notifier.Router.
type channelHealthSource interface {
	Health() []notifier.ChannelStatus
}

func metricsMux(channels channelHealthSource) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health/channels", channelHealthHandler(channels))
	return mux
}

// startMetricsServer serves /metrics and /health/channels on port until ctx
// is canceled.
func startMetricsServer(ctx context.Context, logger *slog.Logger, port int, router *notifier.Router) *http.Server {
	var channels channelHealthSource
	if router != nil {
		channels = router
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      worker.Instrument(logger, metricsMux(channels)),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
			return
		}
		logger.Info("metrics server stopped")
	}()

	return server
}

// channelHealthHandler answers 503 when any channel has an open breaker.
func channelHealthHandler(channels channelHealthSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if channels == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "delivery channels not initialized"})
			return
		}

		statuses := channels.Health()
		healthy := true
		for _, s := range statuses {
			if !s.Healthy {
				healthy = false
			}
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(channelHealthResponse{Healthy: healthy, Channels: statuses})
	}
}

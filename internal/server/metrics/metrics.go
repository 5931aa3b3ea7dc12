// Package metrics exposes Prometheus metrics for the record store's gRPC
// endpoint.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Metrics holds the collectors registered for one server.
type Metrics struct {
	GRPCCalls    *prometheus.CounterVec
	GRPCDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the collectors with reg. Passing a fresh
// prometheus.NewRegistry keeps tests independent of the global registry.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		GRPCCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlist_grpc_calls_total",
				Help: "Total number of gRPC calls by method and status code",
			},
			[]string{"method", "code"},
		),
		GRPCDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "atlist_grpc_duration_seconds",
				Help:    "gRPC call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method"},
		),
		gatherer: reg,
	}
}

// UnaryServerInterceptor counts every call and observes its latency.
func (m *Metrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		m.GRPCDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		m.GRPCCalls.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		return resp, err
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve runs the /metrics endpoint on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

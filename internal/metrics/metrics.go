// Package metrics provides the Prometheus registry for the odds service.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	registry *prometheus.Registry
	once     sync.Once
)

var (
	TornRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "torn_war_odds",
		Name:      "torn_requests_total",
		Help:      "Total number of Torn API requests by endpoint",
	}, []string{"endpoint"})
	TornErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "torn_war_odds",
		Name:      "torn_errors_total",
		Help:      "Total number of failed Torn API requests by endpoint",
	}, []string{"endpoint"})
	OddsComputedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "torn_war_odds",
		Name:      "odds_computed_total",
		Help:      "Total number of matchups priced",
	})
	WarsSampledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "torn_war_odds",
		Name:      "wars_sampled_total",
		Help:      "Total number of unstarted wars drawn into a sample",
	})
	SheetWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "torn_war_odds",
		Name:      "sheet_writes_total",
		Help:      "Total number of spreadsheet write operations by sheet kind",
	}, []string{"sheet"})
	JobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "torn_war_odds",
		Name:      "job_duration_seconds",
		Help:      "Duration of scheduled jobs",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"job"})
)

// InitRegistry registers all collectors once and returns the registry
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(TornRequestsTotal)
		registry.MustRegister(TornErrorsTotal)
		registry.MustRegister(OddsComputedTotal)
		registry.MustRegister(WarsSampledTotal)
		registry.MustRegister(SheetWritesTotal)
		registry.MustRegister(JobDuration)
	})
	return registry
}

// Handler returns the HTTP handler exposing the registry
func Handler() http.Handler {
	return promhttp.HandlerFor(InitRegistry(), promhttp.HandlerOpts{})
}

// RecordTornRequest counts a Torn API request and its failure, if any
func RecordTornRequest(endpoint string, err error) {
	TornRequestsTotal.WithLabelValues(endpoint).Inc()
	if err != nil {
		TornErrorsTotal.WithLabelValues(endpoint).Inc()
	}
}

// RecordSheetWrite counts a write to the given sheet kind
func RecordSheetWrite(sheet string) {
	SheetWritesTotal.WithLabelValues(sheet).Inc()
}

// ObserveJob records how long a job took
func ObserveJob(job string, started time.Time) {
	JobDuration.WithLabelValues(job).Observe(time.Since(started).Seconds())
}

// Serve exposes /metrics on addr until ctx is cancelled
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
	}()

	log.Info().Str("addr", addr).Msg("Serving metrics")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

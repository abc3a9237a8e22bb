// Package metrics exposes Prometheus counters for chain traffic and
// transaction preparation.
//
// Collectors are registered on the default registry by Register. The
// exposition server only runs when an address is configured:
//
//	metrics.Register(logger)
//	srv := metrics.StartServer(":9464", logger)
//	defer srv.Stop(context.Background())
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const namespace = "liketerm"

var (
	txBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "builds_total",
			Help:      "Total number of transaction preparations by type and result",
		},
		[]string{"type", "result"},
	)

	txBuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "build_duration_seconds",
			Help:      "Time spent building an unsigned transaction",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	txBroadcastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "broadcasts_total",
			Help:      "Total number of broadcast attempts by result",
		},
		[]string{"result"},
	)

	lcdRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lcd",
			Name:      "requests_total",
			Help:      "Total number of LCD requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)
)

// Register adds all liketerm collectors to the default registry.
func Register(logger *logrus.Logger) {
	registerIfNotExists(collectors.NewGoCollector(), "go_collector", logger)
	registerIfNotExists(txBuildsTotal, "tx_builds_total", logger)
	registerIfNotExists(txBuildDuration, "tx_build_duration_seconds", logger)
	registerIfNotExists(txBroadcastsTotal, "tx_broadcasts_total", logger)
	registerIfNotExists(lcdRequestsTotal, "lcd_requests_total", logger)
}

func registerIfNotExists(collector prometheus.Collector, name string, logger *logrus.Logger) {
	if err := prometheus.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegErr) {
			logger.Debugf("%s already registered", name)
		} else {
			logger.Errorf("Failed to register %s: %v", name, err)
		}
	}
}

func ObserveTxBuild(txType, result string, duration time.Duration) {
	txBuildsTotal.WithLabelValues(txType, result).Inc()
	txBuildDuration.WithLabelValues(txType).Observe(duration.Seconds())
}

func IncTxBroadcast(result string) {
	txBroadcastsTotal.WithLabelValues(result).Inc()
}

func IncLCDRequest(endpoint, status string) {
	lcdRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

type Server struct {
	srv    *http.Server
	logger *logrus.Logger
}

// StartServer serves /metrics on addr. An empty addr returns nil.
func StartServer(addr string, logger *logrus.Logger) *Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s := &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}

	go func() {
		logger.Infof("Starting metrics server on %s", addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Metrics server failed: %v", err)
		}
	}()

	return s
}

func (s *Server) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rickparamanik/quorumkv/internal/health"
	"github.com/rickparamanik/quorumkv/internal/metrics"
	"go.uber.org/zap"
)

// StorageStats exposes store sizes for the metrics gauges
type StorageStats interface {
	Stats() (entries int, logBytes int64)
}

// MetricsServer serves Prometheus metrics and health probes on a
// dedicated port, separate from the data path.
type MetricsServer struct {
	httpServer *http.Server
	metrics    *metrics.Metrics
	storage    StorageStats
	logger     *zap.Logger
	stopChan   chan struct{}
}

// MetricsServerConfig holds metrics server configuration
type MetricsServerConfig struct {
	Port int
	Path string
}

// NewMetricsServer creates a metrics server
func NewMetricsServer(
	cfg *MetricsServerConfig,
	m *metrics.Metrics,
	storage StorageStats,
	checker *health.HealthChecker,
	logger *zap.Logger,
) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())
	mux.HandleFunc("/health/live", checker.LivenessHandler)
	mux.HandleFunc("/health/ready", checker.ReadinessHandler)

	return &MetricsServer{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		metrics:  m,
		storage:  storage,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start serves metrics and keeps the storage gauges fresh
func (s *MetricsServer) Start() error {
	go s.updateLoop()

	s.logger.Info("Metrics server starting", zap.String("address", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}

func (s *MetricsServer) updateLoop() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			entries, logBytes := s.storage.Stats()
			s.metrics.UpdateStorageStats(entries, logBytes)
		case <-s.stopChan:
			return
		}
	}
}

// Shutdown stops the metrics server
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	close(s.stopChan)
	return s.httpServer.Shutdown(ctx)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rickparamanik/quorumkv/internal/algorithm"
	"github.com/rickparamanik/quorumkv/internal/client"
	"github.com/rickparamanik/quorumkv/internal/config"
	"github.com/rickparamanik/quorumkv/internal/handler"
	"github.com/rickparamanik/quorumkv/internal/health"
	"github.com/rickparamanik/quorumkv/internal/metrics"
	"github.com/rickparamanik/quorumkv/internal/server"
	"github.com/rickparamanik/quorumkv/internal/service"
	"github.com/rickparamanik/quorumkv/internal/util/workerpool"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load(".env")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.String("node_id", cfg.Server.NodeID),
		zap.Strings("peers", cfg.Cluster.Peers),
		zap.Int("replication_factor", cfg.Cluster.ReplicationFactor),
		zap.Int("write_quorum", cfg.Cluster.WriteQuorum),
		zap.Int("read_quorum", cfg.Cluster.ReadQuorum))

	if err := os.MkdirAll(cfg.Storage.DataDir, 0755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}

	// Durability engine
	storeSvc := service.NewStoreService(logger)

	commitLogSvc, err := service.NewCommitLogService(cfg.Storage.DataDir, cfg.Storage.SyncWrites, logger)
	if err != nil {
		logger.Fatal("Failed to initialize commit log", zap.Error(err))
	}
	defer commitLogSvc.Close()

	snapshotSvc, err := service.NewSnapshotService(cfg.Storage.DataDir, logger)
	if err != nil {
		logger.Fatal("Failed to initialize snapshot service", zap.Error(err))
	}

	storageSvc := service.NewStorageService(storeSvc, commitLogSvc, snapshotSvc, logger, cfg.Server.NodeID)

	// Recovery runs before the node accepts any request
	recoverySvc := service.NewRecoveryService(storeSvc, commitLogSvc, snapshotSvc, logger)
	if err := recoverySvc.Run(context.Background()); err != nil {
		logger.Fatal("Recovery failed", zap.Error(err))
	}

	// Replication coordinator
	ring := algorithm.NewRing()
	ring.Build(cfg.Cluster.Peers, cfg.Cluster.VirtualNodes)

	quorum := algorithm.NewQuorum(
		cfg.Cluster.ReplicationFactor,
		cfg.Cluster.WriteQuorum,
		cfg.Cluster.ReadQuorum,
	)

	peerClient := client.NewHTTPPeerClient(2*cfg.Cluster.RequestTimeout, logger)

	repairPool := workerpool.NewWorkerPool(&workerpool.Config{
		Name:       "read-repair",
		MaxWorkers: cfg.Repair.Workers,
		QueueSize:  cfg.Repair.QueueSize,
		Logger:     logger,
	})

	coordinatorSvc := service.NewCoordinatorService(
		ring,
		quorum,
		peerClient,
		repairPool,
		cfg.Cluster.RequestTimeout,
		logger,
		cfg.Server.NodeID,
	)

	// Background loops
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	go storageSvc.SnapshotLoop(bgCtx, cfg.Storage.SnapshotInterval)

	checker := health.NewHealthChecker(cfg.Server.NodeID, cfg.Storage.DataDir, logger)
	go checker.Start(bgCtx)

	var m *metrics.Metrics
	var metricsServer *server.MetricsServer
	if cfg.Metrics.Enabled {
		m = metrics.NewMetrics(cfg.Server.NodeID)
		metricsServer = server.NewMetricsServer(
			&server.MetricsServerConfig{Port: cfg.Metrics.Port, Path: cfg.Metrics.Path},
			m,
			storageSvc,
			checker,
			logger,
		)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	nodeHandler := handler.NewNodeHandler(coordinatorSvc, storageSvc, m, logger)
	httpServer := server.NewHTTPServer(
		&server.HTTPServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		nodeHandler,
		logger,
	)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down gracefully")
		checker.SetReadiness(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", zap.Error(err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("Metrics server shutdown failed", zap.Error(err))
			}
		}

		bgCancel()
		if err := repairPool.Stop(5 * time.Second); err != nil {
			logger.Warn("Repair pool stop timed out", zap.Error(err))
		}

		// Final snapshot keeps the next recovery cheap
		if err := storageSvc.CreateSnapshot(context.Background()); err != nil {
			logger.Error("Final snapshot failed", zap.Error(err))
		}
	}()

	if err := httpServer.Start(); err != nil {
		logger.Fatal("Failed to serve", zap.Error(err))
	}
}

// initLogger initializes the zap logger
func initLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()

	parsed, err := zap.ParseAtomicLevel(level)
	if err != nil {
		parsed = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.Level = parsed

	return cfg.Build()
}

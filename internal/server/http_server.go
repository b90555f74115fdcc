package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rickparamanik/quorumkv/internal/handler"
	"go.uber.org/zap"
)

// HTTPServer serves the external store API and the internal peer API
// on a single listener.
type HTTPServer struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// HTTPServerConfig holds HTTP server configuration
type HTTPServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewHTTPServer creates the HTTP server with all routes registered
func NewHTTPServer(cfg *HTTPServerConfig, nodeHandler *handler.NodeHandler, logger *zap.Logger) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	nodeHandler.RegisterRoutes(router)

	return &HTTPServer{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start serves until Shutdown is called
func (s *HTTPServer) Start() error {
	s.logger.Info("HTTP server starting", zap.String("address", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}

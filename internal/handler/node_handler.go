package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rickparamanik/quorumkv/internal/errors"
	"github.com/rickparamanik/quorumkv/internal/metrics"
	"github.com/rickparamanik/quorumkv/internal/model"
	"github.com/rickparamanik/quorumkv/internal/service"
	"github.com/rickparamanik/quorumkv/internal/validation"
	"go.uber.org/zap"
)

// NodeHandler wires the external store API and the internal peer API
// onto the coordinator and the local durability engine.
type NodeHandler struct {
	coordinator *service.CoordinatorService
	storage     *service.StorageService
	validator   *validation.Validator
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewNodeHandler creates a node handler. Metrics may be nil when the
// metrics server is disabled.
func NewNodeHandler(
	coordinator *service.CoordinatorService,
	storage *service.StorageService,
	m *metrics.Metrics,
	logger *zap.Logger,
) *NodeHandler {
	return &NodeHandler{
		coordinator: coordinator,
		storage:     storage,
		validator:   validation.NewValidator(),
		metrics:     m,
		logger:      logger,
	}
}

// RegisterRoutes registers all HTTP routes
func (h *NodeHandler) RegisterRoutes(r *gin.Engine) {
	r.PUT("/store/:key", h.StoreWrite)
	r.GET("/store/:key", h.StoreRead)
	r.GET("/health", h.Health)

	r.PUT("/internal/store/:key", h.InternalWrite)
	r.GET("/internal/store/:key", h.InternalRead)
}

// StoreWrite handles an external write: the receiving node coordinates
// replication and reports the replica ack count either way.
func (h *NodeHandler) StoreWrite(c *gin.Context) {
	start := time.Now()
	key := c.Param("key")

	var req model.StoreWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.StoreWriteResponse{Error: "invalid request body"})
		return
	}

	if err := h.validator.ValidateWrite(key, req.Value); err != nil {
		h.logger.Warn("Write validation failed", zap.String("key", key), zap.Error(err))
		c.JSON(errors.HTTPStatusFor(err), model.StoreWriteResponse{Error: err.Error()})
		return
	}

	result, err := h.coordinator.Write(c.Request.Context(), key, req.Value)
	if h.metrics != nil {
		h.metrics.RecordWriteRequest(time.Since(start).Seconds(), err == nil)
	}

	if err != nil {
		acks := 0
		if result != nil {
			acks = result.Acks
		}
		h.logger.Warn("Coordinated write failed",
			zap.String("key", key),
			zap.Int("acks", acks),
			zap.Error(err))
		c.JSON(errors.HTTPStatusFor(err), model.StoreWriteResponse{
			Acks:  acks,
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, model.StoreWriteResponse{Success: true, Acks: result.Acks})
}

// StoreRead handles an external read through quorum coordination.
// Fewer than R replies is reported as unavailable, never as a guess.
func (h *NodeHandler) StoreRead(c *gin.Context) {
	start := time.Now()
	key := c.Param("key")

	if err := h.validator.ValidateKey(key); err != nil {
		c.JSON(errors.HTTPStatusFor(err), model.StoreReadResponse{Error: err.Error()})
		return
	}

	result, err := h.coordinator.Read(c.Request.Context(), key)
	if h.metrics != nil {
		h.metrics.RecordReadRequest(time.Since(start).Seconds(), err == nil)
	}

	if err != nil {
		h.logger.Warn("Coordinated read failed", zap.String("key", key), zap.Error(err))
		c.JSON(errors.HTTPStatusFor(err), model.StoreReadResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.StoreReadResponse{Success: true, Value: result.Value})
}

// Health reports this node's identity and liveness
func (h *NodeHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, model.HealthResponse{Success: true, NodeID: h.storage.NodeID()})
}

// InternalWrite handles a peer's replica write: append to the local
// log, then apply under last-write-wins. The timestamp in the body is
// the coordinator's and is never reassigned here.
func (h *NodeHandler) InternalWrite(c *gin.Context) {
	key := c.Param("key")

	var req model.InternalWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.InternalWriteResponse{Error: "invalid request body"})
		return
	}

	entry := &model.LogEntry{
		Key:       key,
		Value:     req.Value,
		Timestamp: req.Timestamp,
		Checksum:  req.Checksum,
	}

	if err := h.storage.ApplyWrite(c.Request.Context(), entry); err != nil {
		h.logger.Error("Internal write failed", zap.String("key", key), zap.Error(err))
		c.JSON(errors.HTTPStatusFor(err), model.InternalWriteResponse{Error: err.Error()})
		return
	}

	if h.metrics != nil {
		h.metrics.RecordInternalWrite()
	}
	c.JSON(http.StatusOK, model.InternalWriteResponse{Success: true})
}

// InternalRead handles a peer's replica read: a pure local lookup.
// Absence is a successful reply with found=false.
func (h *NodeHandler) InternalRead(c *gin.Context) {
	key := c.Param("key")

	if h.metrics != nil {
		h.metrics.RecordInternalRead()
	}

	record, found := h.storage.Get(key)
	if !found {
		c.JSON(http.StatusOK, model.InternalReadResponse{Found: false})
		return
	}

	c.JSON(http.StatusOK, model.InternalReadResponse{
		Found:     true,
		Value:     record.Value,
		Timestamp: record.Timestamp,
	})
}

package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/rickparamanik/quorumkv/internal/model"
	"go.uber.org/zap"
)

// HealthChecker performs periodic local health checks: disk capacity
// and data directory writability. It feeds the liveness/readiness
// endpoints on the metrics server and the external /health endpoint.
type HealthChecker struct {
	nodeID      string
	dataDir     string
	logger      *zap.Logger
	mu          sync.RWMutex
	lastCheck   time.Time
	status      model.NodeStatus
	checks      map[string]CheckResult
	livenessOK  bool
	readinessOK bool
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name      string
	Status    string
	Message   string
	Timestamp time.Time
}

// NewHealthChecker creates a health checker
func NewHealthChecker(nodeID, dataDir string, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		nodeID:      nodeID,
		dataDir:     dataDir,
		logger:      logger,
		checks:      make(map[string]CheckResult),
		status:      model.NodeStatusHealthy,
		livenessOK:  true,
		readinessOK: true,
	}
}

// Start runs checks on a fixed period until the context is canceled
func (h *HealthChecker) Start(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	h.runChecks()

	for {
		select {
		case <-ticker.C:
			h.runChecks()
		case <-ctx.Done():
			h.logger.Info("Health checker stopped")
			return
		}
	}
}

func (h *HealthChecker) runChecks() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastCheck = time.Now()

	allHealthy := true
	allReady := true
	for _, check := range []func() CheckResult{h.checkDiskSpace, h.checkDataDirWritable} {
		result := check()
		h.checks[result.Name] = result

		if result.Status != "healthy" {
			allHealthy = false
			if result.Status == "critical" {
				allReady = false
			}
		}
	}

	switch {
	case !allReady:
		h.status = model.NodeStatusUnhealthy
	case !allHealthy:
		h.status = model.NodeStatusDegraded
	default:
		h.status = model.NodeStatusHealthy
	}

	h.livenessOK = true
	// Readiness may have been forced false by shutdown; do not revive it.
	if h.readinessOK {
		h.readinessOK = allReady
	}
}

func (h *HealthChecker) checkDiskSpace() CheckResult {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(h.dataDir, &stat); err != nil {
		return CheckResult{
			Name:      "disk_space",
			Status:    "critical",
			Message:   fmt.Sprintf("Failed to stat filesystem: %v", err),
			Timestamp: time.Now(),
		}
	}

	total := stat.Blocks * uint64(stat.Bsize)
	used := total - stat.Bfree*uint64(stat.Bsize)
	usagePercent := float64(used) / float64(total) * 100

	switch {
	case usagePercent > 95:
		return CheckResult{
			Name:      "disk_space",
			Status:    "critical",
			Message:   fmt.Sprintf("Disk usage critical: %.2f%%", usagePercent),
			Timestamp: time.Now(),
		}
	case usagePercent > 90:
		return CheckResult{
			Name:      "disk_space",
			Status:    "warning",
			Message:   fmt.Sprintf("Disk usage high: %.2f%%", usagePercent),
			Timestamp: time.Now(),
		}
	}

	return CheckResult{
		Name:      "disk_space",
		Status:    "healthy",
		Message:   fmt.Sprintf("Disk usage: %.2f%%", usagePercent),
		Timestamp: time.Now(),
	}
}

func (h *HealthChecker) checkDataDirWritable() CheckResult {
	info, err := os.Stat(h.dataDir)
	if err != nil || !info.IsDir() {
		return CheckResult{
			Name:      "data_dir_writable",
			Status:    "critical",
			Message:   fmt.Sprintf("Data directory not accessible: %v", err),
			Timestamp: time.Now(),
		}
	}

	probe := fmt.Sprintf("%s/.health_probe_%d", h.dataDir, time.Now().UnixNano())
	f, err := os.Create(probe)
	if err != nil {
		return CheckResult{
			Name:      "data_dir_writable",
			Status:    "critical",
			Message:   fmt.Sprintf("Cannot write to data directory: %v", err),
			Timestamp: time.Now(),
		}
	}
	f.Close()
	os.Remove(probe)

	return CheckResult{
		Name:      "data_dir_writable",
		Status:    "healthy",
		Message:   "Data directory is writable",
		Timestamp: time.Now(),
	}
}

// IsLive reports liveness
func (h *HealthChecker) IsLive() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.livenessOK
}

// IsReady reports readiness
func (h *HealthChecker) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.readinessOK
}

// SetReadiness forces readiness, used during graceful shutdown
func (h *HealthChecker) SetReadiness(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readinessOK = ready
}

// GetStatus returns the current health status
func (h *HealthChecker) GetStatus() model.HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return model.HealthStatus{
		NodeID:    h.nodeID,
		Status:    h.status,
		Timestamp: h.lastCheck.Unix(),
	}
}

// GetChecks returns a copy of all check results
func (h *HealthChecker) GetChecks() map[string]CheckResult {
	h.mu.RLock()
	defer h.mu.RUnlock()

	checks := make(map[string]CheckResult, len(h.checks))
	for k, v := range h.checks {
		checks[k] = v
	}
	return checks
}

// LivenessHandler serves liveness probe requests
func (h *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	live := h.IsLive()
	writeProbe(w, live, map[string]interface{}{
		"healthy": live,
		"status":  h.GetStatus().Status,
	})
}

// ReadinessHandler serves readiness probe requests
func (h *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ready := h.IsReady()
	writeProbe(w, ready, map[string]interface{}{
		"ready":  ready,
		"status": h.GetStatus().Status,
	})
}

func writeProbe(w http.ResponseWriter, ok bool, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(body)
}

package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rickparamanik/quorumkv/internal/model"
	"go.uber.org/zap"
)

const snapshotFile = "snapshot.json"

// SnapshotService persists full point-in-time dumps of the local
// store. Each snapshot fully overwrites the previous one; the write
// goes through a temp file and rename so a crash mid-write leaves the
// old snapshot intact.
type SnapshotService struct {
	dataDir string
	path    string
	logger  *zap.Logger
}

// NewSnapshotService creates a snapshot service rooted at dataDir
func NewSnapshotService(dataDir string, logger *zap.Logger) (*SnapshotService, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	return &SnapshotService{
		dataDir: dataDir,
		path:    filepath.Join(dataDir, snapshotFile),
		logger:  logger,
	}, nil
}

// Write durably persists the snapshot. It must complete before the
// commit log is truncated.
func (s *SnapshotService) Write(snap *model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmpPath := s.path + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create snapshot temp file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}

	return nil
}

// Load reads the latest snapshot. A missing or unparsable file is
// treated as "no snapshot", keeping the node bootable from a
// partially-initialized data directory.
func (s *SnapshotService) Load() (*model.Snapshot, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read snapshot file", zap.Error(err))
		}
		return nil, false
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("Ignoring malformed snapshot file", zap.Error(err))
		return nil, false
	}

	return &snap, true
}

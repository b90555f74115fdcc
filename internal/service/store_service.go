package service

import (
	"sync"

	"github.com/rickparamanik/quorumkv/internal/model"
	"go.uber.org/zap"
)

// StoreService holds the in-memory shard owned by this node. It is
// emptied at process start, populated by recovery, and thereafter
// mutated only through internal-write application.
type StoreService struct {
	mu      sync.RWMutex
	records map[string]model.Record
	logger  *zap.Logger
}

// NewStoreService creates an empty local store
func NewStoreService(logger *zap.Logger) *StoreService {
	return &StoreService{
		records: make(map[string]model.Record),
		logger:  logger,
	}
}

// Apply installs the entry's record under last-write-wins: the entry
// wins iff no record exists or its timestamp is >= the current one.
// Re-applying an already-included entry is a no-op in effect, which
// makes log replay idempotent. Returns whether the record was installed.
func (s *StoreService) Apply(entry *model.LogEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.records[entry.Key]
	if exists && !entry.Supersedes(current) {
		return false
	}

	s.records[entry.Key] = entry.Record()
	return true
}

// LoadBase installs a record directly, bypassing the last-write-wins
// comparison. Only recovery uses this, with a trusted snapshot as the
// consistent base.
func (s *StoreService) LoadBase(key string, record model.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = record
}

// Get returns the current record for a key
func (s *StoreService) Get(key string) (model.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, found := s.records[key]
	return record, found
}

// Len returns the number of records held
func (s *StoreService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Dump returns a copy of all records, for snapshot creation
func (s *StoreService) Dump() map[string]model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make(map[string]model.Record, len(s.records))
	for k, v := range s.records {
		entries[k] = v
	}
	return entries
}

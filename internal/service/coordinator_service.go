package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rickparamanik/quorumkv/internal/algorithm"
	"github.com/rickparamanik/quorumkv/internal/errors"
	"github.com/rickparamanik/quorumkv/internal/model"
	"github.com/rickparamanik/quorumkv/internal/util"
	"github.com/rickparamanik/quorumkv/internal/util/workerpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PeerClient issues internal API calls to replica owners. The owner
// set may include the coordinating node itself; self-calls go through
// the same path as any peer.
type PeerClient interface {
	WriteRecord(ctx context.Context, node string, entry *model.LogEntry) error
	ReadRecord(ctx context.Context, node string, key string) (*model.Record, error)
}

// CoordinatorService fans external requests out to replica owners and
// applies quorum thresholds. It is stateless across calls: any node
// coordinates any request, there is no leader and no session affinity.
type CoordinatorService struct {
	ring        *algorithm.Ring
	quorum      algorithm.Quorum
	peers       PeerClient
	repairPool  *workerpool.WorkerPool
	callTimeout time.Duration
	logger      *zap.Logger
	nodeID      string
}

// WriteResult represents the result of a coordinated write
type WriteResult struct {
	Success  bool
	Key      string
	Acks     int
	Required int
}

// ReadResult represents the result of a coordinated read
type ReadResult struct {
	Success   bool
	Key       string
	Value     string
	Timestamp int64
	Replies   int
}

// NewCoordinatorService creates a coordinator
func NewCoordinatorService(
	ring *algorithm.Ring,
	quorum algorithm.Quorum,
	peers PeerClient,
	repairPool *workerpool.WorkerPool,
	callTimeout time.Duration,
	logger *zap.Logger,
	nodeID string,
) *CoordinatorService {
	return &CoordinatorService{
		ring:        ring,
		quorum:      quorum,
		peers:       peers,
		repairPool:  repairPool,
		callTimeout: callTimeout,
		logger:      logger,
		nodeID:      nodeID,
	}
}

// Write replicates {key, value} to the owner set. The timestamp is
// assigned here, once, from this coordinator's wall clock; replicas
// never restamp. Each owner call is bounded by the per-call timeout
// and never retried. Partial writes below quorum are not rolled back.
func (s *CoordinatorService) Write(ctx context.Context, key, value string) (*WriteResult, error) {
	owners := s.ring.Owners(key, s.quorum.ReplicationFactor)
	if len(owners) == 0 {
		return nil, errors.NoReplicasAvailable(key)
	}

	entry := &model.LogEntry{
		Key:       key,
		Value:     value,
		Timestamp: time.Now().UnixMilli(),
	}
	entry.Checksum = util.EntryChecksum(entry.Key, entry.Value, entry.Timestamp)

	acked := make([]bool, len(owners))
	g, gctx := errgroup.WithContext(ctx)

	for i, owner := range owners {
		i, owner := i, owner
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, s.callTimeout)
			defer cancel()

			if err := s.peers.WriteRecord(callCtx, owner, entry); err != nil {
				s.logger.Warn("Replica write failed",
					zap.String("key", key),
					zap.String("node", owner),
					zap.Error(err))
				// Collected as a non-ack, never propagated: one slow
				// or dead owner must not cancel the siblings.
				return nil
			}
			acked[i] = true
			return nil
		})
	}
	_ = g.Wait()

	acks := 0
	for _, ok := range acked {
		if ok {
			acks++
		}
	}

	s.logger.Info("Write fan-out completed",
		zap.String("key", key),
		zap.Int("acks", acks),
		zap.Int("owners", len(owners)),
		zap.Int("required", s.quorum.WriteQuorum))

	result := &WriteResult{
		Success:  s.quorum.WriteSatisfied(acks),
		Key:      key,
		Acks:     acks,
		Required: s.quorum.WriteQuorum,
	}
	if !result.Success {
		return result, errors.WriteQuorumNotReached(acks, s.quorum.WriteQuorum)
	}
	return result, nil
}

// Read collects the owners' local records, requires at least the read
// quorum of non-empty replies, and returns the record with the highest
// timestamp. On a timestamp tie the reply from the owner earliest in
// the ring walk order wins, which is deterministic for a given ring.
// The winner is then repaired onto every owner in the background.
func (s *CoordinatorService) Read(ctx context.Context, key string) (*ReadResult, error) {
	owners := s.ring.Owners(key, s.quorum.ReplicationFactor)
	if len(owners) == 0 {
		return nil, errors.NoReplicasAvailable(key)
	}

	replies := make([]*model.Record, len(owners))
	g, gctx := errgroup.WithContext(ctx)

	for i, owner := range owners {
		i, owner := i, owner
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, s.callTimeout)
			defer cancel()

			record, err := s.peers.ReadRecord(callCtx, owner, key)
			if err != nil {
				s.logger.Warn("Replica read failed",
					zap.String("key", key),
					zap.String("node", owner),
					zap.Error(err))
				return nil
			}
			replies[i] = record
			return nil
		})
	}
	_ = g.Wait()

	count := 0
	var winner *model.Record
	for _, record := range replies {
		if record == nil {
			continue
		}
		count++
		if winner == nil || record.Timestamp > winner.Timestamp {
			winner = record
		}
	}

	if !s.quorum.ReadSatisfied(count) {
		s.logger.Info("Read quorum not reached",
			zap.String("key", key),
			zap.Int("replies", count),
			zap.Int("required", s.quorum.ReadQuorum))
		return &ReadResult{Key: key, Replies: count},
			errors.ReadQuorumNotReached(count, s.quorum.ReadQuorum)
	}

	s.scheduleReadRepair(key, winner, owners)

	return &ReadResult{
		Success:   true,
		Key:       key,
		Value:     winner.Value,
		Timestamp: winner.Timestamp,
		Replies:   count,
	}, nil
}

// scheduleReadRepair propagates the winning record to every owner,
// including ones that already hold it or were unreachable for the
// read. Fire and forget: the read neither waits for nor observes the
// outcome, and a full repair queue simply drops the repair.
func (s *CoordinatorService) scheduleReadRepair(key string, winner *model.Record, owners []string) {
	entry := &model.LogEntry{
		Key:       key,
		Value:     winner.Value,
		Timestamp: winner.Timestamp,
	}
	entry.Checksum = util.EntryChecksum(entry.Key, entry.Value, entry.Timestamp)

	task := workerpool.Task{
		ID: fmt.Sprintf("repair-%s-%d", key, entry.Timestamp),
		Fn: func(ctx context.Context) error {
			for _, owner := range owners {
				callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
				err := s.peers.WriteRecord(callCtx, owner, entry)
				cancel()
				if err != nil {
					s.logger.Debug("Read repair write failed",
						zap.String("key", key),
						zap.String("node", owner),
						zap.Error(err))
				}
			}
			return nil
		},
	}

	if !s.repairPool.TrySubmit(task) {
		s.logger.Debug("Read repair dropped, queue full", zap.String("key", key))
	}
}

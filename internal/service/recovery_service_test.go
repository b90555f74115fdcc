package service

import (
	"context"
	"testing"

	"github.com/rickparamanik/quorumkv/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEngine struct {
	store     *StoreService
	commitLog *CommitLogService
	snapshots *SnapshotService
	storage   *StorageService
	recovery  *RecoveryService
}

func newTestEngine(t *testing.T, dir string) *testEngine {
	t.Helper()
	logger := zap.NewNop()

	store := NewStoreService(logger)
	commitLog, err := NewCommitLogService(dir, true, logger)
	require.NoError(t, err)
	t.Cleanup(func() { commitLog.Close() })

	snapshots, err := NewSnapshotService(dir, logger)
	require.NoError(t, err)

	return &testEngine{
		store:     store,
		commitLog: commitLog,
		snapshots: snapshots,
		storage:   NewStorageService(store, commitLog, snapshots, logger, "node-1:8080"),
		recovery:  NewRecoveryService(store, commitLog, snapshots, logger),
	}
}

func TestRecoveryEmptyDataDir(t *testing.T) {
	engine := newTestEngine(t, t.TempDir())

	require.NoError(t, engine.recovery.Run(context.Background()))
	assert.Equal(t, 0, engine.store.Len())
}

func TestRecoveryFromLogOnly(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := newTestEngine(t, dir)
	require.NoError(t, first.storage.ApplyWrite(ctx, &model.LogEntry{Key: "a", Value: "1", Timestamp: 100}))
	require.NoError(t, first.storage.ApplyWrite(ctx, &model.LogEntry{Key: "b", Value: "2", Timestamp: 200}))
	require.NoError(t, first.storage.ApplyWrite(ctx, &model.LogEntry{Key: "a", Value: "3", Timestamp: 300}))
	require.NoError(t, first.commitLog.Close())

	second := newTestEngine(t, dir)
	require.NoError(t, second.recovery.Run(ctx))

	assert.Equal(t, 2, second.store.Len())
	record, found := second.store.Get("a")
	require.True(t, found)
	assert.Equal(t, "3", record.Value)
	assert.Equal(t, int64(300), record.Timestamp)
}

func TestRecoveryFromSnapshotAndLog(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := newTestEngine(t, dir)
	require.NoError(t, first.storage.ApplyWrite(ctx, &model.LogEntry{Key: "snap", Value: "base", Timestamp: 100}))
	require.NoError(t, first.storage.CreateSnapshot(ctx))
	require.NoError(t, first.storage.ApplyWrite(ctx, &model.LogEntry{Key: "tail", Value: "after", Timestamp: 200}))
	require.NoError(t, first.commitLog.Close())

	second := newTestEngine(t, dir)
	require.NoError(t, second.recovery.Run(ctx))

	record, found := second.store.Get("snap")
	require.True(t, found)
	assert.Equal(t, "base", record.Value)

	record, found = second.store.Get("tail")
	require.True(t, found)
	assert.Equal(t, "after", record.Value)
}

func TestRecoveryCrashBetweenSnapshotAndTruncate(t *testing.T) {
	// A snapshot that was written while the log kept its entries must
	// recover cleanly: replaying covered entries is a no-op under the
	// >=-timestamp rule.
	dir := t.TempDir()
	ctx := context.Background()

	first := newTestEngine(t, dir)
	require.NoError(t, first.storage.ApplyWrite(ctx, &model.LogEntry{Key: "k", Value: "v1", Timestamp: 100}))
	require.NoError(t, first.storage.ApplyWrite(ctx, &model.LogEntry{Key: "k", Value: "v2", Timestamp: 200}))

	// Write the snapshot directly, without truncating the log
	require.NoError(t, first.snapshots.Write(&model.Snapshot{
		Entries:   first.store.Dump(),
		CreatedAt: 200,
	}))
	require.NoError(t, first.commitLog.Close())

	second := newTestEngine(t, dir)
	require.NoError(t, second.recovery.Run(ctx))

	assert.Equal(t, 1, second.store.Len())
	record, found := second.store.Get("k")
	require.True(t, found)
	assert.Equal(t, "v2", record.Value)
	assert.Equal(t, int64(200), record.Timestamp)
}

func TestRecoveryIdempotent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := newTestEngine(t, dir)
	require.NoError(t, first.storage.ApplyWrite(ctx, &model.LogEntry{Key: "k", Value: "v", Timestamp: 100}))
	require.NoError(t, first.commitLog.Close())

	second := newTestEngine(t, dir)
	require.NoError(t, second.recovery.Run(ctx))
	require.NoError(t, second.recovery.Run(ctx))

	assert.Equal(t, 1, second.store.Len())
	record, _ := second.store.Get("k")
	assert.Equal(t, "v", record.Value)
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	logger := zap.NewNop()

	snapshots, err := NewSnapshotService(dir, logger)
	require.NoError(t, err)

	snap := &model.Snapshot{
		Entries: map[string]model.Record{
			"a": {Value: "1", Timestamp: 100},
			"b": {Value: "2", Timestamp: 200},
		},
		CreatedAt: 12345,
	}
	require.NoError(t, snapshots.Write(snap))

	loaded, ok := snapshots.Load()
	require.True(t, ok)
	assert.Equal(t, snap.Entries, loaded.Entries)
	assert.Equal(t, int64(12345), loaded.CreatedAt)
}

func TestSnapshotLoadMissing(t *testing.T) {
	snapshots, err := NewSnapshotService(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	_, ok := snapshots.Load()
	assert.False(t, ok)
}

func TestSnapshotOverwrite(t *testing.T) {
	snapshots, err := NewSnapshotService(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, snapshots.Write(&model.Snapshot{
		Entries:   map[string]model.Record{"old": {Value: "1", Timestamp: 1}},
		CreatedAt: 1,
	}))
	require.NoError(t, snapshots.Write(&model.Snapshot{
		Entries:   map[string]model.Record{"new": {Value: "2", Timestamp: 2}},
		CreatedAt: 2,
	}))

	loaded, ok := snapshots.Load()
	require.True(t, ok)
	assert.Len(t, loaded.Entries, 1)
	assert.Contains(t, loaded.Entries, "new")
}

func TestStorageSnapshotTruncatesLog(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	engine := newTestEngine(t, dir)

	require.NoError(t, engine.storage.ApplyWrite(ctx, &model.LogEntry{Key: "k", Value: "v", Timestamp: 100}))
	require.Greater(t, engine.commitLog.Size(), int64(0))

	require.NoError(t, engine.storage.CreateSnapshot(ctx))
	assert.Equal(t, int64(0), engine.commitLog.Size())

	entries, logBytes := engine.storage.Stats()
	assert.Equal(t, 1, entries)
	assert.Equal(t, int64(0), logBytes)
}

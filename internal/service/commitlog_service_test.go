package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rickparamanik/quorumkv/internal/model"
	"github.com/rickparamanik/quorumkv/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCommitLog(t *testing.T) *CommitLogService {
	t.Helper()
	log, err := NewCommitLogService(t.TempDir(), true, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return log
}

func stamped(key, value string, ts int64) *model.LogEntry {
	return &model.LogEntry{
		Key:       key,
		Value:     value,
		Timestamp: ts,
		Checksum:  util.EntryChecksum(key, value, ts),
	}
}

func TestCommitLogAppendAndReplay(t *testing.T) {
	log := newTestCommitLog(t)

	require.NoError(t, log.Append(stamped("a", "1", 100)))
	require.NoError(t, log.Append(stamped("b", "2", 200)))
	require.NoError(t, log.Append(stamped("a", "3", 300)))

	var replayed []*model.LogEntry
	count, err := log.Replay(func(entry *model.LogEntry) {
		replayed = append(replayed, entry)
	})
	require.NoError(t, err)
	require.Equal(t, 3, count)

	// Append order is preserved
	assert.Equal(t, "a", replayed[0].Key)
	assert.Equal(t, int64(100), replayed[0].Timestamp)
	assert.Equal(t, "b", replayed[1].Key)
	assert.Equal(t, "3", replayed[2].Value)
}

func TestCommitLogReplaySkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	log, err := NewCommitLogService(dir, true, zap.NewNop())
	require.NoError(t, err)
	defer log.Close()

	require.NoError(t, log.Append(stamped("good-1", "v", 100)))

	// Simulate a torn write by appending garbage directly
	f, err := os.OpenFile(filepath.Join(dir, commitLogFile), os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("{\"key\": truncated garb\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, log.Append(stamped("good-2", "v", 200)))

	count, err := log.Replay(func(*model.LogEntry) {})
	require.NoError(t, err)
	assert.Equal(t, 2, count, "malformed line skipped, valid neighbors kept")
}

func TestCommitLogReplaySkipsChecksumMismatch(t *testing.T) {
	log := newTestCommitLog(t)

	require.NoError(t, log.Append(stamped("good", "v", 100)))

	corrupt := stamped("corrupt", "v", 200)
	corrupt.Checksum++
	require.NoError(t, log.Append(corrupt))

	var keys []string
	count, err := log.Replay(func(entry *model.LogEntry) {
		keys = append(keys, entry.Key)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"good"}, keys)
}

func TestCommitLogTruncate(t *testing.T) {
	log := newTestCommitLog(t)

	require.NoError(t, log.Append(stamped("a", "1", 100)))
	require.Greater(t, log.Size(), int64(0))

	require.NoError(t, log.Truncate())
	assert.Equal(t, int64(0), log.Size())

	count, err := log.Replay(func(*model.LogEntry) {})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCommitLogAppendAfterTruncate(t *testing.T) {
	log := newTestCommitLog(t)

	require.NoError(t, log.Append(stamped("before", "v", 100)))
	require.NoError(t, log.Truncate())
	require.NoError(t, log.Append(stamped("after", "v", 200)))

	var keys []string
	count, err := log.Replay(func(entry *model.LogEntry) {
		keys = append(keys, entry.Key)
	})
	require.NoError(t, err)
	require.Equal(t, 1, count)
	assert.Equal(t, []string{"after"}, keys)
}

func TestCommitLogReplayEmptyLog(t *testing.T) {
	log := newTestCommitLog(t)

	count, err := log.Replay(func(*model.LogEntry) {})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCommitLogSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	log1, err := NewCommitLogService(dir, true, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, log1.Append(stamped("k", "v", 100)))
	require.NoError(t, log1.Close())

	log2, err := NewCommitLogService(dir, true, zap.NewNop())
	require.NoError(t, err)
	defer log2.Close()

	count, err := log2.Replay(func(*model.LogEntry) {})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

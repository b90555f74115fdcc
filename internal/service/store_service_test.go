package service

import (
	"testing"

	"github.com/rickparamanik/quorumkv/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStoreApplyNewKey(t *testing.T) {
	store := NewStoreService(zap.NewNop())

	applied := store.Apply(&model.LogEntry{Key: "k", Value: "v1", Timestamp: 100})
	assert.True(t, applied)

	record, found := store.Get("k")
	require.True(t, found)
	assert.Equal(t, "v1", record.Value)
	assert.Equal(t, int64(100), record.Timestamp)
}

func TestStoreApplyNewerWins(t *testing.T) {
	store := NewStoreService(zap.NewNop())

	store.Apply(&model.LogEntry{Key: "k", Value: "old", Timestamp: 100})
	applied := store.Apply(&model.LogEntry{Key: "k", Value: "new", Timestamp: 200})
	assert.True(t, applied)

	record, _ := store.Get("k")
	assert.Equal(t, "new", record.Value)
}

func TestStoreApplyOlderRejected(t *testing.T) {
	store := NewStoreService(zap.NewNop())

	store.Apply(&model.LogEntry{Key: "k", Value: "current", Timestamp: 200})
	applied := store.Apply(&model.LogEntry{Key: "k", Value: "stale", Timestamp: 100})
	assert.False(t, applied)

	record, _ := store.Get("k")
	assert.Equal(t, "current", record.Value)
	assert.Equal(t, int64(200), record.Timestamp)
}

func TestStoreApplyTieFavorsIncoming(t *testing.T) {
	store := NewStoreService(zap.NewNop())

	store.Apply(&model.LogEntry{Key: "k", Value: "first", Timestamp: 100})
	applied := store.Apply(&model.LogEntry{Key: "k", Value: "second", Timestamp: 100})
	assert.True(t, applied)

	record, _ := store.Get("k")
	assert.Equal(t, "second", record.Value)
}

func TestStoreOutOfOrderConverges(t *testing.T) {
	// The same entries applied in any order must converge on the one
	// with the highest timestamp.
	entries := []*model.LogEntry{
		{Key: "k", Value: "t300", Timestamp: 300},
		{Key: "k", Value: "t100", Timestamp: 100},
		{Key: "k", Value: "t200", Timestamp: 200},
	}

	store := NewStoreService(zap.NewNop())
	for _, e := range entries {
		store.Apply(e)
	}

	record, found := store.Get("k")
	require.True(t, found)
	assert.Equal(t, "t300", record.Value)
	assert.Equal(t, int64(300), record.Timestamp)
}

func TestStoreLoadBaseBypassesLWW(t *testing.T) {
	store := NewStoreService(zap.NewNop())

	store.Apply(&model.LogEntry{Key: "k", Value: "live", Timestamp: 500})
	store.LoadBase("k", model.Record{Value: "snapshot", Timestamp: 100})

	record, _ := store.Get("k")
	assert.Equal(t, "snapshot", record.Value, "LoadBase installs unconditionally")
}

func TestStoreDumpIsACopy(t *testing.T) {
	store := NewStoreService(zap.NewNop())
	store.Apply(&model.LogEntry{Key: "k", Value: "v", Timestamp: 1})

	dump := store.Dump()
	dump["k"] = model.Record{Value: "mutated", Timestamp: 999}

	record, _ := store.Get("k")
	assert.Equal(t, "v", record.Value)
	assert.Equal(t, 1, store.Len())
}

package model

// Record is the current value held for a key on a single node.
// Timestamp is the coordinator-assigned wall clock in milliseconds;
// records are immutable and only ever replaced whole.
type Record struct {
	Value     string `json:"value"`
	Timestamp int64  `json:"timestamp"`
}

// LogEntry is the durable, append-only representation of one accepted
// local write. It is written to the commit log before the in-memory
// record is updated.
type LogEntry struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Timestamp int64  `json:"timestamp"`
	Checksum  uint32 `json:"checksum"` // CRC32 over key, value and timestamp
}

// Snapshot is a full point-in-time dump of the local store. Every log
// entry appended before CreatedAt is reflected in Entries.
type Snapshot struct {
	Entries   map[string]Record `json:"entries"`
	CreatedAt int64             `json:"created_at"`
}

// Supersedes reports whether the entry may replace the given record
// under last-write-wins. Ties resolve in favor of the incoming entry.
func (e *LogEntry) Supersedes(current Record) bool {
	return e.Timestamp >= current.Timestamp
}

// Record converts the entry into the record it produces when applied.
func (e *LogEntry) Record() Record {
	return Record{Value: e.Value, Timestamp: e.Timestamp}
}

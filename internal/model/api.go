package model

// Wire types for the HTTP APIs. The internal peer API is spoken only
// between nodes; the store API is the external client surface.

// StoreWriteRequest is the body of an external PUT /store/:key.
type StoreWriteRequest struct {
	Value string `json:"value"`
}

// StoreWriteResponse reports the outcome of a coordinated write,
// including the replica ack count achieved.
type StoreWriteResponse struct {
	Success bool   `json:"success"`
	Acks    int    `json:"acks"`
	Error   string `json:"error,omitempty"`
}

// StoreReadResponse reports the outcome of a coordinated read.
type StoreReadResponse struct {
	Success bool   `json:"success"`
	Value   string `json:"value,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Success bool   `json:"success"`
	NodeID  string `json:"nodeId"`
}

// InternalWriteRequest is the body of a peer PUT /internal/store/:key.
// Timestamp is assigned by the coordinating node, never locally.
type InternalWriteRequest struct {
	Value     string `json:"value"`
	Timestamp int64  `json:"timestamp"`
	Checksum  uint32 `json:"checksum,omitempty"`
}

// InternalWriteResponse acknowledges a durably applied internal write.
type InternalWriteResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// InternalReadResponse carries a peer's local record for a key.
// Absence is not an error: Found is false and the call still succeeds.
type InternalReadResponse struct {
	Found     bool   `json:"found"`
	Value     string `json:"value,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

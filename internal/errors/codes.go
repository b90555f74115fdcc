package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents internal error codes for node operations
type ErrorCode int

const (
	ErrCodeOK ErrorCode = 0

	// Client errors
	ErrCodeInvalidArgument ErrorCode = 1000
	ErrCodeInvalidKey      ErrorCode = 1001
	ErrCodeKeyTooLarge     ErrorCode = 1002
	ErrCodeValueTooLarge   ErrorCode = 1003
	ErrCodeKeyNotFound     ErrorCode = 1004

	// Server errors
	ErrCodeInternal        ErrorCode = 2000
	ErrCodeNoReplicas      ErrorCode = 2001
	ErrCodeWriteQuorum     ErrorCode = 2002
	ErrCodeReadQuorum      ErrorCode = 2003
	ErrCodeCommitLogFailed ErrorCode = 2004
	ErrCodeSnapshotFailed  ErrorCode = 2005
)

// NodeError is a structured error with a code and request context
type NodeError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Cause   error
}

// Error implements the error interface
func (e *NodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *NodeError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error code to an HTTP status code. Quorum and
// replica-availability failures surface as 503 so clients can retry.
func (e *NodeError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeOK:
		return http.StatusOK
	case ErrCodeInvalidArgument, ErrCodeInvalidKey, ErrCodeKeyTooLarge, ErrCodeValueTooLarge:
		return http.StatusBadRequest
	case ErrCodeKeyNotFound:
		return http.StatusNotFound
	case ErrCodeNoReplicas, ErrCodeWriteQuorum, ErrCodeReadQuorum:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewNodeError creates a new NodeError
func NewNodeError(code ErrorCode, message string, cause error) *NodeError {
	return &NodeError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Cause:   cause,
	}
}

// WithDetail adds a detail to the error
func (e *NodeError) WithDetail(key string, value interface{}) *NodeError {
	e.Details[key] = value
	return e
}

// Convenience constructors for common errors

func InvalidArgument(message string, cause error) *NodeError {
	return NewNodeError(ErrCodeInvalidArgument, message, cause)
}

func InvalidKey(key, reason string) *NodeError {
	return NewNodeError(ErrCodeInvalidKey, fmt.Sprintf("invalid key %q: %s", key, reason), nil).
		WithDetail("key", key).
		WithDetail("reason", reason)
}

func KeyTooLarge(size, maxSize int) *NodeError {
	return NewNodeError(ErrCodeKeyTooLarge, fmt.Sprintf("key size %d exceeds maximum %d", size, maxSize), nil).
		WithDetail("size", size).
		WithDetail("max_size", maxSize)
}

func ValueTooLarge(size, maxSize int) *NodeError {
	return NewNodeError(ErrCodeValueTooLarge, fmt.Sprintf("value size %d exceeds maximum %d", size, maxSize), nil).
		WithDetail("size", size).
		WithDetail("max_size", maxSize)
}

func KeyNotFound(key string) *NodeError {
	return NewNodeError(ErrCodeKeyNotFound, fmt.Sprintf("key not found: %s", key), nil).
		WithDetail("key", key)
}

func NoReplicasAvailable(key string) *NodeError {
	return NewNodeError(ErrCodeNoReplicas, fmt.Sprintf("no replicas available for key %q", key), nil).
		WithDetail("key", key)
}

func WriteQuorumNotReached(acks, required int) *NodeError {
	return NewNodeError(ErrCodeWriteQuorum, fmt.Sprintf("write quorum not reached: %d/%d", acks, required), nil).
		WithDetail("acks", acks).
		WithDetail("required", required)
}

func ReadQuorumNotReached(replies, required int) *NodeError {
	return NewNodeError(ErrCodeReadQuorum, fmt.Sprintf("read quorum not reached: %d/%d", replies, required), nil).
		WithDetail("replies", replies).
		WithDetail("required", required)
}

func CommitLogFailed(message string, cause error) *NodeError {
	return NewNodeError(ErrCodeCommitLogFailed, message, cause)
}

func SnapshotFailed(message string, cause error) *NodeError {
	return NewNodeError(ErrCodeSnapshotFailed, message, cause)
}

func InternalError(message string, cause error) *NodeError {
	return NewNodeError(ErrCodeInternal, message, cause)
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if ne, ok := err.(*NodeError); ok {
		return ne.Code
	}
	return ErrCodeInternal
}

// HTTPStatusFor maps any error to an HTTP status code
func HTTPStatusFor(err error) int {
	if ne, ok := err.(*NodeError); ok {
		return ne.HTTPStatus()
	}
	return http.StatusInternalServerError
}

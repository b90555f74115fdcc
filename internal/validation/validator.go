package validation

import (
	"strings"
	"unicode"

	"github.com/rickparamanik/quorumkv/internal/errors"
)

const (
	MaxKeySize   = 1024            // 1 KB
	MaxValueSize = 1 * 1024 * 1024 // 1 MB
)

// Validator enforces key and value limits at the API boundary
type Validator struct {
	maxKeySize   int
	maxValueSize int
}

// NewValidator creates a validator with default limits
func NewValidator() *Validator {
	return &Validator{
		maxKeySize:   MaxKeySize,
		maxValueSize: MaxValueSize,
	}
}

// NewValidatorWithLimits creates a validator with custom limits
func NewValidatorWithLimits(maxKeySize, maxValueSize int) *Validator {
	return &Validator{
		maxKeySize:   maxKeySize,
		maxValueSize: maxValueSize,
	}
}

// ValidateKey validates a key
func (v *Validator) ValidateKey(key string) error {
	if key == "" {
		return errors.InvalidKey(key, "key cannot be empty")
	}
	if len(key) > v.maxKeySize {
		return errors.KeyTooLarge(len(key), v.maxKeySize)
	}

	// Keys travel in URL paths between peers
	if strings.ContainsAny(key, "/ ") {
		return errors.InvalidKey(key, "key cannot contain '/' or spaces")
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return errors.InvalidKey(key, "key cannot contain control characters")
		}
	}

	return nil
}

// ValidateValue validates a value
func (v *Validator) ValidateValue(value string) error {
	if value == "" {
		return errors.InvalidArgument("value cannot be empty", nil)
	}
	if len(value) > v.maxValueSize {
		return errors.ValueTooLarge(len(value), v.maxValueSize)
	}
	return nil
}

// ValidateWrite validates an external write request
func (v *Validator) ValidateWrite(key, value string) error {
	if err := v.ValidateKey(key); err != nil {
		return err
	}
	return v.ValidateValue(value)
}

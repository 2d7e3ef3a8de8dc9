package statetree

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned when an index falls outside a list.
var ErrIndexOutOfRange = errors.New("statetree: index out of range")

// ErrNamespaceKind is returned when a namespace id is already used by a
// namespace of another kind or element type.
var ErrNamespaceKind = errors.New("statetree: namespace kind mismatch")

// IndexError describes a failed bounds check.
type IndexError struct {
	Op     string // "get", "set" or "splice"
	Index  int
	Length int
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	// splice accepts index == length (append position)
	if e.Op == "splice" {
		return fmt.Sprintf("statetree: %s index %d out of range [0, %d]", e.Op, e.Index, e.Length)
	}
	return fmt.Sprintf("statetree: %s index %d out of range [0, %d)", e.Op, e.Index, e.Length)
}

// Unwrap returns ErrIndexOutOfRange for errors.Is support.
func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}

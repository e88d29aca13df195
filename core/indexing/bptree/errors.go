package bptree

import (
	"errors"
	"fmt"
)

// --- Error Definitions ---

var (
	ErrKeyNotFound     = errors.New("key not found")
	ErrInvalidCapacity = errors.New("bptree node capacity must be at least 2")
	ErrNilKeyOrder     = errors.New("keyOrder function must be provided")
)

// InvariantError reports a broken structural invariant (ordering, occupancy,
// depth or leaf chain). It always points at a bug inside the tree, never at a
// caller mistake. Validate returns it; internal paths that trip over one panic
// with it.
type InvariantError struct {
	NodeID NodeID
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("bptree: structural invariant violated at node %d: %s", e.NodeID, e.Reason)
}

func violation(id NodeID, format string, args ...any) *InvariantError {
	return &InvariantError{NodeID: id, Reason: fmt.Sprintf(format, args...)}
}

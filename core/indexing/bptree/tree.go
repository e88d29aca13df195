// Package bptree implements an in-memory B+ tree: a balanced multi-way index
// mapping unique ordered keys to values. Internal nodes only route; every pair
// lives in a leaf, and leaves are chained left to right so ordered scans never
// touch the internal levels after the first descent.
//
// A Tree is not safe for concurrent use. Callers that share one must provide
// their own synchronization (see core/indexmanager).
package bptree

import (
	"cmp"
	"fmt"

	"go.uber.org/zap"
)

// Order defines a function that compares two keys.
type Order[K any] func(a, b K) int

// Option configures optional Tree behaviour.
type Option func(*treeOptions)

type treeOptions struct {
	logger *zap.Logger
}

// WithLogger makes the tree emit debug records for structural changes
// (splits, borrows, merges, root changes).
func WithLogger(logger *zap.Logger) Option {
	return func(o *treeOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Tree is a B+ tree over keys K and values V.
type Tree[K any, V any] struct {
	root     NodeID
	capacity int // maximum keys per node
	minKeys  int // minimum keys per non-root node
	keyOrder Order[K]
	nodes    []node // slot 0 is reserved for InvalidNodeID
	free     []NodeID
	size     int
	height   int
	logger   *zap.Logger
}

// New creates an empty tree whose nodes hold at most capacity keys.
func New[K any, V any](capacity int, keyOrder Order[K], opts ...Option) (*Tree[K, V], error) {
	if capacity < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	if keyOrder == nil {
		return nil, ErrNilKeyOrder
	}
	o := treeOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Tree[K, V]{
		root:     InvalidNodeID,
		capacity: capacity,
		// ceil((capacity+1)/2) - 1
		minKeys:  (capacity+2)/2 - 1,
		keyOrder: keyOrder,
		nodes:    make([]node, 1, 16),
		logger:   o.logger,
	}, nil
}

// NewOrdered creates a tree for naturally ordered keys.
func NewOrdered[K cmp.Ordered, V any](capacity int, opts ...Option) (*Tree[K, V], error) {
	return New[K, V](capacity, DefaultKeyOrder[K], opts...)
}

// Len returns the number of key-value pairs in the tree.
func (t *Tree[K, V]) Len() int { return t.size }

// Height returns the number of levels; 0 for an empty tree, 1 for a lone leaf.
func (t *Tree[K, V]) Height() int { return t.height }

// Capacity returns the maximum number of keys a node may hold.
func (t *Tree[K, V]) Capacity() int { return t.capacity }

// MinKeys returns the minimum number of keys a non-root node must hold.
func (t *Tree[K, V]) MinKeys() int { return t.minKeys }

// IsEmpty reports whether the tree holds no pairs.
func (t *Tree[K, V]) IsEmpty() bool { return t.root == InvalidNodeID }

// DefaultKeyOrder provides a comparison function for ordered types.
func DefaultKeyOrder[K cmp.Ordered](a, b K) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func nodeField(key string, id NodeID) zap.Field {
	return zap.Uint32(key, uint32(id))
}

package indexmanager

import (
	"context"
	"errors"
)

var (
	// ErrEmptyKey is returned when a write names the empty key.
	ErrEmptyKey = errors.New("index key must not be empty")
	// ErrInvalidRange is returned by GetRange when start sorts after end.
	ErrInvalidRange = errors.New("range start must not sort after range end")
	// ErrSnapshotNotFound is returned for an unknown or released snapshot id.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// Unbounded may be passed as either end of GetRange to leave that side open.
const Unbounded = "*"

// KeyValuePair is one entry returned by a range read or carried in a snapshot.
type KeyValuePair struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
}

// IndexManager interface defines the operations an ordered index exposes to
// the rest of the process.
type IndexManager interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, bool)
	Delete(ctx context.Context, key string) error
	// GetRange returns the pairs with startKey <= key <= endKey in ascending
	// order, at most limit of them when limit > 0.
	GetRange(ctx context.Context, startKey, endKey string, limit int32) ([]KeyValuePair, error)

	// PrepareSnapshot captures the current contents, returning a unique ID.
	PrepareSnapshot(ctx context.Context) (string, error)
	// StreamSnapshot streams data for a given snapshot ID and closes chunkChan.
	StreamSnapshot(ctx context.Context, snapshotID string, chunkChan chan []byte) error
	// ApplySnapshot replaces the contents with a streamed snapshot.
	ApplySnapshot(ctx context.Context, snapshotID string, chunkChan <-chan []byte) error
	// ReleaseSnapshot drops a prepared snapshot.
	ReleaseSnapshot(snapshotID string) error

	// Len returns the number of keys stored.
	Len() int
	// Name returns the name/type of this index manager (e.g., "bptree").
	Name() string
}

package indexmanager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"github.com/sushant-115/bptree/core/indexing/bptree"
	"github.com/sushant-115/bptree/internal/graphviz"
	internaltelemetry "github.com/sushant-115/bptree/internal/telemetry"
	"github.com/sushant-115/bptree/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	snapshotChunkSize = 4 * 1024
	chunkSendTimeout  = 5 * time.Second
)

// snapshotContent is the JSON document a snapshot carries before compression.
type snapshotContent struct {
	Capacity int            `json:"capacity"`
	Pairs    []KeyValuePair `json:"pairs"`
}

// BPTreeIndexManager serves an in-memory B+ tree to concurrent callers. Writes
// take the exclusive lock, reads share it.
type BPTreeIndexManager struct {
	mu   sync.RWMutex
	tree *bptree.Tree[string, []byte]

	snapMu    sync.Mutex
	snapshots map[string][]byte // snapshotID -> snappy-compressed JSON

	tracer       trace.Tracer
	metrics      *internaltelemetry.IndexMetrics
	registration metric.Registration
	logger       *zap.Logger
	serviceName  string
}

var _ IndexManager = (*BPTreeIndexManager)(nil)

// NewBPTreeIndexManager builds an empty index whose nodes hold at most
// capacity keys. A nil tel or logger disables that concern.
func NewBPTreeIndexManager(capacity int, tel *telemetry.Telemetry, logger *zap.Logger) (*BPTreeIndexManager, error) {
	if tel == nil {
		tel = telemetry.Disabled()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("indexmanager")

	tree, err := bptree.NewOrdered[string, []byte](capacity, bptree.WithLogger(logger.Named("tree")))
	if err != nil {
		return nil, err
	}

	indexMetrics, err := internaltelemetry.NewIndexMetrics(tel.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create index metrics: %w", err)
	}

	m := &BPTreeIndexManager{
		tree:        tree,
		snapshots:   make(map[string][]byte),
		tracer:      tel.Tracer,
		metrics:     indexMetrics,
		logger:      logger,
		serviceName: "bptree_indexmanager",
	}
	m.registration, err = indexMetrics.ObserveTree(tel.Meter, m.stats,
		metric.WithAttributes(attribute.String("index.service", m.serviceName)))
	if err != nil {
		return nil, fmt.Errorf("failed to register tree gauges: %w", err)
	}
	return m, nil
}

func (m *BPTreeIndexManager) Name() string { return "bptree" }

// Close stops reporting the tree gauges.
func (m *BPTreeIndexManager) Close() error {
	return m.registration.Unregister()
}

func (m *BPTreeIndexManager) stats() (int64, int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(m.tree.Len()), int64(m.tree.Height())
}

// Put stores a copy of value under key, replacing any previous value.
func (m *BPTreeIndexManager) Put(ctx context.Context, key string, value []byte) (err error) {
	ctx, span, startTime := m.StartMetricsAndTrace(ctx, "Put")
	defer func() { m.EndMetricsAndTrace(ctx, span, startTime, "Put", err) }()

	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tree.Insert(key, bytes.Clone(value))
	return nil
}

// Get returns a copy of the value stored under key.
func (m *BPTreeIndexManager) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, span, startTime := m.StartMetricsAndTrace(ctx, "Get")
	defer func() { m.EndMetricsAndTrace(ctx, span, startTime, "Get", nil) }()

	m.mu.RLock()
	defer m.mu.RUnlock()
	value, found := m.tree.Search(key)
	if !found {
		return nil, false
	}
	return bytes.Clone(value), true
}

// Delete removes key. A missing key yields an error wrapping
// bptree.ErrKeyNotFound.
func (m *BPTreeIndexManager) Delete(ctx context.Context, key string) (err error) {
	ctx, span, startTime := m.StartMetricsAndTrace(ctx, "Delete")
	defer func() { m.EndMetricsAndTrace(ctx, span, startTime, "Delete", err) }()

	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tree.Delete(key)
}

// GetRange walks the leaf chain from startKey to endKey inclusive. Either side
// may be Unbounded. limit <= 0 returns every match.
func (m *BPTreeIndexManager) GetRange(ctx context.Context, startKey, endKey string, limit int32) (results []KeyValuePair, err error) {
	ctx, span, startTime := m.StartMetricsAndTrace(ctx, "GetRange")
	defer func() { m.EndMetricsAndTrace(ctx, span, startTime, "GetRange", err) }()

	if startKey != Unbounded && endKey != Unbounded && startKey > endKey {
		return nil, fmt.Errorf("%w: %q > %q", ErrInvalidRange, startKey, endKey)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var pairs iter.Seq2[string, []byte]
	switch {
	case startKey == Unbounded && endKey == Unbounded:
		pairs = m.tree.All()
	case startKey == Unbounded:
		minKey, _, ok := m.tree.Min()
		if !ok {
			return nil, nil
		}
		pairs = m.tree.Ascend(minKey, endKey)
	case endKey == Unbounded:
		pairs = m.tree.AscendFrom(startKey)
	default:
		pairs = m.tree.Ascend(startKey, endKey)
	}

	for k, v := range pairs {
		results = append(results, KeyValuePair{Key: k, Value: bytes.Clone(v)})
		if limit > 0 && len(results) == int(limit) {
			break
		}
	}
	return results, nil
}

// Len returns the number of keys stored.
func (m *BPTreeIndexManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tree.Len()
}

// Height returns the number of levels in the tree.
func (m *BPTreeIndexManager) Height() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tree.Height()
}

// Validate checks every structural invariant of the underlying tree.
func (m *BPTreeIndexManager) Validate() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tree.Validate()
}

// Dump returns the indented node listing of the tree.
func (m *BPTreeIndexManager) Dump() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tree.String()
}

// DOT renders the tree as a Graphviz digraph.
func (m *BPTreeIndexManager) DOT() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return graphviz.Render(m.tree)
}

// PrepareSnapshot serializes every pair in key order and keeps the compressed
// result until it is released.
func (m *BPTreeIndexManager) PrepareSnapshot(ctx context.Context) (snapshotID string, err error) {
	ctx, span, startTime := m.StartMetricsAndTrace(ctx, "PrepareSnapshot")
	defer func() { m.EndMetricsAndTrace(ctx, span, startTime, "PrepareSnapshot", err) }()

	m.mu.RLock()
	content := snapshotContent{
		Capacity: m.tree.Capacity(),
		Pairs:    make([]KeyValuePair, 0, m.tree.Len()),
	}
	for k, v := range m.tree.All() {
		content.Pairs = append(content.Pairs, KeyValuePair{Key: k, Value: v})
	}
	raw, err := json.Marshal(content)
	m.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("failed to marshal bptree snapshot: %w", err)
	}

	snapshotID = "bptree-snapshot-" + uuid.NewString()
	compressed := snappy.Encode(nil, raw)

	m.snapMu.Lock()
	m.snapshots[snapshotID] = compressed
	m.snapMu.Unlock()

	m.logger.Info("prepared snapshot",
		zap.String("snapshotID", snapshotID),
		zap.Int("keys", len(content.Pairs)),
		zap.Int("rawBytes", len(raw)),
		zap.Int("compressedBytes", len(compressed)))
	return snapshotID, nil
}

// StreamSnapshot sends the snapshot in fixed-size chunks and closes chunkChan
// when done, whether or not it succeeded.
func (m *BPTreeIndexManager) StreamSnapshot(ctx context.Context, snapshotID string, chunkChan chan []byte) (err error) {
	defer close(chunkChan)
	ctx, span, startTime := m.StartMetricsAndTrace(ctx, "StreamSnapshot")
	defer func() { m.EndMetricsAndTrace(ctx, span, startTime, "StreamSnapshot", err) }()

	m.snapMu.Lock()
	snapshotBytes, ok := m.snapshots[snapshotID]
	m.snapMu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, snapshotID)
	}

	for i := 0; i < len(snapshotBytes); i += snapshotChunkSize {
		end := min(i+snapshotChunkSize, len(snapshotBytes))
		select {
		case chunkChan <- snapshotBytes[i:end]:
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(chunkSendTimeout):
			return fmt.Errorf("timeout sending bptree snapshot chunk at offset %d", i)
		}
	}
	m.logger.Info("streamed snapshot", zap.String("snapshotID", snapshotID), zap.Int("bytes", len(snapshotBytes)))
	return nil
}

// ApplySnapshot reads chunks until chunkChan is closed, then replaces the
// tree with one rebuilt from the snapshot. The current contents survive any
// failure.
func (m *BPTreeIndexManager) ApplySnapshot(ctx context.Context, snapshotID string, chunkChan <-chan []byte) (err error) {
	ctx, span, startTime := m.StartMetricsAndTrace(ctx, "ApplySnapshot")
	defer func() { m.EndMetricsAndTrace(ctx, span, startTime, "ApplySnapshot", err) }()

	var received bytes.Buffer
receive:
	for {
		select {
		case chunk, ok := <-chunkChan:
			if !ok {
				break receive
			}
			received.Write(chunk)
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	raw, err := snappy.Decode(nil, received.Bytes())
	if err != nil {
		return fmt.Errorf("failed to decompress bptree snapshot %s: %w", snapshotID, err)
	}
	var content snapshotContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return fmt.Errorf("failed to unmarshal bptree snapshot %s: %w", snapshotID, err)
	}

	tree, err := bptree.NewOrdered[string, []byte](content.Capacity, bptree.WithLogger(m.logger.Named("tree")))
	if err != nil {
		return fmt.Errorf("bptree snapshot %s: %w", snapshotID, err)
	}
	for _, pair := range content.Pairs {
		tree.Insert(pair.Key, pair.Value)
	}

	m.mu.Lock()
	m.tree = tree
	m.mu.Unlock()

	m.logger.Info("applied snapshot", zap.String("snapshotID", snapshotID), zap.Int("keys", tree.Len()))
	return nil
}

// ReleaseSnapshot forgets a prepared snapshot.
func (m *BPTreeIndexManager) ReleaseSnapshot(snapshotID string) error {
	m.snapMu.Lock()
	defer m.snapMu.Unlock()
	if _, ok := m.snapshots[snapshotID]; !ok {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, snapshotID)
	}
	delete(m.snapshots, snapshotID)
	return nil
}

// StartMetricsAndTrace begins the telemetry recording for an index operation.
// It returns a new context, the trace span, and the start time.
func (m *BPTreeIndexManager) StartMetricsAndTrace(ctx context.Context, op string) (context.Context, trace.Span, time.Time) {
	startTime := time.Now()
	attrs := metric.WithAttributes(
		attribute.String("index.service", m.serviceName),
		attribute.String("index.op", op),
	)
	m.metrics.ActiveOpsUpDownCounter.Add(ctx, 1, attrs)
	m.metrics.OpsStartedCounter.Add(ctx, 1, attrs)

	ctx, span := m.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("index.service", m.serviceName),
		attribute.String("index.op", op),
	))
	return ctx, span, startTime
}

// EndMetricsAndTrace completes the telemetry recording for an index
// operation. A non-nil err marks the span and the handled counter as failed.
func (m *BPTreeIndexManager) EndMetricsAndTrace(ctx context.Context, span trace.Span, startTime time.Time, op string, err error) {
	latency := time.Since(startTime).Milliseconds()

	statusCode := otelcodes.Ok
	if err != nil {
		statusCode = otelcodes.Error
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	} else {
		span.SetStatus(otelcodes.Ok, "Success")
	}
	span.End()

	m.metrics.ActiveOpsUpDownCounter.Add(ctx, -1, metric.WithAttributes(
		attribute.String("index.service", m.serviceName),
		attribute.String("index.op", op),
	))

	metricAttributes := attribute.NewSet(
		attribute.String("index.service", m.serviceName),
		attribute.String("index.op", op),
		attribute.String("index.code", statusCode.String()),
	)
	m.metrics.OpLatencyHistogram.Record(ctx, latency, metric.WithAttributeSet(metricAttributes))
	m.metrics.OpsHandledCounter.Add(ctx, 1, metric.WithAttributeSet(metricAttributes))
}

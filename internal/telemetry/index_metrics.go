package internaltelemetry

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// IndexMetrics holds the metric instruments recorded around index operations.
type IndexMetrics struct {
	OpsStartedCounter      metric.Int64Counter
	OpsHandledCounter      metric.Int64Counter
	OpLatencyHistogram     metric.Int64Histogram
	ActiveOpsUpDownCounter metric.Int64UpDownCounter
	KeysGauge              metric.Int64ObservableGauge
	HeightGauge            metric.Int64ObservableGauge
}

// TreeStats is sampled by the gauge callback on every collection.
type TreeStats func() (keys, height int64)

// NewIndexMetrics creates and registers all the metrics for an index manager.
func NewIndexMetrics(meter metric.Meter) (*IndexMetrics, error) {
	opsStartedCounter, err := meter.Int64Counter(
		"bptree.index.started_total",
		metric.WithDescription("Total number of index operations started."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	opsHandledCounter, err := meter.Int64Counter(
		"bptree.index.handled_total",
		metric.WithDescription("Total number of index operations completed."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	opLatencyHistogram, err := meter.Int64Histogram(
		"bptree.index.duration",
		metric.WithDescription("The latency of index operations."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	activeOpsUpDownCounter, err := meter.Int64UpDownCounter(
		"bptree.index.active_ops",
		metric.WithDescription("Number of index operations in flight."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	keysGauge, err := meter.Int64ObservableGauge(
		"bptree.index.keys",
		metric.WithDescription("Number of keys stored in the index."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	heightGauge, err := meter.Int64ObservableGauge(
		"bptree.index.height",
		metric.WithDescription("Number of levels in the tree."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	return &IndexMetrics{
		OpsStartedCounter:      opsStartedCounter,
		OpsHandledCounter:      opsHandledCounter,
		OpLatencyHistogram:     opLatencyHistogram,
		ActiveOpsUpDownCounter: activeOpsUpDownCounter,
		KeysGauge:              keysGauge,
		HeightGauge:            heightGauge,
	}, nil
}

// ObserveTree registers a callback reporting the key count and height from
// stats. Unregister the returned registration when the index goes away.
func (m *IndexMetrics) ObserveTree(meter metric.Meter, stats TreeStats, opts ...metric.ObserveOption) (metric.Registration, error) {
	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		keys, height := stats()
		o.ObserveInt64(m.KeysGauge, keys, opts...)
		o.ObserveInt64(m.HeightGauge, height, opts...)
		return nil
	}, m.KeysGauge, m.HeightGauge)
}

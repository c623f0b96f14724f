// Package obs collects lightweight counters and latency stats for book
// maintenance without touching the apply path's allocation profile.
package obs

import (
	"sync/atomic"
	"time"
)

// Metrics counts applied and rejected book events.
type Metrics struct {
	appliedSnapshots uint64
	appliedDeltas    uint64
	appliedBatches   uint64
	sequenceGaps     uint64
	staleRejects     uint64
	unknownOrders    uint64
	malformedEvents  uint64
	queueDrops       uint64
	queueClosed      uint64

	applyLatency LatencyStats
	feedLatency  LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	AppliedSnapshots uint64
	AppliedDeltas    uint64
	AppliedBatches   uint64
	SequenceGaps     uint64
	StaleRejects     uint64
	UnknownOrders    uint64
	MalformedEvents  uint64
	QueueDrops       uint64
	QueueClosed      uint64
	ApplyLatency     LatencySnapshot
	FeedLatency      LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncSnapshot records a successfully applied snapshot.
func (m *Metrics) IncSnapshot() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.appliedSnapshots, 1)
}

// IncDelta records a successfully applied delta.
func (m *Metrics) IncDelta() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.appliedDeltas, 1)
}

// IncBatch records a successfully applied delta batch.
func (m *Metrics) IncBatch() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.appliedBatches, 1)
}

// IncSequenceGap records a detected sequence gap.
func (m *Metrics) IncSequenceGap() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.sequenceGaps, 1)
}

// IncStaleReject records a delta refused while desynchronized.
func (m *Metrics) IncStaleReject() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.staleRejects, 1)
}

// IncUnknownOrder records an update/delete of a non-resting order.
func (m *Metrics) IncUnknownOrder() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.unknownOrders, 1)
}

// IncMalformedEvent records a rejected malformed event.
func (m *Metrics) IncMalformedEvent() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.malformedEvents, 1)
}

// IncQueueDrop records a queue drop.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// IncQueueClosed records a closed-queue publish attempt.
func (m *Metrics) IncQueueClosed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueClosed, 1)
}

// ObserveApply measures one apply call.
func (m *Metrics) ObserveApply(d time.Duration) {
	if m == nil {
		return
	}
	m.applyLatency.Observe(d)
}

// ObserveFeed measures venue-to-receipt latency when both timestamps are
// present on an event.
func (m *Metrics) ObserveFeed(tsEvent, tsInit int64) {
	if m == nil {
		return
	}
	if tsEvent > 0 && tsInit > 0 && tsInit >= tsEvent {
		m.feedLatency.Observe(time.Duration(tsInit - tsEvent))
	}
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		AppliedSnapshots: atomic.LoadUint64(&m.appliedSnapshots),
		AppliedDeltas:    atomic.LoadUint64(&m.appliedDeltas),
		AppliedBatches:   atomic.LoadUint64(&m.appliedBatches),
		SequenceGaps:     atomic.LoadUint64(&m.sequenceGaps),
		StaleRejects:     atomic.LoadUint64(&m.staleRejects),
		UnknownOrders:    atomic.LoadUint64(&m.unknownOrders),
		MalformedEvents:  atomic.LoadUint64(&m.malformedEvents),
		QueueDrops:       atomic.LoadUint64(&m.queueDrops),
		QueueClosed:      atomic.LoadUint64(&m.queueClosed),
		ApplyLatency:     m.applyLatency.Snapshot(),
		FeedLatency:      m.feedLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}

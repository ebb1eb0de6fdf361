package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a specific counter or histogram slot.
type MetricID uint16

const (
	// MetricLoginSuccess is an exported constant or variable used by the client engine.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure is an exported constant or variable used by the client engine.
	MetricLoginFailure
	// MetricLogout is an exported constant or variable used by the client engine.
	MetricLogout
	// MetricForcedLogout is an exported constant or variable used by the client engine.
	MetricForcedLogout
	// MetricRefreshSuccess is an exported constant or variable used by the client engine.
	MetricRefreshSuccess
	// MetricRefreshFailure is an exported constant or variable used by the client engine.
	MetricRefreshFailure
	// MetricRefreshJoined is an exported constant or variable used by the client engine.
	MetricRefreshJoined
	// MetricTokenExpired is an exported constant or variable used by the client engine.
	MetricTokenExpired
	// MetricUnauthorizedRetry is an exported constant or variable used by the client engine.
	MetricUnauthorizedRetry
	// MetricRetryRecovered is an exported constant or variable used by the client engine.
	MetricRetryRecovered
	// MetricRequests is an exported constant or variable used by the client engine.
	MetricRequests
	// MetricRequestFailures is an exported constant or variable used by the client engine.
	MetricRequestFailures
	// MetricThrottled is an exported constant or variable used by the client engine.
	MetricThrottled
	// MetricRequestLatency is an exported constant or variable used by the client engine.
	MetricRequestLatency
	// MetricRefreshLatency is an exported constant or variable used by the client engine.
	MetricRefreshLatency
	// MetricIDCount is the number of defined metric slots.
	MetricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Config controls which metric families are recorded.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

// Metrics holds atomic counters and optional latency histograms. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [MetricIDCount]paddedCounter
	histograms    [MetricIDCount]metricHistogram
}

// Snapshot is a point-in-time deep copy of all metrics.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// New creates a [Metrics] instance. When cfg.Enabled is false all
// operations are no-ops.
func New(cfg Config) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatency,
	}
}

// Enabled reports whether counters are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether latency histograms are being recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc atomically increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample in the histogram for id. Only the
// latency metric slots accept samples; other IDs are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= MetricIDCount {
		return
	}
	if !isLatencyID(id) {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current counter value for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// MakeSnapshot copies all counters and, when latency recording is on, the
// histogram buckets.
func (m *Metrics) MakeSnapshot() Snapshot {
	if m == nil || !m.enabled {
		return Snapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := Snapshot{
		Counters:   make(map[MetricID]uint64, int(MetricIDCount)),
		Histograms: make(map[MetricID][]uint64, 2),
	}

	for id := MetricID(0); id < MetricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for _, id := range []MetricID{MetricRequestLatency, MetricRefreshLatency} {
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

func isLatencyID(id MetricID) bool {
	return id == MetricRequestLatency || id == MetricRefreshLatency
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}

package storefront

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a client counter.
type MetricID uint16

const (
	MetricVerifySuccess MetricID = iota
	MetricVerifyFailure
	MetricVerifySkipped
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginInvalidInput
	MetricRegisterSuccess
	MetricRegisterFailure
	MetricLogout
	MetricSuperseded
	MetricGateAllow
	MetricGateRedirect
	MetricGatePending
	MetricCartMutation
	MetricCartPersistWrite
	MetricCartPersistFailure
	// MetricAuthAPILatency is the only histogram: remote call duration of
	// verify, login and register. It has no counter.
	MetricAuthAPILatency
	metricIDCount
)

const histBucketCount = 8

// latencyBounds are the inclusive upper bounds of all but the last bucket.
var latencyBounds = [histBucketCount - 1]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

// counter sits alone on a cache line so hot counters do not false-share.
type counter struct {
	atomic.Uint64
	_ [56]byte
}

// Metrics holds lock-free counters and the Auth API latency histogram.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	enabled bool
	latency bool
	counts  [metricIDCount]counter
	buckets [histBucketCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy. Histogram buckets are non-cumulative.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns a Metrics honouring cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
		latency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) Inc(id MetricID) {
	m.Add(id, 1)
}

func (m *Metrics) Add(id MetricID, n uint64) {
	if !m.Enabled() || id >= MetricAuthAPILatency {
		return
	}
	m.counts[id].Add(n)
}

// Observe records d. Only MetricAuthAPILatency has a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.latency || id != MetricAuthAPILatency {
		return
	}
	m.buckets[bucketIndex(d)].Add(1)
}

// Value returns the current counter value.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricAuthAPILatency {
		return 0
	}
	return m.counts[id].Load()
}

// Snapshot copies every counter and, when enabled, the histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if !m.Enabled() {
		return s
	}
	for id := MetricID(0); id < MetricAuthAPILatency; id++ {
		s.Counters[id] = m.counts[id].Load()
	}
	if m.latency {
		b := make([]uint64, histBucketCount)
		for i := range b {
			b[i] = m.buckets[i].Load()
		}
		s.Histograms[MetricAuthAPILatency] = b
	}
	return s
}

func bucketIndex(d time.Duration) int {
	for i, bound := range latencyBounds {
		if d <= bound {
			return i
		}
	}
	return histBucketCount - 1
}

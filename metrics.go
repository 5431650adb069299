package remio

import (
	"sync/atomic"
	"time"

	"github.com/ehrlich-b/go-remio/internal/interfaces"
)

// DrainLatencyBuckets defines the drain-pass latency histogram buckets
// in nanoseconds, from 1us to 10s with logarithmic spacing.
var DrainLatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks operational statistics for the dispatch engine.
type Metrics struct {
	// Request counters
	Dispatched atomic.Uint64 // Requests routed to a client
	Dropped    atomic.Uint64 // Requests with no owning client
	Faults     atomic.Uint64 // Hypercall round-trip failures

	// Scheduling counters
	DrainPasses     atomic.Uint64 // Completed drain passes
	PolledRequests  atomic.Uint64 // Requests retrieved across all passes
	CoalescedNotify atomic.Uint64 // Notifications absorbed by a pending pass

	// Drain pass latency
	TotalLatencyNs atomic.Uint64

	// Latency histogram buckets (cumulative counts)
	// Each bucket[i] counts passes with latency <= DrainLatencyBuckets[i]
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	// Lifecycle
	StartTime atomic.Int64 // Dispatcher start timestamp (UnixNano)
	StopTime  atomic.Int64 // Dispatcher stop timestamp (UnixNano)
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordDispatch records a request routed to a client
func (m *Metrics) RecordDispatch() {
	m.Dispatched.Add(1)
}

// RecordDrop records an unroutable request
func (m *Metrics) RecordDrop() {
	m.Dropped.Add(1)
}

// RecordFault records a failed hypercall round trip
func (m *Metrics) RecordFault() {
	m.Faults.Add(1)
}

// RecordCoalesced records a notification absorbed by a pending pass
func (m *Metrics) RecordCoalesced() {
	m.CoalescedNotify.Add(1)
}

// RecordDrainPass records one completed drain pass
func (m *Metrics) RecordDrainPass(polled int, latencyNs uint64) {
	m.DrainPasses.Add(1)
	m.PolledRequests.Add(uint64(polled))
	m.TotalLatencyNs.Add(latencyNs)

	for i, bucket := range DrainLatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop marks the dispatcher as stopped
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time view of the metrics.
type MetricsSnapshot struct {
	Dispatched      uint64 `json:"dispatched"`
	Dropped         uint64 `json:"dropped"`
	Faults          uint64 `json:"faults"`
	DrainPasses     uint64 `json:"drain_passes"`
	PolledRequests  uint64 `json:"polled_requests"`
	CoalescedNotify uint64 `json:"coalesced_notify"`

	// Performance
	AvgLatencyNs uint64 `json:"avg_latency_ns"`
	UptimeNs     uint64 `json:"uptime_ns"`

	// Latency percentiles (in nanoseconds)
	LatencyP50Ns  uint64 `json:"latency_p50_ns"`
	LatencyP99Ns  uint64 `json:"latency_p99_ns"`
	LatencyP999Ns uint64 `json:"latency_p999_ns"`

	// Histogram bucket counts (cumulative)
	LatencyHistogram [numLatencyBuckets]uint64 `json:"latency_histogram"`

	// Computed statistics
	AvgPolledPerPass float64 `json:"avg_polled_per_pass"`
	DropRate         float64 `json:"drop_rate"` // Percentage of polled requests dropped
}

// Snapshot creates a point-in-time snapshot of metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Dispatched:      m.Dispatched.Load(),
		Dropped:         m.Dropped.Load(),
		Faults:          m.Faults.Load(),
		DrainPasses:     m.DrainPasses.Load(),
		PolledRequests:  m.PolledRequests.Load(),
		CoalescedNotify: m.CoalescedNotify.Load(),
	}

	totalLatencyNs := m.TotalLatencyNs.Load()
	if snap.DrainPasses > 0 {
		snap.AvgLatencyNs = totalLatencyNs / snap.DrainPasses
		snap.AvgPolledPerPass = float64(snap.PolledRequests) / float64(snap.DrainPasses)
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	if snap.PolledRequests > 0 {
		snap.DropRate = float64(snap.Dropped) / float64(snap.PolledRequests) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	if snap.DrainPasses > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the drain latency at the given
// percentile (0.0-1.0) using linear interpolation between buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalPasses := m.DrainPasses.Load()
	if totalPasses == 0 {
		return 0
	}

	targetCount := uint64(float64(totalPasses) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range DrainLatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	return DrainLatencyBuckets[numLatencyBuckets-1]
}

// Reset resets all metrics counters (useful for testing)
func (m *Metrics) Reset() {
	m.Dispatched.Store(0)
	m.Dropped.Store(0)
	m.Faults.Store(0)
	m.DrainPasses.Store(0)
	m.PolledRequests.Store(0)
	m.CoalescedNotify.Store(0)
	m.TotalLatencyNs.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer receives dispatch events; see the interfaces package for the
// method contracts. Observers may be called concurrently and must not
// block.
type Observer = interfaces.Observer

// NoOpObserver is a no-op implementation of Observer
type NoOpObserver struct{}

func (NoOpObserver) ObserveDispatch(uint32)               {}
func (NoOpObserver) ObserveDrop(uint32)                   {}
func (NoOpObserver) ObserveFault(uint32)                  {}
func (NoOpObserver) ObserveDrainPass(uint32, int, uint64) {}
func (NoOpObserver) ObserveCoalesced(uint32)              {}

// MetricsObserver implements Observer using the built-in Metrics
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given metrics
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveDispatch(domain uint32) {
	o.metrics.RecordDispatch()
}

func (o *MetricsObserver) ObserveDrop(domain uint32) {
	o.metrics.RecordDrop()
}

func (o *MetricsObserver) ObserveFault(domain uint32) {
	o.metrics.RecordFault()
}

func (o *MetricsObserver) ObserveDrainPass(domain uint32, polled int, latencyNs uint64) {
	o.metrics.RecordDrainPass(polled, latencyNs)
}

func (o *MetricsObserver) ObserveCoalesced(domain uint32) {
	o.metrics.RecordCoalesced()
}

// Compile-time interface check
var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)

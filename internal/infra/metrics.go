package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	eventsProcessed atomic.Uint64
	ordersFilled    atomic.Uint64
	runsCompleted   atomic.Uint64
	errorsTotal     atomic.Uint64

	// Latency tracking for live feed messages
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	activeConnections atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordEvent records one processed event with its handling latency.
func (m *Metrics) RecordEvent(latencyNs int64) {
	m.eventsProcessed.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// AddEvents records a batch of processed events without latency.
func (m *Metrics) AddEvents(n int) {
	m.eventsProcessed.Add(uint64(n))
}

// AddOrdersFilled records filled orders.
func (m *Metrics) AddOrdersFilled(n int) {
	m.ordersFilled.Add(uint64(n))
}

// RecordRunCompleted records one finished backtest run.
func (m *Metrics) RecordRunCompleted() {
	m.runsCompleted.Add(1)
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// IncrementConnections increments active feed connections by 1.
func (m *Metrics) IncrementConnections() {
	m.activeConnections.Add(1)
}

// DecrementConnections decrements active feed connections by 1.
func (m *Metrics) DecrementConnections() {
	m.activeConnections.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	EventsProcessed   uint64
	OrdersFilled      uint64
	RunsCompleted     uint64
	ErrorsTotal       uint64
	AvgLatencyNs      int64
	ActiveConnections int32
	Timestamp         time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		EventsProcessed:   m.eventsProcessed.Load(),
		OrdersFilled:      m.ordersFilled.Load(),
		RunsCompleted:     m.runsCompleted.Load(),
		ErrorsTotal:       m.errorsTotal.Load(),
		AvgLatencyNs:      avgLatency,
		ActiveConnections: m.activeConnections.Load(),
		Timestamp:         time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.eventsProcessed.Store(0)
	m.ordersFilled.Store(0)
	m.runsCompleted.Store(0)
	m.errorsTotal.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.activeConnections.Store(0)
}

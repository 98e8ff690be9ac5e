package infra

import (
	"testing"
)

func TestMetrics_RecordEvent(t *testing.T) {
	m := &Metrics{}

	m.RecordEvent(1000)
	m.RecordEvent(2000)
	m.RecordEvent(3000)

	snap := m.Snapshot()

	if snap.EventsProcessed != 3 {
		t.Errorf("Expected 3 events, got %d", snap.EventsProcessed)
	}

	// Average latency: (1000 + 2000 + 3000) / 3 = 2000
	if snap.AvgLatencyNs != 2000 {
		t.Errorf("Expected avg latency 2000, got %d", snap.AvgLatencyNs)
	}
}

func TestMetrics_BatchCounters(t *testing.T) {
	m := &Metrics{}

	m.AddEvents(100)
	m.AddOrdersFilled(7)
	m.RecordRunCompleted()

	snap := m.Snapshot()
	if snap.EventsProcessed != 100 {
		t.Errorf("Expected 100 events, got %d", snap.EventsProcessed)
	}
	if snap.OrdersFilled != 7 {
		t.Errorf("Expected 7 fills, got %d", snap.OrdersFilled)
	}
	if snap.RunsCompleted != 1 {
		t.Errorf("Expected 1 run, got %d", snap.RunsCompleted)
	}
	// Batch events carry no latency samples
	if snap.AvgLatencyNs != 0 {
		t.Errorf("Expected avg latency 0, got %d", snap.AvgLatencyNs)
	}
}

func TestMetrics_Connections(t *testing.T) {
	m := &Metrics{}

	m.IncrementConnections()
	m.IncrementConnections()
	m.IncrementConnections()

	snap := m.Snapshot()
	if snap.ActiveConnections != 3 {
		t.Errorf("Expected 3 connections, got %d", snap.ActiveConnections)
	}

	m.DecrementConnections()
	snap = m.Snapshot()
	if snap.ActiveConnections != 2 {
		t.Errorf("Expected 2 connections, got %d", snap.ActiveConnections)
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := &Metrics{}

	m.RecordEvent(1000)
	m.RecordError()
	m.IncrementConnections()

	m.Reset()
	snap := m.Snapshot()

	if snap.EventsProcessed != 0 {
		t.Error("Expected 0 events after reset")
	}
	if snap.ErrorsTotal != 0 {
		t.Error("Expected 0 errors after reset")
	}
	if snap.ActiveConnections != 0 {
		t.Error("Expected 0 connections after reset")
	}
}

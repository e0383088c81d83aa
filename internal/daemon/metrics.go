package daemon

import (
	"sync"
)

type ShipperMetrics struct {
	LinesRead       int
	LinesSkipped    int
	EntriesQueued   int
	EntriesSent     int
	EntriesRejected int
	Flushes         int
	FlushFailures   int
	mu              sync.RWMutex
}

func (m *ShipperMetrics) IncLinesRead() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LinesRead++
}

func (m *ShipperMetrics) IncLinesSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LinesSkipped++
}

func (m *ShipperMetrics) IncEntriesQueued() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EntriesQueued++
}

func (m *ShipperMetrics) AddEntriesSent(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EntriesSent += n
}

func (m *ShipperMetrics) IncFlushes() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Flushes++
}

func (m *ShipperMetrics) IncFlushFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FlushFailures++
}

func (m *ShipperMetrics) IncEntriesRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EntriesRejected++
}

func (m *ShipperMetrics) GetMetricsStamp() ShipperMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ShipperMetrics{
		LinesRead:       m.LinesRead,
		LinesSkipped:    m.LinesSkipped,
		EntriesQueued:   m.EntriesQueued,
		EntriesSent:     m.EntriesSent,
		EntriesRejected: m.EntriesRejected,
		Flushes:         m.Flushes,
		FlushFailures:   m.FlushFailures,
	}
}

// FailureRate is the share of flushes that returned an error.
func (m *ShipperMetrics) FailureRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Flushes == 0 {
		return 0
	}
	return float64(m.FlushFailures) / float64(m.Flushes)
}

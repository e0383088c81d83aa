package daemon

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShipperMetrics_BasicOperations(t *testing.T) {
	metrics := &ShipperMetrics{}

	metrics.IncLinesRead()
	metrics.IncLinesSkipped()
	metrics.IncEntriesQueued()
	metrics.AddEntriesSent(3)
	metrics.IncFlushes()
	metrics.IncFlushFailures()
	metrics.IncEntriesRejected()

	result := metrics.GetMetricsStamp()

	assert.Equal(t, 1, result.LinesRead)
	assert.Equal(t, 1, result.LinesSkipped)
	assert.Equal(t, 1, result.EntriesQueued)
	assert.Equal(t, 3, result.EntriesSent)
	assert.Equal(t, 1, result.Flushes)
	assert.Equal(t, 1, result.FlushFailures)
	assert.Equal(t, 1, result.EntriesRejected)
}

func TestShipperMetrics_FailureRate(t *testing.T) {
	metrics := &ShipperMetrics{}
	assert.Equal(t, 0.0, metrics.FailureRate())

	for i := 0; i < 4; i++ {
		metrics.IncFlushes()
	}
	metrics.IncFlushFailures()

	assert.InDelta(t, 0.25, metrics.FailureRate(), 1e-9)
}

func TestShipperMetrics_ConcurrentUpdates(t *testing.T) {
	metrics := &ShipperMetrics{}

	var wg sync.WaitGroup
	inc := func(fn func()) {
		for i := 0; i < 1000; i++ {
			fn()
		}
		wg.Done()
	}

	wg.Add(6)
	go inc(metrics.IncLinesRead)
	go inc(metrics.IncLinesSkipped)
	go inc(metrics.IncEntriesQueued)
	go inc(func() { metrics.AddEntriesSent(2) })
	go inc(metrics.IncFlushes)
	go inc(metrics.IncFlushFailures)
	wg.Wait()

	stamp := metrics.GetMetricsStamp()
	assert.Equal(t, 1000, stamp.LinesRead)
	assert.Equal(t, 1000, stamp.LinesSkipped)
	assert.Equal(t, 1000, stamp.EntriesQueued)
	assert.Equal(t, 2000, stamp.EntriesSent)
	assert.Equal(t, 1000, stamp.Flushes)
	assert.Equal(t, 1000, stamp.FlushFailures)
}

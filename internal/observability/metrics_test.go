package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/tickets/:id", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/tickets/:id", "GET", 200, 30*time.Millisecond)
	m.RecordRequest("/tickets", "POST", 201, time.Millisecond)
	m.RecordError("/tickets/:id", "GET", "NOT_FOUND")

	snap := m.Snapshot()
	require.Len(t, snap.Requests, 2)
	assert.Equal(t, "/tickets", snap.Requests[0].Path)
	assert.Equal(t, int64(2), snap.Requests[1].Count)
	assert.InDelta(t, 20.0, snap.Requests[1].AvgLatencyMs, 0.01)
	require.Len(t, snap.Errors, 1)
	assert.Equal(t, "NOT_FOUND", snap.Errors[0].Code)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, 0)
	m.RecordError("/", "GET", "X")
	assert.Empty(t, m.Snapshot().Requests)
}

package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/ticket/:id", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/ticket/:id", "GET", 200, 30*time.Millisecond)
	m.RecordRequest("/login", "POST", 302, time.Millisecond)
	m.RecordError("/ticket/:id/delete", "POST", "FORBIDDEN")

	snap := m.Snapshot()
	require.Len(t, snap.Requests, 2)
	assert.Equal(t, "/login|POST|302", snap.Requests[0].Key)
	assert.Equal(t, int64(2), snap.Requests[1].Count)
	assert.InDelta(t, 20.0, snap.Requests[1].AvgMillis, 0.001)
	assert.Equal(t, int64(1), snap.Errors["/ticket/:id/delete|POST|FORBIDDEN"])
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	assert.Empty(t, m.Snapshot().Requests)
}

package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/v1/departments", "GET", 200, time.Millisecond)
	m.RecordRequest("/api/v1/departments", "GET", 200, 3*time.Millisecond)
	m.RecordError("/api/v1/departments", "POST", "VALIDATION_FAILED")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/api/v1/departments|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/api/v1/departments|POST|VALIDATION_FAILED"])
	assert.InDelta(t, 2.0, snap.MeanLatencyMS["/api/v1/departments|GET|200"], 0.001)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, 0)
	m.RecordError("/", "GET", "X")
	assert.Empty(t, m.Snapshot().Requests)
}

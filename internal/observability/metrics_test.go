package observability

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics("code")

	s, err := m.Snapshot()
	require.NoError(t, err)
	assert.Zero(t, s.TotalRequests)
	assert.Zero(t, s.AvgResponseTime)

	m.ObserveRequest(time.Second, nil)
	m.ObserveRequest(3*time.Second, nil)
	m.ObserveRequest(time.Millisecond, errors.New("boom"))
	m.MemoryEntries.Set(7)

	s, err = m.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalRequests)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, 2*time.Second, s.AvgResponseTime)
	assert.Equal(t, 7, s.MemoryEntries)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics("code")
	b := NewMetrics("code")

	a.ObserveRequest(time.Second, nil)

	s, err := b.Snapshot()
	require.NoError(t, err)
	assert.Zero(t, s.TotalRequests)
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("code")
	m.ObserveRequest(time.Second, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `code_chat_requests_total{outcome="ok"} 1`)
}

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probeEndpoint(t *testing.T, fn http.HandlerFunc) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	fn(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestReadyEndpoint(t *testing.T) {
	svc := New()

	code, body := probeEndpoint(t, svc.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body["status"])

	svc.SetReady(true)
	code, body = probeEndpoint(t, svc.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	svc.SetReady(false)
	code, _ = probeEndpoint(t, svc.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestFailureThreshold(t *testing.T) {
	svc := New()
	svc.SetReady(true)

	var failing atomic.Bool
	svc.AddReadinessCheck("db", time.Second, func(context.Context) error {
		if failing.Load() {
			return errors.New("connection refused")
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx, 5*time.Millisecond)
	defer svc.Stop()

	require.Eventually(t, svc.IsReady, time.Second, 5*time.Millisecond)

	// A single failure is below the threshold.
	failing.Store(true)
	time.Sleep(15 * time.Millisecond)
	failing.Store(false)
	time.Sleep(20 * time.Millisecond)
	assert.True(t, svc.IsReady())

	// Sustained failure trips it.
	failing.Store(true)
	require.Eventually(t, func() bool { return !svc.IsReady() }, time.Second, 5*time.Millisecond)

	code, body := probeEndpoint(t, svc.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "connection refused", checks["db"])

	// Recovery flips it back on the first success.
	failing.Store(false)
	require.Eventually(t, svc.IsReady, time.Second, 5*time.Millisecond)
}

func TestLiveEndpoint(t *testing.T) {
	svc := New()
	svc.AddLivenessCheck("goroutines", time.Second, GoroutineCountCheck(10000))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx, time.Hour)
	defer svc.Stop()

	code, body := probeEndpoint(t, svc.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}

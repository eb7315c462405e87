package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing() CheckFunc {
	return func(context.Context) error { return nil }
}

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) statusResponse {
	t.Helper()
	var body statusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestLiveEndpoint_AllPassing(t *testing.T) {
	s := New()
	s.AddLivenessCheck("one", time.Second, passing())
	s.AddLivenessCheck("two", time.Second, passing())

	w := httptest.NewRecorder()
	s.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decodeStatus(t, w).Status)
}

func TestLiveEndpoint_FailingCheck(t *testing.T) {
	s := New()
	s.AddLivenessCheck("db", time.Second, failing("connection refused"))

	// Push past the failure threshold of 3.
	ctx := context.Background()
	for range 3 {
		s.probes[0].tick(ctx)
	}

	w := httptest.NewRecorder()
	s.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeStatus(t, w)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "connection refused", body.Checks["db"])
}

func TestLiveEndpoint_FailureBelowThreshold(t *testing.T) {
	s := New()
	s.AddLivenessCheck("flaky", time.Second, failing("temporary"))

	ctx := context.Background()
	s.probes[0].tick(ctx)
	s.probes[0].tick(ctx)

	w := httptest.NewRecorder()
	s.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyEndpoint(t *testing.T) {
	s := New()
	s.AddReadinessCheck("db", time.Second, passing())

	w := httptest.NewRecorder()
	s.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "not ready until SetReady")
	assert.Contains(t, decodeStatus(t, w).Checks, "_readiness")

	s.SetReady(true)
	w = httptest.NewRecorder()
	s.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	s.SetReady(false)
	w = httptest.NewRecorder()
	s.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReadyEndpoint_OneFailingCheck(t *testing.T) {
	s := New()
	s.AddReadinessCheck("db", time.Second, passing())
	s.AddReadinessCheck("cache", time.Second, failing("cache down"))
	s.SetReady(true)

	ctx := context.Background()
	for range 3 {
		s.probes[1].tick(ctx)
	}

	w := httptest.NewRecorder()
	s.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeStatus(t, w)
	assert.Contains(t, body.Checks, "cache")
	assert.NotContains(t, body.Checks, "db")
}

func TestIsReady(t *testing.T) {
	s := New()
	s.AddReadinessCheck("db", time.Second, passing())

	assert.False(t, s.IsReady())
	s.SetReady(true)
	assert.True(t, s.IsReady())
	s.SetReady(false)
	assert.False(t, s.IsReady())
}

func TestProbeRecovery(t *testing.T) {
	down := true
	s := New()
	s.AddLivenessCheck("flaky", time.Second, func(context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	})
	p := s.probes[0]
	ctx := context.Background()

	for range 3 {
		p.tick(ctx)
	}
	assert.False(t, p.healthy.Load())

	down = false
	p.tick(ctx)
	assert.True(t, p.healthy.Load(), "one pass recovers with successThreshold 1")
}

func TestStopIsIdempotent(t *testing.T) {
	s := New()
	s.AddLivenessCheck("noop", time.Second, passing())
	s.Start(context.Background(), 50*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	s.Stop()
	s.Stop()
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	s.AddLivenessCheck("live", time.Second, failing("err"))
	s.AddReadinessCheck("ready", time.Second, passing())
	s.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx, 10*time.Millisecond)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				s.IsReady()
				s.LiveEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", nil))
				s.ReadyEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))
			}
		}()
	}
	wg.Wait()
	s.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))

	err := GoroutineCountCheck(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds threshold")
}

func TestGCMaxPauseCheck(t *testing.T) {
	assert.NoError(t, GCMaxPauseCheck(time.Hour)(context.Background()))
}

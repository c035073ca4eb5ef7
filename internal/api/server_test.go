// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/consultaprocesos/internal/consulta"
	"github.com/ManuGH/consultaprocesos/internal/health"
	"github.com/ManuGH/consultaprocesos/internal/scheduler"
	"github.com/ManuGH/consultaprocesos/internal/store"
)

type fakeTrigger struct {
	mu      sync.Mutex
	reasons []string
	queued  bool
}

func (f *fakeTrigger) Trigger(reason string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reasons = append(f.reasons, reason)
	if f.queued {
		return false
	}
	f.queued = true
	return true
}

func (f *fakeTrigger) Status() scheduler.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return scheduler.Status{Pending: f.queued, Runs: 4}
}

func seededStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	st, err := store.Open(ctx, filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	csvPath := filepath.Join(dir, "resultados.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("radicado\n1\n"), 0o600))

	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, st.BeginRun(ctx, "run-1", "schedule", "PROCESOS.xlsx", start))
	rec := consulta.NewRecord("11001310300120230012300", start)
	rec.Status = consulta.StatusSuccess
	require.NoError(t, st.SaveRecord(ctx, "run-1", 0, rec))
	require.NoError(t, st.FinishRun(ctx, "run-1", store.Finish{
		FinishedAt: start.Add(time.Minute),
		Status:     store.RunCompleted,
		Stats:      consulta.Stats{Total: 1, Success: 1},
		Files:      map[string]string{"csv": csvPath, "json": filepath.Join(dir, "gone.json")},
	}))
	return st, csvPath
}

func newTestServer(t *testing.T, history History, trig Trigger) http.Handler {
	t.Helper()
	hm := health.NewManager("v-test")
	return New(Config{Version: "v-test", TriggerRPM: 2}, hm, history, trig).Handler()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestStatus(t *testing.T) {
	st, _ := seededStore(t)
	h := newTestServer(t, st, &fakeTrigger{})

	w := get(t, h, "/api/v1/status")
	require.Equal(t, http.StatusOK, w.Code)

	var resp statusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "v-test", resp.Version)
	assert.Equal(t, 4, resp.Scheduler.Runs)
	require.NotNil(t, resp.LastRun)
	assert.Equal(t, "run-1", resp.LastRun.ID)
}

func TestStatusWithoutRuns(t *testing.T) {
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	w := get(t, newTestServer(t, st, nil), "/api/v1/status")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"last_run":null`)
}

func TestListAndGetRuns(t *testing.T) {
	st, _ := seededStore(t)
	h := newTestServer(t, st, nil)

	w := get(t, h, "/api/v1/runs?limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	var runs []store.Run
	require.NoError(t, json.NewDecoder(w.Body).Decode(&runs))
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunCompleted, runs[0].Status)

	w = get(t, h, "/api/v1/runs/run-1")
	require.Equal(t, http.StatusOK, w.Code)
	var run runResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&run))
	assert.Equal(t, 1, run.Stats.Success)
	require.Len(t, run.Records, 1)
	assert.Equal(t, consulta.StatusSuccess, run.Records[0].Status)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/runs/missing").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/runs?limit=-1").Code)
}

func TestRunFileDownload(t *testing.T) {
	st, csvPath := seededStore(t)
	cfg := Config{Version: "v-test", TriggerRPM: 2, FilesRoot: filepath.Dir(csvPath)}
	h := New(cfg, health.NewManager("v-test"), st, nil).Handler()

	w := get(t, h, "/api/v1/runs/run-1/files/csv")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "resultados.csv")
	assert.Equal(t, "radicado\n1\n", w.Body.String())

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/runs/run-1/files/json").Code, "file deleted on disk")
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/runs/run-1/files/xlsx").Code, "format not written")
}

func TestRunFileDownloadConfined(t *testing.T) {
	st, _ := seededStore(t)

	other := New(Config{FilesRoot: t.TempDir()}, health.NewManager("v-test"), st, nil).Handler()
	assert.Equal(t, http.StatusNotFound, get(t, other, "/api/v1/runs/run-1/files/csv").Code, "outside root")

	disabled := newTestServer(t, st, nil)
	assert.Equal(t, http.StatusNotFound, get(t, disabled, "/api/v1/runs/run-1/files/csv").Code, "no root configured")
}

func TestHistoryDisabled(t *testing.T) {
	h := newTestServer(t, nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/v1/runs").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/v1/runs/x").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/api/v1/status").Code)
}

func TestTriggerRun(t *testing.T) {
	trig := &fakeTrigger{}
	h := newTestServer(t, nil, trig)

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)
		req.RemoteAddr = "192.0.2.10:4000"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	w := post()
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"queued":true`)

	w = post()
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"queued":false`)

	assert.Equal(t, http.StatusTooManyRequests, post().Code)
	assert.Equal(t, []string{scheduler.TriggerManual, scheduler.TriggerManual}, trig.reasons)
}

func TestHealthEndpointsAndMetrics(t *testing.T) {
	h := newTestServer(t, nil, nil)
	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/readyz").Code)

	w := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "consultaprocesos_http_requests_in_flight")

	assert.Equal(t, http.StatusNotFound, get(t, h, "/nope").Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	hm := health.NewManager("v-test")
	srv := New(Config{Version: "v-test"}, hm, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ramajudicial

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// MockServer is a configurable stand-in for the Rama Judicial API, used by
// tests across packages.
type MockServer struct {
	*httptest.Server
	mu          sync.RWMutex
	procesos    map[string][]ProcesoSummary
	details     map[int64]ProcesoDetail
	actuaciones map[int64][]Actuacion
	failures    map[string]int // forced failures left per endpoint
	failStatus  map[string]int
	requests    atomic.Int64
}

// NewMockServer starts a mock API with no data loaded.
func NewMockServer() *MockServer {
	m := &MockServer{
		procesos:    make(map[string][]ProcesoSummary),
		details:     make(map[int64]ProcesoDetail),
		actuaciones: make(map[int64][]Actuacion),
		failures:    make(map[string]int),
		failStatus:  make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+pathSearch, m.handleSearch)
	mux.HandleFunc("GET "+pathDetail+"/{id}", m.handleDetail)
	mux.HandleFunc("GET "+pathActuaciones+"/{id}", m.handleActuaciones)

	m.Server = httptest.NewServer(mux)
	return m
}

// AddProceso registers a public case with its detail and actuaciones.
func (m *MockServer) AddProceso(numero string, summary ProcesoSummary, detail ProcesoDetail, acts ...Actuacion) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if summary.LlaveProceso == "" {
		summary.LlaveProceso = numero
	}
	m.procesos[numero] = append(m.procesos[numero], summary)
	m.details[summary.ID] = detail
	m.actuaciones[summary.ID] = acts
}

// AddPrivado registers a case the API flags as private.
func (m *MockServer) AddPrivado(numero string, id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.procesos[numero] = append(m.procesos[numero], ProcesoSummary{
		ID:           id,
		LlaveProceso: numero,
		EsPrivado:    true,
	})
}

// FailNext makes the next n requests to endpoint answer with status.
func (m *MockServer) FailNext(endpoint string, n, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[endpoint] = n
	m.failStatus[endpoint] = status
}

// Requests returns the number of requests served so far.
func (m *MockServer) Requests() int64 { return m.requests.Load() }

// BaseURL returns the root to hand to Options.BaseURL.
func (m *MockServer) BaseURL() string { return m.URL }

func (m *MockServer) shouldFail(w http.ResponseWriter, endpoint string) bool {
	m.requests.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures[endpoint] <= 0 {
		return false
	}
	m.failures[endpoint]--
	status := m.failStatus[endpoint]
	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "0")
	}
	http.Error(w, http.StatusText(status), status)
	return true
}

func (m *MockServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	if m.shouldFail(w, EndpointSearch) {
		return
	}
	numero := strings.TrimSpace(r.URL.Query().Get("numero"))

	m.mu.RLock()
	found := append([]ProcesoSummary(nil), m.procesos[numero]...)
	m.mu.RUnlock()

	if found == nil {
		found = []ProcesoSummary{}
	}
	writeJSON(w, SearchResult{
		Procesos:   found,
		Pagination: Pagination{Records: len(found), RecordsOnPage: len(found), Pages: 1, Page: 1},
	})
}

func (m *MockServer) handleDetail(w http.ResponseWriter, r *http.Request) {
	if m.shouldFail(w, EndpointDetail) {
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}

	m.mu.RLock()
	d, ok := m.details[id]
	m.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, d)
}

func (m *MockServer) handleActuaciones(w http.ResponseWriter, r *http.Request) {
	if m.shouldFail(w, EndpointActuaciones) {
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}

	m.mu.RLock()
	acts, ok := m.actuaciones[id]
	m.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	if acts == nil {
		acts = []Actuacion{}
	}
	writeJSON(w, ActuacionesPage{
		Actuaciones: acts,
		Pagination:  Pagination{Records: len(acts), RecordsOnPage: len(acts), Pages: 1, Page: 1},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}

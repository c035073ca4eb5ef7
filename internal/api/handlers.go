// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/consultaprocesos/internal/consulta"
	"github.com/ManuGH/consultaprocesos/internal/log"
	pfs "github.com/ManuGH/consultaprocesos/internal/platform/fs"
	"github.com/ManuGH/consultaprocesos/internal/scheduler"
	"github.com/ManuGH/consultaprocesos/internal/store"
)

const maxListLimit = 200

var errHistoryDisabled = errors.New("run history is disabled")

type statusResponse struct {
	Version   string           `json:"version"`
	Scheduler scheduler.Status `json:"scheduler"`
	LastRun   *store.Run       `json:"last_run"`
}

type runResponse struct {
	store.Run
	Records []consulta.Record `json:"records,omitempty"`
}

type triggerResponse struct {
	Queued bool   `json:"queued"`
	Detail string `json:"detail"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Version: s.cfg.Version}
	if s.trigger != nil {
		resp.Scheduler = s.trigger.Status()
	}
	if s.history != nil {
		run, err := s.history.LastRun(r.Context())
		switch {
		case err == nil:
			resp.LastRun = &run
		case !errors.Is(err, store.ErrRunNotFound):
			s.internalError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeServiceUnavailable(w, errHistoryDisabled)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, errors.New("limit must be a positive integer"))
			return
		}
		limit = min(n, maxListLimit)
	}
	runs, err := s.history.ListRuns(r.Context(), limit)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	resp := runResponse{Run: run}
	if r.URL.Query().Get("records") != "false" {
		recs, err := s.history.RunRecords(r.Context(), run.ID)
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		resp.Records = recs
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRunFile(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	stored, found := run.Files[chi.URLParam(r, "format")]
	if !found || s.cfg.FilesRoot == "" {
		writeNotFound(w)
		return
	}
	path, err := pfs.ConfineFile(s.cfg.FilesRoot, stored)
	if err != nil {
		if errors.Is(err, pfs.ErrOutsideRoot) {
			logger := log.WithComponentFromContext(r.Context(), "api")
			logger.Warn().
				Str(log.FieldPath, stored).
				Msg("refusing report path outside the output directory")
		}
		writeNotFound(w)
		return
	}
	f, err := os.Open(path) // #nosec G304 -- confined to FilesRoot above
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeNotFound(w)
			return
		}
		s.internalError(w, r, err)
		return
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	name := filepath.Base(path)
	setDownloadHeaders(w, name)
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	if s.trigger == nil {
		writeServiceUnavailable(w, errors.New("scheduler not running"))
		return
	}
	if s.trigger.Trigger(scheduler.TriggerManual) {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Info().Msg("manual run queued")
		writeJSON(w, http.StatusAccepted, triggerResponse{Queued: true, Detail: "run queued"})
		return
	}
	writeJSON(w, http.StatusAccepted, triggerResponse{Queued: false, Detail: "a run is already queued"})
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (store.Run, bool) {
	if s.history == nil {
		writeServiceUnavailable(w, errHistoryDisabled)
		return store.Run{}, false
	}
	run, err := s.history.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			writeNotFound(w)
		} else {
			s.internalError(w, r, err)
		}
		return store.Run{}, false
	}
	return run, true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Error().Err(err).Str(log.FieldPath, r.URL.Path).Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
}

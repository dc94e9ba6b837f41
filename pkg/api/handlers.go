package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethpandaops/regressoor/pkg/analysis"
	"github.com/ethpandaops/regressoor/pkg/baseline"
	"github.com/ethpandaops/regressoor/pkg/index"
	"github.com/go-chi/chi/v5"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}

// handleHealth reports service liveness.
func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListBaselines lists all baseline records, from the index when
// enabled, otherwise by scanning the baseline directory.
func (s *server) handleListBaselines(w http.ResponseWriter, r *http.Request) {
	if s.indexStore != nil {
		baselines, err := s.indexStore.ListBaselines(r.Context())
		if err != nil {
			s.log.WithError(err).Error("Failed to list indexed baselines")
			writeJSON(w, http.StatusInternalServerError,
				errorResponse{"listing baselines failed"})

			return
		}

		writeJSON(w, http.StatusOK, baselines)

		return
	}

	entries, err := s.baselines.LoadWindow(time.Time{})
	if err != nil {
		s.log.WithError(err).Error("Failed to scan baseline directory")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"listing baselines failed"})

		return
	}

	baselines := make([]index.Baseline, 0, len(entries))
	for _, e := range entries {
		baselines = append(baselines, index.Baseline{
			File:           e.Record.File,
			Tag:            e.Record.Tag,
			CapturedAt:     e.Record.CapturedAt,
			BenchmarkCount: len(e.Snapshot),
		})
	}

	writeJSON(w, http.StatusOK, baselines)
}

// handleGetBaseline returns the validated snapshot of a single record.
func (s *server) handleGetBaseline(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")

	if !validBaselineName(file) {
		writeJSON(w, http.StatusNotFound, errorResponse{"unknown baseline"})

		return
	}

	snap, err := s.baselines.LoadValidated(file)
	if err != nil {
		writeJSON(w, http.StatusNotFound,
			errorResponse{"baseline not found or invalid"})

		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// handleCompare compares the current criterion results (or a named
// record) against a baseline record (default: latest).
func (s *server) handleCompare(w http.ResponseWriter, r *http.Request) {
	threshold := s.cfg.Analysis.Threshold

	if v := r.URL.Query().Get("threshold"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest,
				errorResponse{"invalid threshold"})

			return
		}

		threshold = parsed
	}

	current, ok := s.currentSnapshot(w, r)
	if !ok {
		return
	}

	baseFile := r.URL.Query().Get("baseline")
	if baseFile == "" {
		baseFile = baseline.LatestAlias
	} else if !validBaselineName(baseFile) {
		writeJSON(w, http.StatusNotFound, errorResponse{"unknown baseline"})

		return
	}

	base, err := s.baselines.Load(baseFile)
	if err != nil {
		s.log.WithError(err).Error("Failed to load baseline")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"loading baseline failed"})

		return
	}

	if len(base) == 0 {
		writeJSON(w, http.StatusNotFound,
			errorResponse{"no baseline found for comparison"})

		return
	}

	writeJSON(w, http.StatusOK, analysis.Compare(current, base, threshold))
}

// currentSnapshot resolves the "current" side of a comparison: a named
// record when ?current= is given, otherwise a fresh criterion extraction.
func (s *server) currentSnapshot(
	w http.ResponseWriter, r *http.Request,
) (baseline.Snapshot, bool) {
	if file := r.URL.Query().Get("current"); file != "" {
		if !validBaselineName(file) {
			writeJSON(w, http.StatusNotFound, errorResponse{"unknown baseline"})

			return nil, false
		}

		snap, err := s.baselines.LoadValidated(file)
		if err != nil {
			writeJSON(w, http.StatusNotFound,
				errorResponse{"baseline not found or invalid"})

			return nil, false
		}

		return snap, true
	}

	snap, err := s.extractor.Extract()
	if err != nil {
		s.log.WithError(err).Error("Failed to extract criterion results")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"extracting current results failed"})

		return nil, false
	}

	if len(snap) == 0 {
		writeJSON(w, http.StatusNotFound,
			errorResponse{"no current benchmark results found"})

		return nil, false
	}

	return snap, true
}

// handleTrends runs trend analysis over the lookback window.
func (s *server) handleTrends(w http.ResponseWriter, r *http.Request) {
	days := s.cfg.Analysis.TrendWindowDays

	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{"invalid days"})

			return
		}

		days = parsed
	}

	since := time.Now().UTC().AddDate(0, 0, -days)

	entries, err := s.baselines.LoadWindow(since)
	if err != nil {
		s.log.WithError(err).Error("Failed to load baseline window")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"loading baseline history failed"})

		return
	}

	rep, err := analysis.AnalyzeTrends(entries, days)
	if err != nil {
		if errors.Is(err, analysis.ErrInsufficientHistory) {
			writeJSON(w, http.StatusUnprocessableEntity,
				errorResponse{err.Error()})

			return
		}

		s.log.WithError(err).Error("Trend analysis failed")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"trend analysis failed"})

		return
	}

	writeJSON(w, http.StatusOK, rep)
}

// validBaselineName accepts the latest alias or a well-formed record
// filename. Path separators are never valid, so records outside the
// baseline directory cannot be addressed.
func validBaselineName(file string) bool {
	if strings.ContainsAny(file, "/\\") {
		return false
	}

	if file == baseline.LatestAlias {
		return true
	}

	_, ok := baseline.ParseFilename(file)

	return ok
}

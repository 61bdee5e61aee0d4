package main

import (
	"log/slog"
	"net/http"

	"github.com/CTAG07/Sundew/pkg/manifest"
)

// StatsAPI holds the dependencies for the build and manifest handlers.
type StatsAPI struct {
	store  *manifest.Store
	worker *buildWorker
	logger *slog.Logger
}

// NewStatsAPI creates a new instance of the StatsAPI. store may be nil when
// the manifest is disabled.
func NewStatsAPI(store *manifest.Store, worker *buildWorker, logger *slog.Logger) *StatsAPI {
	return &StatsAPI{
		store:  store,
		worker: worker,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for the build and manifest endpoints.
func (s *StatsAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/rebuild", s.handleRebuild)
	mux.HandleFunc("/api/build", s.handleBuildStatus)
	mux.HandleFunc("/api/manifest", s.handleSummary)
	mux.HandleFunc("/api/manifest/outputs", s.handleOutputs)
}

// handleRebuild runs a build and returns its report.
func (s *StatsAPI) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	report, err := s.worker.BuildNow(r.Context())
	if err != nil {
		respondWithJSON(w, http.StatusInternalServerError, BuildStatus{Report: report, Error: err.Error()})
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

func (s *StatsAPI) handleBuildStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	respondWithJSON(w, http.StatusOK, s.worker.Status())
}

// handleSummary returns the manifest summary, including the last build.
func (s *StatsAPI) handleSummary(w http.ResponseWriter, r *http.Request) {
	if !s.checkManifest(w, r) {
		return
	}
	sum, err := s.store.Summary(r.Context())
	if err != nil {
		s.logger.Error("Failed to get manifest summary", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve manifest summary")
		return
	}
	respondWithJSON(w, http.StatusOK, sum)
}

// handleOutputs lists every output recorded in the manifest.
func (s *StatsAPI) handleOutputs(w http.ResponseWriter, r *http.Request) {
	if !s.checkManifest(w, r) {
		return
	}
	outputs, err := s.store.Outputs(r.Context())
	if err != nil {
		s.logger.Error("Failed to list manifest outputs", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve manifest outputs")
		return
	}
	if outputs == nil {
		outputs = []manifest.Output{}
	}
	respondWithJSON(w, http.StatusOK, outputs)
}

func (s *StatsAPI) checkManifest(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	if s.store == nil {
		respondWithError(w, http.StatusNotFound, "Manifest is disabled")
		return false
	}
	return true
}

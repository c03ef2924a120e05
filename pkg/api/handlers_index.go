package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ethpandaops/smbench/pkg/indexstore"
)

// handleIndex returns the run catalog, optionally filtered by status and
// vendor label.
func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	filter := indexstore.ListFilter{
		Status: r.URL.Query().Get("status"),
		Vendor: r.URL.Query().Get("vendor"),
	}

	runs, err := s.indexStore.ListRuns(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"listing runs: " + err.Error()})

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"generated": time.Now().Unix(),
		"entries":   runs,
	})
}

// handleIndexRun returns the catalog entry of one run.
func (s *server) handleIndexRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.indexStore.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"getting run: " + err.Error()})

		return
	}

	if run == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{"run not indexed"})

		return
	}

	writeJSON(w, http.StatusOK, run)
}

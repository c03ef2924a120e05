package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ethpandaops/smbench/pkg/compare"
)

type createSessionRequest struct {
	Selected []string `json:"selected,omitempty"`
	Query    string   `json:"query,omitempty"`
	Width    float64  `json:"width,omitempty"`
}

type sessionResponse struct {
	ID   string       `json:"id"`
	View compare.View `json:"view"`
}

type toggleRequest struct {
	RunID string `json:"run_id"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type layoutRequest struct {
	Width float64 `json:"width"`
}

// handleCreateSession starts a compare session over the published runs.
func (s *server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})

		return
	}

	if req.Width < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{"width must not be negative"})

		return
	}

	doc, err := s.source.Compare(r.Context())
	if err != nil {
		s.writeDatasetError(w, err)

		return
	}

	session := compare.NewSession(doc.Runs, doc.Categories,
		compare.WithResolver(s.resolver),
		compare.WithSelection(req.Selected...),
		compare.WithQuery(req.Query),
		compare.WithLayoutWidth(req.Width),
	)

	id, view, err := s.sessions.Add(session)
	if err != nil {
		s.log.WithError(err).Error("Failed to register compare session")
		writeJSON(w, http.StatusInternalServerError, errorResponse{"internal error"})

		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{ID: id, View: view})
}

// withSession runs fn on the session named in the URL and writes the
// resulting view.
func (s *server) withSession(w http.ResponseWriter, r *http.Request, fn func(*compare.Session)) {
	id := chi.URLParam(r, "id")

	view, ok := s.sessions.Update(id, fn)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{"session not found"})

		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{ID: id, View: view})
}

// handleGetSession returns the current view of a session.
func (s *server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(*compare.Session) {})
}

// handleToggle adds or removes a run from the selection.
func (s *server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})

		return
	}

	if req.RunID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{"run_id is required"})

		return
	}

	s.withSession(w, r, func(session *compare.Session) {
		session.Toggle(req.RunID)
	})
}

// handleSearch replaces the run list filter.
func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})

		return
	}

	s.withSession(w, r, func(session *compare.Session) {
		session.SetSearchQuery(req.Query)
	})
}

// handleLayout records the measured overall grid width.
func (s *server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})

		return
	}

	if req.Width < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{"width must not be negative"})

		return
	}

	s.withSession(w, r, func(session *compare.Session) {
		session.SetLayoutWidth(req.Width)
	})
}

// handleDeleteSession tears a session down.
func (s *server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(chi.URLParam(r, "id")) {
		writeJSON(w, http.StatusNotFound, errorResponse{"session not found"})

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

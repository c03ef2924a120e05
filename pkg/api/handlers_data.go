package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ethpandaops/smbench/pkg/aggregate"
	"github.com/ethpandaops/smbench/pkg/pager"
)

type caseGroupResponse struct {
	Name    string       `json:"name"`
	Counts  pager.Counts `json:"counts"`
	Total   int          `json:"total"`
	State   string       `json:"state"`
	HasMore bool         `json:"has_more"`
	Cases   []pager.Case `json:"cases"`
}

type runResponse struct {
	aggregate.RunView
	Groups []caseGroupResponse `json:"groups"`
}

func newRunResponse(view aggregate.RunView) runResponse {
	resp := runResponse{
		RunView: view,
		Groups:  []caseGroupResponse{},
	}

	for _, g := range view.Cases.Groups() {
		resp.Groups = append(resp.Groups, caseGroupResponse{
			Name:    g.Name,
			Counts:  g.Counts,
			Total:   g.Pager.Total(),
			State:   g.Pager.State().String(),
			HasMore: g.Pager.HasMore(),
			Cases:   g.Visible(),
		})
	}

	return resp
}

// handleLeaderboard returns the ranked runs and the top-runs chart.
func (s *server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	doc, err := s.source.Leaderboard(r.Context())
	if err != nil {
		s.writeDatasetError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, aggregate.BuildLeaderboard(doc.Runs, s.resolver))
}

// handleRun returns the run page view model. ?reveal=<category> shows
// every case of that category.
func (s *server) handleRun(w http.ResponseWriter, r *http.Request) {
	view, err := s.loadRunView(r, chi.URLParam(r, "id"))
	if err != nil {
		s.writeDatasetError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, newRunResponse(view))
}

// loadRunView loads run id and applies the reveal query parameter.
func (s *server) loadRunView(r *http.Request, id string) (aggregate.RunView, error) {
	doc, err := s.source.Run(r.Context(), id)
	if err != nil {
		return aggregate.RunView{}, err
	}

	view := aggregate.BuildRun(doc, s.resolver)

	if reveal := r.URL.Query().Get("reveal"); reveal != "" {
		view.Cases.RevealGroup(reveal)
	}

	return view, nil
}

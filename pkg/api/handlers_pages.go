package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ethpandaops/smbench/pkg/aggregate"
	"github.com/ethpandaops/smbench/pkg/compare"
	"github.com/ethpandaops/smbench/pkg/dataset"
	"github.com/ethpandaops/smbench/pkg/render"
)

// writeHTML renders a page into a buffer and writes it with status. A
// failing render yields a plain 500.
func (s *server) writeHTML(w http.ResponseWriter, status int, renderFn func(io.Writer) error) {
	var buf bytes.Buffer

	if err := renderFn(&buf); err != nil {
		s.log.WithError(err).Error("Failed to render page")
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	_, _ = buf.WriteTo(w)
}

// writeUnavailable renders the placeholder of a page whose data could not
// be loaded.
func (s *server) writeUnavailable(w http.ResponseWriter, pageName string, err error) {
	s.log.WithError(err).WithField("page", pageName).Warn("Page data unavailable")

	s.writeHTML(w, http.StatusOK, func(out io.Writer) error {
		return s.renderer.Unavailable(out, pageName)
	})
}

// handleLeaderboardPage renders the leaderboard.
func (s *server) handleLeaderboardPage(w http.ResponseWriter, r *http.Request) {
	doc, err := s.source.Leaderboard(r.Context())
	if err != nil {
		s.writeUnavailable(w, render.PageLeaderboard, err)

		return
	}

	view := aggregate.BuildLeaderboard(doc.Runs, s.resolver)

	s.writeHTML(w, http.StatusOK, func(out io.Writer) error {
		return s.renderer.Leaderboard(out, view)
	})
}

// handleComparePage renders a compare page view. The selection comes from
// repeated run parameters, the filter from q and the grid width from
// width.
func (s *server) handleComparePage(w http.ResponseWriter, r *http.Request) {
	doc, err := s.source.Compare(r.Context())
	if err != nil {
		s.writeUnavailable(w, render.PageCompare, err)

		return
	}

	query := r.URL.Query()

	var width float64
	if v := query.Get("width"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			width = parsed
		}
	}

	session := compare.NewSession(doc.Runs, doc.Categories,
		compare.WithResolver(s.resolver),
		compare.WithSelection(query["run"]...),
		compare.WithQuery(query.Get("q")),
		compare.WithLayoutWidth(width),
	)
	defer session.Close()

	view := session.View()

	s.writeHTML(w, http.StatusOK, func(out io.Writer) error {
		return s.renderer.Compare(out, view)
	})
}

// handleRunPage renders a run detail page for /run/{id} and
// /run/{id}.html.
func (s *server) handleRunPage(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(chi.URLParam(r, "id"), ".html")

	view, err := s.loadRunView(r, id)

	switch {
	case errors.Is(err, dataset.ErrNotFound), errors.Is(err, dataset.ErrInvalidRunID):
		s.writeHTML(w, http.StatusNotFound, s.renderer.RunNotFound)
	case err != nil:
		s.writeUnavailable(w, render.PageRun, err)
	default:
		s.writeHTML(w, http.StatusOK, func(out io.Writer) error {
			return s.renderer.Run(out, view)
		})
	}
}

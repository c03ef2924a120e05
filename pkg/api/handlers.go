package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ethpandaops/smbench/pkg/dataset"
	"github.com/ethpandaops/smbench/pkg/storage"
)

// maxRequestBody caps JSON request bodies.
const maxRequestBody = 1 << 20

// errorResponse is a standard error payload.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}

// readJSON decodes a bounded request body into v. An empty body leaves v
// untouched.
func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding request body: %w", err)
	}

	return nil
}

// writeDatasetError maps a dataset error to a JSON error response.
func (s *server) writeDatasetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dataset.ErrInvalidRunID):
		writeJSON(w, http.StatusBadRequest, errorResponse{"invalid run id"})
	case errors.Is(err, dataset.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{"not found"})
	default:
		s.log.WithError(err).Warn("Failed to load data")
		writeJSON(w, http.StatusInternalServerError, errorResponse{"unable to load data"})
	}
}

// handleHealth returns server health status.
func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleConfig returns the public site and feature configuration.
func (s *server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	backend := "local"
	if s.cfg.Storage.S3.Enabled {
		backend = "s3"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"site": map[string]any{
			"title":     s.cfg.Site.Title,
			"base_path": s.cfg.Site.BasePath,
		},
		"storage": map[string]any{
			"backend": backend,
		},
		"indexing": map[string]any{
			"enabled": s.indexStore != nil,
		},
		"compare": map[string]any{
			"session_ttl":  s.cfg.Compare.SessionTTL.String(),
			"max_sessions": s.cfg.Compare.MaxSessions,
		},
		"logos": map[string]any{
			"enabled": s.logoServer != nil,
		},
	})
}

// isDocumentPath reports whether filePath names runs.json or a run
// document with a valid id.
func isDocumentPath(filePath string) bool {
	if filePath == storage.RunsFile {
		return true
	}

	name, ok := strings.CutPrefix(filePath, storage.RunsDir+"/")
	if !ok {
		return false
	}

	id, ok := strings.CutSuffix(name, ".json")

	return ok && dataset.ValidRunID(id)
}

// handleFileRequest serves a raw document from local storage or redirects
// to a presigned S3 URL, depending on the configured backend.
func (s *server) handleFileRequest(w http.ResponseWriter, r *http.Request) {
	filePath := chi.URLParam(r, "*")
	if !isDocumentPath(filePath) {
		writeJSON(w, http.StatusNotFound, errorResponse{"file not found"})

		return
	}

	if s.dataServer != nil {
		if err := s.dataServer.ServeFile(w, r, filePath); err != nil {
			writeJSON(w, http.StatusNotFound, errorResponse{"file not found"})
		}

		return
	}

	if s.presigner != nil {
		url, err := s.presigner.GeneratePresignedURL(r.Context(), filePath)
		if err != nil {
			s.log.WithError(err).
				WithField("path", filePath).
				Warn("Failed to generate presigned URL")

			writeJSON(w, http.StatusForbidden,
				errorResponse{"path not allowed or presign failed"})

			return
		}

		// redirect=true lets plain links and curl -L download directly.
		if r.URL.Query().Get("redirect") == "true" {
			http.Redirect(w, r, url, http.StatusFound)

			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"url": url})

		return
	}

	writeJSON(w, http.StatusNotFound, errorResponse{"storage not configured"})
}

// handleLogo serves a vendor logo file.
func (s *server) handleLogo(w http.ResponseWriter, r *http.Request) {
	if err := s.logoServer.ServeFile(w, r, chi.URLParam(r, "*")); err != nil {
		http.NotFound(w, r)
	}
}

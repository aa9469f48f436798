package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/vitrine-io/vitrine/internal/pkg/httputil"
	"github.com/vitrine-io/vitrine/internal/pkg/metrics"
	"github.com/vitrine-io/vitrine/internal/releaseserver/core"
	apiv1 "github.com/vitrine-io/vitrine/pkg/api/v1"
	"github.com/vitrine-io/vitrine/pkg/log"
)

// handleVersion serves the version document. Every response forbids caching: a cached
// document would hide new builds from the storefronts.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	httputil.NoStore(w)

	doc, err := s.store.Load(r.Context())
	switch {
	case errors.Is(err, core.ErrNotPublished):
		metrics.VersionServedTotal.WithLabelValues("4xx").Inc()
		httputil.WriteError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		metrics.VersionServedTotal.WithLabelValues("5xx").Inc()
		log.FromContext(r.Context()).Error(err, "Failed to load version document")
		httputil.WriteError(w, http.StatusServiceUnavailable, "version document unavailable")
		return
	}

	metrics.VersionServedTotal.WithLabelValues("2xx").Inc()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(doc)
	}
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req apiv1.PublishRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid publish request: "+err.Error())
			return
		}
	}

	release, err := s.publisher.Publish(r.Context(), req.Build)
	if err != nil {
		log.FromContext(r.Context()).Error(err, "Publish failed", "build", req.Build)
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, apiv1.PublishResponse{
		Version:    release.Version,
		Build:      release.Build,
		Descriptor: release.Descriptor,
	})
}

// handleReady reports ready once a document is published and loadable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.Load(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

package http

import (
	"net/http"

	"github.com/vitrine-io/vitrine/internal/pkg/httputil"
	"github.com/vitrine-io/vitrine/internal/updatecheck"
	"github.com/vitrine-io/vitrine/pkg/log"
)

type probeResponse struct {
	Outcome    string                 `json:"outcome"`
	Descriptor updatecheck.Descriptor `json:"descriptor,omitempty"`
	Previous   updatecheck.Descriptor `json:"previous,omitempty"`
	Notified   bool                   `json:"notified"`
	Error      string                 `json:"error,omitempty"`
}

// handleReady reports ready once the poll loop runs.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.svc.Status().Polling {
		http.Error(w, "version polling not running", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.NoStore(w)
	httputil.WriteJSON(w, http.StatusOK, s.svc.Status())
}

// handleNotice returns the notice a local shell should display, or 204 when there is none.
func (s *Server) handleNotice(w http.ResponseWriter, r *http.Request) {
	httputil.NoStore(w)
	if s.board == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	notice, ok := s.board.Visible()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, notice)
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Acknowledge(r.Context()); err != nil {
		log.FromContext(r.Context()).Error(err, "Acknowledge failed")
		httputil.WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s.svc.Status())
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	res := s.svc.ProbeOnce(r.Context())

	resp := probeResponse{
		Outcome:    res.Outcome.String(),
		Descriptor: res.Descriptor,
		Previous:   res.Previous,
		Notified:   res.Notified,
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	httputil.NoStore(w)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

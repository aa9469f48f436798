package http

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vitrine-io/vitrine/internal/pkg/metrics"
	"github.com/vitrine-io/vitrine/internal/pkg/middleware"
	"github.com/vitrine-io/vitrine/internal/updateagent/core"
	"github.com/vitrine-io/vitrine/pkg/log"
	"github.com/vitrine-io/vitrine/pkg/options"
)

// Server is the agent's local HTTP surface: probes, introspection and the acknowledge ingress.
type Server struct {
	server  *http.Server
	options *options.HttpOptions
	svc     core.UpdateService
	board   core.NoticeBoard
	logger  log.Logger
}

// NewServer wires the routes. board is nil when the board sink is disabled; the notice
// endpoint then always answers 204.
func NewServer(opts *options.HttpOptions, svc core.UpdateService, board core.NoticeBoard) *Server {
	s := &Server{
		options: opts,
		svc:     svc,
		board:   board,
		logger:  log.WithName("http"),
	}

	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.routes(),
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Recover(s.logger), middleware.Logging(s.logger))

	// Basic Liveness Probe
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1/update").Subrouter()
	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/notice", s.handleNotice).Methods(http.MethodGet)
	v1.HandleFunc("/acknowledge", s.handleAcknowledge).Methods(http.MethodPost)
	v1.HandleFunc("/probe", s.handleProbe).Methods(http.MethodPost)

	return r
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen(s.options.Network, s.options.Addr)
	if err != nil {
		return err
	}
	log.Info("Starting HTTP Server", "addr", lis.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

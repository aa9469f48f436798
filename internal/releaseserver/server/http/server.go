package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/vitrine-io/vitrine/internal/pkg/metrics"
	"github.com/vitrine-io/vitrine/internal/pkg/middleware"
	"github.com/vitrine-io/vitrine/internal/releaseserver/core"
	"github.com/vitrine-io/vitrine/pkg/log"
	"github.com/vitrine-io/vitrine/pkg/options"
)

// Server serves the version document and the publish endpoint.
type Server struct {
	server    *http.Server
	options   *options.HttpOptions
	release   *options.ReleaseOptions
	store     core.Store
	publisher *core.Publisher
	logger    log.Logger
}

func NewServer(opts *options.HttpOptions, release *options.ReleaseOptions, store core.Store, publisher *core.Publisher) *Server {
	s := &Server{
		options:   opts,
		release:   release,
		store:     store,
		publisher: publisher,
		logger:    log.WithName("http"),
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

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc(s.release.ServePath, s.handleVersion).Methods(http.MethodGet, http.MethodHead)
	r.Handle("/v1/releases", s.requireToken(http.HandlerFunc(s.handlePublish))).Methods(http.MethodPost)

	return r
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// requireToken checks the bearer token when one is configured.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := s.release.PublishToken
		if want != "" {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen(s.options.Network, s.options.Addr)
	if err != nil {
		return err
	}
	log.Info("Starting HTTP Server", "addr", lis.Addr().String(), "versionPath", s.release.ServePath)

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

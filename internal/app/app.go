// Package app assembles the HTTP API server: storage, routes, and the
// serve/shutdown lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/louisbranch/taskhub/internal/api/rest"
	"github.com/louisbranch/taskhub/internal/platform/timeouts"
	"github.com/louisbranch/taskhub/internal/storage/sqlite"
)

// Config defines the inputs for the API server.
type Config struct {
	// Addr is the address to listen on, e.g. ":8080".
	Addr string
	// DBPath is the SQLite database file path.
	DBPath string
}

// Server hosts the HTTP API.
type Server struct {
	addr       string
	httpServer *http.Server
	store      *sqlite.Store
}

// New opens the store and assembles the server's routes.
func New(config Config) (*Server, error) {
	store, err := sqlite.Open(config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	mux := http.NewServeMux()
	rest.NewTaskService(store, nil, nil).RegisterRoutes(mux)
	rest.NewUserService(store, nil, nil).RegisterRoutes(mux)
	rest.NewOrganizationService(store, store, store, nil, nil).RegisterRoutes(mux)
	rest.NewInvitationService(store, store, nil, nil).RegisterRoutes(mux)
	mux.HandleFunc("GET /up", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return &Server{
		addr: config.Addr,
		httpServer: &http.Server{
			Addr:              config.Addr,
			Handler:           mux,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		store: store,
	}, nil
}

// ListenAndServe runs the HTTP server until the context ends.
//
// On cancellation, it performs a bounded shutdown so in-flight requests
// are drained before hard close.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("api listening on %s", s.addr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases the resources held by the server.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		log.Printf("close store: %v", err)
	}
}

// Handler exposes the assembled routes for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

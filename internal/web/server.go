// Package web provides the JSON HTTP API for follow-ups and members.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/evcraddock/shepherd/internal/followup"
	"github.com/evcraddock/shepherd/internal/logging"
	"github.com/evcraddock/shepherd/internal/member"
)

// shutdownTimeout bounds how long in-flight requests get after the server
// context is cancelled.
const shutdownTimeout = 5 * time.Second

// Server is the HTTP API server.
type Server struct {
	followups *followup.Service
	members   *member.Repository
	mux       *http.ServeMux
	handler   http.Handler
}

// NewServer creates an API server over the given service and member directory.
func NewServer(followups *followup.Service, members *member.Repository) *Server {
	s := &Server{
		followups: followups,
		members:   members,
		mux:       http.NewServeMux(),
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/followups", s.handleAPIFollowUps)
	s.mux.HandleFunc("/api/followups/", s.handleAPIFollowUps)
	s.mux.HandleFunc("/api/members", s.handleAPIMembers)
	s.mux.HandleFunc("/api/members/", s.handleAPIMembers)

	s.handler = logging.RequestLogger(s.mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

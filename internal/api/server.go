package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"scribe/internal/config"
	"scribe/internal/jobs"
	"scribe/internal/logging"
	"scribe/internal/services"
)

// HealthResponse is the payload of GET /api/health.
type HealthResponse struct {
	Status     string      `json:"status"`
	LedgerPath string      `json:"ledger_path"`
	Stats      *jobs.Stats `json:"stats,omitempty"`
}

// JobListResponse is the payload of GET /api/jobs.
type JobListResponse struct {
	Jobs []*jobs.Record `json:"jobs"`
}

// JobResponse is the payload of GET /api/jobs/{name}.
type JobResponse struct {
	Job *jobs.Record `json:"job"`
}

// Server exposes the ledger over HTTP.
type Server struct {
	bind   string
	token  string
	store  *jobs.Store
	logger *slog.Logger

	listener net.Listener
	server   *http.Server
}

// NewServer builds an unstarted server from configuration.
func NewServer(cfg *config.Config, store *jobs.Store, logger *slog.Logger) (*Server, error) {
	bind := strings.TrimSpace(cfg.API.Bind)
	if bind == "" {
		return nil, services.Wrap(services.ErrConfiguration, "api", "new",
			"api.bind is not configured", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	srv := &Server{
		bind:   bind,
		token:  strings.TrimSpace(cfg.API.Token),
		store:  store,
		logger: logger.With(logging.String(logging.FieldComponent, "api-server")),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", srv.auth(srv.handleHealth))
	mux.HandleFunc("GET /api/jobs", srv.auth(srv.handleJobs))
	mux.HandleFunc("GET /api/jobs/{name}", srv.auth(srv.handleJob))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Start binds the listener and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr returns the bound address after Start.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// auth validates bearer tokens when one is configured; otherwise requests
// pass through.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	if s.token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") || strings.TrimPrefix(header, "Bearer ") != s.token {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		LedgerPath: s.store.Path(),
		Stats:      stats,
	})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	var statuses []jobs.Status
	for _, value := range r.URL.Query()["status"] {
		status, err := jobs.ParseStatus(value)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		statuses = append(statuses, status)
	}

	records, err := s.store.ListByStatus(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, JobListResponse{Jobs: records})
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "missing job name")
		return
	}
	rec, err := s.store.GetByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, JobResponse{Job: rec})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// Package api implements the HTTP surface for the desk agent.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/creditdesk/desk-agent/internal/agent"
	"github.com/creditdesk/desk-agent/internal/buildinfo"
	"github.com/creditdesk/desk-agent/internal/llm"
	"github.com/creditdesk/desk-agent/internal/metrics"
	"github.com/creditdesk/desk-agent/internal/taskstore"
)

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Server is the HTTP API server.
type Server struct {
	listen     string
	controller *agent.Controller
	engine     llm.Client
	tasks      *taskstore.Store
	logger     *slog.Logger
	server     *http.Server
}

// NewServer creates the API server. listen is a host:port address.
func NewServer(listen string, controller *agent.Controller, engine llm.Client, tasks *taskstore.Store, logger *slog.Logger) *Server {
	return &Server{
		listen:     listen,
		controller: controller,
		engine:     engine,
		tasks:      tasks,
		logger:     logger,
	}
}

// Start builds the mux and serves until the listener fails or Shutdown
// is called.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /ask", s.handleAsk)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.HandleFunc("GET /", s.handleRoot)

	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.DefaultRegistry, promhttp.HandlerOpts{}))

	s.server = &http.Server{
		Addr:         s.listen,
		Handler:      s.withLogging(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 600 * time.Second, // turns can span several model round trips
	}

	s.logger.Info("starting API server", "listen", s.listen)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"request_id", uuid.NewString(),
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

type askRequest struct {
	Message string `json:"message"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

// handleAsk runs one full agent turn. The response always carries a
// usable answer: blank input short-circuits to a placeholder without
// touching the controller, and any internal failure is folded into a
// backend-error envelope rather than an HTTP error.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, map[string]string{"error": "invalid JSON body"}, s.logger)
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, askResponse{Answer: "(no input)"}, s.logger)
		return
	}

	answer := s.runTurn(r.Context(), req.Message)
	writeJSON(w, askResponse{Answer: answer}, s.logger)
}

// runTurn invokes the controller with panic containment. The controller
// is designed to never fail, but a bug in a tool handler must not take
// down the request.
func (s *Server) runTurn(ctx context.Context, message string) (answer string) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("panic during turn", "panic", rec)
			answer = fmt.Sprintf("[backend error] %v", rec)
		}
	}()
	return s.controller.Run(ctx, message)
}

// handleHealth reports reachability of the reasoning engine and the
// task database. The endpoint itself always answers 200; degraded
// components are reported in the body.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	engineStatus := "healthy"
	if err := s.engine.Ping(ctx); err != nil {
		engineStatus = fmt.Sprintf("unreachable: %v", err)
	}

	dbStatus := "healthy"
	if s.tasks != nil {
		if _, err := s.tasks.Health(); err != nil {
			dbStatus = fmt.Sprintf("unhealthy: %v", err)
		}
	} else {
		dbStatus = "disabled"
	}

	writeJSON(w, map[string]string{
		"status": "ok",
		"engine": engineStatus,
		"db":     dbStatus,
	}, s.logger)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, buildinfo.Info(), s.logger)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"name":    "deskagent",
		"version": buildinfo.Version,
		"status":  "ok",
	}, s.logger)
}

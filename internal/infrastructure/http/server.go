// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/phuslu/log"

	"github.com/csadvisor/advisor-go/internal/domain/entities"
	"github.com/csadvisor/advisor-go/internal/domain/usecases"
)

// Asker answers advising questions. Satisfied by usecases.AskUseCase.
type Asker interface {
	Ask(ctx context.Context, req entities.AskRequest) (*entities.AskResponse, error)
}

// Server is the HTTP server for the advising API.
type Server struct {
	ask   Asker
	addr  string
	ready atomic.Bool
}

// NewServer creates a new HTTP server. The server starts not ready;
// call SetReady once the knowledge index is built.
func NewServer(ask Asker, addr string) *Server {
	return &Server{ask: ask, addr: addr}
}

// SetReady flips the readiness flag consulted by the ask handler.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Handler builds the routing tree with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/ask", s.handleAsk)
	mux.HandleFunc("/api/health", s.handleHealth)
	return corsMiddleware(loggingMiddleware(mux))
}

// Start runs the HTTP server until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	log.Info().Str("addr", s.addr).Msg("advisor server starting")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type askRequest struct {
	Question  string  `json:"question"`
	SessionID *string `json:"session_id"`
}

type askResponse struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleAsk processes one question turn.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if !s.ready.Load() {
		writeError(w, http.StatusServiceUnavailable, "knowledge index is still loading")
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sessionID := ""
	if req.SessionID != nil {
		sessionID = strings.TrimSpace(*req.SessionID)
	}

	resp, err := s.ask.Ask(r.Context(), entities.AskRequest{
		Question:  req.Question,
		SessionID: sessionID,
	})
	if err != nil {
		s.writeAskError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		Answer:    resp.Answer,
		SessionID: resp.SessionID,
	})
}

// writeAskError maps use case errors onto HTTP status codes. Upstream
// model details stay in the logs, not the response body.
func (s *Server) writeAskError(w http.ResponseWriter, err error) {
	var upstream *usecases.UpstreamError
	switch {
	case errors.Is(err, usecases.ErrEmptyQuestion):
		writeError(w, http.StatusBadRequest, "question must not be empty")
	case errors.Is(err, usecases.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, "knowledge index is still loading")
	case errors.As(err, &upstream):
		log.Error().Err(upstream.Err).Str("op", upstream.Op).Msg("upstream model failure")
		writeError(w, http.StatusBadGateway, "upstream model unavailable")
	default:
		log.Error().Err(err).Msg("ask failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// handleHealth returns server health status. Always ok while the
// process is serving; readiness gates /api/ask separately.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/parley-tui/internal/api"
)

const (
	// DefaultAddr matches the client's default base URL.
	DefaultAddr = "127.0.0.1:8000"

	// MaxMessageLength bounds a prompt in characters.
	MaxMessageLength = 32000

	// MaxHistoryPerUser bounds the stored turns per user.
	MaxHistoryPerUser = 200

	// Version is the server version.
	Version = "0.1.0"
)

// ============================================================================
// RESPONDER
// ============================================================================

// Responder produces the reply text for one prompt.
type Responder interface {
	Respond(ctx context.Context, req api.AskRequest) (string, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, req api.AskRequest) (string, error)

// Respond calls f.
func (f ResponderFunc) Respond(ctx context.Context, req api.AskRequest) (string, error) {
	return f(ctx, req)
}

// EchoResponder replies with the prompt.
var EchoResponder = ResponderFunc(func(ctx context.Context, req api.AskRequest) (string, error) {
	return "You said: " + req.Message, nil
})

// ============================================================================
// SERVER STATS
// ============================================================================

// Stats tracks request counters.
type Stats struct {
	TotalRequests   int64     `json:"total_requests"`
	AskRequests     int64     `json:"ask_requests"`
	HistoryRequests int64     `json:"history_requests"`
	Errors          int64     `json:"errors"`
	StartTime       time.Time `json:"start_time"`
}

type stats struct {
	total, ask, history, errors atomic.Int64
	start                       time.Time
}

func (s *stats) snapshot() Stats {
	return Stats{
		TotalRequests:   s.total.Load(),
		AskRequests:     s.ask.Load(),
		HistoryRequests: s.history.Load(),
		Errors:          s.errors.Load(),
		StartTime:       s.start,
	}
}

// ============================================================================
// SERVER
// ============================================================================

// Config configures a Server.
type Config struct {
	// Addr is the listen address. Empty uses DefaultAddr.
	Addr string

	// Responder produces replies. Nil uses EchoResponder.
	Responder Responder

	// Delay is added before every reply to mimic a slow backend.
	Delay time.Duration

	// RequestsPerSecond and Burst limit each client IP. Zero disables
	// the limit.
	RequestsPerSecond float64
	Burst             int

	CORS *CORSConfig
}

// Server is the development backend.
type Server struct {
	cfg    Config
	log    *zap.Logger
	router *http.ServeMux
	server *http.Server
	stats  stats

	mu      sync.Mutex
	closed  bool
	history map[string][]api.HistoryMessage
	now     func() time.Time
}

// New creates a Server. Routes are ready immediately; Start listens.
func New(cfg Config, log *zap.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Responder == nil {
		cfg.Responder = EchoResponder
	}
	if cfg.CORS == nil {
		cfg.CORS = DefaultCORSConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		cfg:     cfg,
		log:     log,
		router:  http.NewServeMux(),
		history: make(map[string][]api.HistoryMessage),
		now:     time.Now,
	}
	s.stats.start = s.now()
	s.setupRoutes()
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /ask", s.handleAsk)
	s.router.HandleFunc("GET /history/{user_id}", s.handleHistory)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /stats", s.handleStats)
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	middlewares := []func(http.Handler) http.Handler{
		RecoveryMiddleware(s.log),
		SecurityHeadersMiddleware(),
		CORSMiddleware(s.cfg.CORS),
		LoggingMiddleware(s.log),
	}
	if s.cfg.RequestsPerSecond > 0 {
		middlewares = append(middlewares,
			RateLimitMiddleware(NewRateLimiter(s.cfg.RequestsPerSecond, s.cfg.Burst)))
	}
	return Chain(middlewares...)(s.counting(s.router))
}

func (s *Server) counting(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.stats.total.Add(1)
		next.ServeHTTP(w, r)
	})
}

// ============================================================================
// ASK HANDLER
// ============================================================================

// askRequest mirrors api.AskRequest with a lenient user_id.
type askRequest struct {
	Message      string          `json:"message"`
	SystemPrompt string          `json:"system_prompt"`
	UserID       json.RawMessage `json:"user_id"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	s.stats.ask.Add(1)

	var body askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		s.writeError(w, http.StatusUnprocessableEntity, "message must not be empty")
		return
	}
	if len([]rune(body.Message)) > MaxMessageLength {
		s.writeError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("message exceeds %d characters", MaxMessageLength))
		return
	}
	userID, err := parseUserID(body.UserID)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if s.cfg.Delay > 0 {
		select {
		case <-time.After(s.cfg.Delay):
		case <-r.Context().Done():
			return
		}
	}

	req := api.AskRequest{Message: body.Message, SystemPrompt: body.SystemPrompt}
	if userID != "" {
		req.UserID = api.ParseUserID(userID)
	}
	reply, err := s.cfg.Responder.Respond(r.Context(), req)
	if err != nil {
		s.log.Warn("responder failed", zap.Error(err))
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	if userID != "" {
		s.record(userID, body.Message, reply)
	}
	s.writeJSON(w, http.StatusOK, api.AskResponse{Response: reply})
}

// parseUserID accepts a JSON integer, a numeric string or null.
func parseUserID(raw json.RawMessage) (string, error) {
	v := strings.TrimSpace(string(raw))
	if v == "" || v == "null" {
		return "", nil
	}
	v = strings.Trim(v, `"`)
	if _, err := strconv.ParseInt(v, 10, 64); err != nil {
		return "", errors.New("user_id must be an integer")
	}
	return v, nil
}

func (s *Server) record(userID, prompt, reply string) {
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	turns := append(s.history[userID],
		api.HistoryMessage{Role: "user", Content: prompt, Timestamp: api.Timestamp{Time: now}},
		api.HistoryMessage{Role: "assistant", Content: reply, Timestamp: api.Timestamp{Time: now}},
	)
	if len(turns) > MaxHistoryPerUser {
		turns = turns[len(turns)-MaxHistoryPerUser:]
	}
	s.history[userID] = turns
}

// ============================================================================
// HISTORY HANDLER
// ============================================================================

// historyMessage is the wire form of a stored turn.
type historyMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.stats.history.Add(1)

	userID := r.PathValue("user_id")
	if _, err := strconv.ParseInt(userID, 10, 64); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "user_id must be an integer")
		return
	}

	s.mu.Lock()
	stored := s.history[userID]
	out := make([]historyMessage, len(stored))
	for i, h := range stored {
		out[i] = historyMessage{Role: h.Role, Content: h.Content, Timestamp: h.Timestamp.Time}
	}
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"messages": out})
}

// Seed replaces the stored history of userID.
func (s *Server) Seed(userID string, turns []api.HistoryMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[userID] = append([]api.HistoryMessage(nil), turns...)
}

// ============================================================================
// HEALTH / STATS
// ============================================================================

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
		Uptime:  s.now().Sub(s.stats.start).Round(time.Second).String(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.stats.snapshot())
}

// Stats returns the request counters.
func (s *Server) Stats() Stats {
	return s.stats.snapshot()
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens on the configured address and blocks until Shutdown.
// It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.server = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	s.log.Info("server start", zap.String("addr", s.cfg.Addr), zap.String("version", Version))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server. A later Start returns nil
// without listening.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.log.Info("server shutdown", zap.Any("stats", s.stats.snapshot()))
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug("write response", zap.Error(err))
	}
}

// writeError writes an error in the backend's {"detail": ...} shape.
func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.stats.errors.Add(1)
	s.writeJSON(w, status, map[string]string{"detail": detail})
}

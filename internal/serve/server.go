// Package serve provides an HTTP server exposing the text pipeline as a
// REST API with websocket event streaming.
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/promptprep/promptprep/internal/chunk"
	"github.com/promptprep/promptprep/internal/detect"
	"github.com/promptprep/promptprep/internal/events"
	"github.com/promptprep/promptprep/internal/fault"
	"github.com/promptprep/promptprep/internal/format"
	"github.com/promptprep/promptprep/internal/sanitize"
	"github.com/promptprep/promptprep/internal/session"
	"github.com/promptprep/promptprep/internal/validate"
)

// Config holds server configuration.
type Config struct {
	Host       string
	Port       int
	Thresholds validate.Thresholds
	ChunkOpts  chunk.Options
	ChunkMode  chunk.Mode
	EventBus   *events.EventBus
	Counters   *session.Counters
	Store      *session.Store // optional, nil disables history
	SessionID  int64
}

const defaultPort = 8755

// Server serves the pipeline API.
type Server struct {
	host      string
	port      int
	th        validate.Thresholds
	chunkOpts chunk.Options
	chunkMode chunk.Mode
	formatter *format.Formatter
	eventBus  *events.EventBus
	emitter   *events.Emitter
	counters  *session.Counters
	store     *session.Store
	sessionID int64

	router chi.Router
	server *http.Server
}

func applyDefaults(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultPort
	}
	if cfg.Thresholds.MaxSafeSize == 0 {
		cfg.Thresholds = validate.DefaultThresholds()
	}
	if cfg.ChunkMode == "" {
		cfg.ChunkMode = chunk.ModeSmart
	}
	if cfg.EventBus == nil {
		cfg.EventBus = events.DefaultBus
	}
	if cfg.Counters == nil {
		cfg.Counters = session.NewCounters()
	}
}

// New creates a Server.
func New(cfg Config) *Server {
	applyDefaults(&cfg)
	s := &Server{
		host:      cfg.Host,
		port:      cfg.Port,
		th:        cfg.Thresholds,
		chunkOpts: cfg.ChunkOpts,
		chunkMode: cfg.ChunkMode,
		formatter: format.New(),
		eventBus:  cfg.EventBus,
		emitter:   events.NewEmitter(cfg.EventBus, 256),
		counters:  cfg.Counters,
		store:     cfg.Store,
		sessionID: cfg.SessionID,
	}
	s.router = s.buildRouter()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(s.recovererMiddleware)
	r.Use(s.loggingMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/events", s.handleEvents)

	r.Route("/api", func(r chi.Router) {
		r.Post("/validate", s.handleValidate)
		r.Post("/escape", s.handleEscape)
		r.Post("/chunk", s.handleChunk)
		r.Post("/detect", s.handleDetect)
		r.Post("/format", s.handleFormat)
		r.Get("/session", s.handleSession)
		r.Post("/session/reset", s.handleSessionReset)
	})

	return r
}

func (s *Server) recovererMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic in handler", "path", r.URL.Path, "panic", rec)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// Start runs the server until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // long-lived websocket streams at /events
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("starting server", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

// ========================
// Request/response types
// ========================

type textRequest struct {
	Text string `json:"text"`
}

type chunkRequest struct {
	Text    string `json:"text"`
	MaxSize int    `json:"max_size"`
	Mode    string `json:"mode"`
}

type formatRequest struct {
	Text   string `json:"text"`
	Format string `json:"format"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 10<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// ========================
// Handlers
// ========================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  "healthy",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := validate.Text(req.Text, s.th)
	if err != nil {
		writeFault(w, err)
		return
	}

	s.recordOperation("validate", len(req.Text), 0)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"report":  report,
	})
}

func (s *Server) handleEscape(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	escaped := sanitize.EscapeQuotes(req.Text)
	s.recordOperation("escapeQuotes", len(req.Text), 0)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"text":    escaped,
		"changed": escaped != req.Text,
	})
}

func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	var req chunkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	maxSize := req.MaxSize
	if maxSize <= 0 {
		maxSize = s.th.MaxSafeSize
	}
	mode := s.chunkMode
	if req.Mode != "" {
		var err error
		mode, err = chunk.ParseMode(req.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	chunks, err := chunk.Split(req.Text, maxSize, mode, s.chunkOpts)
	if err != nil {
		writeFault(w, err)
		return
	}

	// Chunking rebuilds the context sent to the assistant.
	s.counters.Refresh()
	s.recordOperation("chunk", len(req.Text), len(chunks))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"chunks":  chunkPayload(chunks),
		"count":   len(chunks),
	})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	match := detect.Detect(req.Text)
	s.recordOperation("detectLanguage", len(req.Text), 0)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"language":   match.Language,
		"confidence": match.Confidence,
	})
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	var req formatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mode, err := format.ParseMode(req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.formatter.Format(r.Context(), req.Text, mode)
	if err != nil {
		writeFault(w, err)
		return
	}

	s.recordOperation("formatOutput", len(req.Text), 0)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"text":    out,
		"format":  string(mode),
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	stats := s.counters.Snapshot()
	resp := map[string]interface{}{
		"success": true,
		"stats":   stats,
	}
	if s.store != nil {
		if ops, err := s.store.RecentOperations(s.sessionID, 20); err == nil {
			resp["recent_operations"] = ops
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	s.counters.Reset()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// chunkPayload shapes chunks for the wire, exposing the overlap prefix
// separately from the content.
func chunkPayload(chunks []chunk.Chunk) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, map[string]interface{}{
			"index":               c.Index,
			"content":             c.Content,
			"has_context_overlap": c.HasContextOverlap,
			"context_prefix":      c.ContextPrefix,
			"size":                len(c.Content),
		})
	}
	return out
}

func (s *Server) recordOperation(op string, charsIn, chunksOut int) {
	s.counters.RecordExchange()
	s.emitter.Operation(op, charsIn, chunksOut)
	if s.store != nil {
		if err := s.store.LogOperation(s.sessionID, op, charsIn, chunksOut); err != nil {
			slog.Warn("log operation failed", "op", op, "error", err)
		}
	}
}

// ========================
// Response helpers
// ========================

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// writeFault maps pipeline error kinds to HTTP status codes.
func writeFault(w http.ResponseWriter, err error) {
	var fe *fault.Error
	if !errors.As(err, &fe) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch fe.Kind {
	case fault.KindValidation, fault.KindConfiguration:
		status = http.StatusBadRequest
	case fault.KindProcessing:
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   fe.Error(),
		"kind":    string(fe.Kind),
		"code":    fe.Code,
	})
}

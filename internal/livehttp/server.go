package livehttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/MJE43/everything-launcher/internal/catalog"
	"github.com/MJE43/everything-launcher/internal/search"
)

// Controller is the shuffle search surface the API drives.
type Controller interface {
	Start() error
	Stop()
	GetState() search.Snapshot
}

// ItemLister lists catalog items.
type ItemLister interface {
	List(ctx context.Context, limit, offset int) ([]catalog.Item, int, error)
}

// Server runs the loopback status API.
type Server struct {
	ctrl         Controller
	items        ItemLister
	token        string
	addr         string
	httpServer   *http.Server
	logger       zerolog.Logger
	writeTimeout time.Duration
	readTimeout  time.Duration
}

// New creates a server bound to 127.0.0.1:port. token may be empty to
// disable token checks.
func New(ctrl Controller, items ItemLister, port int, token string, logger zerolog.Logger) *Server {
	return &Server{
		ctrl:         ctrl,
		items:        items,
		token:        token,
		addr:         fmt.Sprintf("127.0.0.1:%d", port),
		logger:       logger.With().Str("component", "livehttp").Logger(),
		writeTimeout: 10 * time.Second,
		readTimeout:  10 * time.Second,
	}
}

// Routes returns the API handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequest)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/shuffle/state", s.handleState)
		r.Post("/shuffle/start", s.handleStart)
		r.Post("/shuffle/stop", s.handleStop)
		r.Get("/items", s.handleItems)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errObj("METHOD_NOT_ALLOWED", "method not allowed"))
	})
	return r
}

// Start begins listening in a goroutine. It returns once the socket is bound.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.Routes(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("livehttp: listen %s: %w", s.addr, err)
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("serve failed")
		}
	}()
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// GET /shuffle/state
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.GetState())
}

// POST /shuffle/start
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Start(); err != nil {
		writeJSON(w, http.StatusInternalServerError, errObj("SERVER_ERROR", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.GetState())
}

// POST /shuffle/stop
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Stop()
	writeJSON(w, http.StatusOK, s.ctrl.GetState())
}

// GET /items?limit=&offset=
func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	limit := clampInt(qInt(r, "limit", catalog.DefaultListLimit), 1, catalog.MaxListLimit)
	offset := clampInt(qInt(r, "offset", 0), 0, 1_000_000)

	items, total, err := s.items.List(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("list items")
		writeJSON(w, http.StatusInternalServerError, errObj("SERVER_ERROR", "failed to list items"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"totalCount": total,
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.Header.Get("X-Launcher-Token") != s.token {
			writeJSON(w, http.StatusUnauthorized, errObj("UNAUTHORIZED", "missing or invalid X-Launcher-Token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errObj(code, msg string) map[string]any {
	return map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
		},
	}
}

func qInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

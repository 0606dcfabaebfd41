package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/fwojciec/linkmap"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// DefaultMaxRequestBytes caps the size of a decoded request body.
const DefaultMaxRequestBytes = 1 << 20

// ShutdownTimeout bounds graceful shutdown in ListenAndServe.
const ShutdownTimeout = 10 * time.Second

// RequestIDHeader carries the per-request identifier.
const RequestIDHeader = "X-Request-ID"

// Server exposes a LinksService over HTTP.
type Server struct {
	Links  linkmap.LinksService
	Logger *slog.Logger

	// Metrics serves GET /metrics when set.
	Metrics http.Handler
}

// NewServer creates a Server for links. A nil logger discards output.
func NewServer(links linkmap.LinksService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{Links: links, Logger: logger}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/links", s.handleLinks)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.Logger.Info("server listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.Logger.Debug("http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

func (s *Server) handleLinks(w http.ResponseWriter, r *http.Request) {
	var req linkmap.LinksRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, DefaultMaxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, linkmap.Errorf(linkmap.EINVALID, "decode request: %v", err))
		return
	}

	resp, err := s.Links.ProcessLinksRequest(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeError maps err to a status code. A target failure is reported with
// its full body, including any cached tree.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var linksErr *linkmap.LinksError
	if errors.As(err, &linksErr) {
		writeJSON(w, http.StatusBadGateway, linksErr)
		return
	}

	code := linkmap.ErrorCode(err)
	status := errorStatus(code)
	if code == linkmap.EINTERNAL {
		s.Logger.Error("links request failed",
			"request_id", w.Header().Get(RequestIDHeader),
			"path", r.URL.Path,
			"error", err)
	}
	writeJSON(w, status, errorResponse{Error: linkmap.ErrorMessage(err)})
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func errorStatus(code string) int {
	switch code {
	case linkmap.EINVALID:
		return http.StatusBadRequest
	case linkmap.ENOTFOUND:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

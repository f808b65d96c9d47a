package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"ADRFlow/internal/basket"
	"ADRFlow/internal/metrics"
	"ADRFlow/internal/model"
	"ADRFlow/internal/report"
)

// Problem is an RFC 7807 error body.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Render implements render.Renderer.
func (p *Problem) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, p.Status)
	return nil
}

func problem(status int, detail string) *Problem {
	return &Problem{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}

// Server exposes reports over a read-only JSON API.
type Server struct {
	builder *report.Builder
	def     *basket.Definition
	metrics *metrics.Metrics
	logger  *zap.Logger
	router  chi.Router
}

// New creates a Server and its routes.
func New(b *report.Builder, def *basket.Definition, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{builder: b, def: def, metrics: m, logger: logger.Named("http")}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(middleware.Timeout(2 * time.Minute))
		r.Get("/baskets", s.baskets)
		r.Get("/report", s.getReport)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) baskets(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.def)
}

// getReport serves GET /api/v1/report?date=YYYY-MM-DD[&compare=YYYY-MM-DD].
// With compare, compare is the earlier reference and date the later one.
func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	date := s.builder.Today()
	if v := q.Get("date"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			_ = render.Render(w, r, problem(http.StatusBadRequest, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", v)))
			return
		}
		date = d
	}
	dates := []time.Time{date}
	if v := q.Get("compare"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			_ = render.Render(w, r, problem(http.StatusBadRequest, fmt.Sprintf("invalid compare date %q, expected YYYY-MM-DD", v)))
			return
		}
		dates = []time.Time{d, date}
	}

	rep, err := s.builder.Build(r.Context(), dates...)
	switch {
	case errors.Is(err, model.ErrFutureDate):
		_ = render.Render(w, r, problem(http.StatusBadRequest, err.Error()))
		return
	case err != nil:
		s.logger.Error("build report failed", zap.Error(err))
		_ = render.Render(w, r, problem(http.StatusInternalServerError, err.Error()))
		return
	}
	render.JSON(w, r, rep)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

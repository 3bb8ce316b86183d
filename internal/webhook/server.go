package webhook

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/scholarbot/core/logger"
	"github.com/m3rciful/scholarbot/internal/config"
)

// Check is one dependency probed by /healthz.
type Check func(ctx context.Context) error

// Server hosts the webhook next to the bot poller.
type Server struct {
	srv    *http.Server
	checks map[string]Check
}

// NewServer wires routes for h. checks are probed by GET /healthz.
func NewServer(cfg config.HTTPConfig, h *Handler, checks map[string]Check) *Server {
	s := &Server{checks: checks}
	s.srv = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Routes(h),
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Routes builds the HTTP router.
func (s *Server) Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Post("/paystack/webhook", h.ServeHTTP)
	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			logger.Warn(ctx, logger.CompHTTP, "health.fail",
				slog.String("check", name),
				slog.String("err", err.Error()),
			)
			writeJSON(w, http.StatusServiceUnavailable, "error", name+" unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, "ok", "healthy")
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug(r.Context(), logger.CompHTTP, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("code", ww.Status()),
			slog.String("request_id", chimiddleware.GetReqID(r.Context())),
			slog.Duration("duration", logger.Took(start)),
		)
	})
}

// Start listens in the background. Bind errors are returned synchronously.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	logger.Info(ctx, logger.CompHTTP, "listen", slog.String("addr", ln.Addr().String()))
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), logger.CompHTTP, "serve.failed",
				slog.String("err", err.Error()),
			)
		}
	}()
	return nil
}

// Shutdown drains in-flight requests for at most 5s.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

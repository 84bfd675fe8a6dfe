package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"tush00nka/filehub/internal/handler"
)

type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

type Server struct {
	router  *mux.Router
	handler http.Handler
	log     *slog.Logger
}

func NewServer(log *slog.Logger, allowedOrigins []string, registrars ...RouteRegistrar) *Server {
	router := mux.NewRouter()

	// Routes
	for _, r := range registrars {
		r.RegisterRoutes(router)
	}

	// Настройка Swagger
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.NotFoundHandler = http.HandlerFunc(handler.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(handler.MethodNotAllowed)

	var h http.Handler = router
	h = handler.Recoverer(log)(h)
	h = handlers.CustomLoggingHandler(io.Discard, h, accessLog(log))
	h = middleware.RealIP(h)
	h = middleware.RequestID(h)
	h = handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With", "Apollo-Require-Preflight"}),
	)(h)

	return &Server{router: router, handler: h, log: log}
}

// accessLog пишет строку на каждый запрос через slog
func accessLog(log *slog.Logger) handlers.LogFormatter {
	return func(_ io.Writer, p handlers.LogFormatterParams) {
		log.Info("request",
			"method", p.Request.Method,
			"path", p.URL.Path,
			"status", p.StatusCode,
			"size", p.Size,
			"remote", p.Request.RemoteAddr,
			"request_id", middleware.GetReqID(p.Request.Context()),
			"duration_ms", time.Since(p.TimeStamp).Milliseconds(),
		)
	}
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully and calls
// onShutdown.
func (s *Server) Run(ctx context.Context, addr string, onShutdown func()) error {
	srv := &http.Server{
		Handler:           s.handler,
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if onShutdown != nil {
		onShutdown()
	}
	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.log.Info("server exited")
	return nil
}

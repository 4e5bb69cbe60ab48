package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/markdave123-py/resumex/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/resumex/internal/api/middlewares"
	"github.com/markdave123-py/resumex/internal/config"
	"github.com/markdave123-py/resumex/internal/logger"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *zap.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, svc handlers.ResumeService, log *zap.Logger) *Server {
	log = logger.OrNop(log)
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           NewRouter(cfg, svc, log),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// NewRouter returns the chi router serving the API and the static frontend.
func NewRouter(cfg *config.Config, svc handlers.ResumeService, log *zap.Logger) http.Handler {
	resumeHandler := handlers.NewResumeHandler(svc, cfg.MaxUploadMB, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger.OrNop(log).Named("http")))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	guard := appMiddleware.JWTMiddleware(cfg.JWTSecret)

	r.With(middleware.Timeout(handlers.UploadTimeout), guard).Post("/upload", resumeHandler.Upload)

	r.Group(func(g chi.Router) {
		g.Use(middleware.Timeout(handlers.RequestTimeout))

		g.Get("/healthz", resumeHandler.Healthz)
		g.Get("/search", resumeHandler.Search)
		g.Route("/candidates/{id}", func(c chi.Router) {
			c.Get("/", resumeHandler.GetCandidate)
			c.Get("/resume", resumeHandler.DownloadResume)
			c.With(guard).Post("/reparse", resumeHandler.Reparse)
		})

		// Serve static files from the web directory
		if cfg.StaticDir != "" {
			g.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
		}
	})

	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

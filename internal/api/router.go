// Package api exposes the question pipeline over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nalk-analytics/internal/common/logger"
	"nalk-analytics/internal/common/metrics"
	"nalk-analytics/internal/pipeline"
)

// Answerer is the pipeline as seen by the handlers.
type Answerer interface {
	Answer(ctx context.Context, question string) (*pipeline.Result, error)
}

// Pinger is a dependency checked by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PoolReporter is implemented by checks that expose connection pool usage.
type PoolReporter interface {
	PoolStats() map[string]interface{}
}

type Server struct {
	answerer       Answerer
	checks         map[string]Pinger
	allowedOrigins []string
	logger         logger.Logger
}

// NewServer builds the HTTP surface. checks may be empty.
func NewServer(answerer Answerer, checks map[string]Pinger, allowedOrigins []string, log logger.Logger) *Server {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return &Server{
		answerer:       answerer,
		checks:         checks,
		allowedOrigins: allowedOrigins,
		logger:         log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Post("/api/nalk-ai", s.handleQuestion)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

const requestIDHeader = "X-Request-ID"

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("request handled", map[string]interface{}{
			"requestId":  requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"durationMs": time.Since(start).Milliseconds(),
		})
	})
}

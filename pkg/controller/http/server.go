package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/usecase"
	"github.com/secmon-lab/safetyrisk/pkg/utils/logging"
)

// AnalysisUseCase is the subset of the use case layer served over HTTP
type AnalysisUseCase interface {
	Features() []model.SafetyFeature
	Analyze(ctx context.Context, req usecase.AnalysisRequest) (*usecase.AnalysisResult, error)
	Sensitivity(ctx context.Context, id model.RunID, req usecase.SensitivityRequest) (*model.SensitivityResult, error)
	GetRun(ctx context.Context, id model.RunID) (*model.Run, error)
	ListRuns(ctx context.Context) ([]*model.Run, error)
}

const (
	DefaultMaxSamples = 1_000_000
	DefaultMaxPoints  = 1_000
)

type Server struct {
	router       *chi.Mux
	analysis     AnalysisUseCase
	maxBodyBytes int64
	timeout      time.Duration
	maxSamples   int
	maxPoints    int
}

type Options func(*Server)

// WithMaxBodyBytes limits request body size (default 1 MiB)
func WithMaxBodyBytes(n int64) Options {
	return func(s *Server) {
		s.maxBodyBytes = n
	}
}

// WithTimeout bounds the time spent on one request (default 5 minutes)
func WithTimeout(d time.Duration) Options {
	return func(s *Server) {
		s.timeout = d
	}
}

// WithMaxSamples caps the Monte Carlo sample count of one request (default 1,000,000)
func WithMaxSamples(n int) Options {
	return func(s *Server) {
		s.maxSamples = n
	}
}

// WithMaxPoints caps the number of sensitivity points of one request (default 1,000)
func WithMaxPoints(n int) Options {
	return func(s *Server) {
		s.maxPoints = n
	}
}

func New(analysis AnalysisUseCase, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:       r,
		analysis:     analysis,
		maxBodyBytes: 1 << 20,
		timeout:      5 * time.Minute,
		maxSamples:   DefaultMaxSamples,
		maxPoints:    DefaultMaxPoints,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/features", s.featuresHandler)
		r.Route("/analyses", func(r chi.Router) {
			r.Post("/", s.createAnalysisHandler)
			r.Get("/", s.listAnalysesHandler)
			r.Get("/{id}", s.getAnalysisHandler)
			r.Post("/{id}/sensitivity", s.sensitivityHandler)
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := logging.Default().With("request_id", middleware.GetReqID(r.Context()))
		ctx := logging.With(r.Context(), logger)

		defer func() {
			logger.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r.WithContext(ctx))
	})
}

package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries the transport settings that come from config.
type RouterConfig struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// NewRouter mounts every endpoint behind the shared middleware stack.
func NewRouter(api *API, ws *WSHandler, auth *Authenticator, cfg RouterConfig, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(logger), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/api/quizzes/{quizID}/leaderboard", api.leaderboard)

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Get("/ws/quizzes/{quizID}/leaderboard", ws.ServeLeaderboard)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}

		r.Get("/api/quizzes/{quizID}/questions", api.listQuestions)
		r.Post("/api/quizzes/{quizID}/attempt", api.startAttempt)

		r.Get("/api/attempts/my-history", api.history)
		r.Get("/api/attempts/{attemptID}", api.getAttempt)
		r.Put("/api/attempts/{attemptID}/answer", api.saveAnswer)
		r.Post("/api/attempts/{attemptID}/submit", api.submitAttempt)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(RoleInstructor, RoleAdmin))
			r.Post("/api/quizzes", api.createQuiz)
			r.Put("/api/quizzes/{quizID}", api.updateQuiz)
			r.Put("/api/quizzes/{quizID}/publish", api.publishQuiz)
			r.Post("/api/quizzes/{quizID}/questions", api.createQuestion)
			r.Post("/api/quizzes/{quizID}/questions/bulk", api.bulkCreateQuestions)
			r.Put("/api/questions/{questionID}", api.updateQuestion)
			r.Delete("/api/questions/{questionID}", api.deleteQuestion)
		})

		r.With(RequireRole(RoleAdmin)).Delete("/api/quizzes/{quizID}", api.deleteQuiz)
	})
	return r
}

// requestLogger writes one slog record per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			level := slog.LevelInfo
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
				"remote", r.RemoteAddr,
			)
		})
	}
}

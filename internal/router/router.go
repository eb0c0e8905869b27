package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmcloud-dev/rmcloud/internal/handler"
	"github.com/rmcloud-dev/rmcloud/internal/logger"
	"github.com/rmcloud-dev/rmcloud/internal/middleware/metrics"
)

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"duration", time.Since(start),
		)
	})
}

// New assembles the HTTP surface the tablets talk to.
func New(h *handler.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(requestLogger)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Post("/login", h.Login)
	r.Post("/jwt", h.RefreshToken)
	r.Get("/health", h.Health)
	r.Get("/about", h.About)
	r.Get("/", h.Index)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

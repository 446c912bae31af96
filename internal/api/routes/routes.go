// internal/api/routes/routes.go
package routes

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/CortezCreations/ck-ld-group-enroll/internal/api/handlers"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/auth"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/dispatch"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/enroll"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func SetupRouter(service *enroll.Service, issuer *auth.TokenIssuer, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			next.ServeHTTP(w, r)
		})
	})

	taskHandler := handlers.NewTaskHandler(service, issuer, logger)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/task", func(r chi.Router) {
			r.Get("/", taskHandler.GetTask)
			r.Post("/", taskHandler.SubmitTask)
			r.Post("/cancel", taskHandler.CancelTask)
			r.Post("/reset", taskHandler.ResetTask)
		})
	})

	// Self-dispatch endpoint, token-authorized
	r.Post(dispatch.StepPath, taskHandler.RunStep)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	return r
}

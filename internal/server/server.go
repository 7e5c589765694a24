package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/fittracker/internal/ingest/training"
	"github.com/claude/fittracker/internal/metrics"
	"github.com/claude/fittracker/internal/storage"
	"github.com/claude/fittracker/internal/workout"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    *storage.Store
	training *training.Provider
	workouts *workout.Manager
	metrics  *metrics.Manager
	gatherer prometheus.Gatherer
	log      *slog.Logger
	apiKey   string
	router   chi.Router
}

// New creates a new Server with all routes configured. gatherer backs the
// /metrics endpoint and may be nil to leave it unmounted.
func New(
	store *storage.Store,
	trainingProvider *training.Provider,
	workouts *workout.Manager,
	m *metrics.Manager,
	gatherer prometheus.Gatherer,
	apiKey string,
	log *slog.Logger,
) *Server {
	s := &Server{
		store:    store,
		training: trainingProvider,
		workouts: workouts,
		metrics:  m,
		gatherer: gatherer,
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(RequestMetrics(s.metrics))
	s.router.Use(CORS)

	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		// Read endpoints (no auth, tsnet handles access)
		r.Get("/prescriptions/parse", s.handleParsePrescription)
		r.Get("/templates", s.handleListTemplates)
		r.Get("/templates/{id}", s.handleGetTemplate)
		r.Get("/instances", s.handleListInstances)
		r.Get("/instances/{id}", s.handleGetInstance)
		r.Get("/instances/{id}/progress", s.handleInstanceProgress)
		r.Get("/workout", s.handleCurrentWorkout)
		r.Get("/stats", s.handleStats)
		r.Get("/import-logs", s.handleImportLogs)
		r.Get("/training-summary", s.handleTrainingSummary)

		// Mutations (API key required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))

			r.Post("/import/training", s.handleTrainingImport)

			r.Post("/templates", s.handleCreateTemplate)
			r.Put("/templates/{id}", s.handleUpdateTemplate)
			r.Delete("/templates/{id}", s.handleDeleteTemplate)
			r.Post("/templates/{id}/schedule", s.handleScheduleTemplate)

			r.Delete("/instances/{id}", s.handleDeleteInstance)
			r.Post("/instances/{id}/skip", s.handleSkipInstance)
			r.Post("/instances/{id}/reschedule", s.handleRescheduleInstance)

			r.Route("/workout/{id}", func(r chi.Router) {
				r.Post("/open", s.handleOpenWorkout)
				r.Post("/start", s.workoutAction((*workout.Session).Start))
				r.Post("/complete-set", s.handleCompleteSet)
				r.Post("/next", s.workoutAction((*workout.Session).NextExercise))
				r.Post("/previous", s.workoutAction((*workout.Session).PreviousExercise))
				r.Post("/timer/{action}", s.handleTimer)
				r.Post("/sets/{exerciseId}", s.handleAddSet)
				r.Put("/sets/{exerciseId}/{setNumber}", s.handleUpdateSet)
				r.Post("/sets/{exerciseId}/{setNumber}", s.handleToggleSet)
				r.Delete("/sets/{exerciseId}/{setNumber}", s.handleRemoveSet)
				r.Post("/finish", s.workoutAction((*workout.Session).Finish))
				r.Post("/skip", s.workoutAction((*workout.Session).Skip))
				r.Post("/exit", s.handleExitWorkout)
			})
		})
	})
}

// Package httpapi exposes the scheduling engine over REST: chi routing, JWT
// bearer auth, CORS and structured request logging.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/evanmoran/ganttd/internal/constraint"
	"github.com/evanmoran/ganttd/internal/depgraph"
	"github.com/evanmoran/ganttd/internal/scheduler"
	"github.com/evanmoran/ganttd/internal/service"
	"github.com/evanmoran/ganttd/internal/status"
)

type Server struct {
	log zerolog.Logger

	auth       service.AuthService
	orgs       service.OrganizationService
	projects   service.ProjectService
	activities service.ActivityService
	tasks      service.TaskService
	analytics  service.AnalyticsService

	graph       *depgraph.Service
	constraints *constraint.Service
	scheduling  *scheduler.Service
	lifecycle   *status.Service

	corsOrigin string
}

type Deps struct {
	Log zerolog.Logger

	Auth       service.AuthService
	Orgs       service.OrganizationService
	Projects   service.ProjectService
	Activities service.ActivityService
	Tasks      service.TaskService
	Analytics  service.AnalyticsService

	Graph       *depgraph.Service
	Constraints *constraint.Service
	Scheduling  *scheduler.Service
	Lifecycle   *status.Service

	CORSOrigin string
}

func NewServer(d Deps) *Server {
	return &Server{
		log:         d.Log,
		auth:        d.Auth,
		orgs:        d.Orgs,
		projects:    d.Projects,
		activities:  d.Activities,
		tasks:       d.Tasks,
		analytics:   d.Analytics,
		graph:       d.Graph,
		constraints: d.Constraints,
		scheduling:  d.Scheduling,
		lifecycle:   d.Lifecycle,
		corsOrigin:  d.CORSOrigin,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.corsOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/auth/logout", s.handleLogout)
			r.Post("/auth/logout-all", s.handleLogoutAll)
			r.Post("/auth/change-password", s.handleChangePassword)
			r.Get("/auth/me", s.handleMe)

			r.Route("/users", func(r chi.Router) {
				r.Post("/", s.handleCreateUser)
				r.Get("/", s.handleListUsers)
				r.Get("/{userID}", s.handleGetUser)
			})

			r.Route("/organization", func(r chi.Router) {
				r.Get("/", s.handleGetOrganization)
				r.Patch("/", s.handleUpdateOrganization)
				r.Get("/holidays", s.handleListHolidays)
				r.Post("/holidays", s.handleAddHoliday)
				r.Delete("/holidays/{holidayID}", s.handleRemoveHoliday)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", s.handleListProjects)
				r.Post("/", s.handleCreateProject)
				r.Route("/{projectID}", func(r chi.Router) {
					r.Get("/", s.handleGetProject)
					r.Patch("/", s.handleUpdateProject)
					r.Delete("/", s.handleDeleteProject)

					r.Get("/members", s.handleListMembers)
					r.Post("/members", s.handleAddMember)
					r.Delete("/members/{userID}", s.handleRemoveMember)

					r.Get("/activities", s.handleListActivities)
					r.Post("/activities", s.handleCreateActivity)

					r.Get("/schedule", s.handleProjectSchedule)
					r.Get("/stats", s.handleProjectStats)
					r.Post("/tracking/refresh", s.handleRefreshTracking)
				})
			})

			r.Route("/activities/{activityID}", func(r chi.Router) {
				r.Get("/", s.handleGetActivity)
				r.Patch("/", s.handleUpdateActivity)
				r.Delete("/", s.handleDeleteActivity)
				r.Patch("/status", s.handleActivityStatus)
				r.Post("/recalculate-progress", s.handleRecalculateProgress)
				r.Get("/tasks", s.handleListTasks)
				r.Post("/tasks", s.handleCreateTask)
			})

			r.Route("/tasks/{taskID}", func(r chi.Router) {
				r.Get("/", s.handleGetTask)
				r.Patch("/", s.handleUpdateTask)
				r.Delete("/", s.handleDeleteTask)
				r.Patch("/status", s.handleTaskStatus)
				r.Patch("/progress", s.handleTaskProgress)
			})

			r.Post("/dependencies", s.handleCreateDependency)
			r.Delete("/dependencies/{dependencyID}", s.handleDeleteDependency)

			r.Post("/constraints", s.handleAddConstraint)
			r.Delete("/constraints/{constraintID}", s.handleRemoveConstraint)

			r.Route("/items/{itemType}/{itemID}", func(r chi.Router) {
				r.Get("/dependencies", s.handleItemDependencies)
				r.Get("/constraints", s.handleItemConstraints)
				r.Post("/validate-dates", s.handleValidateDates)
				r.Post("/apply-dates", s.handleApplyDates)
				r.Get("/date-range", s.handleDateRange)
				r.Post("/propagate-dates", s.handlePropagateDates)
			})

			r.Get("/analytics/dashboard", s.handleDashboard)
		})
	})

	return r
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/evanmoran/ganttd/internal/calendar"
	"github.com/evanmoran/ganttd/internal/config"
	"github.com/evanmoran/ganttd/internal/constraint"
	"github.com/evanmoran/ganttd/internal/db"
	"github.com/evanmoran/ganttd/internal/depgraph"
	"github.com/evanmoran/ganttd/internal/httpapi"
	"github.com/evanmoran/ganttd/internal/repository"
	"github.com/evanmoran/ganttd/internal/scheduler"
	"github.com/evanmoran/ganttd/internal/service"
	"github.com/evanmoran/ganttd/internal/status"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			database, err := db.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer database.Close()

			repos := repository.NewRepos(database)
			uow := db.NewSQLiteUnitOfWork(database)
			observer := service.NewUseCaseObserver(log)

			calendars := calendar.NewService(repos.Organizations, repos.Holidays)
			lifecycle := status.NewService(repos.Activities, repos.Tasks, repos.Projects, calendars, log)
			graph := depgraph.NewService(uow, repos.Dependencies)
			scheduling := scheduler.NewService(repos.Projects, repos.Activities, repos.Tasks, repos.Dependencies, calendars)
			constraints := constraint.NewService(uow, repos.Activities, repos.Tasks, repos.Projects, repos.Dependencies, repos.Constraints, calendars)

			server := httpapi.NewServer(httpapi.Deps{
				Log:        log,
				Auth:       service.NewAuthService(repos.Users, repos.RefreshTokens, cfg.JWTSecret, observer),
				Orgs:       service.NewOrganizationService(repos.Organizations, repos.Holidays, calendars, observer),
				Projects:   service.NewProjectService(repos.Projects, repos.Users, observer),
				Activities: service.NewActivityService(repos.Projects, repos.Activities, lifecycle, observer),
				Tasks:      service.NewTaskService(repos.Projects, repos.Activities, repos.Tasks, repos.Users, lifecycle, observer),
				Analytics:  service.NewAnalyticsService(repos.Projects, repos.Activities, repos.Tasks, scheduling, observer),

				Graph:       graph,
				Constraints: constraints,
				Scheduling:  scheduling,
				Lifecycle:   lifecycle,

				CORSOrigin: cfg.CORSOrigin,
			})

			httpServer := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Port),
				Handler:           server.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info().Int("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}
}

package service

import (
	"context"
	"time"

	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/repository"
	"github.com/evanmoran/ganttd/internal/scheduler"
)

type analyticsService struct {
	scope      itemScope
	projects   repository.ProjectRepo
	activities repository.ActivityRepo
	tasks      repository.TaskRepo
	scheduling *scheduler.Service
	observer   *UseCaseObserver

	now func() time.Time
}

func NewAnalyticsService(
	projects repository.ProjectRepo,
	activities repository.ActivityRepo,
	tasks repository.TaskRepo,
	scheduling *scheduler.Service,
	observer *UseCaseObserver,
) AnalyticsService {
	return &analyticsService{
		scope:      itemScope{projects: projects, activities: activities},
		projects:   projects,
		activities: activities,
		tasks:      tasks,
		scheduling: scheduling,
		observer:   observer,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Dashboard aggregates lifecycle and tracking counts across every project in
// the actor's organisation.
func (s *analyticsService) Dashboard(ctx context.Context, actor Actor) (summary *DashboardSummary, err error) {
	defer s.observer.Observe("analytics.dashboard")(err)

	summary = &DashboardSummary{
		Projects:     StatusCounts{},
		Tasks:        StatusCounts{},
		TaskTracking: TrackingCounts{},
	}
	now := s.now()

	for page := 1; ; page++ {
		var batch *repository.ProjectPage
		batch, err = s.projects.List(ctx, actor.OrganizationID, nil, page, 100)
		if err != nil {
			return nil, err
		}
		for _, p := range batch.Projects {
			summary.Projects[p.Status]++
			var tasks []*domain.Task
			tasks, err = s.tasks.ListByProject(ctx, p.ID)
			if err != nil {
				return nil, err
			}
			for _, t := range tasks {
				summary.Tasks[t.Status]++
				summary.TaskTracking[t.TrackingStatus]++
				if taskOverdue(t, now) {
					summary.OverdueTasks++
				}
			}
		}
		if page*100 >= batch.Total || len(batch.Projects) == 0 {
			break
		}
	}
	return summary, nil
}

// Project aggregates one project's items and runs the schedule to count
// critical ones.
func (s *analyticsService) Project(ctx context.Context, actor Actor, projectID string) (stats *ProjectStats, err error) {
	defer s.observer.Observe("analytics.project")(err)

	project, err := s.scope.project(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}

	stats = &ProjectStats{
		ProjectID:          projectID,
		ProgressPercentage: project.ProgressPercentage,
		Activities:         StatusCounts{},
		Tasks:              StatusCounts{},
		TaskTracking:       TrackingCounts{},
	}
	now := s.now()

	activities, err := s.activities.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, a := range activities {
		stats.Activities[a.Status]++
	}

	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	var progressSum float64
	for _, t := range tasks {
		stats.Tasks[t.Status]++
		stats.TaskTracking[t.TrackingStatus]++
		progressSum += t.ProgressPercentage
		if taskOverdue(t, now) {
			stats.OverdueTasks++
		}
	}
	if len(tasks) > 0 {
		stats.ProgressPercentage = progressSum / float64(len(tasks))
	}

	schedule, err := s.scheduling.CalculateProjectSchedule(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, item := range schedule.Items {
		if item.IsCritical {
			stats.CriticalItems++
		}
	}
	return stats, nil
}

func taskOverdue(t *domain.Task, now time.Time) bool {
	if t.Status == domain.StatusCompleted || t.Status == domain.StatusVerified {
		return false
	}
	return now.After(t.EndDate)
}

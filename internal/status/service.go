package status

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/evanmoran/ganttd/internal/calendar"
	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/repository"
)

// Service is the only writer of status, tracking and progress fields.
type Service struct {
	activities repository.ActivityRepo
	tasks      repository.TaskRepo
	projects   repository.ProjectRepo
	calendars  *calendar.Service
	log        zerolog.Logger

	// now is swappable for tests.
	now func() time.Time
}

func NewService(
	activities repository.ActivityRepo,
	tasks repository.TaskRepo,
	projects repository.ProjectRepo,
	calendars *calendar.Service,
	log zerolog.Logger,
) *Service {
	return &Service{
		activities: activities,
		tasks:      tasks,
		projects:   projects,
		calendars:  calendars,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// TransitionTask applies a lifecycle transition to a task and rolls the
// parent activity's progress up afterwards.
func (s *Service) TransitionTask(ctx context.Context, taskID string, to domain.Status, role domain.Role) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(task.Status, to, role); err != nil {
		return nil, err
	}

	task.Status = to
	task.ProgressPercentage = progressAfter(to, task.ProgressPercentage)

	cfg, err := s.configForTask(ctx, task)
	if err != nil {
		return nil, err
	}
	tracking, _ := DeriveTracking(cfg, task.Status, task.StartDate, task.EndDate, task.ProgressPercentage, s.now())
	task.TrackingStatus = tracking

	if err := s.tasks.UpdateStatusProgress(ctx, taskID, task.Status, task.TrackingStatus, task.ProgressPercentage); err != nil {
		return nil, err
	}

	// Rollup failure does not undo the transition; it is logged and the
	// activity can be recalculated explicitly.
	if _, err := s.RecalculateActivityProgress(ctx, task.ActivityID); err != nil {
		s.log.Error().Err(err).Str("activity_id", task.ActivityID).Msg("progress rollup failed")
	}
	return task, nil
}

// TransitionActivity applies a lifecycle transition to an activity. Entering
// VERIFIED requires every child task to be VERIFIED already.
func (s *Service) TransitionActivity(ctx context.Context, activityID string, to domain.Status, role domain.Role) (*domain.Activity, error) {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(activity.Status, to, role); err != nil {
		return nil, err
	}

	if to == domain.StatusVerified {
		tasks, err := s.tasks.ListByActivity(ctx, activityID)
		if err != nil {
			return nil, err
		}
		unverified := 0
		for _, t := range tasks {
			if t.Status != domain.StatusVerified {
				unverified++
			}
		}
		if unverified > 0 {
			return nil, &domain.ActivityVerifyBlockedError{ActivityID: activityID, UnverifiedTasks: unverified}
		}
	}

	activity.Status = to
	activity.ProgressPercentage = progressAfter(to, activity.ProgressPercentage)

	cfg, err := s.configForActivity(ctx, activity)
	if err != nil {
		return nil, err
	}
	tracking, _ := DeriveTracking(cfg, activity.Status, activity.StartDate, activity.EndDate, activity.ProgressPercentage, s.now())
	activity.TrackingStatus = tracking

	if err := s.activities.UpdateStatusProgress(ctx, activityID, activity.Status, activity.TrackingStatus, activity.ProgressPercentage); err != nil {
		return nil, err
	}
	return activity, nil
}

// UpdateTaskProgress edits a task's progress manually. Only allowed while the
// task is IN_PROGRESS; the value is clamped to [0, 100].
func (s *Service) UpdateTaskProgress(ctx context.Context, taskID string, progress float64) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != domain.StatusInProgress {
		return nil, fmt.Errorf("task %s in status %s: %w", taskID, task.Status, domain.ErrProgressNotEditable)
	}

	task.ProgressPercentage = clampProgress(progress)

	cfg, err := s.configForTask(ctx, task)
	if err != nil {
		return nil, err
	}
	tracking, _ := DeriveTracking(cfg, task.Status, task.StartDate, task.EndDate, task.ProgressPercentage, s.now())
	task.TrackingStatus = tracking

	if err := s.tasks.UpdateStatusProgress(ctx, taskID, task.Status, task.TrackingStatus, task.ProgressPercentage); err != nil {
		return nil, err
	}
	if _, err := s.RecalculateActivityProgress(ctx, task.ActivityID); err != nil {
		s.log.Error().Err(err).Str("activity_id", task.ActivityID).Msg("progress rollup failed")
	}
	return task, nil
}

// RecalculateActivityProgress sets the activity's progress to the rounded
// mean of its children, or 0 with no children. The operation is idempotent.
func (s *Service) RecalculateActivityProgress(ctx context.Context, activityID string) (float64, error) {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return 0, err
	}
	tasks, err := s.tasks.ListByActivity(ctx, activityID)
	if err != nil {
		return 0, err
	}

	var progress float64
	if len(tasks) > 0 {
		var sum float64
		for _, t := range tasks {
			sum += t.ProgressPercentage
		}
		progress = math.Round(sum / float64(len(tasks)))
	}

	if err := s.activities.UpdateStatusProgress(ctx, activityID, activity.Status, activity.TrackingStatus, progress); err != nil {
		return 0, err
	}
	return progress, nil
}

// RefreshTracking recomputes the tracking status of every activity and task
// in the project. Failures are logged per item and do not abort the sweep.
func (s *Service) RefreshTracking(ctx context.Context, projectID string) error {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	cfg, err := s.calendars.ConfigFor(ctx, project.OrganizationID)
	if err != nil {
		return err
	}
	now := s.now()

	activities, err := s.activities.ListByProject(ctx, projectID)
	if err != nil {
		return err
	}
	for _, a := range activities {
		tracking, _ := DeriveTracking(cfg, a.Status, a.StartDate, a.EndDate, a.ProgressPercentage, now)
		if tracking == a.TrackingStatus {
			continue
		}
		if err := s.activities.UpdateStatusProgress(ctx, a.ID, a.Status, tracking, a.ProgressPercentage); err != nil {
			s.log.Error().Err(err).Str("activity_id", a.ID).Msg("tracking refresh failed")
		}
	}

	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		tracking, _ := DeriveTracking(cfg, t.Status, t.StartDate, t.EndDate, t.ProgressPercentage, now)
		if tracking == t.TrackingStatus {
			continue
		}
		if err := s.tasks.UpdateStatusProgress(ctx, t.ID, t.Status, tracking, t.ProgressPercentage); err != nil {
			s.log.Error().Err(err).Str("task_id", t.ID).Msg("tracking refresh failed")
		}
	}
	return nil
}

func (s *Service) configForTask(ctx context.Context, task *domain.Task) (*calendar.Config, error) {
	activity, err := s.activities.GetByID(ctx, task.ActivityID)
	if err != nil {
		return nil, err
	}
	return s.configForActivity(ctx, activity)
}

func (s *Service) configForActivity(ctx context.Context, activity *domain.Activity) (*calendar.Config, error) {
	project, err := s.projects.GetByID(ctx, activity.ProjectID)
	if err != nil {
		return nil, err
	}
	return s.calendars.ConfigFor(ctx, project.OrganizationID)
}

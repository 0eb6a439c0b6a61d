package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/repository"
	"github.com/evanmoran/ganttd/internal/status"
)

type taskService struct {
	scope     itemScope
	tasks     repository.TaskRepo
	users     repository.UserRepo
	lifecycle *status.Service
	observer  *UseCaseObserver

	now func() time.Time
}

func NewTaskService(
	projects repository.ProjectRepo,
	activities repository.ActivityRepo,
	tasks repository.TaskRepo,
	users repository.UserRepo,
	lifecycle *status.Service,
	observer *UseCaseObserver,
) TaskService {
	return &taskService{
		scope:     itemScope{projects: projects, activities: activities},
		tasks:     tasks,
		users:     users,
		lifecycle: lifecycle,
		observer:  observer,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *taskService) Create(ctx context.Context, actor Actor, activityID string, in CreateTaskInput) (task *domain.Task, err error) {
	defer s.observer.Observe("task.create")(err)

	if !canManageProjects(actor.Role) {
		return nil, fmt.Errorf("role %s cannot create tasks: %w", actor.Role, domain.ErrForbidden)
	}
	if _, _, err = s.scope.activity(ctx, actor, activityID); err != nil {
		return nil, err
	}
	if in.AssigneeID != nil {
		if err = s.checkAssignee(ctx, actor, *in.AssigneeID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	task = &domain.Task{
		ID:             uuid.NewString(),
		ActivityID:     activityID,
		Name:           in.Name,
		Description:    in.Description,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		DurationHours:  in.DurationHours,
		AssigneeID:     in.AssigneeID,
		Status:         domain.StatusNotStarted,
		TrackingStatus: domain.TrackingOnTrack,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err = task.Validate(); err != nil {
		return nil, err
	}
	if err = s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) Get(ctx context.Context, actor Actor, taskID string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.scope.activity(ctx, actor, task.ActivityID); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) ListByActivity(ctx context.Context, actor Actor, activityID string) ([]*domain.Task, error) {
	if _, _, err := s.scope.activity(ctx, actor, activityID); err != nil {
		return nil, err
	}
	return s.tasks.ListByActivity(ctx, activityID)
}

func (s *taskService) Update(ctx context.Context, actor Actor, taskID string, in UpdateTaskInput) (task *domain.Task, err error) {
	defer s.observer.Observe("task.update")(err)

	if !canManageProjects(actor.Role) {
		return nil, fmt.Errorf("role %s cannot edit tasks: %w", actor.Role, domain.ErrForbidden)
	}
	task, err = s.Get(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		task.Name = *in.Name
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.DurationHours != nil {
		task.DurationHours = *in.DurationHours
	}
	if in.AssigneeID != nil {
		if err = s.checkAssignee(ctx, actor, *in.AssigneeID); err != nil {
			return nil, err
		}
		task.AssigneeID = in.AssigneeID
	}
	task.UpdatedAt = s.now()

	if err = task.Validate(); err != nil {
		return nil, err
	}
	if err = s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, actor Actor, taskID string) (err error) {
	defer s.observer.Observe("task.delete")(err)

	if !canManageProjects(actor.Role) {
		return fmt.Errorf("role %s cannot delete tasks: %w", actor.Role, domain.ErrForbidden)
	}
	if _, err = s.Get(ctx, actor, taskID); err != nil {
		return err
	}
	return s.tasks.Delete(ctx, taskID)
}

// Transition moves a task through its lifecycle. Team members may only move
// tasks assigned to them; clients are read-only.
func (s *taskService) Transition(ctx context.Context, actor Actor, taskID string, to domain.Status) (task *domain.Task, err error) {
	defer s.observer.Observe("task.transition")(err)

	task, err = s.Get(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	if err = s.checkTaskMutation(actor, task); err != nil {
		return nil, err
	}
	return s.lifecycle.TransitionTask(ctx, taskID, to, actor.Role)
}

func (s *taskService) UpdateProgress(ctx context.Context, actor Actor, taskID string, progress float64) (task *domain.Task, err error) {
	defer s.observer.Observe("task.update_progress")(err)

	task, err = s.Get(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	if err = s.checkTaskMutation(actor, task); err != nil {
		return nil, err
	}
	return s.lifecycle.UpdateTaskProgress(ctx, taskID, progress)
}

func (s *taskService) checkTaskMutation(actor Actor, task *domain.Task) error {
	if !canMutateItems(actor.Role) {
		return fmt.Errorf("role %s is read-only: %w", actor.Role, domain.ErrForbidden)
	}
	if actor.Role == domain.RoleTeamMember {
		if task.AssigneeID == nil || *task.AssigneeID != actor.UserID {
			return fmt.Errorf("task is not assigned to you: %w", domain.ErrForbidden)
		}
	}
	return nil
}

func (s *taskService) checkAssignee(ctx context.Context, actor Actor, assigneeID string) error {
	if assigneeID == "" {
		return nil
	}
	user, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		return err
	}
	if user.OrganizationID != actor.OrganizationID {
		return fmt.Errorf("assignee %s: %w", assigneeID, domain.ErrNotFound)
	}
	return nil
}

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

type activityService struct {
	scope      itemScope
	activities repository.ActivityRepo
	lifecycle  *status.Service
	observer   *UseCaseObserver

	now func() time.Time
}

func NewActivityService(
	projects repository.ProjectRepo,
	activities repository.ActivityRepo,
	lifecycle *status.Service,
	observer *UseCaseObserver,
) ActivityService {
	return &activityService{
		scope:      itemScope{projects: projects, activities: activities},
		activities: activities,
		lifecycle:  lifecycle,
		observer:   observer,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *activityService) Create(ctx context.Context, actor Actor, projectID string, in CreateActivityInput) (activity *domain.Activity, err error) {
	defer s.observer.Observe("activity.create")(err)

	if !canManageProjects(actor.Role) {
		return nil, fmt.Errorf("role %s cannot create activities: %w", actor.Role, domain.ErrForbidden)
	}
	if _, err = s.scope.project(ctx, actor, projectID); err != nil {
		return nil, err
	}

	now := s.now()
	activity = &domain.Activity{
		ID:                    uuid.NewString(),
		ProjectID:             projectID,
		Name:                  in.Name,
		Description:           in.Description,
		StartDate:             in.StartDate,
		EndDate:               in.EndDate,
		Status:                domain.StatusNotStarted,
		TrackingStatus:        domain.TrackingOnTrack,
		VerificationChecklist: in.VerificationChecklist,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err = activity.Validate(); err != nil {
		return nil, err
	}
	if err = s.activities.Create(ctx, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

func (s *activityService) Get(ctx context.Context, actor Actor, activityID string) (*domain.Activity, error) {
	activity, _, err := s.scope.activity(ctx, actor, activityID)
	return activity, err
}

func (s *activityService) ListByProject(ctx context.Context, actor Actor, projectID string) ([]*domain.Activity, error) {
	if _, err := s.scope.project(ctx, actor, projectID); err != nil {
		return nil, err
	}
	return s.activities.ListByProject(ctx, projectID)
}

// Update edits descriptive fields only; dates go through the date-edit
// validator and status through the lifecycle transitions.
func (s *activityService) Update(ctx context.Context, actor Actor, activityID string, in UpdateActivityInput) (activity *domain.Activity, err error) {
	defer s.observer.Observe("activity.update")(err)

	if !canManageProjects(actor.Role) {
		return nil, fmt.Errorf("role %s cannot edit activities: %w", actor.Role, domain.ErrForbidden)
	}
	activity, _, err = s.scope.activity(ctx, actor, activityID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		activity.Name = *in.Name
	}
	if in.Description != nil {
		activity.Description = *in.Description
	}
	if in.VerificationChecklist != nil {
		activity.VerificationChecklist = in.VerificationChecklist
	}
	activity.UpdatedAt = s.now()

	if err = activity.Validate(); err != nil {
		return nil, err
	}
	if err = s.activities.Update(ctx, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

func (s *activityService) Delete(ctx context.Context, actor Actor, activityID string) (err error) {
	defer s.observer.Observe("activity.delete")(err)

	if !canManageProjects(actor.Role) {
		return fmt.Errorf("role %s cannot delete activities: %w", actor.Role, domain.ErrForbidden)
	}
	if _, _, err = s.scope.activity(ctx, actor, activityID); err != nil {
		return err
	}
	return s.activities.Delete(ctx, activityID)
}

func (s *activityService) Transition(ctx context.Context, actor Actor, activityID string, to domain.Status) (activity *domain.Activity, err error) {
	defer s.observer.Observe("activity.transition")(err)

	if !canMutateItems(actor.Role) {
		return nil, fmt.Errorf("role %s is read-only: %w", actor.Role, domain.ErrForbidden)
	}
	if _, _, err = s.scope.activity(ctx, actor, activityID); err != nil {
		return nil, err
	}
	return s.lifecycle.TransitionActivity(ctx, activityID, to, actor.Role)
}

func (s *activityService) RecalculateProgress(ctx context.Context, actor Actor, activityID string) (float64, error) {
	if _, _, err := s.scope.activity(ctx, actor, activityID); err != nil {
		return 0, err
	}
	return s.lifecycle.RecalculateActivityProgress(ctx, activityID)
}

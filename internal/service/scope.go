package service

import (
	"context"
	"fmt"

	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/repository"
)

// itemScope resolves activities and tasks up to their project and enforces
// tenant scoping plus membership for non-manager roles. Shared by the
// activity and task services.
type itemScope struct {
	projects   repository.ProjectRepo
	activities repository.ActivityRepo
}

// project checks that the actor can see the given project. Cross-tenant ids
// read as not found so they leak nothing.
func (sc itemScope) project(ctx context.Context, actor Actor, projectID string) (*domain.Project, error) {
	project, err := sc.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OrganizationID != actor.OrganizationID {
		return nil, fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)
	}
	if !canManageProjects(actor.Role) {
		member, err := sc.projects.IsMember(ctx, projectID, actor.UserID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, fmt.Errorf("not a member of project %s: %w", projectID, domain.ErrForbidden)
		}
	}
	return project, nil
}

// activity resolves an activity and scopes its project in one step.
func (sc itemScope) activity(ctx context.Context, actor Actor, activityID string) (*domain.Activity, *domain.Project, error) {
	activity, err := sc.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, nil, err
	}
	project, err := sc.project(ctx, actor, activity.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return activity, project, nil
}

// canMutateItems rejects the read-only client role.
func canMutateItems(role domain.Role) bool {
	return role != domain.RoleClient
}

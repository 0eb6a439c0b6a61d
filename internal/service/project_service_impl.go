package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/repository"
)

type projectService struct {
	projects repository.ProjectRepo
	users    repository.UserRepo
	observer *UseCaseObserver

	now func() time.Time
}

func NewProjectService(projects repository.ProjectRepo, users repository.UserRepo, observer *UseCaseObserver) ProjectService {
	return &projectService{
		projects: projects,
		users:    users,
		observer: observer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *projectService) Create(ctx context.Context, actor Actor, in CreateProjectInput) (project *domain.Project, err error) {
	defer s.observer.Observe("project.create")(err)

	if !canManageProjects(actor.Role) {
		return nil, fmt.Errorf("role %s cannot create projects: %w", actor.Role, domain.ErrForbidden)
	}

	now := s.now()
	project = &domain.Project{
		ID:             uuid.NewString(),
		OrganizationID: actor.OrganizationID,
		OwnerID:        actor.UserID,
		Name:           in.Name,
		Description:    in.Description,
		StartDate:      in.StartDate,
		Timezone:       in.Timezone,
		Status:         domain.StatusNotStarted,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err = project.Validate(); err != nil {
		return nil, err
	}
	if err = s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	// The owner is implicitly a member.
	if err = s.projects.AddMember(ctx, project.ID, actor.UserID); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) Get(ctx context.Context, actor Actor, projectID string) (*domain.Project, error) {
	return s.visibleProject(ctx, actor, projectID)
}

func (s *projectService) List(ctx context.Context, actor Actor, in ListProjectsInput) (*repository.ProjectPage, error) {
	page, limit := in.Page, in.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.projects.List(ctx, actor.OrganizationID, in.Status, page, limit)
}

func (s *projectService) Update(ctx context.Context, actor Actor, projectID string, in UpdateProjectInput) (project *domain.Project, err error) {
	defer s.observer.Observe("project.update")(err)

	project, err = s.visibleProject(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if !canManageProjects(actor.Role) {
		return nil, fmt.Errorf("role %s cannot edit projects: %w", actor.Role, domain.ErrForbidden)
	}

	if in.Name != nil {
		project.Name = *in.Name
	}
	if in.Description != nil {
		project.Description = *in.Description
	}
	if in.StartDate != nil {
		project.StartDate = *in.StartDate
	}
	if in.Timezone != nil {
		project.Timezone = *in.Timezone
	}
	project.UpdatedAt = s.now()

	if err = project.Validate(); err != nil {
		return nil, err
	}
	if err = s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes the project and, through the store's cascades, everything
// under it. Restricted to PMO and the owning PM.
func (s *projectService) Delete(ctx context.Context, actor Actor, projectID string) (err error) {
	defer s.observer.Observe("project.delete")(err)

	project, err := s.visibleProject(ctx, actor, projectID)
	if err != nil {
		return err
	}
	if actor.Role != domain.RolePMO && project.OwnerID != actor.UserID {
		return fmt.Errorf("only PMO or the project owner can delete: %w", domain.ErrForbidden)
	}
	return s.projects.Delete(ctx, projectID)
}

func (s *projectService) AddMember(ctx context.Context, actor Actor, projectID, userID string) (err error) {
	defer s.observer.Observe("project.add_member")(err)

	if _, err = s.visibleProject(ctx, actor, projectID); err != nil {
		return err
	}
	if !canManageProjects(actor.Role) {
		return fmt.Errorf("role %s cannot manage members: %w", actor.Role, domain.ErrForbidden)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.OrganizationID != actor.OrganizationID {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return s.projects.AddMember(ctx, projectID, userID)
}

func (s *projectService) RemoveMember(ctx context.Context, actor Actor, projectID, userID string) (err error) {
	defer s.observer.Observe("project.remove_member")(err)

	if _, err = s.visibleProject(ctx, actor, projectID); err != nil {
		return err
	}
	if !canManageProjects(actor.Role) {
		return fmt.Errorf("role %s cannot manage members: %w", actor.Role, domain.ErrForbidden)
	}
	return s.projects.RemoveMember(ctx, projectID, userID)
}

func (s *projectService) ListMembers(ctx context.Context, actor Actor, projectID string) ([]*domain.User, error) {
	if _, err := s.visibleProject(ctx, actor, projectID); err != nil {
		return nil, err
	}
	ids, err := s.projects.ListMemberIDs(ctx, projectID)
	if err != nil {
		return nil, err
	}
	members := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		members = append(members, user)
	}
	return members, nil
}

// visibleProject loads the project and enforces tenant scoping plus
// membership for non-manager roles. Cross-tenant ids read as not found.
func (s *projectService) visibleProject(ctx context.Context, actor Actor, projectID string) (*domain.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OrganizationID != actor.OrganizationID {
		return nil, fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)
	}
	if !canManageProjects(actor.Role) {
		member, err := s.projects.IsMember(ctx, projectID, actor.UserID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, fmt.Errorf("not a member of project %s: %w", projectID, domain.ErrForbidden)
		}
	}
	return project, nil
}

func canManageProjects(role domain.Role) bool {
	return role == domain.RolePMO || role == domain.RolePM
}

package repository

import (
	"context"
	"time"

	"github.com/evanmoran/ganttd/internal/domain"
)

// NeighborEdge is a joined view of a dependency edge with the far endpoint's
// scheduling fields, as needed by the date-edit validator. For activity
// endpoints DurationHours is zero; the envelope dates carry the information.
type NeighborEdge struct {
	DependencyID  string
	ItemID        string // the far endpoint
	Type          domain.DependencyType
	LagDays       float64
	StartDate     time.Time
	EndDate       time.Time
	DurationHours float64
	Status        domain.Status
}

// ProjectPage is one page of a filtered project listing.
type ProjectPage struct {
	Projects []*domain.Project
	Total    int
}

type OrganizationRepo interface {
	Create(ctx context.Context, o *domain.Organization) error
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	List(ctx context.Context) ([]*domain.Organization, error)
	Update(ctx context.Context, o *domain.Organization) error
	Delete(ctx context.Context, id string) error
}

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListByOrganization(ctx context.Context, orgID string) ([]*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context, orgID string, status *domain.Status, page, limit int) (*ProjectPage, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error

	AddMember(ctx context.Context, projectID, userID string) error
	RemoveMember(ctx context.Context, projectID, userID string) error
	ListMemberIDs(ctx context.Context, projectID string) ([]string, error)
	IsMember(ctx context.Context, projectID, userID string) (bool, error)
}

type ActivityRepo interface {
	Create(ctx context.Context, a *domain.Activity) error
	GetByID(ctx context.Context, id string) (*domain.Activity, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Activity, error)
	Update(ctx context.Context, a *domain.Activity) error
	UpdateDates(ctx context.Context, id string, start, end time.Time) error
	UpdateStatusProgress(ctx context.Context, id string, status domain.Status, tracking domain.TrackingStatus, progress float64) error
	Delete(ctx context.Context, id string) error
}

type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByActivity(ctx context.Context, activityID string) ([]*domain.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error)
	ListByAssignee(ctx context.Context, assigneeID string) ([]*domain.Task, error)
	Update(ctx context.Context, t *domain.Task) error
	UpdateDates(ctx context.Context, id string, start, end time.Time) error
	UpdateStatusProgress(ctx context.Context, id string, status domain.Status, tracking domain.TrackingStatus, progress float64) error
	Delete(ctx context.Context, id string) error
}

type DependencyRepo interface {
	Create(ctx context.Context, d *domain.Dependency) error
	GetByID(ctx context.Context, id string) (*domain.Dependency, error)
	Delete(ctx context.Context, id string) error

	// ListPredecessors/ListSuccessors are scoped to the endpoint kind; the
	// activity and task subgraphs are disjoint.
	ListPredecessors(ctx context.Context, itemID string, kind domain.ItemType) ([]domain.Dependency, error)
	ListSuccessors(ctx context.Context, itemID string, kind domain.ItemType) ([]domain.Dependency, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Dependency, error)

	ListPredecessorEdges(ctx context.Context, itemID string, kind domain.ItemType) ([]NeighborEdge, error)
	ListSuccessorEdges(ctx context.Context, itemID string, kind domain.ItemType) ([]NeighborEdge, error)
}

type ConstraintRepo interface {
	Create(ctx context.Context, c *domain.DateConstraint) error
	GetByID(ctx context.Context, id string) (*domain.DateConstraint, error)
	ListByItem(ctx context.Context, itemID string, kind domain.ItemType) ([]domain.DateConstraint, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.DateConstraint, error)
	Delete(ctx context.Context, id string) error
}

type HolidayRepo interface {
	Create(ctx context.Context, h *domain.Holiday) error
	ListByOrganization(ctx context.Context, orgID string) ([]domain.Holiday, error)
	Delete(ctx context.Context, id string) error
}

type RefreshTokenRepo interface {
	Create(ctx context.Context, t *domain.RefreshToken) error
	Get(ctx context.Context, token string) (*domain.RefreshToken, error)
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, now time.Time) error
}

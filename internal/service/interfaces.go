// Package service is the orchestration layer: request-shaped inputs come in,
// domain entities and domain errors come out. Authorization and tenant
// scoping happen here; persistence and scheduling mechanics live below.
package service

import (
	"context"
	"time"

	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/repository"
)

// Actor identifies the authenticated caller of a use case. Handlers build it
// from verified token claims.
type Actor struct {
	UserID         string
	OrganizationID string
	Role           domain.Role
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         *domain.User
}

// Claims is the verified content of an access token.
type Claims struct {
	UserID         string
	OrganizationID string
	Role           domain.Role
}

type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     domain.Role
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, actor Actor) error
	ChangePassword(ctx context.Context, actor Actor, current, updated string) error
	VerifyAccessToken(token string) (*Claims, error)

	CreateUser(ctx context.Context, actor Actor, in CreateUserInput) (*domain.User, error)
	GetUser(ctx context.Context, actor Actor, userID string) (*domain.User, error)
	ListUsers(ctx context.Context, actor Actor) ([]*domain.User, error)
}

type UpdateOrganizationInput struct {
	Name            *string
	Timezone        *string
	WorkingDaysMask *string
	WorkingHours    []domain.WorkingBlock
}

type OrganizationService interface {
	Get(ctx context.Context, actor Actor) (*domain.Organization, error)
	Update(ctx context.Context, actor Actor, in UpdateOrganizationInput) (*domain.Organization, error)

	AddHoliday(ctx context.Context, actor Actor, date, name string) (*domain.Holiday, error)
	ListHolidays(ctx context.Context, actor Actor) ([]domain.Holiday, error)
	RemoveHoliday(ctx context.Context, actor Actor, holidayID string) error
}

type CreateProjectInput struct {
	Name        string
	Description string
	StartDate   time.Time
	Timezone    string
}

type UpdateProjectInput struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	Timezone    *string
}

type ListProjectsInput struct {
	Status *domain.Status
	Page   int
	Limit  int
}

type ProjectService interface {
	Create(ctx context.Context, actor Actor, in CreateProjectInput) (*domain.Project, error)
	Get(ctx context.Context, actor Actor, projectID string) (*domain.Project, error)
	List(ctx context.Context, actor Actor, in ListProjectsInput) (*repository.ProjectPage, error)
	Update(ctx context.Context, actor Actor, projectID string, in UpdateProjectInput) (*domain.Project, error)
	Delete(ctx context.Context, actor Actor, projectID string) error

	AddMember(ctx context.Context, actor Actor, projectID, userID string) error
	RemoveMember(ctx context.Context, actor Actor, projectID, userID string) error
	ListMembers(ctx context.Context, actor Actor, projectID string) ([]*domain.User, error)
}

type CreateActivityInput struct {
	Name                  string
	Description           string
	StartDate             time.Time
	EndDate               time.Time
	VerificationChecklist []string
}

type UpdateActivityInput struct {
	Name                  *string
	Description           *string
	VerificationChecklist []string
}

type ActivityService interface {
	Create(ctx context.Context, actor Actor, projectID string, in CreateActivityInput) (*domain.Activity, error)
	Get(ctx context.Context, actor Actor, activityID string) (*domain.Activity, error)
	ListByProject(ctx context.Context, actor Actor, projectID string) ([]*domain.Activity, error)
	Update(ctx context.Context, actor Actor, activityID string, in UpdateActivityInput) (*domain.Activity, error)
	Delete(ctx context.Context, actor Actor, activityID string) error

	Transition(ctx context.Context, actor Actor, activityID string, to domain.Status) (*domain.Activity, error)
	RecalculateProgress(ctx context.Context, actor Actor, activityID string) (float64, error)
}

type CreateTaskInput struct {
	Name          string
	Description   string
	StartDate     time.Time
	EndDate       time.Time
	DurationHours float64
	AssigneeID    *string
}

type UpdateTaskInput struct {
	Name          *string
	Description   *string
	DurationHours *float64
	AssigneeID    *string
}

type TaskService interface {
	Create(ctx context.Context, actor Actor, activityID string, in CreateTaskInput) (*domain.Task, error)
	Get(ctx context.Context, actor Actor, taskID string) (*domain.Task, error)
	ListByActivity(ctx context.Context, actor Actor, activityID string) ([]*domain.Task, error)
	Update(ctx context.Context, actor Actor, taskID string, in UpdateTaskInput) (*domain.Task, error)
	Delete(ctx context.Context, actor Actor, taskID string) error

	Transition(ctx context.Context, actor Actor, taskID string, to domain.Status) (*domain.Task, error)
	UpdateProgress(ctx context.Context, actor Actor, taskID string, progress float64) (*domain.Task, error)
}

// StatusCounts maps lifecycle states to item counts.
type StatusCounts map[domain.Status]int

// TrackingCounts maps tracking states to item counts.
type TrackingCounts map[domain.TrackingStatus]int

// DashboardSummary aggregates across every project the actor can see.
type DashboardSummary struct {
	Projects     StatusCounts
	Tasks        StatusCounts
	TaskTracking TrackingCounts
	OverdueTasks int
}

// ProjectStats aggregates one project's items.
type ProjectStats struct {
	ProjectID          string
	ProgressPercentage float64
	Activities         StatusCounts
	Tasks              StatusCounts
	TaskTracking       TrackingCounts
	CriticalItems      int
	OverdueTasks       int
}

type AnalyticsService interface {
	Dashboard(ctx context.Context, actor Actor) (*DashboardSummary, error)
	Project(ctx context.Context, actor Actor, projectID string) (*ProjectStats, error)
}

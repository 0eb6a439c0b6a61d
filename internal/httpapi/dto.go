package httpapi

import (
	"time"

	"github.com/evanmoran/ganttd/internal/domain"
)

// Response DTOs. Domain entities stay tag-free; the wire shape is decided
// here, camelCase throughout.

type userDTO struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{
		ID:             u.ID,
		OrganizationID: u.OrganizationID,
		Email:          u.Email,
		Name:           u.Name,
		Role:           string(u.Role),
		CreatedAt:      u.CreatedAt,
	}
}

type organizationDTO struct {
	ID              string                `json:"id"`
	Name            string                `json:"name"`
	Timezone        string                `json:"timezone"`
	WorkingDaysMask string                `json:"workingDaysMask"`
	WorkingHours    []domain.WorkingBlock `json:"workingHours"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

func toOrganizationDTO(o *domain.Organization) organizationDTO {
	return organizationDTO{
		ID:              o.ID,
		Name:            o.Name,
		Timezone:        o.Timezone,
		WorkingDaysMask: o.WorkingDaysMask,
		WorkingHours:    o.WorkingHours,
		UpdatedAt:       o.UpdatedAt,
	}
}

type holidayDTO struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

func toHolidayDTO(h domain.Holiday) holidayDTO {
	return holidayDTO{ID: h.ID, Date: h.Date.Format("2006-01-02"), Description: h.Description}
}

type projectDTO struct {
	ID                 string    `json:"id"`
	OrganizationID     string    `json:"organizationId"`
	OwnerID            string    `json:"ownerId"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	StartDate          time.Time `json:"startDate"`
	Timezone           string    `json:"timezone,omitempty"`
	Status             string    `json:"status"`
	ProgressPercentage float64   `json:"progressPercentage"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func toProjectDTO(p *domain.Project) projectDTO {
	return projectDTO{
		ID:                 p.ID,
		OrganizationID:     p.OrganizationID,
		OwnerID:            p.OwnerID,
		Name:               p.Name,
		Description:        p.Description,
		StartDate:          p.StartDate,
		Timezone:           p.Timezone,
		Status:             string(p.Status),
		ProgressPercentage: p.ProgressPercentage,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

type activityDTO struct {
	ID                    string    `json:"id"`
	ProjectID             string    `json:"projectId"`
	Name                  string    `json:"name"`
	Description           string    `json:"description"`
	StartDate             time.Time `json:"startDate"`
	EndDate               time.Time `json:"endDate"`
	Status                string    `json:"status"`
	TrackingStatus        string    `json:"trackingStatus"`
	ProgressPercentage    float64   `json:"progressPercentage"`
	VerificationChecklist []string  `json:"verificationChecklist,omitempty"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

func toActivityDTO(a *domain.Activity) activityDTO {
	return activityDTO{
		ID:                    a.ID,
		ProjectID:             a.ProjectID,
		Name:                  a.Name,
		Description:           a.Description,
		StartDate:             a.StartDate,
		EndDate:               a.EndDate,
		Status:                string(a.Status),
		TrackingStatus:        string(a.TrackingStatus),
		ProgressPercentage:    a.ProgressPercentage,
		VerificationChecklist: a.VerificationChecklist,
		UpdatedAt:             a.UpdatedAt,
	}
}

type taskDTO struct {
	ID                 string    `json:"id"`
	ActivityID         string    `json:"activityId"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	StartDate          time.Time `json:"startDate"`
	EndDate            time.Time `json:"endDate"`
	DurationHours      float64   `json:"durationHours"`
	AssigneeID         *string   `json:"assigneeId,omitempty"`
	Status             string    `json:"status"`
	TrackingStatus     string    `json:"trackingStatus"`
	ProgressPercentage float64   `json:"progressPercentage"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func toTaskDTO(t *domain.Task) taskDTO {
	return taskDTO{
		ID:                 t.ID,
		ActivityID:         t.ActivityID,
		Name:               t.Name,
		Description:        t.Description,
		StartDate:          t.StartDate,
		EndDate:            t.EndDate,
		DurationHours:      t.DurationHours,
		AssigneeID:         t.AssigneeID,
		Status:             string(t.Status),
		TrackingStatus:     string(t.TrackingStatus),
		ProgressPercentage: t.ProgressPercentage,
		UpdatedAt:          t.UpdatedAt,
	}
}

type dependencyDTO struct {
	ID            string  `json:"id"`
	ItemType      string  `json:"itemType"`
	PredecessorID string  `json:"predecessorId"`
	SuccessorID   string  `json:"successorId"`
	Type          string  `json:"type"`
	LagDays       float64 `json:"lagDays"`
}

func toDependencyDTO(d domain.Dependency) dependencyDTO {
	return dependencyDTO{
		ID:            d.ID,
		ItemType:      string(d.Kind()),
		PredecessorID: d.PredecessorID(),
		SuccessorID:   d.SuccessorID(),
		Type:          string(d.Type),
		LagDays:       d.LagDays,
	}
}

type constraintDTO struct {
	ID             string     `json:"id"`
	ItemID         string     `json:"itemId"`
	ItemType       string     `json:"itemType"`
	ConstraintType string     `json:"constraintType"`
	ConstraintDate *time.Time `json:"constraintDate,omitempty"`
}

func toConstraintDTO(c domain.DateConstraint) constraintDTO {
	return constraintDTO{
		ID:             c.ID,
		ItemID:         c.ItemID,
		ItemType:       string(c.ItemType),
		ConstraintType: string(c.ConstraintType),
		ConstraintDate: c.ConstraintDate,
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evanmoran/ganttd/internal/calendar"
	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/repository"
)

type organizationService struct {
	orgs      repository.OrganizationRepo
	holidays  repository.HolidayRepo
	calendars *calendar.Service
	observer  *UseCaseObserver

	now func() time.Time
}

func NewOrganizationService(
	orgs repository.OrganizationRepo,
	holidays repository.HolidayRepo,
	calendars *calendar.Service,
	observer *UseCaseObserver,
) OrganizationService {
	return &organizationService{
		orgs:      orgs,
		holidays:  holidays,
		calendars: calendars,
		observer:  observer,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *organizationService) Get(ctx context.Context, actor Actor) (*domain.Organization, error) {
	return s.orgs.GetByID(ctx, actor.OrganizationID)
}

// Update edits the tenant's working-time configuration. Any cached calendar
// derived from the old configuration is invalidated on success.
func (s *organizationService) Update(ctx context.Context, actor Actor, in UpdateOrganizationInput) (org *domain.Organization, err error) {
	defer s.observer.Observe("organization.update")(err)

	if actor.Role != domain.RolePMO {
		return nil, fmt.Errorf("only PMO can edit the organization: %w", domain.ErrForbidden)
	}
	org, err = s.orgs.GetByID(ctx, actor.OrganizationID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		org.Name = *in.Name
	}
	if in.Timezone != nil {
		org.Timezone = *in.Timezone
	}
	if in.WorkingDaysMask != nil {
		org.WorkingDaysMask = *in.WorkingDaysMask
	}
	if in.WorkingHours != nil {
		org.WorkingHours = in.WorkingHours
	}
	org.UpdatedAt = s.now()

	if err = org.Validate(); err != nil {
		return nil, err
	}
	if err = s.orgs.Update(ctx, org); err != nil {
		return nil, err
	}
	s.calendars.Invalidate(org.ID)
	return org, nil
}

func (s *organizationService) AddHoliday(ctx context.Context, actor Actor, date, name string) (holiday *domain.Holiday, err error) {
	defer s.observer.Observe("organization.add_holiday")(err)

	if actor.Role != domain.RolePMO && actor.Role != domain.RolePM {
		return nil, fmt.Errorf("role %s cannot edit holidays: %w", actor.Role, domain.ErrForbidden)
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("%w: holiday date must be YYYY-MM-DD", domain.ErrValidation)
	}

	holiday = &domain.Holiday{
		ID:             uuid.NewString(),
		OrganizationID: actor.OrganizationID,
		Date:           day,
		Description:    name,
		CreatedAt:      s.now(),
	}
	if err = s.holidays.Create(ctx, holiday); err != nil {
		return nil, err
	}
	s.calendars.Invalidate(actor.OrganizationID)
	return holiday, nil
}

func (s *organizationService) ListHolidays(ctx context.Context, actor Actor) ([]domain.Holiday, error) {
	return s.holidays.ListByOrganization(ctx, actor.OrganizationID)
}

func (s *organizationService) RemoveHoliday(ctx context.Context, actor Actor, holidayID string) (err error) {
	defer s.observer.Observe("organization.remove_holiday")(err)

	if actor.Role != domain.RolePMO && actor.Role != domain.RolePM {
		return fmt.Errorf("role %s cannot edit holidays: %w", actor.Role, domain.ErrForbidden)
	}
	if err = s.holidays.Delete(ctx, holidayID); err != nil {
		return err
	}
	s.calendars.Invalidate(actor.OrganizationID)
	return nil
}

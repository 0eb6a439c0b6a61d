package calendar

import (
	"context"
	"fmt"
	"sync"

	"github.com/evanmoran/ganttd/internal/repository"
)

// Service resolves calendar configs from the store and memoises them per
// organisation. The cache is process-local; Invalidate must be called
// whenever an organisation's working config or holidays mutate.
type Service struct {
	orgs     repository.OrganizationRepo
	holidays repository.HolidayRepo

	mu    sync.RWMutex
	cache map[string]*Config
}

func NewService(orgs repository.OrganizationRepo, holidays repository.HolidayRepo) *Service {
	return &Service{
		orgs:     orgs,
		holidays: holidays,
		cache:    make(map[string]*Config),
	}
}

// ConfigFor returns the resolved config for the organisation, loading and
// caching it on first use.
func (s *Service) ConfigFor(ctx context.Context, orgID string) (*Config, error) {
	s.mu.RLock()
	cfg, ok := s.cache[orgID]
	s.mu.RUnlock()
	if ok {
		return cfg, nil
	}

	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("loading organization: %w", err)
	}
	holidays, err := s.holidays.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("loading holidays: %w", err)
	}
	cfg, err = NewConfig(org, holidays)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[orgID] = cfg
	s.mu.Unlock()
	return cfg, nil
}

// Invalidate drops the cached config for the organisation.
func (s *Service) Invalidate(orgID string) {
	s.mu.Lock()
	delete(s.cache, orgID)
	s.mu.Unlock()
}

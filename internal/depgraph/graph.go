// Package depgraph manages typed, lagged precedence edges between activities
// or between tasks, rejecting self-edges and edges that would close a cycle.
package depgraph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evanmoran/ganttd/internal/db"
	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/repository"
)

// ItemDependencies pairs the incoming and outgoing edges of one item.
type ItemDependencies struct {
	Incoming []domain.Dependency `json:"incoming"`
	Outgoing []domain.Dependency `json:"outgoing"`
}

// Service is the only writer of dependency edges. Creation re-runs the cycle
// check inside the same transaction that inserts the edge: SQLite serialises
// writers, so a concurrent insert cannot slip a cycle past the DFS.
type Service struct {
	uow      db.UnitOfWork
	newRepos func(db.DBTX) *repository.Repos
	deps     repository.DependencyRepo
}

func NewService(uow db.UnitOfWork, deps repository.DependencyRepo) *Service {
	return &Service{uow: uow, newRepos: repository.NewRepos, deps: deps}
}

// CreateActivityDependency creates a typed edge between two activities.
func (s *Service) CreateActivityDependency(ctx context.Context, predID, succID string, depType domain.DependencyType, lagDays float64) (*domain.Dependency, error) {
	d := &domain.Dependency{
		ID:                    uuid.NewString(),
		ActivityPredecessorID: &predID,
		ActivitySuccessorID:   &succID,
		Type:                  depType,
		LagDays:               lagDays,
		LagKind:               domain.LagCalendarDays,
		CreatedAt:             time.Now().UTC(),
	}
	return s.create(ctx, d)
}

// CreateTaskDependency creates a typed edge between two tasks.
func (s *Service) CreateTaskDependency(ctx context.Context, predID, succID string, depType domain.DependencyType, lagDays float64) (*domain.Dependency, error) {
	d := &domain.Dependency{
		ID:                uuid.NewString(),
		TaskPredecessorID: &predID,
		TaskSuccessorID:   &succID,
		Type:              depType,
		LagDays:           lagDays,
		LagKind:           domain.LagCalendarDays,
		CreatedAt:         time.Now().UTC(),
	}
	return s.create(ctx, d)
}

func (s *Service) create(ctx context.Context, d *domain.Dependency) (*domain.Dependency, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := s.newRepos(tx)
		if err := endpointsExist(ctx, repos, d); err != nil {
			return err
		}
		reachable, err := pathExists(ctx, repos.Dependencies, d.SuccessorID(), d.PredecessorID(), d.Kind())
		if err != nil {
			return err
		}
		if reachable {
			return domain.ErrCycleDetected
		}
		return repos.Dependencies.Create(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Get returns one edge by id.
func (s *Service) Get(ctx context.Context, depID string) (*domain.Dependency, error) {
	return s.deps.GetByID(ctx, depID)
}

// Delete removes one edge by id.
func (s *Service) Delete(ctx context.Context, depID string) error {
	return s.deps.Delete(ctx, depID)
}

// GetPredecessors returns the incoming edges of the item, scoped to its kind.
func (s *Service) GetPredecessors(ctx context.Context, itemID string, kind domain.ItemType) ([]domain.Dependency, error) {
	return s.deps.ListPredecessors(ctx, itemID, kind)
}

// GetSuccessors returns the outgoing edges of the item, scoped to its kind.
func (s *Service) GetSuccessors(ctx context.Context, itemID string, kind domain.ItemType) ([]domain.Dependency, error) {
	return s.deps.ListSuccessors(ctx, itemID, kind)
}

// GetDependencies returns both edge directions of the item.
func (s *Service) GetDependencies(ctx context.Context, itemID string, kind domain.ItemType) (*ItemDependencies, error) {
	incoming, err := s.deps.ListPredecessors(ctx, itemID, kind)
	if err != nil {
		return nil, err
	}
	outgoing, err := s.deps.ListSuccessors(ctx, itemID, kind)
	if err != nil {
		return nil, err
	}
	return &ItemDependencies{Incoming: incoming, Outgoing: outgoing}, nil
}

func endpointsExist(ctx context.Context, repos *repository.Repos, d *domain.Dependency) error {
	if d.Kind() == domain.ItemTask {
		if _, err := repos.Tasks.GetByID(ctx, d.PredecessorID()); err != nil {
			return fmt.Errorf("predecessor: %w", err)
		}
		if _, err := repos.Tasks.GetByID(ctx, d.SuccessorID()); err != nil {
			return fmt.Errorf("successor: %w", err)
		}
		return nil
	}
	if _, err := repos.Activities.GetByID(ctx, d.PredecessorID()); err != nil {
		return fmt.Errorf("predecessor: %w", err)
	}
	if _, err := repos.Activities.GetByID(ctx, d.SuccessorID()); err != nil {
		return fmt.Errorf("successor: %w", err)
	}
	return nil
}

// pathExists runs an iterative DFS over successor edges of the given kind,
// reporting whether target is reachable from start. It keeps both a visited
// set and an on-stack set; vertex count bounds termination.
func pathExists(ctx context.Context, deps repository.DependencyRepo, start, target string, kind domain.ItemType) (bool, error) {
	if start == target {
		return true, nil
	}

	visited := map[string]bool{}
	onStack := map[string]bool{}
	stack := []string{start}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		onStack[node] = false
		if visited[node] {
			continue
		}
		visited[node] = true

		succs, err := deps.ListSuccessors(ctx, node, kind)
		if err != nil {
			return false, err
		}
		for _, edge := range succs {
			next := edge.SuccessorID()
			if next == target {
				return true, nil
			}
			if !visited[next] && !onStack[next] {
				onStack[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false, nil
}

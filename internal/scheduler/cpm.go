// Package scheduler computes project timelines with the critical path method:
// a forward pass for earliest dates, a backward pass for latest dates, total
// slack and the critical path, all under the organisation's working calendar.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/evanmoran/ganttd/internal/calendar"
	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/repository"
)

// criticalSlackDays is the slack threshold below which a node counts as
// critical.
const criticalSlackDays = 1.0

type edge struct {
	other string
	typ   domain.DependencyType
	lag   time.Duration
}

type node struct {
	id            string
	kind          domain.ItemType
	name          string
	durationHours float64

	preds []edge
	succs []edge

	earlyStart time.Time
	earlyEnd   time.Time
	lateStart  time.Time
	lateEnd    time.Time
}

// Service runs CPM over a value snapshot of one project. Results are pure
// values; nothing is written back.
type Service struct {
	projects   repository.ProjectRepo
	activities repository.ActivityRepo
	tasks      repository.TaskRepo
	deps       repository.DependencyRepo
	calendars  *calendar.Service
}

func NewService(
	projects repository.ProjectRepo,
	activities repository.ActivityRepo,
	tasks repository.TaskRepo,
	deps repository.DependencyRepo,
	calendars *calendar.Service,
) *Service {
	return &Service{
		projects:   projects,
		activities: activities,
		tasks:      tasks,
		deps:       deps,
		calendars:  calendars,
	}
}

// CalculateProjectSchedule loads the project's activities, tasks and
// dependencies in one batch and runs both CPM passes. A cycle in the stored
// graph is an invariant breach and surfaces as domain.ErrGraphCycle.
func (s *Service) CalculateProjectSchedule(ctx context.Context, projectID string) (*domain.ProjectSchedule, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading project: %w", err)
	}
	cfg, err := s.calendars.ConfigFor(ctx, project.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("resolving calendar: %w", err)
	}

	activities, err := s.activities.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}
	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	deps, err := s.deps.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading dependencies: %w", err)
	}

	nodes := buildNodes(activities, tasks, deps)
	order, err := topologicalOrder(ctx, nodes)
	if err != nil {
		return nil, err
	}
	if err := s.forwardPass(ctx, cfg, nodes, order, project.StartDate); err != nil {
		return nil, err
	}
	projectEnd := maxEarlyEnd(nodes, project.StartDate)
	if err := backwardPass(ctx, cfg, nodes, order, projectEnd); err != nil {
		return nil, err
	}

	return buildResult(projectID, project.StartDate, projectEnd, nodes, order), nil
}

func buildNodes(activities []*domain.Activity, tasks []*domain.Task, deps []domain.Dependency) map[string]*node {
	nodes := make(map[string]*node, len(activities)+len(tasks))

	maxChildHours := map[string]float64{}
	for _, t := range tasks {
		if t.DurationHours > maxChildHours[t.ActivityID] {
			maxChildHours[t.ActivityID] = t.DurationHours
		}
	}

	for _, a := range activities {
		// The activity is an envelope: its duration is the wall-clock span
		// of its stored dates, falling back to the longest child task when
		// the span is zero.
		hours := a.WallClockHours()
		if hours == 0 {
			hours = maxChildHours[a.ID]
		}
		nodes[a.ID] = &node{id: a.ID, kind: domain.ItemActivity, name: a.Name, durationHours: hours}
	}
	for _, t := range tasks {
		nodes[t.ID] = &node{id: t.ID, kind: domain.ItemTask, name: t.Name, durationHours: t.DurationHours}
	}

	for _, d := range deps {
		pred, okP := nodes[d.PredecessorID()]
		succ, okS := nodes[d.SuccessorID()]
		if !okP || !okS {
			continue
		}
		pred.succs = append(pred.succs, edge{other: succ.id, typ: d.Type, lag: d.Lag()})
		succ.preds = append(succ.preds, edge{other: pred.id, typ: d.Type, lag: d.Lag()})
	}
	return nodes
}

// topologicalOrder is Kahn's algorithm with a deterministic tie-break by node
// id. An order shorter than the node count means the stored graph has a
// cycle, which creation-time checks should have made impossible.
func topologicalOrder(ctx context.Context, nodes map[string]*node) ([]*node, error) {
	indegree := make(map[string]int, len(nodes))
	for id, n := range nodes {
		indegree[id] = len(n.preds)
	}

	var ready []string
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]*node, 0, len(nodes))
	for len(ready) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := ready[0]
		ready = ready[1:]
		n := nodes[id]
		order = append(order, n)

		var unlocked []string
		for _, e := range n.succs {
			indegree[e.other]--
			if indegree[e.other] == 0 {
				unlocked = append(unlocked, e.other)
			}
		}
		sort.Strings(unlocked)
		ready = mergeSorted(ready, unlocked)
	}

	if len(order) != len(nodes) {
		return nil, domain.ErrGraphCycle
	}
	return order, nil
}

// mergeSorted merges two ascending id slices, preserving determinism.
func mergeSorted(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// forwardPass computes early dates in topological order. FS/SS constraints
// bind the start; FF/SF bind the end, with the start derived by working-time
// subtraction so both directions use the same arithmetic.
func (s *Service) forwardPass(ctx context.Context, cfg *calendar.Config, nodes map[string]*node, order []*node, projectStart time.Time) error {
	for _, n := range order {
		if err := ctx.Err(); err != nil {
			return err
		}

		var startBound, endBound time.Time
		for _, e := range n.preds {
			pred := nodes[e.other]
			switch e.typ {
			case domain.DepFinishToStart:
				startBound = laterOf(startBound, pred.earlyEnd.Add(e.lag))
			case domain.DepStartToStart:
				startBound = laterOf(startBound, pred.earlyStart.Add(e.lag))
			case domain.DepFinishToFinish:
				endBound = laterOf(endBound, pred.earlyEnd.Add(e.lag))
			case domain.DepStartToFinish:
				endBound = laterOf(endBound, pred.earlyStart.Add(e.lag))
			}
		}

		if startBound.IsZero() {
			startBound = projectStart
		}
		n.earlyStart = startBound
		end, err := cfg.AddWorkingTime(ctx, n.earlyStart, n.durationHours)
		if err != nil {
			if errors.Is(err, domain.ErrScheduleOverflow) {
				return fmt.Errorf("scheduling %s: %w", n.id, err)
			}
			return err
		}
		n.earlyEnd = end

		if !endBound.IsZero() && endBound.After(n.earlyEnd) {
			n.earlyEnd = endBound
			start, err := cfg.SubtractWorkingTime(ctx, endBound, n.durationHours)
			if err != nil {
				return err
			}
			n.earlyStart = start
		}
	}
	return nil
}

// backwardPass computes late dates in reverse topological order, mirroring
// the forward pass: the late start is the late end minus the working-hours
// duration.
func backwardPass(ctx context.Context, cfg *calendar.Config, nodes map[string]*node, order []*node, projectEnd time.Time) error {
	for i := len(order) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := order[i]

		endBound := time.Time{}
		for _, e := range n.succs {
			succ := nodes[e.other]
			var cand time.Time
			var err error
			switch e.typ {
			case domain.DepFinishToStart:
				cand = succ.lateStart.Add(-e.lag)
			case domain.DepStartToStart:
				// Bounds the start; translate to an end bound.
				cand, err = cfg.AddWorkingTime(ctx, succ.lateStart.Add(-e.lag), n.durationHours)
			case domain.DepFinishToFinish:
				cand = succ.lateEnd.Add(-e.lag)
			case domain.DepStartToFinish:
				cand, err = cfg.AddWorkingTime(ctx, succ.lateEnd.Add(-e.lag), n.durationHours)
			}
			if err != nil {
				return err
			}
			endBound = earlierOf(endBound, cand)
		}
		if endBound.IsZero() {
			endBound = projectEnd
		}
		n.lateEnd = endBound
		start, err := cfg.SubtractWorkingTime(ctx, endBound, n.durationHours)
		if err != nil {
			return err
		}
		n.lateStart = start
	}
	return nil
}

func buildResult(projectID string, projectStart, projectEnd time.Time, nodes map[string]*node, order []*node) *domain.ProjectSchedule {
	result := &domain.ProjectSchedule{
		ProjectID:         projectID,
		StartDate:         projectStart,
		EndDate:           projectEnd,
		TotalDurationDays: projectEnd.Sub(projectStart).Hours() / 24,
		IsFeasible:        true,
	}

	for _, n := range order {
		slack := n.lateStart.Sub(n.earlyStart).Hours() / 24
		critical := slack < criticalSlackDays
		result.Items = append(result.Items, domain.ScheduledItem{
			ItemID:     n.id,
			ItemType:   n.kind,
			Name:       n.name,
			EarlyStart: n.earlyStart,
			EarlyEnd:   n.earlyEnd,
			LateStart:  n.lateStart,
			LateEnd:    n.lateEnd,
			SlackDays:  slack,
			IsCritical: critical,
		})
		if critical {
			result.CriticalPath = append(result.CriticalPath, n.id)
		}
	}

	if projectEnd.Before(projectStart) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("computed project end %s precedes start %s", projectEnd.Format(time.RFC3339), projectStart.Format(time.RFC3339)))
	}
	result.IsFeasible = len(result.Warnings) == 0
	return result
}

func maxEarlyEnd(nodes map[string]*node, fallback time.Time) time.Time {
	end := fallback
	for _, n := range nodes {
		if n.earlyEnd.After(end) {
			end = n.earlyEnd
		}
	}
	return end
}

func laterOf(a, b time.Time) time.Time {
	if a.IsZero() || b.After(a) {
		return b
	}
	return a
}

func earlierOf(a, b time.Time) time.Time {
	if a.IsZero() || b.Before(a) {
		return b
	}
	return a
}

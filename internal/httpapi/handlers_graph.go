package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/service"
)

func parseItemType(raw string) (domain.ItemType, error) {
	switch domain.ItemType(raw) {
	case domain.ItemActivity:
		return domain.ItemActivity, nil
	case domain.ItemTask:
		return domain.ItemTask, nil
	default:
		return "", fmt.Errorf("%w: unknown item type %q", domain.ErrValidation, raw)
	}
}

// checkItemVisible routes the visibility check through the item services so
// tenant scoping and membership apply to graph and constraint endpoints too.
func (s *Server) checkItemVisible(ctx context.Context, actor service.Actor, kind domain.ItemType, itemID string) error {
	var err error
	if kind == domain.ItemTask {
		_, err = s.tasks.Get(ctx, actor, itemID)
	} else {
		_, err = s.activities.Get(ctx, actor, itemID)
	}
	return err
}

func (s *Server) handleCreateDependency(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemType      string  `json:"itemType"`
		PredecessorID string  `json:"predecessorId"`
		SuccessorID   string  `json:"successorId"`
		Type          string  `json:"type"`
		LagDays       float64 `json:"lagDays"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	kind, err := parseItemType(req.ItemType)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	actor := actorFrom(r.Context())
	if err := s.checkItemVisible(r.Context(), actor, kind, req.PredecessorID); err != nil {
		writeError(w, s.log, err)
		return
	}
	if !actor.Role.CanVerify() && actor.Role != domain.RoleTeamMember {
		writeError(w, s.log, fmt.Errorf("role %s cannot edit dependencies: %w", actor.Role, domain.ErrForbidden))
		return
	}

	depType := domain.DependencyType(req.Type)
	var dep *domain.Dependency
	if kind == domain.ItemTask {
		dep, err = s.graph.CreateTaskDependency(r.Context(), req.PredecessorID, req.SuccessorID, depType, req.LagDays)
	} else {
		dep, err = s.graph.CreateActivityDependency(r.Context(), req.PredecessorID, req.SuccessorID, depType, req.LagDays)
	}
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDependencyDTO(*dep))
}

func (s *Server) handleDeleteDependency(w http.ResponseWriter, r *http.Request) {
	dep, err := s.graph.Get(r.Context(), chi.URLParam(r, "dependencyID"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	actor := actorFrom(r.Context())
	if err := s.checkItemVisible(r.Context(), actor, dep.Kind(), dep.PredecessorID()); err != nil {
		writeError(w, s.log, err)
		return
	}
	if !actor.Role.CanVerify() && actor.Role != domain.RoleTeamMember {
		writeError(w, s.log, fmt.Errorf("role %s cannot edit dependencies: %w", actor.Role, domain.ErrForbidden))
		return
	}

	if err := s.graph.Delete(r.Context(), dep.ID); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleItemDependencies(w http.ResponseWriter, r *http.Request) {
	kind, err := parseItemType(chi.URLParam(r, "itemType"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	itemID := chi.URLParam(r, "itemID")
	if err := s.checkItemVisible(r.Context(), actorFrom(r.Context()), kind, itemID); err != nil {
		writeError(w, s.log, err)
		return
	}

	deps, err := s.graph.GetDependencies(r.Context(), itemID, kind)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	incoming := make([]dependencyDTO, 0, len(deps.Incoming))
	for _, d := range deps.Incoming {
		incoming = append(incoming, toDependencyDTO(d))
	}
	outgoing := make([]dependencyDTO, 0, len(deps.Outgoing))
	for _, d := range deps.Outgoing {
		outgoing = append(outgoing, toDependencyDTO(d))
	}
	writeJSON(w, http.StatusOK, map[string][]dependencyDTO{
		"incoming": incoming,
		"outgoing": outgoing,
	})
}

func (s *Server) handleAddConstraint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID         string     `json:"itemId"`
		ItemType       string     `json:"itemType"`
		ConstraintType string     `json:"constraintType"`
		ConstraintDate *time.Time `json:"constraintDate"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	kind, err := parseItemType(req.ItemType)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	actor := actorFrom(r.Context())
	if err := s.checkItemVisible(r.Context(), actor, kind, req.ItemID); err != nil {
		writeError(w, s.log, err)
		return
	}
	if !actor.Role.CanVerify() {
		writeError(w, s.log, fmt.Errorf("role %s cannot edit constraints: %w", actor.Role, domain.ErrForbidden))
		return
	}

	c, err := s.constraints.AddConstraint(r.Context(), req.ItemID, kind, domain.ConstraintType(req.ConstraintType), req.ConstraintDate)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toConstraintDTO(*c))
}

func (s *Server) handleRemoveConstraint(w http.ResponseWriter, r *http.Request) {
	c, err := s.constraints.GetConstraint(r.Context(), chi.URLParam(r, "constraintID"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	actor := actorFrom(r.Context())
	if err := s.checkItemVisible(r.Context(), actor, c.ItemType, c.ItemID); err != nil {
		writeError(w, s.log, err)
		return
	}
	if !actor.Role.CanVerify() {
		writeError(w, s.log, fmt.Errorf("role %s cannot edit constraints: %w", actor.Role, domain.ErrForbidden))
		return
	}

	if err := s.constraints.RemoveConstraint(r.Context(), c.ID); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleItemConstraints(w http.ResponseWriter, r *http.Request) {
	kind, err := parseItemType(chi.URLParam(r, "itemType"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	itemID := chi.URLParam(r, "itemID")
	if err := s.checkItemVisible(r.Context(), actorFrom(r.Context()), kind, itemID); err != nil {
		writeError(w, s.log, err)
		return
	}

	constraints, err := s.constraints.ListConstraints(r.Context(), itemID, kind)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	out := make([]constraintDTO, 0, len(constraints))
	for _, c := range constraints {
		out = append(out, toConstraintDTO(c))
	}
	writeJSON(w, http.StatusOK, out)
}

type dateEditRequest struct {
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	ForceOverride bool      `json:"forceOverride"`
}

func (s *Server) handleValidateDates(w http.ResponseWriter, r *http.Request) {
	kind, err := parseItemType(chi.URLParam(r, "itemType"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	itemID := chi.URLParam(r, "itemID")
	if err := s.checkItemVisible(r.Context(), actorFrom(r.Context()), kind, itemID); err != nil {
		writeError(w, s.log, err)
		return
	}

	var req dateEditRequest
	if err := decode(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	result, err := s.constraints.ValidateDateEdit(r.Context(), itemID, kind, req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleApplyDates(w http.ResponseWriter, r *http.Request) {
	kind, err := parseItemType(chi.URLParam(r, "itemType"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	itemID := chi.URLParam(r, "itemID")
	actor := actorFrom(r.Context())
	if err := s.checkItemVisible(r.Context(), actor, kind, itemID); err != nil {
		writeError(w, s.log, err)
		return
	}
	if actor.Role == domain.RoleClient {
		writeError(w, s.log, fmt.Errorf("role %s is read-only: %w", actor.Role, domain.ErrForbidden))
		return
	}

	var req dateEditRequest
	if err := decode(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	// Forcing past violations is a manager action.
	if req.ForceOverride && !actor.Role.CanVerify() {
		writeError(w, s.log, fmt.Errorf("role %s cannot force a date edit: %w", actor.Role, domain.ErrForbidden))
		return
	}
	result, err := s.constraints.ApplyDateEdit(r.Context(), itemID, kind, req.StartDate, req.EndDate, req.ForceOverride)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDateRange(w http.ResponseWriter, r *http.Request) {
	kind, err := parseItemType(chi.URLParam(r, "itemType"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	itemID := chi.URLParam(r, "itemID")
	if err := s.checkItemVisible(r.Context(), actorFrom(r.Context()), kind, itemID); err != nil {
		writeError(w, s.log, err)
		return
	}

	rangeResult, err := s.constraints.GetValidDateRange(r.Context(), itemID, kind)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rangeResult)
}

func (s *Server) handlePropagateDates(w http.ResponseWriter, r *http.Request) {
	kind, err := parseItemType(chi.URLParam(r, "itemType"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	itemID := chi.URLParam(r, "itemID")
	actor := actorFrom(r.Context())
	if err := s.checkItemVisible(r.Context(), actor, kind, itemID); err != nil {
		writeError(w, s.log, err)
		return
	}
	if actor.Role == domain.RoleClient {
		writeError(w, s.log, fmt.Errorf("role %s is read-only: %w", actor.Role, domain.ErrForbidden))
		return
	}

	changes, err := s.constraints.PropagateDateChanges(r.Context(), itemID, kind)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.DateChange{"changes": changes})
}

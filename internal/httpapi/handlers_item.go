package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/service"
)

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := s.activities.ListByProject(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	out := make([]activityDTO, 0, len(activities))
	for _, a := range activities {
		out = append(out, toActivityDTO(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                  string    `json:"name"`
		Description           string    `json:"description"`
		StartDate             time.Time `json:"startDate"`
		EndDate               time.Time `json:"endDate"`
		VerificationChecklist []string  `json:"verificationChecklist"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	activity, err := s.activities.Create(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "projectID"), service.CreateActivityInput{
		Name:                  req.Name,
		Description:           req.Description,
		StartDate:             req.StartDate,
		EndDate:               req.EndDate,
		VerificationChecklist: req.VerificationChecklist,
	})
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toActivityDTO(activity))
}

func (s *Server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := s.activities.Get(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "activityID"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityDTO(activity))
}

func (s *Server) handleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                  *string  `json:"name"`
		Description           *string  `json:"description"`
		VerificationChecklist []string `json:"verificationChecklist"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	activity, err := s.activities.Update(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "activityID"), service.UpdateActivityInput{
		Name:                  req.Name,
		Description:           req.Description,
		VerificationChecklist: req.VerificationChecklist,
	})
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityDTO(activity))
}

func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	if err := s.activities.Delete(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "activityID")); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseStatus(raw string) (domain.Status, error) {
	if !domain.ValidStatuses[raw] {
		return "", fmt.Errorf("%w: unknown status %q", domain.ErrValidation, raw)
	}
	return domain.Status(raw), nil
}

func (s *Server) handleActivityStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	to, err := parseStatus(req.Status)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	activity, err := s.activities.Transition(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "activityID"), to)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityDTO(activity))
}

func (s *Server) handleRecalculateProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.activities.RecalculateProgress(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "activityID"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"progressPercentage": progress})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.ListByActivity(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "activityID"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	out := make([]taskDTO, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskDTO(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string    `json:"name"`
		Description   string    `json:"description"`
		StartDate     time.Time `json:"startDate"`
		EndDate       time.Time `json:"endDate"`
		DurationHours float64   `json:"durationHours"`
		AssigneeID    *string   `json:"assigneeId"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	task, err := s.tasks.Create(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "activityID"), service.CreateTaskInput{
		Name:          req.Name,
		Description:   req.Description,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		DurationHours: req.DurationHours,
		AssigneeID:    req.AssigneeID,
	})
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskDTO(task))
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.Get(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          *string  `json:"name"`
		Description   *string  `json:"description"`
		DurationHours *float64 `json:"durationHours"`
		AssigneeID    *string  `json:"assigneeId"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	task, err := s.tasks.Update(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "taskID"), service.UpdateTaskInput{
		Name:          req.Name,
		Description:   req.Description,
		DurationHours: req.DurationHours,
		AssigneeID:    req.AssigneeID,
	})
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.Delete(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "taskID")); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	to, err := parseStatus(req.Status)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	task, err := s.tasks.Transition(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "taskID"), to)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

func (s *Server) handleTaskProgress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProgressPercentage float64 `json:"progressPercentage"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	task, err := s.tasks.UpdateProgress(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "taskID"), req.ProgressPercentage)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

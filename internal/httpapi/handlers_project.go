package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/service"
)

type projectPageResponse struct {
	Projects []projectDTO `json:"projects"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	Limit    int          `json:"limit"`
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	var status *domain.Status
	if raw := q.Get("status"); raw != "" {
		if !domain.ValidStatuses[raw] {
			writeError(w, s.log, domain.ErrValidation)
			return
		}
		st := domain.Status(raw)
		status = &st
	}

	result, err := s.projects.List(r.Context(), actorFrom(r.Context()), service.ListProjectsInput{
		Status: status,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		writeError(w, s.log, err)
		return
	}

	resp := projectPageResponse{
		Projects: make([]projectDTO, 0, len(result.Projects)),
		Total:    result.Total,
		Page:     max(page, 1),
		Limit:    limit,
	}
	if resp.Limit < 1 || resp.Limit > 100 {
		resp.Limit = 20
	}
	for _, p := range result.Projects {
		resp.Projects = append(resp.Projects, toProjectDTO(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string    `json:"name"`
		Description string    `json:"description"`
		StartDate   time.Time `json:"startDate"`
		Timezone    string    `json:"timezone"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	project, err := s.projects.Create(r.Context(), actorFrom(r.Context()), service.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		Timezone:    req.Timezone,
	})
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectDTO(project))
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.projects.Get(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(project))
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string    `json:"name"`
		Description *string    `json:"description"`
		StartDate   *time.Time `json:"startDate"`
		Timezone    *string    `json:"timezone"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	project, err := s.projects.Update(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "projectID"), service.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		Timezone:    req.Timezone,
	})
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(project))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.projects.Delete(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "projectID")); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.projects.ListMembers(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	out := make([]userDTO, 0, len(members))
	for _, m := range members {
		out = append(out, toUserDTO(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	if err := s.projects.AddMember(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "projectID"), req.UserID); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	err := s.projects.RemoveMember(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "projectID"), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProjectSchedule(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	// Visibility check before the raw schedule computation.
	if _, err := s.projects.Get(r.Context(), actorFrom(r.Context()), projectID); err != nil {
		writeError(w, s.log, err)
		return
	}
	schedule, err := s.scheduling.CalculateProjectSchedule(r.Context(), projectID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

func (s *Server) handleProjectStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.analytics.Project(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRefreshTracking(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if _, err := s.projects.Get(r.Context(), actorFrom(r.Context()), projectID); err != nil {
		writeError(w, s.log, err)
		return
	}
	if err := s.lifecycle.RefreshTracking(r.Context(), projectID); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := s.analytics.Dashboard(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

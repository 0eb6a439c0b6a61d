package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/service"
)

func (s *Server) handleGetOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := s.orgs.Get(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationDTO(org))
}

func (s *Server) handleUpdateOrganization(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            *string               `json:"name"`
		Timezone        *string               `json:"timezone"`
		WorkingDaysMask *string               `json:"workingDaysMask"`
		WorkingHours    []domain.WorkingBlock `json:"workingHours"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	org, err := s.orgs.Update(r.Context(), actorFrom(r.Context()), service.UpdateOrganizationInput{
		Name:            req.Name,
		Timezone:        req.Timezone,
		WorkingDaysMask: req.WorkingDaysMask,
		WorkingHours:    req.WorkingHours,
	})
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationDTO(org))
}

func (s *Server) handleListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := s.orgs.ListHolidays(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	out := make([]holidayDTO, 0, len(holidays))
	for _, h := range holidays {
		out = append(out, toHolidayDTO(h))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddHoliday(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date        string `json:"date"`
		Description string `json:"description"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	holiday, err := s.orgs.AddHoliday(r.Context(), actorFrom(r.Context()), req.Date, req.Description)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(*holiday))
}

func (s *Server) handleRemoveHoliday(w http.ResponseWriter, r *http.Request) {
	if err := s.orgs.RemoveHoliday(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "holidayID")); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

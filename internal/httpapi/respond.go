package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/evanmoran/ganttd/internal/domain"
)

// errorBody is the uniform error envelope: a stable machine-readable code, a
// human message and optional structured details.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses. Unclassified
// errors become opaque 500s; the detail stays in the server log.
func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var (
		transitionErr *domain.InvalidStatusTransitionError
		verifyErr     *domain.ActivityVerifyBlockedError
		violationErr  *domain.ConstraintViolationError
	)

	switch {
	case errors.As(err, &violationErr):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   "CONSTRAINT_VIOLATION",
			Message: violationErr.Error(),
			Details: violationErr.Violations,
		})
	case errors.As(err, &transitionErr):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   "INVALID_TRANSITION",
			Message: transitionErr.Error(),
		})
	case errors.As(err, &verifyErr):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   "VERIFICATION_BLOCKED",
			Message: verifyErr.Error(),
			Details: map[string]int{"unverifiedTasks": verifyErr.UnverifiedTasks},
		})
	case errors.Is(err, domain.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "UNAUTHENTICATED", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "FORBIDDEN", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrUniqueConflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrSelfDependency),
		errors.Is(err, domain.ErrCycleDetected),
		errors.Is(err, domain.ErrReferentialIntegrity),
		errors.Is(err, domain.ErrProgressNotEditable),
		errors.Is(err, domain.ErrScheduleOverflow):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "VALIDATION_FAILED", Message: err.Error()})
	default:
		log.Error().Err(err).Msg("unhandled error")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "INTERNAL", Message: "internal server error"})
	}
}

// decode parses a JSON request body into dst.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", domain.ErrValidation, err)
	}
	return nil
}

package repository

import (
	"database/sql"
	"strings"
	"time"

	"github.com/evanmoran/ganttd/internal/domain"
)

// ErrNotFound is re-exported so repository callers can classify lookups
// without importing domain.
var ErrNotFound = domain.ErrNotFound

// parseNullableTime parses a sql.NullString into a *time.Time.
// Returns nil if the value is NULL, empty, or fails to parse.
func parseNullableTime(s sql.NullString, layout string) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(layout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// nullableTimeToString converts a *time.Time to a SQLite value.
func nullableTimeToString(t *time.Time, layout string) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(layout)
}

// nullableString converts a *string to a SQLite value.
func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// stringPtrFromNull converts a sql.NullString back to a *string.
func stringPtrFromNull(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// joinChecklist flattens a verification checklist to one TEXT column,
// newline separated. Empty slices store as the empty string.
func joinChecklist(items []string) string {
	return strings.Join(items, "\n")
}

// splitChecklist restores a checklist column into its entries.
func splitChecklist(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// isUniqueViolation reports whether err is a SQLite unique-constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation reports whether err is a SQLite FK error.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

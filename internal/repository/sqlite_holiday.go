package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/evanmoran/ganttd/internal/db"
	"github.com/evanmoran/ganttd/internal/domain"
)

// SQLiteHolidayRepo stores holidays as calendar days ("2006-01-02"). The day
// is interpreted in the organisation's timezone by the calendar package.
type SQLiteHolidayRepo struct {
	db db.DBTX
}

func NewSQLiteHolidayRepo(dbtx db.DBTX) *SQLiteHolidayRepo {
	return &SQLiteHolidayRepo{db: dbtx}
}

const holidayDateLayout = "2006-01-02"

func (r *SQLiteHolidayRepo) Create(ctx context.Context, h *domain.Holiday) error {
	query := `INSERT INTO holidays (id, organization_id, date, description, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		h.ID, h.OrganizationID, h.Date.Format(holidayDateLayout), h.Description,
		h.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("holiday on %s: %w", h.Date.Format(holidayDateLayout), domain.ErrUniqueConflict)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("organization %s: %w", h.OrganizationID, domain.ErrReferentialIntegrity)
		}
		return fmt.Errorf("inserting holiday: %w", err)
	}
	return nil
}

func (r *SQLiteHolidayRepo) ListByOrganization(ctx context.Context, orgID string) ([]domain.Holiday, error) {
	query := `SELECT id, organization_id, date, description, created_at
		FROM holidays WHERE organization_id = ? ORDER BY date`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("listing holidays: %w", err)
	}
	defer rows.Close()

	var holidays []domain.Holiday
	for rows.Next() {
		var h domain.Holiday
		var date, createdAt string
		if err := rows.Scan(&h.ID, &h.OrganizationID, &date, &h.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning holiday: %w", err)
		}
		if h.Date, err = time.Parse(holidayDateLayout, date); err != nil {
			return nil, fmt.Errorf("parsing holiday date: %w", err)
		}
		if h.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating holidays: %w", err)
	}
	return holidays, nil
}

func (r *SQLiteHolidayRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting holiday: %w", err)
	}
	return requireRowAffected(res, "holiday")
}

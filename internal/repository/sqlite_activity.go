package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/evanmoran/ganttd/internal/db"
	"github.com/evanmoran/ganttd/internal/domain"
)

type SQLiteActivityRepo struct {
	db db.DBTX
}

func NewSQLiteActivityRepo(dbtx db.DBTX) *SQLiteActivityRepo {
	return &SQLiteActivityRepo{db: dbtx}
}

const activityColumns = `id, project_id, name, description, start_date, end_date,
	status, tracking_status, progress_percentage, verification_checklist, created_at, updated_at`

func (r *SQLiteActivityRepo) Create(ctx context.Context, a *domain.Activity) error {
	query := `INSERT INTO activities (` + activityColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.ProjectID, a.Name, a.Description,
		a.StartDate.Format(time.RFC3339), a.EndDate.Format(time.RFC3339),
		string(a.Status), string(a.TrackingStatus), a.ProgressPercentage,
		joinChecklist(a.VerificationChecklist),
		a.CreatedAt.Format(time.RFC3339), a.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("project %s: %w", a.ProjectID, domain.ErrReferentialIntegrity)
		}
		return fmt.Errorf("inserting activity: %w", err)
	}
	return nil
}

func (r *SQLiteActivityRepo) GetByID(ctx context.Context, id string) (*domain.Activity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	a, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("activity: %w", ErrNotFound)
	}
	return a, err
}

func (r *SQLiteActivityRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Activity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE project_id = ? ORDER BY start_date, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	defer rows.Close()

	var activities []*domain.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activities: %w", err)
	}
	return activities, nil
}

func (r *SQLiteActivityRepo) Update(ctx context.Context, a *domain.Activity) error {
	query := `UPDATE activities
		SET name = ?, description = ?, start_date = ?, end_date = ?, verification_checklist = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		a.Name, a.Description,
		a.StartDate.Format(time.RFC3339), a.EndDate.Format(time.RFC3339),
		joinChecklist(a.VerificationChecklist),
		time.Now().UTC().Format(time.RFC3339), a.ID)
	if err != nil {
		return fmt.Errorf("updating activity: %w", err)
	}
	return requireRowAffected(res, "activity")
}

func (r *SQLiteActivityRepo) UpdateDates(ctx context.Context, id string, start, end time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE activities SET start_date = ?, end_date = ?, updated_at = ? WHERE id = ?`,
		start.Format(time.RFC3339), end.Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("updating activity dates: %w", err)
	}
	return requireRowAffected(res, "activity")
}

func (r *SQLiteActivityRepo) UpdateStatusProgress(ctx context.Context, id string, status domain.Status, tracking domain.TrackingStatus, progress float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE activities SET status = ?, tracking_status = ?, progress_percentage = ?, updated_at = ? WHERE id = ?`,
		string(status), string(tracking), progress,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("updating activity status: %w", err)
	}
	return requireRowAffected(res, "activity")
}

func (r *SQLiteActivityRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting activity: %w", err)
	}
	return requireRowAffected(res, "activity")
}

func scanActivity(row rowScanner) (*domain.Activity, error) {
	var a domain.Activity
	var status, tracking, checklist, startDate, endDate, createdAt, updatedAt string
	if err := row.Scan(&a.ID, &a.ProjectID, &a.Name, &a.Description, &startDate, &endDate,
		&status, &tracking, &a.ProgressPercentage, &checklist, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning activity: %w", err)
	}
	a.Status = domain.Status(status)
	a.TrackingStatus = domain.TrackingStatus(tracking)
	a.VerificationChecklist = splitChecklist(checklist)
	var parseErr error
	for _, f := range []struct {
		dst *time.Time
		src string
		col string
	}{
		{&a.StartDate, startDate, "start_date"},
		{&a.EndDate, endDate, "end_date"},
		{&a.CreatedAt, createdAt, "created_at"},
		{&a.UpdatedAt, updatedAt, "updated_at"},
	} {
		*f.dst, parseErr = time.Parse(time.RFC3339, f.src)
		if parseErr != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.col, parseErr)
		}
	}
	return &a, nil
}

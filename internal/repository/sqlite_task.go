package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/evanmoran/ganttd/internal/db"
	"github.com/evanmoran/ganttd/internal/domain"
)

type SQLiteTaskRepo struct {
	db db.DBTX
}

func NewSQLiteTaskRepo(dbtx db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: dbtx}
}

const taskColumns = `id, activity_id, name, description, start_date, end_date, duration_hours,
	assignee_id, status, tracking_status, progress_percentage, created_at, updated_at`

func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.ActivityID, t.Name, t.Description,
		t.StartDate.Format(time.RFC3339), t.EndDate.Format(time.RFC3339), t.DurationHours,
		nullableString(t.AssigneeID), string(t.Status), string(t.TrackingStatus), t.ProgressPercentage,
		t.CreatedAt.Format(time.RFC3339), t.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("task references: %w", domain.ErrReferentialIntegrity)
		}
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task: %w", ErrNotFound)
	}
	return t, err
}

func (r *SQLiteTaskRepo) ListByActivity(ctx context.Context, activityID string) ([]*domain.Task, error) {
	return r.list(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE activity_id = ? ORDER BY start_date, id`, activityID)
}

func (r *SQLiteTaskRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error) {
	query := `SELECT ` + prefixedTaskColumns("t") + `
		FROM tasks t
		JOIN activities a ON t.activity_id = a.id
		WHERE a.project_id = ?
		ORDER BY t.start_date, t.id`
	return r.list(ctx, query, projectID)
}

func (r *SQLiteTaskRepo) ListByAssignee(ctx context.Context, assigneeID string) ([]*domain.Task, error) {
	return r.list(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE assignee_id = ? ORDER BY start_date, id`, assigneeID)
}

func (r *SQLiteTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	query := `UPDATE tasks
		SET name = ?, description = ?, start_date = ?, end_date = ?, duration_hours = ?, assignee_id = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		t.Name, t.Description,
		t.StartDate.Format(time.RFC3339), t.EndDate.Format(time.RFC3339), t.DurationHours,
		nullableString(t.AssigneeID), time.Now().UTC().Format(time.RFC3339), t.ID)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return requireRowAffected(res, "task")
}

func (r *SQLiteTaskRepo) UpdateDates(ctx context.Context, id string, start, end time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET start_date = ?, end_date = ?, updated_at = ? WHERE id = ?`,
		start.Format(time.RFC3339), end.Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("updating task dates: %w", err)
	}
	return requireRowAffected(res, "task")
}

func (r *SQLiteTaskRepo) UpdateStatusProgress(ctx context.Context, id string, status domain.Status, tracking domain.TrackingStatus, progress float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, tracking_status = ?, progress_percentage = ?, updated_at = ? WHERE id = ?`,
		string(status), string(tracking), progress,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("updating task status: %w", err)
	}
	return requireRowAffected(res, "task")
}

func (r *SQLiteTaskRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return requireRowAffected(res, "task")
}

func (r *SQLiteTaskRepo) list(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

func prefixedTaskColumns(alias string) string {
	return alias + `.id, ` + alias + `.activity_id, ` + alias + `.name, ` + alias + `.description, ` +
		alias + `.start_date, ` + alias + `.end_date, ` + alias + `.duration_hours, ` +
		alias + `.assignee_id, ` + alias + `.status, ` + alias + `.tracking_status, ` +
		alias + `.progress_percentage, ` + alias + `.created_at, ` + alias + `.updated_at`
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var assignee sql.NullString
	var status, tracking, startDate, endDate, createdAt, updatedAt string
	if err := row.Scan(&t.ID, &t.ActivityID, &t.Name, &t.Description, &startDate, &endDate,
		&t.DurationHours, &assignee, &status, &tracking, &t.ProgressPercentage, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	t.AssigneeID = stringPtrFromNull(assignee)
	t.Status = domain.Status(status)
	t.TrackingStatus = domain.TrackingStatus(tracking)
	var parseErr error
	for _, f := range []struct {
		dst *time.Time
		src string
		col string
	}{
		{&t.StartDate, startDate, "start_date"},
		{&t.EndDate, endDate, "end_date"},
		{&t.CreatedAt, createdAt, "created_at"},
		{&t.UpdatedAt, updatedAt, "updated_at"},
	} {
		*f.dst, parseErr = time.Parse(time.RFC3339, f.src)
		if parseErr != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.col, parseErr)
		}
	}
	return &t, nil
}

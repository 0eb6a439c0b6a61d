package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/evanmoran/ganttd/internal/db"
	"github.com/evanmoran/ganttd/internal/domain"
)

type SQLiteConstraintRepo struct {
	db db.DBTX
}

func NewSQLiteConstraintRepo(dbtx db.DBTX) *SQLiteConstraintRepo {
	return &SQLiteConstraintRepo{db: dbtx}
}

const constraintColumns = `id, item_id, item_type, constraint_type, constraint_date, created_at`

func (r *SQLiteConstraintRepo) Create(ctx context.Context, c *domain.DateConstraint) error {
	query := `INSERT INTO date_constraints (` + constraintColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.ItemID, string(c.ItemType), string(c.ConstraintType),
		nullableTimeToString(c.ConstraintDate, time.RFC3339),
		c.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting constraint: %w", err)
	}
	return nil
}

func (r *SQLiteConstraintRepo) GetByID(ctx context.Context, id string) (*domain.DateConstraint, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+constraintColumns+` FROM date_constraints WHERE id = ?`, id)
	c, err := scanConstraint(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("constraint: %w", ErrNotFound)
	}
	return c, err
}

func (r *SQLiteConstraintRepo) ListByItem(ctx context.Context, itemID string, kind domain.ItemType) ([]domain.DateConstraint, error) {
	query := `SELECT ` + constraintColumns + ` FROM date_constraints
		WHERE item_id = ? AND item_type = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, itemID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("listing constraints: %w", err)
	}
	defer rows.Close()
	return scanConstraints(rows)
}

func (r *SQLiteConstraintRepo) ListByProject(ctx context.Context, projectID string) ([]domain.DateConstraint, error) {
	query := `SELECT ` + constraintColumns + ` FROM date_constraints
		WHERE (item_type = 'activity' AND item_id IN (SELECT id FROM activities WHERE project_id = ?))
		   OR (item_type = 'task' AND item_id IN (
			SELECT t.id FROM tasks t JOIN activities a ON t.activity_id = a.id WHERE a.project_id = ?))
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, projectID, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing project constraints: %w", err)
	}
	defer rows.Close()
	return scanConstraints(rows)
}

func (r *SQLiteConstraintRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM date_constraints WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting constraint: %w", err)
	}
	return requireRowAffected(res, "constraint")
}

func scanConstraints(rows *sql.Rows) ([]domain.DateConstraint, error) {
	var constraints []domain.DateConstraint
	for rows.Next() {
		c, err := scanConstraint(rows)
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating constraints: %w", err)
	}
	return constraints, nil
}

func scanConstraint(row rowScanner) (*domain.DateConstraint, error) {
	var c domain.DateConstraint
	var itemType, constraintType, createdAt string
	var constraintDate sql.NullString
	if err := row.Scan(&c.ID, &c.ItemID, &itemType, &constraintType, &constraintDate, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning constraint: %w", err)
	}
	c.ItemType = domain.ItemType(itemType)
	c.ConstraintType = domain.ConstraintType(constraintType)
	c.ConstraintDate = parseNullableTime(constraintDate, time.RFC3339)
	var parseErr error
	c.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	return &c, nil
}

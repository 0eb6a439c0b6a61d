package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/evanmoran/ganttd/internal/db"
	"github.com/evanmoran/ganttd/internal/domain"
)

// SQLiteOrganizationRepo implements OrganizationRepo over a DBTX, so the same
// type serves both standalone and transaction-scoped use.
type SQLiteOrganizationRepo struct {
	db db.DBTX
}

func NewSQLiteOrganizationRepo(dbtx db.DBTX) *SQLiteOrganizationRepo {
	return &SQLiteOrganizationRepo{db: dbtx}
}

func (r *SQLiteOrganizationRepo) Create(ctx context.Context, o *domain.Organization) error {
	hours, err := json.Marshal(o.WorkingHours)
	if err != nil {
		return fmt.Errorf("encoding working hours: %w", err)
	}
	query := `INSERT INTO organizations (id, name, timezone, working_days_mask, working_hours_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		o.ID, o.Name, o.Timezone, o.WorkingDaysMask, string(hours),
		o.CreatedAt.Format(time.RFC3339), o.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting organization: %w", err)
	}
	return nil
}

func (r *SQLiteOrganizationRepo) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	query := `SELECT id, name, timezone, working_days_mask, working_hours_json, created_at, updated_at
		FROM organizations WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteOrganizationRepo) List(ctx context.Context) ([]*domain.Organization, error) {
	query := `SELECT id, name, timezone, working_days_mask, working_hours_json, created_at, updated_at
		FROM organizations ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*domain.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating organizations: %w", err)
	}
	return orgs, nil
}

func (r *SQLiteOrganizationRepo) Update(ctx context.Context, o *domain.Organization) error {
	hours, err := json.Marshal(o.WorkingHours)
	if err != nil {
		return fmt.Errorf("encoding working hours: %w", err)
	}
	query := `UPDATE organizations
		SET name = ?, timezone = ?, working_days_mask = ?, working_hours_json = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		o.Name, o.Timezone, o.WorkingDaysMask, string(hours),
		time.Now().UTC().Format(time.RFC3339), o.ID)
	if err != nil {
		return fmt.Errorf("updating organization: %w", err)
	}
	return requireRowAffected(res, "organization")
}

func (r *SQLiteOrganizationRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting organization: %w", err)
	}
	return requireRowAffected(res, "organization")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteOrganizationRepo) scanOne(row *sql.Row) (*domain.Organization, error) {
	o, err := scanOrganization(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("organization: %w", ErrNotFound)
	}
	return o, err
}

func scanOrganization(row rowScanner) (*domain.Organization, error) {
	var o domain.Organization
	var hoursJSON, createdAt, updatedAt string
	if err := row.Scan(&o.ID, &o.Name, &o.Timezone, &o.WorkingDaysMask, &hoursJSON, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning organization: %w", err)
	}
	if err := json.Unmarshal([]byte(hoursJSON), &o.WorkingHours); err != nil {
		return nil, fmt.Errorf("decoding working hours: %w", err)
	}
	var parseErr error
	o.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	o.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return &o, nil
}

// requireRowAffected converts zero-row writes into ErrNotFound.
func requireRowAffected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return nil
}

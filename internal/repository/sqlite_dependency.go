package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/evanmoran/ganttd/internal/db"
	"github.com/evanmoran/ganttd/internal/domain"
)

// SQLiteDependencyRepo implements DependencyRepo. Activity-kind and task-kind
// edges live in the same table but occupy disjoint column pairs, so the two
// subgraphs never mix in traversal queries.
type SQLiteDependencyRepo struct {
	db db.DBTX
}

func NewSQLiteDependencyRepo(dbtx db.DBTX) *SQLiteDependencyRepo {
	return &SQLiteDependencyRepo{db: dbtx}
}

const dependencyColumns = `id, activity_predecessor_id, activity_successor_id,
	task_predecessor_id, task_successor_id, dep_type, lag_days, lag_kind, created_at`

func (r *SQLiteDependencyRepo) Create(ctx context.Context, d *domain.Dependency) error {
	query := `INSERT INTO dependencies (` + dependencyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		d.ID,
		nullableString(d.ActivityPredecessorID), nullableString(d.ActivitySuccessorID),
		nullableString(d.TaskPredecessorID), nullableString(d.TaskSuccessorID),
		string(d.Type), d.LagDays, string(d.LagKind),
		d.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("dependency edge: %w", domain.ErrUniqueConflict)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("dependency endpoint: %w", domain.ErrReferentialIntegrity)
		}
		return fmt.Errorf("inserting dependency: %w", err)
	}
	return nil
}

func (r *SQLiteDependencyRepo) GetByID(ctx context.Context, id string) (*domain.Dependency, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+dependencyColumns+` FROM dependencies WHERE id = ?`, id)
	d, err := scanDependency(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("dependency: %w", ErrNotFound)
	}
	return d, err
}

func (r *SQLiteDependencyRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dependencies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting dependency: %w", err)
	}
	return requireRowAffected(res, "dependency")
}

func (r *SQLiteDependencyRepo) ListPredecessors(ctx context.Context, itemID string, kind domain.ItemType) ([]domain.Dependency, error) {
	col := "activity_successor_id"
	if kind == domain.ItemTask {
		col = "task_successor_id"
	}
	return r.listWhere(ctx, col, itemID)
}

func (r *SQLiteDependencyRepo) ListSuccessors(ctx context.Context, itemID string, kind domain.ItemType) ([]domain.Dependency, error) {
	col := "activity_predecessor_id"
	if kind == domain.ItemTask {
		col = "task_predecessor_id"
	}
	return r.listWhere(ctx, col, itemID)
}

func (r *SQLiteDependencyRepo) ListByProject(ctx context.Context, projectID string) ([]domain.Dependency, error) {
	// Activity edges join through the predecessor's project; task edges
	// through the predecessor's activity. Both endpoints of an edge are in
	// the same project by construction.
	query := `SELECT ` + dependencyColumns + ` FROM dependencies d
		WHERE d.activity_predecessor_id IN (SELECT id FROM activities WHERE project_id = ?)
		   OR d.task_predecessor_id IN (
			SELECT t.id FROM tasks t JOIN activities a ON t.activity_id = a.id WHERE a.project_id = ?)
		ORDER BY d.id`
	rows, err := r.db.QueryContext(ctx, query, projectID, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing project dependencies: %w", err)
	}
	defer rows.Close()
	return scanDependencies(rows)
}

func (r *SQLiteDependencyRepo) ListPredecessorEdges(ctx context.Context, itemID string, kind domain.ItemType) ([]NeighborEdge, error) {
	if kind == domain.ItemTask {
		query := `SELECT d.id, d.task_predecessor_id, d.dep_type, d.lag_days,
				t.start_date, t.end_date, t.duration_hours, t.status
			FROM dependencies d
			JOIN tasks t ON d.task_predecessor_id = t.id
			WHERE d.task_successor_id = ?
			ORDER BY d.id`
		return r.listNeighborEdges(ctx, query, itemID, true)
	}
	query := `SELECT d.id, d.activity_predecessor_id, d.dep_type, d.lag_days,
			a.start_date, a.end_date, a.status
		FROM dependencies d
		JOIN activities a ON d.activity_predecessor_id = a.id
		WHERE d.activity_successor_id = ?
		ORDER BY d.id`
	return r.listNeighborEdges(ctx, query, itemID, false)
}

func (r *SQLiteDependencyRepo) ListSuccessorEdges(ctx context.Context, itemID string, kind domain.ItemType) ([]NeighborEdge, error) {
	if kind == domain.ItemTask {
		query := `SELECT d.id, d.task_successor_id, d.dep_type, d.lag_days,
				t.start_date, t.end_date, t.duration_hours, t.status
			FROM dependencies d
			JOIN tasks t ON d.task_successor_id = t.id
			WHERE d.task_predecessor_id = ?
			ORDER BY d.id`
		return r.listNeighborEdges(ctx, query, itemID, true)
	}
	query := `SELECT d.id, d.activity_successor_id, d.dep_type, d.lag_days,
			a.start_date, a.end_date, a.status
		FROM dependencies d
		JOIN activities a ON d.activity_successor_id = a.id
		WHERE d.activity_predecessor_id = ?
		ORDER BY d.id`
	return r.listNeighborEdges(ctx, query, itemID, false)
}

func (r *SQLiteDependencyRepo) listNeighborEdges(ctx context.Context, query, itemID string, withDuration bool) ([]NeighborEdge, error) {
	rows, err := r.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("listing neighbor edges: %w", err)
	}
	defer rows.Close()

	var edges []NeighborEdge
	for rows.Next() {
		var e NeighborEdge
		var depType, startDate, endDate, status string
		var scanErr error
		if withDuration {
			scanErr = rows.Scan(&e.DependencyID, &e.ItemID, &depType, &e.LagDays,
				&startDate, &endDate, &e.DurationHours, &status)
		} else {
			scanErr = rows.Scan(&e.DependencyID, &e.ItemID, &depType, &e.LagDays,
				&startDate, &endDate, &status)
		}
		if scanErr != nil {
			return nil, fmt.Errorf("scanning neighbor edge: %w", scanErr)
		}
		e.Type = domain.DependencyType(depType)
		e.Status = domain.Status(status)
		if e.StartDate, err = time.Parse(time.RFC3339, startDate); err != nil {
			return nil, fmt.Errorf("parsing neighbor start_date: %w", err)
		}
		if e.EndDate, err = time.Parse(time.RFC3339, endDate); err != nil {
			return nil, fmt.Errorf("parsing neighbor end_date: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating neighbor edges: %w", err)
	}
	return edges, nil
}

func (r *SQLiteDependencyRepo) listWhere(ctx context.Context, col, itemID string) ([]domain.Dependency, error) {
	query := `SELECT ` + dependencyColumns + ` FROM dependencies WHERE ` + col + ` = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("listing dependencies: %w", err)
	}
	defer rows.Close()
	return scanDependencies(rows)
}

func scanDependencies(rows *sql.Rows) ([]domain.Dependency, error) {
	var deps []domain.Dependency
	for rows.Next() {
		d, err := scanDependency(rows)
		if err != nil {
			return nil, err
		}
		deps = append(deps, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dependencies: %w", err)
	}
	return deps, nil
}

func scanDependency(row rowScanner) (*domain.Dependency, error) {
	var d domain.Dependency
	var actPred, actSucc, taskPred, taskSucc sql.NullString
	var depType, lagKind, createdAt string
	if err := row.Scan(&d.ID, &actPred, &actSucc, &taskPred, &taskSucc,
		&depType, &d.LagDays, &lagKind, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning dependency: %w", err)
	}
	d.ActivityPredecessorID = stringPtrFromNull(actPred)
	d.ActivitySuccessorID = stringPtrFromNull(actSucc)
	d.TaskPredecessorID = stringPtrFromNull(taskPred)
	d.TaskSuccessorID = stringPtrFromNull(taskSucc)
	d.Type = domain.DependencyType(depType)
	d.LagKind = domain.LagKind(lagKind)
	var parseErr error
	d.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	return &d, nil
}

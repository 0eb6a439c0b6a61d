package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Statements are idempotent and re-run on
// every start; ALTER TABLE duplicates are tolerated.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS organizations (
		id                 TEXT PRIMARY KEY,
		name               TEXT NOT NULL,
		timezone           TEXT NOT NULL DEFAULT 'UTC',
		working_days_mask  TEXT NOT NULL DEFAULT '0111110'
		                   CHECK(length(working_days_mask) = 7),
		working_hours_json TEXT NOT NULL DEFAULT '[{"start":"09:00","end":"17:00"}]',
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id              TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		email           TEXT NOT NULL UNIQUE,
		name            TEXT NOT NULL,
		password_hash   TEXT NOT NULL,
		role            TEXT NOT NULL
		                CHECK(role IN ('PMO','PM','TEAM_MEMBER','CLIENT')),
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_users_org ON users(organization_id)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id                  TEXT PRIMARY KEY,
		organization_id     TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		owner_id            TEXT NOT NULL REFERENCES users(id),
		name                TEXT NOT NULL,
		description         TEXT NOT NULL DEFAULT '',
		start_date          TEXT NOT NULL,
		timezone            TEXT NOT NULL DEFAULT '',
		status              TEXT NOT NULL DEFAULT 'NOT_STARTED'
		                    CHECK(status IN ('NOT_STARTED','IN_PROGRESS','ON_HOLD','COMPLETED','VERIFIED')),
		progress_percentage REAL NOT NULL DEFAULT 0
		                    CHECK(progress_percentage BETWEEN 0 AND 100),
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_projects_org ON projects(organization_id)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status)`,

	`CREATE TABLE IF NOT EXISTS project_members (
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		PRIMARY KEY (project_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS activities (
		id                     TEXT PRIMARY KEY,
		project_id             TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name                   TEXT NOT NULL,
		description            TEXT NOT NULL DEFAULT '',
		start_date             TEXT NOT NULL,
		end_date               TEXT NOT NULL,
		status                 TEXT NOT NULL DEFAULT 'NOT_STARTED'
		                       CHECK(status IN ('NOT_STARTED','IN_PROGRESS','ON_HOLD','COMPLETED','VERIFIED')),
		tracking_status        TEXT NOT NULL DEFAULT 'ON_TRACK'
		                       CHECK(tracking_status IN ('ON_TRACK','AT_RISK','OFF_TRACK')),
		progress_percentage    REAL NOT NULL DEFAULT 0
		                       CHECK(progress_percentage BETWEEN 0 AND 100),
		verification_checklist TEXT NOT NULL DEFAULT '',
		created_at             TEXT NOT NULL,
		updated_at             TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_activities_project ON activities(project_id)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id                  TEXT PRIMARY KEY,
		activity_id         TEXT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
		name                TEXT NOT NULL,
		description         TEXT NOT NULL DEFAULT '',
		start_date          TEXT NOT NULL,
		end_date            TEXT NOT NULL,
		duration_hours      REAL NOT NULL CHECK(duration_hours > 0),
		assignee_id         TEXT REFERENCES users(id) ON DELETE SET NULL,
		status              TEXT NOT NULL DEFAULT 'NOT_STARTED'
		                    CHECK(status IN ('NOT_STARTED','IN_PROGRESS','ON_HOLD','COMPLETED','VERIFIED')),
		tracking_status     TEXT NOT NULL DEFAULT 'ON_TRACK'
		                    CHECK(tracking_status IN ('ON_TRACK','AT_RISK','OFF_TRACK')),
		progress_percentage REAL NOT NULL DEFAULT 0
		                    CHECK(progress_percentage BETWEEN 0 AND 100),
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_tasks_activity ON tasks(activity_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks(assignee_id)`,

	`CREATE TABLE IF NOT EXISTS dependencies (
		id                      TEXT PRIMARY KEY,
		activity_predecessor_id TEXT REFERENCES activities(id) ON DELETE CASCADE,
		activity_successor_id   TEXT REFERENCES activities(id) ON DELETE CASCADE,
		task_predecessor_id     TEXT REFERENCES tasks(id) ON DELETE CASCADE,
		task_successor_id       TEXT REFERENCES tasks(id) ON DELETE CASCADE,
		dep_type                TEXT NOT NULL DEFAULT 'FS'
		                        CHECK(dep_type IN ('FS','SS','FF','SF')),
		lag_days                REAL NOT NULL DEFAULT 0,
		lag_kind                TEXT NOT NULL DEFAULT 'calendar_days',
		created_at              TEXT NOT NULL,
		CHECK(
			(activity_predecessor_id IS NOT NULL AND activity_successor_id IS NOT NULL
			 AND task_predecessor_id IS NULL AND task_successor_id IS NULL)
			OR
			(task_predecessor_id IS NOT NULL AND task_successor_id IS NOT NULL
			 AND activity_predecessor_id IS NULL AND activity_successor_id IS NULL)
		)
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_dependencies_activity_pair
		ON dependencies(activity_predecessor_id, activity_successor_id)
		WHERE activity_predecessor_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_dependencies_task_pair
		ON dependencies(task_predecessor_id, task_successor_id)
		WHERE task_predecessor_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_dependencies_activity_succ ON dependencies(activity_successor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_dependencies_task_succ ON dependencies(task_successor_id)`,

	`CREATE TABLE IF NOT EXISTS date_constraints (
		id              TEXT PRIMARY KEY,
		item_id         TEXT NOT NULL,
		item_type       TEXT NOT NULL CHECK(item_type IN ('activity','task')),
		constraint_type TEXT NOT NULL
		                CHECK(constraint_type IN ('ASAP','ALAP','MUST_START_ON','MUST_FINISH_ON',
		                      'START_NO_EARLIER','START_NO_LATER','FINISH_NO_EARLIER','FINISH_NO_LATER')),
		constraint_date TEXT,
		created_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_date_constraints_item ON date_constraints(item_id, item_type)`,

	// item_id is polymorphic and cannot carry a foreign key, so cascade
	// deletes are done by trigger instead.
	`CREATE TRIGGER IF NOT EXISTS trg_date_constraints_activity_cascade
		AFTER DELETE ON activities
	BEGIN
		DELETE FROM date_constraints WHERE item_id = OLD.id AND item_type = 'activity';
	END`,
	`CREATE TRIGGER IF NOT EXISTS trg_date_constraints_task_cascade
		AFTER DELETE ON tasks
	BEGIN
		DELETE FROM date_constraints WHERE item_id = OLD.id AND item_type = 'task';
	END`,

	`CREATE TABLE IF NOT EXISTS holidays (
		id              TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		date            TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		created_at      TEXT NOT NULL,
		UNIQUE(organization_id, date)
	)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		token      TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user ON refresh_tokens(user_id)`,
}

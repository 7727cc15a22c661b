package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:examengine.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/examengine?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS classes (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  passing_threshold REAL
);

CREATE TABLE IF NOT EXISTS class_exam_configs (
  class_id TEXT PRIMARY KEY,
  version INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS class_partial_configs (
  class_id TEXT NOT NULL REFERENCES class_exam_configs(class_id) ON DELETE CASCADE,
  partial_type TEXT NOT NULL,
  weight REAL NOT NULL,
  duration_min INTEGER NOT NULL DEFAULT 0,
  content_ref TEXT NOT NULL DEFAULT '',
  checklist_json TEXT NOT NULL DEFAULT '',
  window_start INTEGER,
  window_end INTEGER,
  PRIMARY KEY (class_id, partial_type)
);

CREATE TABLE IF NOT EXISTS final_exams (
  id TEXT PRIMARY KEY,
  class_id TEXT NOT NULL,
  enrollment_id TEXT NOT NULL,
  exam_code TEXT NOT NULL,
  status TEXT NOT NULL,
  total_marks REAL NOT NULL DEFAULT 0,
  is_pass INTEGER NOT NULL DEFAULT 0,
  complete_time INTEGER,
  created_at INTEGER NOT NULL,
  UNIQUE (class_id, enrollment_id)
);

CREATE TABLE IF NOT EXISTS partials (
  id TEXT PRIMARY KEY,
  exam_id TEXT NOT NULL REFERENCES final_exams(id) ON DELETE CASCADE,
  partial_type TEXT NOT NULL,
  status TEXT NOT NULL,
  config_version INTEGER NOT NULL DEFAULT 0,
  weight REAL NOT NULL,
  content_ref TEXT NOT NULL DEFAULT '',
  duration_min INTEGER NOT NULL DEFAULT 0,
  checklist_items_json TEXT NOT NULL DEFAULT '',
  window_start INTEGER,
  window_end INTEGER,
  raw_score REAL NOT NULL DEFAULT 0,
  max_score REAL NOT NULL DEFAULT 0,
  normalized_score REAL NOT NULL DEFAULT 0,
  actual_start_time INTEGER,
  submitted_at INTEGER,
  UNIQUE (exam_id, partial_type)
);

CREATE TABLE IF NOT EXISTS checklist_results (
  partial_id TEXT NOT NULL REFERENCES partials(id) ON DELETE CASCADE,
  seq INTEGER NOT NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  passed INTEGER NOT NULL,
  PRIMARY KEY (partial_id, seq)
);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
  offset INTEGER PRIMARY KEY AUTOINCREMENT, -- BIGSERIAL in Postgres
  typ TEXT NOT NULL,                        -- e.g., PartialStarted
  key TEXT NOT NULL,                        -- natural key: partialID / examID
  data TEXT NOT NULL,                       -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS classes (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  passing_threshold DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS class_exam_configs (
  class_id TEXT PRIMARY KEY,
  version INTEGER NOT NULL,
  updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS class_partial_configs (
  class_id TEXT NOT NULL REFERENCES class_exam_configs(class_id) ON DELETE CASCADE,
  partial_type TEXT NOT NULL,
  weight DOUBLE PRECISION NOT NULL,
  duration_min INTEGER NOT NULL DEFAULT 0,
  content_ref TEXT NOT NULL DEFAULT '',
  checklist_json TEXT NOT NULL DEFAULT '',
  window_start BIGINT,
  window_end BIGINT,
  PRIMARY KEY (class_id, partial_type)
);

CREATE TABLE IF NOT EXISTS final_exams (
  id TEXT PRIMARY KEY,
  class_id TEXT NOT NULL,
  enrollment_id TEXT NOT NULL,
  exam_code TEXT NOT NULL,
  status TEXT NOT NULL,
  total_marks DOUBLE PRECISION NOT NULL DEFAULT 0,
  is_pass INTEGER NOT NULL DEFAULT 0,
  complete_time BIGINT,
  created_at BIGINT NOT NULL,
  UNIQUE (class_id, enrollment_id)
);

CREATE TABLE IF NOT EXISTS partials (
  id TEXT PRIMARY KEY,
  exam_id TEXT NOT NULL REFERENCES final_exams(id) ON DELETE CASCADE,
  partial_type TEXT NOT NULL,
  status TEXT NOT NULL,
  config_version INTEGER NOT NULL DEFAULT 0,
  weight DOUBLE PRECISION NOT NULL,
  content_ref TEXT NOT NULL DEFAULT '',
  duration_min INTEGER NOT NULL DEFAULT 0,
  checklist_items_json TEXT NOT NULL DEFAULT '',
  window_start BIGINT,
  window_end BIGINT,
  raw_score DOUBLE PRECISION NOT NULL DEFAULT 0,
  max_score DOUBLE PRECISION NOT NULL DEFAULT 0,
  normalized_score DOUBLE PRECISION NOT NULL DEFAULT 0,
  actual_start_time BIGINT,
  submitted_at BIGINT,
  UNIQUE (exam_id, partial_type)
);

CREATE TABLE IF NOT EXISTS checklist_results (
  partial_id TEXT NOT NULL REFERENCES partials(id) ON DELETE CASCADE,
  seq INTEGER NOT NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  passed INTEGER NOT NULL,
  PRIMARY KEY (partial_id, seq)
);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
  "offset" BIGSERIAL PRIMARY KEY,
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`

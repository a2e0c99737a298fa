package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

const mysqlTransportRequestsDDL = `CREATE TABLE IF NOT EXISTS transport_requests (
	id              BIGINT AUTO_INCREMENT PRIMARY KEY,
	unit_name       VARCHAR(255) NOT NULL,
	personnel_name  VARCHAR(255) NOT NULL,
	phone_number    VARCHAR(64)  NOT NULL,
	notes           TEXT NULL,
	mission_date    DATE NOT NULL,
	mission_time    VARCHAR(32) NOT NULL DEFAULT '',
	destination     VARCHAR(512) NOT NULL DEFAULT '',
	with_wheelchair TINYINT(1) NOT NULL DEFAULT 0,
	with_stretcher  TINYINT(1) NOT NULL DEFAULT 0,
	status          VARCHAR(16) NOT NULL DEFAULT 'PENDING',
	requester_token VARCHAR(64) NOT NULL DEFAULT '',
	created_at      DATETIME(6) NOT NULL,
	updated_at      DATETIME(6) NOT NULL,
	INDEX idx_transport_requests_created_at (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const postgresTransportRequestsDDL = `CREATE TABLE IF NOT EXISTS transport_requests (
	id              BIGSERIAL PRIMARY KEY,
	unit_name       TEXT NOT NULL,
	personnel_name  TEXT NOT NULL,
	phone_number    TEXT NOT NULL,
	notes           TEXT NULL,
	mission_date    DATE NOT NULL,
	mission_time    TEXT NOT NULL DEFAULT '',
	destination     TEXT NOT NULL DEFAULT '',
	with_wheelchair BOOLEAN NOT NULL DEFAULT FALSE,
	with_stretcher  BOOLEAN NOT NULL DEFAULT FALSE,
	status          TEXT NOT NULL DEFAULT 'PENDING',
	requester_token TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
)`

// HasTable checks information_schema for table in the current schema.
func HasTable(ctx context.Context, db *sql.DB, dialect Dialect, table string) (bool, error) {
	query := `SELECT table_name FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_name = ? LIMIT 1`
	if dialect == DialectPostgres {
		query = `SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = $1 LIMIT 1`
	}

	var name sql.NullString
	err := db.QueryRowContext(ctx, query, table).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has table %s: %w", table, err)
	}
	return name.Valid && name.String != "", nil
}

// EnsureSchema creates the transport_requests table when missing and reports whether it did.
func EnsureSchema(ctx context.Context, db *sql.DB, dialect Dialect) (bool, error) {
	exists, err := HasTable(ctx, db, dialect, "transport_requests")
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	ddl := mysqlTransportRequestsDDL
	if dialect == DialectPostgres {
		ddl = postgresTransportRequestsDDL
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return false, fmt.Errorf("ensure schema: create transport_requests: %w", err)
	}
	if dialect == DialectPostgres {
		if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_transport_requests_created_at ON transport_requests (created_at)`); err != nil {
			return false, fmt.Errorf("ensure schema: create index: %w", err)
		}
	}
	return true, nil
}

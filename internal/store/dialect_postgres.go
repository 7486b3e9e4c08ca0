package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresDialect implements Dialect for PostgreSQL via pgx/stdlib.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "pgx" }
func (d *PostgresDialect) NowExpr() string    { return "NOW()" }

func (d *PostgresDialect) NewParamBuilder() ParamBuilder {
	return &pgParamBuilder{}
}

func (d *PostgresDialect) SystemTablesSQL() string {
	return postgresSystemTablesSQL
}

func (d *PostgresDialect) InExpr(field string, pb ParamBuilder, values []int) string {
	arr := make([]int64, len(values))
	for i, v := range values {
		arr[i] = int64(v)
	}
	return fmt.Sprintf("%s = ANY(%s)", field, pb.Add(arr))
}

func (d *PostgresDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	// Fallback for errors that lost their type on the way through database/sql
	errStr := err.Error()
	if strings.Contains(errStr, "23505") || strings.Contains(errStr, "duplicate key") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}

const postgresSystemTablesSQL = `
CREATE TABLE IF NOT EXISTS _field_layouts (
    id          SERIAL PRIMARY KEY,
    uid         TEXT NOT NULL UNIQUE,
    type        TEXT NOT NULL,
    config      JSONB NOT NULL DEFAULT '{}',
    created_at  TIMESTAMPTZ DEFAULT NOW(),
    updated_at  TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS _entry_types (
    id                           SERIAL PRIMARY KEY,
    uid                          TEXT NOT NULL UNIQUE,
    scope                        TEXT NOT NULL DEFAULT '',
    name                         TEXT NOT NULL,
    handle                       TEXT NOT NULL,
    field_layout_id              INT REFERENCES _field_layouts(id) ON DELETE SET NULL,
    has_title_field              BOOLEAN NOT NULL DEFAULT true,
    title_translation_method     TEXT NOT NULL DEFAULT 'site',
    title_translation_key_format TEXT,
    title_format                 TEXT,
    created_at                   TIMESTAMPTZ DEFAULT NOW(),
    updated_at                   TIMESTAMPTZ DEFAULT NOW(),
    UNIQUE (scope, name),
    UNIQUE (scope, handle)
);

CREATE TABLE IF NOT EXISTS _entries (
    id          SERIAL PRIMARY KEY,
    type_id     INT NOT NULL REFERENCES _entry_types(id) ON DELETE CASCADE,
    title       TEXT,
    content     JSONB NOT NULL DEFAULT '{}',
    created_at  TIMESTAMPTZ DEFAULT NOW(),
    updated_at  TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_entries_type ON _entries(type_id);

CREATE TABLE IF NOT EXISTS _relations (
    id          SERIAL PRIMARY KEY,
    field       TEXT NOT NULL,
    source_id   INT NOT NULL REFERENCES _entries(id) ON DELETE CASCADE,
    target_id   INT NOT NULL REFERENCES _entries(id) ON DELETE CASCADE,
    sort_order  INT NOT NULL DEFAULT 0,
    UNIQUE (field, source_id, target_id)
);
CREATE INDEX IF NOT EXISTS idx_relations_target ON _relations(target_id);
`

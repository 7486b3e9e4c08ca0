package store

import (
	"fmt"
	"strings"
)

// SQLiteDialect implements Dialect for SQLite via modernc.org/sqlite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite" }
func (d *SQLiteDialect) NowExpr() string    { return "datetime('now')" }

func (d *SQLiteDialect) NewParamBuilder() ParamBuilder {
	return &sqliteParamBuilder{}
}

func (d *SQLiteDialect) SystemTablesSQL() string {
	return sqliteSystemTablesSQL
}

func (d *SQLiteDialect) InExpr(field string, pb ParamBuilder, values []int) string {
	if len(values) == 0 {
		return "1=0" // always false
	}
	phs := make([]string, len(values))
	for i, v := range values {
		phs[i] = pb.Add(v)
	}
	return fmt.Sprintf("%s IN (%s)", field, strings.Join(phs, ", "))
}

func (d *SQLiteDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "constraint failed: UNIQUE") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}

const sqliteSystemTablesSQL = `
CREATE TABLE IF NOT EXISTS _field_layouts (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    uid         TEXT NOT NULL UNIQUE,
    type        TEXT NOT NULL,
    config      TEXT NOT NULL DEFAULT '{}',
    created_at  TEXT DEFAULT (datetime('now')),
    updated_at  TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS _entry_types (
    id                           INTEGER PRIMARY KEY AUTOINCREMENT,
    uid                          TEXT NOT NULL UNIQUE,
    scope                        TEXT NOT NULL DEFAULT '',
    name                         TEXT NOT NULL,
    handle                       TEXT NOT NULL,
    field_layout_id              INTEGER REFERENCES _field_layouts(id) ON DELETE SET NULL,
    has_title_field              INTEGER NOT NULL DEFAULT 1,
    title_translation_method     TEXT NOT NULL DEFAULT 'site',
    title_translation_key_format TEXT,
    title_format                 TEXT,
    created_at                   TEXT DEFAULT (datetime('now')),
    updated_at                   TEXT DEFAULT (datetime('now')),
    UNIQUE (scope, name),
    UNIQUE (scope, handle)
);

CREATE TABLE IF NOT EXISTS _entries (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    type_id     INTEGER NOT NULL REFERENCES _entry_types(id) ON DELETE CASCADE,
    title       TEXT,
    content     TEXT NOT NULL DEFAULT '{}',
    created_at  TEXT DEFAULT (datetime('now')),
    updated_at  TEXT DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_entries_type ON _entries(type_id);

CREATE TABLE IF NOT EXISTS _relations (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    field       TEXT NOT NULL,
    source_id   INTEGER NOT NULL REFERENCES _entries(id) ON DELETE CASCADE,
    target_id   INTEGER NOT NULL REFERENCES _entries(id) ON DELETE CASCADE,
    sort_order  INTEGER NOT NULL DEFAULT 0,
    UNIQUE (field, source_id, target_id)
);
CREATE INDEX IF NOT EXISTS idx_relations_target ON _relations(target_id);
`

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"entrykit/internal/metadata"
)

var uniqueColumns = map[string]string{
	"name":   "name",
	"handle": "handle",
}

const entryTypeSelect = `SELECT t.id, t.uid, t.name, t.handle, t.field_layout_id, t.has_title_field,
 t.title_translation_method, t.title_translation_key_format, t.title_format,
 l.uid AS layout_uid, l.type AS layout_type, CAST(l.config AS TEXT) AS layout_config
 FROM _entry_types t LEFT JOIN _field_layouts l ON l.id = t.field_layout_id`

// EntryTypeRepository persists entry types and their field layouts within
// one uniqueness scope.
type EntryTypeRepository struct {
	store *Store
	scope string
}

func NewEntryTypeRepository(s *Store, scope string) *EntryTypeRepository {
	return &EntryTypeRepository{store: s, scope: scope}
}

// Exists reports whether another entry type in the query's scope already
// uses the value. It implements metadata.UniquenessChecker.
func (r *EntryTypeRepository) Exists(ctx context.Context, q metadata.UniqueQuery) (bool, error) {
	col, ok := uniqueColumns[q.Attribute]
	if !ok {
		return false, fmt.Errorf("unsupported unique attribute: %s", q.Attribute)
	}

	pb := r.store.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf("SELECT id FROM _entry_types WHERE scope = %s AND %s = %s",
		pb.Add(q.Scope), col, pb.Add(q.Value))
	if q.ExcludingID != nil {
		sqlStr += " AND id != " + pb.Add(*q.ExcludingID)
	}
	sqlStr += " LIMIT 1"

	rows, err := QueryRows(ctx, r.store.DB, sqlStr, pb.Params()...)
	if err != nil {
		return false, fmt.Errorf("check %s uniqueness: %w", q.Attribute, err)
	}
	return len(rows) > 0, nil
}

// ListEntryTypes returns every entry type in scope ordered by handle.
// It implements metadata.Source.
func (r *EntryTypeRepository) ListEntryTypes(ctx context.Context) ([]*metadata.EntryType, error) {
	pb := r.store.Dialect.NewParamBuilder()
	sqlStr := entryTypeSelect + " WHERE t.scope = " + pb.Add(r.scope) + " ORDER BY t.handle"
	rows, err := QueryRows(ctx, r.store.DB, sqlStr, pb.Params()...)
	if err != nil {
		return nil, fmt.Errorf("list entry types: %w", err)
	}

	types := make([]*metadata.EntryType, 0, len(rows))
	for _, row := range rows {
		et, err := rowToEntryType(row)
		if err != nil {
			r.store.logger.Warn("Skipping entry type with invalid field layout",
				zap.Any("id", row["id"]), zap.Error(err))
			continue
		}
		types = append(types, et)
	}
	return types, nil
}

// FindByID returns the entry type with the given id, or ErrNotFound.
func (r *EntryTypeRepository) FindByID(ctx context.Context, id int) (*metadata.EntryType, error) {
	pb := r.store.Dialect.NewParamBuilder()
	sqlStr := entryTypeSelect + " WHERE t.scope = " + pb.Add(r.scope) + " AND t.id = " + pb.Add(id)
	return r.findOne(ctx, sqlStr, pb.Params())
}

// FindByHandle returns the entry type with the given handle, or ErrNotFound.
func (r *EntryTypeRepository) FindByHandle(ctx context.Context, handle string) (*metadata.EntryType, error) {
	pb := r.store.Dialect.NewParamBuilder()
	sqlStr := entryTypeSelect + " WHERE t.scope = " + pb.Add(r.scope) + " AND t.handle = " + pb.Add(handle)
	return r.findOne(ctx, sqlStr, pb.Params())
}

func (r *EntryTypeRepository) findOne(ctx context.Context, sqlStr string, params []any) (*metadata.EntryType, error) {
	row, err := QueryRow(ctx, r.store.DB, sqlStr, params...)
	if err != nil {
		return nil, err
	}
	return rowToEntryType(row)
}

// Save inserts or updates the entry type and its field layout in one
// transaction, assigning ids and uids to new records.
func (r *EntryTypeRepository) Save(ctx context.Context, et *metadata.EntryType) error {
	tx, err := r.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	layout := et.FieldLayout()
	if et.ID == nil {
		// a new entry type always gets its own layout row
		layout.ID = nil
	}
	layoutID, err := r.saveFieldLayout(ctx, tx, et.ID, layout)
	if err != nil {
		return err
	}
	et.FieldLayoutID = &layoutID

	if et.UID == "" {
		et.UID = uuid.NewString()
	}

	d := r.store.Dialect
	pb := d.NewParamBuilder()
	args := []string{
		pb.Add(et.UID),
		pb.Add(r.scope),
		pb.Add(et.Name),
		pb.Add(et.Handle),
		pb.Add(layoutID),
		pb.Add(et.HasTitleField),
		pb.Add(string(et.TitleTranslationMethod)),
		pb.Add(nullString(et.TitleTranslationKeyFormat)),
		pb.Add(nullString(et.TitleFormat)),
	}

	if et.ID == nil {
		sqlStr := fmt.Sprintf(`INSERT INTO _entry_types (uid, scope, name, handle, field_layout_id, has_title_field,
 title_translation_method, title_translation_key_format, title_format)
 VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s) RETURNING id`,
			args[0], args[1], args[2], args[3], args[4], args[5], args[6], args[7], args[8])
		var id int64
		if err := tx.QueryRowContext(ctx, sqlStr, pb.Params()...).Scan(&id); err != nil {
			return fmt.Errorf("insert entry type: %w", d.MapError(err))
		}
		newID := int(id)
		et.ID = &newID
	} else {
		sqlStr := fmt.Sprintf(`UPDATE _entry_types SET uid = %s, scope = %s, name = %s, handle = %s, field_layout_id = %s,
 has_title_field = %s, title_translation_method = %s, title_translation_key_format = %s, title_format = %s,
 updated_at = %s WHERE id = %s`,
			args[0], args[1], args[2], args[3], args[4], args[5], args[6], args[7], args[8],
			d.NowExpr(), pb.Add(*et.ID))
		n, err := Exec(ctx, tx, sqlStr, pb.Params()...)
		if err != nil {
			return fmt.Errorf("update entry type: %w", d.MapError(err))
		}
		if n == 0 {
			return ErrNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.store.logger.Info("Saved entry type",
		zap.Int("id", *et.ID), zap.String("handle", et.Handle), zap.Int("field_layout_id", layoutID))
	return nil
}

// saveFieldLayout inserts the layout, or updates it in place when it has an
// id. Updates only touch the row owned by entry type ownerID.
func (r *EntryTypeRepository) saveFieldLayout(ctx context.Context, tx *sql.Tx, ownerID *int, layout *metadata.FieldLayout) (int, error) {
	layout.EnsureUIDs()
	cfg, err := json.Marshal(struct {
		Tabs []metadata.FieldLayoutTab `json:"tabs"`
	}{Tabs: layout.Tabs})
	if err != nil {
		return 0, fmt.Errorf("marshal field layout: %w", err)
	}

	d := r.store.Dialect
	pb := d.NewParamBuilder()
	if layout.ID == nil {
		sqlStr := fmt.Sprintf("INSERT INTO _field_layouts (uid, type, config) VALUES (%s, %s, %s) RETURNING id",
			pb.Add(layout.UID), pb.Add(layout.Type), pb.Add(string(cfg)))
		var id int64
		if err := tx.QueryRowContext(ctx, sqlStr, pb.Params()...).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert field layout: %w", d.MapError(err))
		}
		newID := int(id)
		layout.ID = &newID
		return newID, nil
	}

	sqlStr := fmt.Sprintf(`UPDATE _field_layouts SET uid = %s, type = %s, config = %s, updated_at = %s
 WHERE id = %s AND id IN (SELECT field_layout_id FROM _entry_types WHERE id = %s)`,
		pb.Add(layout.UID), pb.Add(layout.Type), pb.Add(string(cfg)), d.NowExpr(), pb.Add(*layout.ID), pb.Add(*ownerID))
	n, err := Exec(ctx, tx, sqlStr, pb.Params()...)
	if err != nil {
		return 0, fmt.Errorf("update field layout: %w", d.MapError(err))
	}
	if n == 0 {
		return 0, fmt.Errorf("field layout %d of entry type %d: %w", *layout.ID, *ownerID, ErrNotFound)
	}
	return *layout.ID, nil
}

// Delete removes the entry type and its field layout.
func (r *EntryTypeRepository) Delete(ctx context.Context, id int) error {
	et, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}

	tx, err := r.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	pb := r.store.Dialect.NewParamBuilder()
	if _, err := Exec(ctx, tx, "DELETE FROM _entry_types WHERE id = "+pb.Add(id), pb.Params()...); err != nil {
		return fmt.Errorf("delete entry type %d: %w", id, err)
	}
	if et.FieldLayoutID != nil {
		pb = r.store.Dialect.NewParamBuilder()
		if _, err := Exec(ctx, tx, "DELETE FROM _field_layouts WHERE id = "+pb.Add(*et.FieldLayoutID), pb.Params()...); err != nil {
			return fmt.Errorf("delete field layout %d: %w", *et.FieldLayoutID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.store.logger.Info("Deleted entry type", zap.Int("id", id), zap.String("handle", et.Handle))
	return nil
}

func rowToEntryType(row map[string]any) (*metadata.EntryType, error) {
	et := metadata.NewEntryType(metadata.Deps{})

	id, ok := toInt(row["id"])
	if !ok {
		return nil, errors.New("entry type row without id")
	}
	et.ID = &id
	et.UID = toString(row["uid"])
	et.Name = toString(row["name"])
	et.Handle = toString(row["handle"])
	et.HasTitleField = toBool(row["has_title_field"])
	et.TitleTranslationMethod = metadata.TranslationMethod(toString(row["title_translation_method"]))
	et.TitleTranslationKeyFormat = toString(row["title_translation_key_format"])
	et.TitleFormat = toString(row["title_format"])

	layoutID, hasLayout := toInt(row["field_layout_id"])
	if !hasLayout {
		return et, nil
	}

	layout := &metadata.FieldLayout{
		ID:   &layoutID,
		UID:  toString(row["layout_uid"]),
		Type: toString(row["layout_type"]),
	}
	if raw := toString(row["layout_config"]); raw != "" {
		var cfg struct {
			Tabs []metadata.FieldLayoutTab `json:"tabs"`
		}
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			return nil, fmt.Errorf("decode field layout %d: %w", layoutID, err)
		}
		layout.Tabs = cfg.Tabs
	}
	et.SetFieldLayout(layout)
	return et, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

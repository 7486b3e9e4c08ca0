package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"entrykit/internal/conditions"
)

// Entry is a stored element of some entry type.
type Entry struct {
	ID        int            `json:"id"`
	TypeID    int            `json:"typeId"`
	Title     string         `json:"title"`
	Content   map[string]any `json:"content"`
	CreatedAt any            `json:"dateCreated,omitempty"`
}

// RelationInput links an entry to targets through a relation field.
type RelationInput struct {
	Field     string `json:"field"`
	TargetIDs []int  `json:"targetIds"`
}

// ElementQuery builds a SELECT over _entries. It implements
// conditions.ElementQuery so condition rules can narrow it.
type ElementQuery struct {
	dialect   Dialect
	ids       []int
	typeIDs   []int
	relatedTo []int
	limit     int
	offset    int
}

func NewElementQuery(d Dialect) *ElementQuery {
	return &ElementQuery{dialect: d}
}

// RelatedTo restricts results to entries related to any of ids, in either
// direction. A later call replaces an earlier one.
func (q *ElementQuery) RelatedTo(ids []int) {
	q.relatedTo = append([]int(nil), ids...)
}

// RelatedIDs returns the ids the query is currently related to.
func (q *ElementQuery) RelatedIDs() []int {
	return q.relatedTo
}

func (q *ElementQuery) ID(ids ...int) *ElementQuery {
	q.ids = append([]int(nil), ids...)
	return q
}

func (q *ElementQuery) TypeID(ids ...int) *ElementQuery {
	q.typeIDs = append([]int(nil), ids...)
	return q
}

func (q *ElementQuery) Limit(n int) *ElementQuery {
	q.limit = n
	return q
}

func (q *ElementQuery) Offset(n int) *ElementQuery {
	q.offset = n
	return q
}

// Build returns the SQL and its parameters.
func (q *ElementQuery) Build() (string, []any) {
	pb := q.dialect.NewParamBuilder()

	var where []string
	if len(q.ids) > 0 {
		where = append(where, q.dialect.InExpr("e.id", pb, q.ids))
	}
	if len(q.typeIDs) > 0 {
		where = append(where, q.dialect.InExpr("e.type_id", pb, q.typeIDs))
	}
	if len(q.relatedTo) > 0 {
		where = append(where, fmt.Sprintf(
			"(e.id IN (SELECT r.source_id FROM _relations r WHERE %s) OR e.id IN (SELECT r.target_id FROM _relations r WHERE %s))",
			q.dialect.InExpr("r.target_id", pb, q.relatedTo),
			q.dialect.InExpr("r.source_id", pb, q.relatedTo),
		))
	}

	var b strings.Builder
	b.WriteString("SELECT e.id, e.type_id, e.title, CAST(e.content AS TEXT) AS content, e.created_at FROM _entries e")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY e.id")
	if q.limit > 0 {
		b.WriteString(" LIMIT " + pb.Add(q.limit))
	}
	if q.offset > 0 {
		b.WriteString(" OFFSET " + pb.Add(q.offset))
	}
	return b.String(), pb.Params()
}

// EntryRepository stores entries and the relations between them.
type EntryRepository struct {
	store *Store
}

func NewEntryRepository(s *Store) *EntryRepository {
	return &EntryRepository{store: s}
}

// NewQuery starts an element query in the store's dialect.
func (r *EntryRepository) NewQuery() *ElementQuery {
	return NewElementQuery(r.store.Dialect)
}

// Create inserts an entry and its outgoing relations in one transaction.
func (r *EntryRepository) Create(ctx context.Context, typeID int, title string, content map[string]any, relations []RelationInput) (*Entry, error) {
	if content == nil {
		content = map[string]any{}
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}

	tx, err := r.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	d := r.store.Dialect
	pb := d.NewParamBuilder()
	sqlStr := fmt.Sprintf("INSERT INTO _entries (type_id, title, content) VALUES (%s, %s, %s) RETURNING id",
		pb.Add(typeID), pb.Add(title), pb.Add(string(raw)))
	var id int64
	if err := tx.QueryRowContext(ctx, sqlStr, pb.Params()...).Scan(&id); err != nil {
		return nil, fmt.Errorf("insert entry: %w", d.MapError(err))
	}

	for _, rel := range relations {
		for i, target := range rel.TargetIDs {
			pb := d.NewParamBuilder()
			sqlStr := fmt.Sprintf("INSERT INTO _relations (field, source_id, target_id, sort_order) VALUES (%s, %s, %s, %s)",
				pb.Add(rel.Field), pb.Add(int(id)), pb.Add(target), pb.Add(i))
			if _, err := Exec(ctx, tx, sqlStr, pb.Params()...); err != nil {
				return nil, fmt.Errorf("insert relation %s -> %d: %w", rel.Field, target, d.MapError(err))
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	r.store.logger.Debug("Created entry", zap.Int64("id", id), zap.Int("type_id", typeID))
	return &Entry{ID: int(id), TypeID: typeID, Title: title, Content: content}, nil
}

// Query runs an element query.
func (r *EntryRepository) Query(ctx context.Context, q *ElementQuery) ([]Entry, error) {
	sqlStr, params := q.Build()
	rows, err := QueryRows(ctx, r.store.DB, sqlStr, params...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		e, err := rowToEntry(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// FindByIDs returns the picker view of the given entries, in id order.
// It implements conditions.ElementFinder.
func (r *EntryRepository) FindByIDs(ctx context.Context, ids []int) ([]conditions.Element, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	entries, err := r.Query(ctx, r.NewQuery().ID(ids...))
	if err != nil {
		return nil, err
	}
	elements := make([]conditions.Element, len(entries))
	for i, e := range entries {
		elements[i] = conditions.Element{ID: e.ID, Title: e.Title, Type: "entry"}
	}
	return elements, nil
}

func rowToEntry(row map[string]any) (Entry, error) {
	id, _ := toInt(row["id"])
	typeID, _ := toInt(row["type_id"])
	e := Entry{
		ID:        id,
		TypeID:    typeID,
		Title:     toString(row["title"]),
		CreatedAt: row["created_at"],
		Content:   map[string]any{},
	}
	if raw := toString(row["content"]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &e.Content); err != nil {
			return Entry{}, fmt.Errorf("decode entry %d content: %w", id, err)
		}
	}
	return e, nil
}

// Package sqlstore persists remote-shape records in SQL tables whose columns
// carry the remote field names. Queries are built with ent's SQL builder and
// scanned with sqlx through the records' db tags.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/taskboard/internal/errs"
	taskschema "github.com/gurkanbulca/taskboard/internal/schema"
	"github.com/gurkanbulca/taskboard/internal/storage"
)

type Backend[R storage.Record[R]] struct {
	kind    string
	db      *sqlx.DB
	dialect string
	table   string
	columns []string
}

var (
	_ storage.Backend[taskschema.RemoteTask]     = (*Backend[taskschema.RemoteTask])(nil)
	_ storage.Backend[taskschema.RemoteCategory] = (*Backend[taskschema.RemoteCategory])(nil)
)

// New returns a backend over table. The ent dialect is taken from the sqlx
// driver name ("postgres" or "sqlite3").
func New[R storage.Record[R]](db *sqlx.DB, table *schema.Table, kind string) *Backend[R] {
	columns := make([]string, 0, len(table.Columns))
	for _, c := range table.Columns {
		columns = append(columns, c.Name)
	}
	return &Backend[R]{
		kind:    kind,
		db:      db,
		dialect: db.DriverName(),
		table:   table.Name,
		columns: columns,
	}
}

// NewTasks is a backend over TasksTable.
func NewTasks(db *sqlx.DB) *Backend[taskschema.RemoteTask] {
	return New[taskschema.RemoteTask](db, TasksTable, "task")
}

// NewCategories is a backend over CategoriesTable.
func NewCategories(db *sqlx.DB) *Backend[taskschema.RemoteCategory] {
	return New[taskschema.RemoteCategory](db, CategoriesTable, "category")
}

func (b *Backend[R]) selector() *entsql.Selector {
	d := entsql.Dialect(b.dialect)
	return d.Select(b.columns...).From(d.Table(b.table))
}

func (b *Backend[R]) List(ctx context.Context) ([]R, error) {
	query, args := b.selector().OrderBy(IDColumn).Query()
	out := []R{}
	if err := b.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, errs.Backend("list "+b.kind, err)
	}
	return out, nil
}

func (b *Backend[R]) Get(ctx context.Context, id int) (R, error) {
	var r R
	query, args := b.selector().Where(entsql.EQ(IDColumn, id)).Query()
	err := b.db.GetContext(ctx, &r, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return r, errs.NotFound(b.kind, id)
	}
	if err != nil {
		return r, errs.Backend("get "+b.kind, err)
	}
	return r, nil
}

// values returns the record's column values keyed by column name.
func (b *Backend[R]) values(r *R) (map[string]any, error) {
	fields := b.db.Mapper.FieldMap(reflect.ValueOf(r))
	out := make(map[string]any, len(b.columns))
	for _, c := range b.columns {
		v, ok := fields[c]
		if !ok {
			return nil, fmt.Errorf("%s record has no field for column %s", b.kind, c)
		}
		out[c] = v.Interface()
	}
	return out, nil
}

func (b *Backend[R]) Insert(ctx context.Context, records []R) []storage.Outcome[R] {
	out := make([]storage.Outcome[R], len(records))
	for i := range records {
		out[i].Item, out[i].Err = b.insert(ctx, records[i])
	}
	return out
}

func (b *Backend[R]) insert(ctx context.Context, r R) (R, error) {
	vals, err := b.values(&r)
	if err != nil {
		return r, err
	}
	cols := make([]string, 0, len(b.columns))
	args := make([]any, 0, len(b.columns))
	for _, c := range b.columns {
		if c == IDColumn && r.RecordID() == 0 {
			continue
		}
		cols = append(cols, c)
		args = append(args, vals[c])
	}

	query, qargs := entsql.Dialect(b.dialect).
		Insert(b.table).
		Columns(cols...).
		Values(args...).
		Returning(IDColumn).
		Query()

	var id int
	if err := b.db.QueryRowxContext(ctx, query, qargs...).Scan(&id); err != nil {
		return r, errs.Backend("insert "+b.kind, err)
	}
	return r.WithRecordID(id), nil
}

func (b *Backend[R]) Update(ctx context.Context, records []R) []storage.Outcome[R] {
	out := make([]storage.Outcome[R], len(records))
	for i := range records {
		out[i].Item, out[i].Err = b.update(ctx, records[i])
	}
	return out
}

func (b *Backend[R]) update(ctx context.Context, r R) (R, error) {
	vals, err := b.values(&r)
	if err != nil {
		return r, err
	}
	upd := entsql.Dialect(b.dialect).Update(b.table)
	for _, c := range b.columns {
		if c == IDColumn {
			continue
		}
		upd = upd.Set(c, vals[c])
	}
	query, args := upd.Where(entsql.EQ(IDColumn, r.RecordID())).Query()

	res, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return r, errs.Backend("update "+b.kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return r, errs.Backend("update "+b.kind, err)
	}
	if n == 0 {
		return r, errs.NotFound(b.kind, r.RecordID())
	}
	return r, nil
}

func (b *Backend[R]) Delete(ctx context.Context, ids []int) []storage.Outcome[int] {
	out := make([]storage.Outcome[int], len(ids))
	for i, id := range ids {
		query, args := entsql.Dialect(b.dialect).
			Delete(b.table).
			Where(entsql.EQ(IDColumn, id)).
			Query()
		res, err := b.db.ExecContext(ctx, query, args...)
		if err != nil {
			out[i].Err = errs.Backend("delete "+b.kind, err)
			continue
		}
		n, err := res.RowsAffected()
		if err != nil {
			out[i].Err = errs.Backend("delete "+b.kind, err)
			continue
		}
		if n == 0 {
			out[i].Err = errs.NotFound(b.kind, id)
			continue
		}
		out[i].Item = id
	}
	return out
}

package kvstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// Table is a typed view of one logical table. Records of type T are stored
// as their JSON encoding; T must encode to a JSON object.
type Table[T any] struct {
	db     *DB
	schema TableSchema
	decode func([]byte) (T, error)
}

// TableOption configures a Table.
type TableOption[T any] func(*Table[T])

// WithDecoder replaces json.Unmarshal into a zero T. Use it to decode stored
// rows over defaults.
func WithDecoder[T any](decode func([]byte) (T, error)) TableOption[T] {
	return func(t *Table[T]) {
		t.decode = decode
	}
}

// NewTable returns a typed view of the schema table called name.
func NewTable[T any](db *DB, name string, opts ...TableOption[T]) (*Table[T], error) {
	ts, ok := db.schema.table(name)
	if !ok {
		return nil, fmt.Errorf("table %q: %w", name, ErrUnknownTable)
	}
	t := &Table[T]{
		db:     db,
		schema: ts,
		decode: func(data []byte) (T, error) {
			var v T
			err := json.Unmarshal(data, &v)
			return v, err
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Name returns the logical table name.
func (t *Table[T]) Name() string {
	return t.schema.Name
}

// Add inserts rec. A record without a key gets a freshly allocated one in an
// auto-increment table. Add fails with ErrConstraint if the key exists.
// The stored record, key included, is returned.
func (t *Table[T]) Add(ctx context.Context, rec T) (T, error) {
	return t.write(ctx, rec, false)
}

// Put inserts rec or replaces the record with the same key entirely. Records
// without a key are allocated one exactly as in Add.
func (t *Table[T]) Put(ctx context.Context, rec T) (T, error) {
	return t.write(ctx, rec, true)
}

func (t *Table[T]) write(ctx context.Context, rec T, upsert bool) (T, error) {
	var zero T
	op := "add"
	if upsert {
		op = "put"
	}

	db, err := t.db.conn(ctx)
	if err != nil {
		return zero, err
	}

	fields, key, err := splitKey(rec, t.schema.KeyPath)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", op, t.schema.Name, err)
	}
	if key == nil && !t.schema.AutoIncrement {
		return zero, fmt.Errorf("%s %s: %w", op, t.schema.Name, ErrMissingKey)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("%s %s: begin tx: %w", op, t.schema.Name, err)
	}
	defer tx.Rollback() // No-op if committed

	var value []byte
	if key == nil {
		// Step 1: claim a key. AUTOINCREMENT never hands out a key twice,
		// even after deletes.
		placeholder, err := json.Marshal(fields)
		if err != nil {
			return zero, fmt.Errorf("%s %s: encode: %w", op, t.schema.Name, err)
		}
		res, err := tx.ExecContext(ctx, "INSERT INTO "+t.schema.sqlName()+" (value) VALUES (?)", string(placeholder))
		if err != nil {
			return zero, fmt.Errorf("%s %s: allocate key: %w", op, t.schema.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return zero, fmt.Errorf("%s %s: last insert id: %w", op, t.schema.Name, err)
		}

		// Step 2: store the record with its key.
		if value, err = joinKey(fields, t.schema.KeyPath, id); err != nil {
			return zero, fmt.Errorf("%s %s: %w", op, t.schema.Name, err)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE "+t.schema.sqlName()+" SET value = ? WHERE key = ?", string(value), id); err != nil {
			return zero, fmt.Errorf("%s %s: %w", op, t.schema.Name, err)
		}
	} else {
		if value, err = joinKey(fields, t.schema.KeyPath, key); err != nil {
			return zero, fmt.Errorf("%s %s: %w", op, t.schema.Name, err)
		}
		query := "INSERT INTO " + t.schema.sqlName() + " (key, value) VALUES (?, ?)"
		if upsert {
			query += " ON CONFLICT(key) DO UPDATE SET value = excluded.value"
		}
		if _, err := tx.ExecContext(ctx, query, key, string(value)); err != nil {
			if isConstraint(err) {
				return zero, &ConstraintError{Table: t.schema.Name, Key: key, Err: err}
			}
			return zero, fmt.Errorf("%s %s: %w", op, t.schema.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("%s %s: commit: %w", op, t.schema.Name, err)
	}

	out, err := t.decode(value)
	if err != nil {
		return zero, fmt.Errorf("%s %s: decode: %w", op, t.schema.Name, err)
	}
	return out, nil
}

// Get returns the record stored under key. A missing record is reported by
// ok == false, not by an error.
func (t *Table[T]) Get(ctx context.Context, key any) (rec T, ok bool, err error) {
	db, err := t.db.conn(ctx)
	if err != nil {
		return rec, false, err
	}
	k, err := normalizeKey(key)
	if err != nil {
		return rec, false, fmt.Errorf("get %s: %w", t.schema.Name, err)
	}

	var value string
	err = db.QueryRowContext(ctx, "SELECT value FROM "+t.schema.sqlName()+" WHERE key = ?", k).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, fmt.Errorf("get %s: %w", t.schema.Name, err)
	}

	rec, err = t.decode([]byte(value))
	if err != nil {
		return rec, false, fmt.Errorf("get %s: decode: %w", t.schema.Name, err)
	}
	return rec, true, nil
}

// GetAll returns every record in key order.
func (t *Table[T]) GetAll(ctx context.Context) ([]T, error) {
	return t.query(ctx, "get all", "SELECT value FROM "+t.schema.sqlName()+" ORDER BY key")
}

// GetAllFromIndex returns the records whose indexed fields equal value, in
// index order then key order. Composite indexes take a []any with one entry
// per field. A limit of zero or less returns every match.
func (t *Table[T]) GetAllFromIndex(ctx context.Context, index string, value any, limit int) ([]T, error) {
	idx, ok := t.schema.index(index)
	if !ok {
		return nil, fmt.Errorf("get from index %s.%s: %w", t.schema.Name, index, ErrUnknownIndex)
	}

	values := []any{value}
	if len(idx.Fields) > 1 {
		vs, ok := value.([]any)
		if !ok || len(vs) != len(idx.Fields) {
			return nil, fmt.Errorf("get from index %s.%s: composite index needs %d values", t.schema.Name, index, len(idx.Fields))
		}
		values = vs
	}

	exprs := extractExprs(idx.Fields)
	where := make([]string, len(exprs))
	args := make([]any, 0, len(values)+1)
	for i, expr := range exprs {
		arg, err := indexArg(values[i])
		if err != nil {
			return nil, fmt.Errorf("get from index %s.%s: %w", t.schema.Name, index, err)
		}
		if arg == nil {
			where[i] = expr + " IS NULL"
			continue
		}
		where[i] = expr + " = ?"
		args = append(args, arg)
	}

	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)

	query := fmt.Sprintf("SELECT value FROM %s WHERE %s ORDER BY %s, key LIMIT ?",
		t.schema.sqlName(), strings.Join(where, " AND "), strings.Join(exprs, ", "))
	return t.query(ctx, "get from index", query, args...)
}

// Delete removes the record stored under key. Deleting a missing key is not
// an error.
func (t *Table[T]) Delete(ctx context.Context, key any) error {
	db, err := t.db.conn(ctx)
	if err != nil {
		return err
	}
	k, err := normalizeKey(key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.schema.Name, err)
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM "+t.schema.sqlName()+" WHERE key = ?", k); err != nil {
		return fmt.Errorf("delete %s: %w", t.schema.Name, err)
	}
	return nil
}

// Clear removes every record.
func (t *Table[T]) Clear(ctx context.Context) error {
	db, err := t.db.conn(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM "+t.schema.sqlName()); err != nil {
		return fmt.Errorf("clear %s: %w", t.schema.Name, err)
	}
	return nil
}

// Count returns the number of records.
func (t *Table[T]) Count(ctx context.Context) (int, error) {
	db, err := t.db.conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.schema.sqlName()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.schema.Name, err)
	}
	return n, nil
}

func (t *Table[T]) query(ctx context.Context, op, query string, args ...any) ([]T, error) {
	db, err := t.db.conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", op, t.schema.Name, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("%s %s: scan: %w", op, t.schema.Name, err)
		}
		rec, err := t.decode([]byte(value))
		if err != nil {
			return nil, fmt.Errorf("%s %s: decode: %w", op, t.schema.Name, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s %s: %w", op, t.schema.Name, err)
	}
	return out, nil
}

func isConstraint(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint
}

package kvstore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// IndexSchema declares a secondary index. More than one field makes a
// composite index; lookups then take a []any with one value per field.
type IndexSchema struct {
	Name   string
	Fields []string
}

// TableSchema declares a logical table.
type TableSchema struct {
	Name string

	// KeyPath is the JSON field of the record that holds its key.
	KeyPath string

	// AutoIncrement allocates integer keys for records whose key field is
	// absent or zero.
	AutoIncrement bool

	Indexes []IndexSchema
}

// Migration is an upgrade step run when the on-disk version is below Version
// and the declared version is at or above it.
type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, u *Upgrade) error
}

// Schema is the full declaration a database is opened with.
type Schema struct {
	Version    int
	Tables     []TableSchema
	Migrations []Migration
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validate checks the declaration and returns migrations sorted by version.
func (s Schema) validate() ([]Migration, error) {
	if s.Version < 1 {
		return nil, fmt.Errorf("%w: version must be at least 1, got %d", ErrInvalidSchema, s.Version)
	}

	seen := make(map[string]bool, len(s.Tables))
	for _, t := range s.Tables {
		if !identRe.MatchString(t.Name) {
			return nil, fmt.Errorf("%w: table name %q", ErrInvalidSchema, t.Name)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("%w: duplicate table %q", ErrInvalidSchema, t.Name)
		}
		seen[t.Name] = true
		if !identRe.MatchString(t.KeyPath) {
			return nil, fmt.Errorf("%w: key path %q of table %q", ErrInvalidSchema, t.KeyPath, t.Name)
		}
		for _, idx := range t.Indexes {
			if len(idx.Fields) == 0 {
				return nil, fmt.Errorf("%w: index %q of table %q has no fields", ErrInvalidSchema, idx.Name, t.Name)
			}
			for _, f := range idx.Fields {
				if !identRe.MatchString(f) {
					return nil, fmt.Errorf("%w: index field %q of table %q", ErrInvalidSchema, f, t.Name)
				}
			}
		}
	}

	migrations := append([]Migration(nil), s.Migrations...)
	sort.SliceStable(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	for i, m := range migrations {
		if m.Version < 1 || m.Version > s.Version {
			return nil, fmt.Errorf("%w: migration %q targets version %d outside 1..%d", ErrInvalidSchema, m.Description, m.Version, s.Version)
		}
		if i > 0 && migrations[i-1].Version == m.Version {
			return nil, fmt.Errorf("%w: two migrations for version %d", ErrInvalidSchema, m.Version)
		}
		if m.Up == nil {
			return nil, fmt.Errorf("%w: migration for version %d has no Up", ErrInvalidSchema, m.Version)
		}
	}
	return migrations, nil
}

func (s Schema) table(name string) (TableSchema, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableSchema{}, false
}

func (t TableSchema) index(name string) (IndexSchema, bool) {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexSchema{}, false
}

// sqlName is the physical table name.
func (t TableSchema) sqlName() string {
	return `"kv_` + t.Name + `"`
}

func (t TableSchema) createSQL() string {
	if t.AutoIncrement {
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			key   INTEGER PRIMARY KEY AUTOINCREMENT,
			value TEXT NOT NULL
		)`, t.sqlName())
	}
	// No declared type: integer and text keys keep their own storage class.
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key   NOT NULL PRIMARY KEY,
		value TEXT NOT NULL
	)`, t.sqlName())
}

func (t TableSchema) indexSQL(idx IndexSchema) string {
	return fmt.Sprintf(`CREATE INDEX IF NOT EXISTS "idx_%s_%s" ON %s (%s)`,
		t.Name, strings.Join(idx.Fields, "_"), t.sqlName(), strings.Join(extractExprs(idx.Fields), ", "))
}

// extractExprs must produce exactly the expressions used in lookups, or SQLite
// will not use the expression index.
func extractExprs(fields []string) []string {
	exprs := make([]string, len(fields))
	for i, f := range fields {
		exprs[i] = fmt.Sprintf("json_extract(value, '$.%s')", f)
	}
	return exprs
}

// Upgrade is the handle passed to migrations. All work happens inside the
// upgrade transaction; it commits only if every migration succeeds.
type Upgrade struct {
	tx         *sql.Tx
	schema     Schema
	OldVersion int
	NewVersion int
}

// Clear deletes every record of a table. Allocated keys are not reused.
func (u *Upgrade) Clear(ctx context.Context, table string) error {
	t, ok := u.schema.table(table)
	if !ok {
		return fmt.Errorf("clear %q: %w", table, ErrUnknownTable)
	}
	if _, err := u.tx.ExecContext(ctx, "DELETE FROM "+t.sqlName()); err != nil {
		return fmt.Errorf("clear %q: %w", table, err)
	}
	return nil
}

// Count returns the number of records in a table.
func (u *Upgrade) Count(ctx context.Context, table string) (int, error) {
	t, ok := u.schema.table(table)
	if !ok {
		return 0, fmt.Errorf("count %q: %w", table, ErrUnknownTable)
	}
	var n int
	if err := u.tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.sqlName()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %q: %w", table, err)
	}
	return n, nil
}

// Exec runs a raw statement inside the upgrade transaction.
func (u *Upgrade) Exec(ctx context.Context, query string, args ...any) error {
	_, err := u.tx.ExecContext(ctx, query, args...)
	return err
}

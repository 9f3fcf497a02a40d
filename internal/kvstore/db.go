package kvstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// DB is a single-connection handle on a versioned SQLite database.
type DB struct {
	path   string
	schema Schema
	logger *zap.Logger

	ready chan struct{}
	db    *sql.DB
	err   error
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger used for open and upgrade events.
func WithLogger(l *zap.Logger) Option {
	return func(d *DB) {
		if l != nil {
			d.logger = l
		}
	}
}

// OpenAsync starts opening the database at path and returns immediately.
//
// Operations on the returned DB wait until opening has finished. If opening
// fails, Wait and every operation return the same *OpenError. An empty path
// fails with ErrNoBackend.
func OpenAsync(path string, schema Schema, opts ...Option) *DB {
	d := &DB{
		path:   path,
		schema: schema,
		logger: zap.NewNop(),
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}

	go func() {
		defer close(d.ready)
		db, err := d.open()
		if err != nil {
			d.logger.Error("storage open failed", zap.String("path", path), zap.Error(err))
			d.err = &OpenError{Path: path, Err: err}
			return
		}
		d.db = db
	}()

	return d
}

// Open opens the database at path and waits for it to be ready.
func Open(ctx context.Context, path string, schema Schema, opts ...Option) (*DB, error) {
	d := OpenAsync(path, schema, opts...)
	if err := d.Wait(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Wait blocks until the database is open. It returns the open error, or
// ctx.Err() if ctx ends first.
func (d *DB) Wait(ctx context.Context) error {
	_, err := d.conn(ctx)
	return err
}

// Close closes the connection once opening has finished.
func (d *DB) Close() error {
	<-d.ready
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Version returns the schema version recorded on disk.
func (d *DB) Version(ctx context.Context) (int, error) {
	db, err := d.conn(ctx)
	if err != nil {
		return 0, err
	}
	var v int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return v, nil
}

// Schema returns the declaration the database was opened with.
func (d *DB) Schema() Schema {
	return d.schema
}

func (d *DB) conn(ctx context.Context) (*sql.DB, error) {
	select {
	case <-d.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if d.err != nil {
		return nil, d.err
	}
	return d.db, nil
}

func (d *DB) open() (*sql.DB, error) {
	if d.path == "" {
		return nil, ErrNoBackend
	}

	migrations, err := d.schema.validate()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", d.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One logical connection per process. This also keeps in-memory
	// databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := d.upgrade(context.Background(), db, migrations); err != nil {
		db.Close()
		return nil, err
	}

	d.logger.Debug("storage opened", zap.String("path", d.path), zap.Int("version", d.schema.Version))
	return db, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// upgrade brings the on-disk schema to the declared version in one
// transaction: create missing tables and indexes, run the migrations in
// (old, new], then record the new version.
func (d *DB) upgrade(ctx context.Context, db *sql.DB, migrations []Migration) error {
	var onDisk int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&onDisk); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	target := d.schema.Version
	if onDisk > target {
		return fmt.Errorf("%w: database is at version %d, schema declares %d", ErrVersionDowngrade, onDisk, target)
	}
	if onDisk == target {
		return nil
	}

	d.logger.Info("upgrading storage schema", zap.Int("from", onDisk), zap.Int("to", target))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upgrade: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, t := range d.schema.Tables {
		if _, err := tx.ExecContext(ctx, t.createSQL()); err != nil {
			return fmt.Errorf("upgrade: create table %q: %w", t.Name, err)
		}
		for _, idx := range t.Indexes {
			if _, err := tx.ExecContext(ctx, t.indexSQL(idx)); err != nil {
				return fmt.Errorf("upgrade: create index %q on %q: %w", idx.Name, t.Name, err)
			}
		}
	}

	u := &Upgrade{tx: tx, schema: d.schema, OldVersion: onDisk, NewVersion: target}
	for _, m := range migrations {
		if m.Version <= onDisk {
			continue
		}
		d.logger.Info("applying migration", zap.Int("version", m.Version), zap.String("description", m.Description))
		if err := m.Up(ctx, u); err != nil {
			return fmt.Errorf("upgrade: migration to v%d: %w", m.Version, err)
		}
	}

	// user_version lives in the database header and is covered by the
	// transaction.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", target)); err != nil {
		return fmt.Errorf("upgrade: set user_version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upgrade: commit: %w", err)
	}
	return nil
}

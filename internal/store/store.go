package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/invoiceforge/internal/kvstore"
	"github.com/roach88/invoiceforge/internal/model"
)

// Store is the opened invoiceforge database with one typed handle per table.
type Store struct {
	db *kvstore.DB

	Senders      *kvstore.Table[model.Sender]
	Clients      *kvstore.Table[model.Client]
	ServiceItems *kvstore.Table[model.ServiceItem]
	Invoices     *kvstore.Table[model.InvoiceRecord]
	Settings     *kvstore.Table[model.AppSettings]
}

type options struct {
	logger  *zap.Logger
	now     func() time.Time
	version int
}

// Option configures a Store.
type Option func(*options)

// WithLogger sets the logger for database events.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithNow sets the clock used for the defaults partial invoice rows are
// decoded over.
func WithNow(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithVersion opens the database at an older schema version.
func WithVersion(v int) Option {
	return func(o *options) {
		o.version = v
	}
}

// OpenAsync starts opening the database at path and returns immediately.
// Table operations wait for opening to finish; see kvstore.OpenAsync.
func OpenAsync(path string, opts ...Option) *Store {
	o := options{logger: zap.NewNop(), now: time.Now, version: SchemaVersion}
	for _, opt := range opts {
		opt(&o)
	}

	db := kvstore.OpenAsync(path, Schema(o.version), kvstore.WithLogger(o.logger.Named("kvstore")))
	s, err := newStore(db, o)
	if err != nil {
		// Every table is declared by Schema; a miss is a programming error.
		panic(err)
	}
	return s
}

// Open opens the database at path and waits until it is ready.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	s := OpenAsync(path, opts...)
	if err := s.Wait(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newStore(db *kvstore.DB, o options) (*Store, error) {
	s := &Store{db: db}

	var err error
	if s.Senders, err = kvstore.NewTable[model.Sender](db, TableSenders); err != nil {
		return nil, fmt.Errorf("senders table: %w", err)
	}
	if s.Clients, err = kvstore.NewTable[model.Client](db, TableClients); err != nil {
		return nil, fmt.Errorf("clients table: %w", err)
	}
	if s.ServiceItems, err = kvstore.NewTable[model.ServiceItem](db, TableServiceItems); err != nil {
		return nil, fmt.Errorf("serviceItems table: %w", err)
	}
	now := o.now
	s.Invoices, err = kvstore.NewTable[model.InvoiceRecord](db, TableInvoices,
		kvstore.WithDecoder(func(data []byte) (model.InvoiceRecord, error) {
			// Rows without isDraft are history rows.
			return model.DecodeInvoiceRecord(data, model.ToPersistable(model.DefaultInvoice(now()), false))
		}))
	if err != nil {
		return nil, fmt.Errorf("invoices table: %w", err)
	}
	s.Settings, err = kvstore.NewTable[model.AppSettings](db, TableSettings,
		kvstore.WithDecoder(func(data []byte) (model.AppSettings, error) {
			return DecodeSettings(data)
		}))
	if err != nil {
		return nil, fmt.Errorf("settings table: %w", err)
	}
	return s, nil
}

// Wait blocks until the database is open and returns the open error, if any.
func (s *Store) Wait(ctx context.Context) error {
	return s.db.Wait(ctx)
}

// Version returns the schema version recorded on disk.
func (s *Store) Version(ctx context.Context) (int, error) {
	return s.db.Version(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

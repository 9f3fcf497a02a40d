package draft

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/roach88/invoiceforge/internal/model"
	"github.com/roach88/invoiceforge/internal/store"
	"github.com/roach88/invoiceforge/internal/testutil"
)

var testStart = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

type fixture struct {
	path  string
	db    *store.Store
	clock *testutil.FakeClock
	table *recordingTable
}

// newFixture opens a fresh database in a temp directory.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		path:  filepath.Join(t.TempDir(), "test.db"),
		clock: testutil.NewFakeClock(testStart),
	}
	f.reopen(t)
	return f
}

// reopen closes the database if open and opens it again.
func (f *fixture) reopen(t *testing.T) {
	t.Helper()
	if f.db != nil {
		require.NoError(t, f.db.Close())
	}
	db, err := store.Open(context.Background(), f.path, store.WithNow(f.clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	f.db = db
	f.table = &recordingTable{InvoiceTable: db.Invoices}
}

// newDrafts starts a draft store over the fixture and waits for it to load.
func (f *fixture) newDrafts(t *testing.T, opts ...Option) *Store {
	t.Helper()
	return f.newDraftsWithLogger(t, zaptest.NewLogger(t), opts...)
}

func (f *fixture) newDraftsWithLogger(t *testing.T, logger *zap.Logger, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithClock(f.clock), WithLogger(logger)}, opts...)
	s := New(f.table, opts...)
	require.NoError(t, s.WaitReady(context.Background()))
	return s
}

func (f *fixture) drafts(t *testing.T) []model.InvoiceRecord {
	t.Helper()
	rows, err := f.db.Invoices.GetAllFromIndex(context.Background(), store.IndexIsDraft, true, 0)
	require.NoError(t, err)
	return rows
}

func (f *fixture) all(t *testing.T) []model.InvoiceRecord {
	t.Helper()
	rows, err := f.db.Invoices.GetAll(context.Background())
	require.NoError(t, err)
	return rows
}

// recordingTable counts writes and can inject failures.
type recordingTable struct {
	InvoiceTable

	mu      sync.Mutex
	puts    int
	putErr  error
	addErr  error
	loadErr error
	gate    chan struct{}

	// putGate, when set, holds the next Put until it is closed. putEntered
	// is closed once that Put starts.
	putGate    chan struct{}
	putEntered chan struct{}
}

func (r *recordingTable) Put(ctx context.Context, rec model.InvoiceRecord) (model.InvoiceRecord, error) {
	r.mu.Lock()
	r.puts++
	err := r.putErr
	gate, entered := r.putGate, r.putEntered
	r.putGate, r.putEntered = nil, nil
	r.mu.Unlock()
	if gate != nil {
		close(entered)
		<-gate
	}
	if err != nil {
		return model.InvoiceRecord{}, err
	}
	return r.InvoiceTable.Put(ctx, rec)
}

func (r *recordingTable) Add(ctx context.Context, rec model.InvoiceRecord) (model.InvoiceRecord, error) {
	r.mu.Lock()
	err := r.addErr
	r.mu.Unlock()
	if err != nil {
		return model.InvoiceRecord{}, err
	}
	return r.InvoiceTable.Add(ctx, rec)
}

func (r *recordingTable) GetAllFromIndex(ctx context.Context, index string, value any, limit int) ([]model.InvoiceRecord, error) {
	r.mu.Lock()
	gate, err := r.gate, r.loadErr
	r.gate = nil
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return r.InvoiceTable.GetAllFromIndex(ctx, index, value, limit)
}

func (r *recordingTable) putCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.puts
}

// holdPut makes the next Put wait until the returned release is called. The
// entered channel is closed when that Put starts.
func (r *recordingTable) holdPut() (entered <-chan struct{}, release func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	gate, in := make(chan struct{}), make(chan struct{})
	r.putGate, r.putEntered = gate, in
	return in, func() { close(gate) }
}

func (r *recordingTable) failPuts(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.putErr = err
}

var errInjected = errors.New("injected failure")

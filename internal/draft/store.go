package draft

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/invoiceforge/internal/clock"
	"github.com/roach88/invoiceforge/internal/model"
	"github.com/roach88/invoiceforge/internal/store"
	"github.com/roach88/invoiceforge/internal/totals"
)

// DefaultAutosaveDelay is the quiet period after the last edit before the
// draft is written.
const DefaultAutosaveDelay = 500 * time.Millisecond

// InvoiceTable is the storage the draft store needs. *kvstore.Table of
// model.InvoiceRecord satisfies it.
type InvoiceTable interface {
	Add(ctx context.Context, rec model.InvoiceRecord) (model.InvoiceRecord, error)
	Put(ctx context.Context, rec model.InvoiceRecord) (model.InvoiceRecord, error)
	Get(ctx context.Context, key any) (model.InvoiceRecord, bool, error)
	GetAllFromIndex(ctx context.Context, index string, value any, limit int) ([]model.InvoiceRecord, error)
	Delete(ctx context.Context, key any) error
}

// State is the load state of a Store.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// SaveStatus reports autosave progress.
type SaveStatus struct {
	IsSaving  bool
	LastSaved *time.Time
}

// Store is the draft lifecycle store. All methods are safe for concurrent
// use.
type Store struct {
	invoices InvoiceTable
	clock    clock.Clock
	logger   *zap.Logger
	delay    time.Duration
	defaults func(now time.Time) model.Invoice
	autosave *clock.Debouncer

	// saveMu serializes every operation that writes to the invoices table.
	saveMu sync.Mutex

	mu        sync.Mutex
	state     State
	invoice   model.Invoice
	revision  uint64
	isSaving  bool
	lastSaved *time.Time
	ready     chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock for timestamps and the autosave timer.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAutosaveDelay sets the debounce delay.
func WithAutosaveDelay(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithDefaults sets the factory for blank drafts. The factory must return at
// least one line item.
func WithDefaults(f func(now time.Time) model.Invoice) Option {
	return func(s *Store) {
		if f != nil {
			s.defaults = f
		}
	}
}

// New returns a store and starts loading the stored draft. The store reports
// ready once loading ends, whatever its outcome.
func New(invoices InvoiceTable, opts ...Option) *Store {
	s := newStore(invoices, opts...)
	s.state = StateLoading
	go s.initialize(context.Background())
	return s
}

func newStore(invoices InvoiceTable, opts ...Option) *Store {
	s := &Store{
		invoices: invoices,
		clock:    clock.Real{},
		logger:   zap.NewNop(),
		delay:    DefaultAutosaveDelay,
		defaults: model.DefaultInvoice,
		state:    StateUninitialized,
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.invoice = s.blank()
	s.autosave = clock.NewDebouncer(s.clock, s.delay, func() {
		// Failures are logged by SaveDraft.
		_ = s.SaveDraft(context.Background())
	})
	return s
}

func (s *Store) initialize(ctx context.Context) {
	defer close(s.ready)

	rows, err := s.invoices.GetAllFromIndex(ctx, store.IndexIsDraft, true, 1)
	if err != nil {
		s.logger.Warn("failed to load draft, starting from defaults", zap.Error(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateReady

	if len(rows) == 0 {
		return
	}
	if s.revision > 0 {
		s.logger.Debug("draft edited while loading, keeping edits", zap.Int64("id", rows[0].ID))
		return
	}
	inv := model.FromRecord(rows[0])
	inv.IsDraft = true
	s.invoice = inv
	s.logger.Debug("draft loaded", zap.Int64("id", inv.ID))
}

// State returns the load state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ready reports whether loading has finished.
func (s *Store) Ready() bool {
	return s.State() == StateReady
}

// WaitReady blocks until loading has finished or ctx ends.
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Invoice returns a copy of the current invoice.
func (s *Store) Invoice() model.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invoice.Clone()
}

// Totals computes the current invoice's totals.
func (s *Store) Totals() totals.Totals {
	return totals.ForInvoice(s.Invoice())
}

// Status returns the autosave status.
func (s *Store) Status() SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := SaveStatus{IsSaving: s.isSaving}
	if s.lastSaved != nil {
		t := *s.lastSaved
		st.LastSaved = &t
	}
	return st
}

// SavePending reports whether an autosave is scheduled.
func (s *Store) SavePending() bool {
	return s.autosave.Pending()
}

// Flush runs a scheduled autosave now and returns its error. An autosave
// that already started is waited for; its error was logged when it failed.
func (s *Store) Flush(ctx context.Context) error {
	if s.autosave.Stop() {
		return s.SaveDraft(ctx)
	}
	idle := s.autosave.Idle()
	select {
	case <-idle:
		return nil
	default:
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes a scheduled autosave.
func (s *Store) Close(ctx context.Context) error {
	return s.Flush(ctx)
}

// SaveDraft writes the current invoice as the draft row, records the key the
// row was stored under and deletes every other draft row.
//
// A failure is logged and returned; LastSaved keeps its previous value and
// no retry is scheduled.
func (s *Store) SaveDraft(ctx context.Context) error {
	if err := s.WaitReady(ctx); err != nil {
		return err
	}
	s.autosave.Stop()

	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.saveDraftLocked(ctx)
}

// saveDraftLocked requires saveMu.
func (s *Store) saveDraftLocked(ctx context.Context) error {
	now := s.clock.Now()

	s.mu.Lock()
	rec := model.ToPersistable(s.invoice, true)
	rec.UpdatedAt = model.NewTimestamp(now)
	s.isSaving = true
	s.mu.Unlock()

	saved, err := s.invoices.Put(ctx, rec)
	if err != nil {
		s.finishSave(nil)
		s.logger.Error("failed to save draft", zap.Int64("id", rec.ID), zap.Error(err))
		return fmt.Errorf("save draft: %w", err)
	}

	s.mu.Lock()
	s.invoice.ID = saved.ID
	s.invoice.IsDraft = true
	s.invoice.UpdatedAt = saved.UpdatedAt.Time
	s.mu.Unlock()

	if err := s.deleteOtherDrafts(ctx, saved.ID); err != nil {
		s.finishSave(nil)
		s.logger.Error("failed to remove stale drafts", zap.Int64("id", saved.ID), zap.Error(err))
		return fmt.Errorf("save draft: %w", err)
	}

	s.finishSave(&now)
	s.logger.Debug("draft saved", zap.Int64("id", saved.ID))
	return nil
}

func (s *Store) finishSave(savedAt *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isSaving = false
	if savedAt != nil {
		t := *savedAt
		s.lastSaved = &t
	}
}

// deleteOtherDrafts removes every draft row except keep. keep == 0 removes
// them all.
func (s *Store) deleteOtherDrafts(ctx context.Context, keep int64) error {
	drafts, err := s.invoices.GetAllFromIndex(ctx, store.IndexIsDraft, true, 0)
	if err != nil {
		return fmt.Errorf("list drafts: %w", err)
	}
	for _, d := range drafts {
		if d.ID == keep {
			continue
		}
		if err := s.invoices.Delete(ctx, d.ID); err != nil {
			return fmt.Errorf("delete draft %d: %w", d.ID, err)
		}
	}
	return nil
}

// SaveInvoiceAndCreateNew moves the current invoice into history and starts
// a fresh draft, which is persisted right away.
//
// The history row gets a new key. A draft status becomes sent; any other
// status is kept. The old draft row is deleted before the history row is
// inserted; if the insert then fails, no draft row remains until the next
// save.
func (s *Store) SaveInvoiceAndCreateNew(ctx context.Context) (model.InvoiceRecord, error) {
	if err := s.WaitReady(ctx); err != nil {
		return model.InvoiceRecord{}, err
	}
	s.autosave.Stop()

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	now := s.clock.Now()

	s.mu.Lock()
	rec := model.ToPersistable(s.invoice, false)
	s.mu.Unlock()

	oldID := rec.ID
	rec.ID = 0
	if rec.Status == model.StatusDraft {
		rec.Status = model.StatusSent
	}
	rec.UpdatedAt = model.NewTimestamp(now)

	if oldID != 0 {
		if err := s.invoices.Delete(ctx, oldID); err != nil {
			s.logger.Error("failed to delete draft before promotion", zap.Int64("id", oldID), zap.Error(err))
			return model.InvoiceRecord{}, fmt.Errorf("promote draft: %w", err)
		}
	}

	saved, err := s.invoices.Add(ctx, rec)
	if err != nil {
		s.logger.Error("failed to insert history invoice", zap.Int64("draft_id", oldID), zap.Error(err))
		return model.InvoiceRecord{}, fmt.Errorf("promote draft: %w", err)
	}
	s.logger.Info("invoice saved to history", zap.Int64("id", saved.ID), zap.String("number", saved.Number))

	s.mu.Lock()
	s.invoice = s.blank()
	s.revision++
	s.mu.Unlock()

	if err := s.saveDraftLocked(ctx); err != nil {
		return saved, err
	}
	return saved, nil
}

// LoadInvoiceFromHistory copies a stored invoice into the draft.
//
// Every field except identity is copied; the draft keeps its own key, becomes
// a draft again and gets a fresh updatedAt. The stored row is not modified.
func (s *Store) LoadInvoiceFromHistory(ctx context.Context, id int64) error {
	if err := s.WaitReady(ctx); err != nil {
		return err
	}
	rec, ok, err := s.invoices.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load invoice %d: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("load invoice %d: %w", id, ErrNotFound)
	}
	s.replace(rec)
	return nil
}

// ImportAsDraft copies rec into the draft with the same semantics as
// LoadInvoiceFromHistory.
func (s *Store) ImportAsDraft(rec model.InvoiceRecord) {
	s.replace(rec)
}

func (s *Store) replace(rec model.InvoiceRecord) {
	inv := model.FromRecord(rec)

	s.mu.Lock()
	inv.ID = s.invoice.ID
	inv.IsDraft = true
	inv.Status = model.StatusDraft
	inv.UpdatedAt = s.clock.Now()
	if len(inv.LineItems) == 0 {
		inv.LineItems = []model.LineItem{s.blankLineItem()}
	}
	s.invoice = inv
	s.revision++
	s.mu.Unlock()

	s.autosave.Trigger()
}

// DeleteFromHistory removes a history row. The draft row cannot be deleted
// this way.
func (s *Store) DeleteFromHistory(ctx context.Context, id int64) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	rec, ok, err := s.invoices.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("delete invoice %d: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("delete invoice %d: %w", id, ErrNotFound)
	}

	s.mu.Lock()
	current := s.invoice.ID
	s.mu.Unlock()
	if rec.IsDraft || rec.ID == current {
		return fmt.Errorf("delete invoice %d: %w", id, ErrNotHistory)
	}

	if err := s.invoices.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete invoice %d: %w", id, err)
	}
	s.logger.Info("invoice deleted from history", zap.Int64("id", id))
	return nil
}

// ClearDraft deletes every draft row and resets the draft to defaults. The
// fresh draft is written by the next save.
func (s *Store) ClearDraft(ctx context.Context) error {
	if err := s.WaitReady(ctx); err != nil {
		return err
	}
	s.autosave.Stop()

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	id := s.invoice.ID
	s.mu.Unlock()

	if id != 0 {
		if err := s.invoices.Delete(ctx, id); err != nil {
			return fmt.Errorf("clear draft: %w", err)
		}
	}
	if err := s.deleteOtherDrafts(ctx, 0); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}

	s.mu.Lock()
	s.invoice = s.blank()
	s.revision++
	s.mu.Unlock()
	return nil
}

// History returns the stored non-draft invoices, newest first. A non-empty
// status restricts the result to that status.
func (s *Store) History(ctx context.Context, status model.Status) ([]model.InvoiceRecord, error) {
	var (
		rows []model.InvoiceRecord
		err  error
	)
	if status == "" {
		rows, err = s.invoices.GetAllFromIndex(ctx, store.IndexIsDraft, false, 0)
	} else {
		rows, err = s.invoices.GetAllFromIndex(ctx, store.IndexStatus, string(status), 0)
	}
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	out := rows[:0]
	for _, r := range rows {
		if !r.IsDraft {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CreatedAt.Time, out[j].CreatedAt.Time
		if !a.Equal(b) {
			return a.After(b)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// blank returns a fresh default draft. Callers hold mu or own s exclusively.
func (s *Store) blank() model.Invoice {
	inv := s.defaults(s.clock.Now())
	inv.ID = 0
	inv.IsDraft = true
	if len(inv.LineItems) == 0 {
		inv.LineItems = []model.LineItem{model.DefaultLineItem()}
	}
	return inv
}

// blankLineItem is the row the editor adds. It follows the first line item
// of a blank draft so configured defaults such as the tax rate carry over.
func (s *Store) blankLineItem() model.LineItem {
	inv := s.defaults(s.clock.Now())
	if len(inv.LineItems) > 0 {
		return inv.LineItems[0]
	}
	return model.DefaultLineItem()
}

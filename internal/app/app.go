// Package app builds the stores, renderer and importer over one database and
// exposes them to the command line.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/invoiceforge/internal/catalog"
	"github.com/roach88/invoiceforge/internal/clock"
	"github.com/roach88/invoiceforge/internal/config"
	"github.com/roach88/invoiceforge/internal/draft"
	"github.com/roach88/invoiceforge/internal/importer"
	"github.com/roach88/invoiceforge/internal/model"
	"github.com/roach88/invoiceforge/internal/profile"
	"github.com/roach88/invoiceforge/internal/render"
	"github.com/roach88/invoiceforge/internal/settings"
	"github.com/roach88/invoiceforge/internal/store"
	"github.com/roach88/invoiceforge/internal/totals"
)

// App owns every store of a running session.
type App struct {
	Config   config.Config
	DB       *store.Store
	Settings *settings.Store
	Drafts   *draft.Store
	Profile  *profile.Store
	Catalog  *catalog.Catalog
	Exporter *render.Exporter

	clock  clock.Clock
	logger *zap.Logger

	mu    sync.Mutex
	prefs model.AppSettings

	// history is the number of stored non-draft invoices. The next invoice
	// number uses history+1.
	history atomic.Int64
}

type options struct {
	clock  clock.Clock
	logger *zap.Logger
}

// Option configures an App.
type Option func(*options)

// WithClock sets the clock shared by every store.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the root logger. Each component logs under its own name.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New opens the database at cfg.DBPath and builds the stores over it.
//
// A database that cannot be opened does not fail New: the stores fall back
// to defaults and every write fails. Use StorageErr to detect this.
func New(ctx context.Context, cfg config.Config, opts ...Option) *App {
	o := options{clock: clock.Real{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Config: cfg,
		clock:  o.clock,
		logger: o.logger,
	}
	if cfg.DBPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			a.logger.Warn("failed to create database directory", zap.String("path", cfg.DBPath), zap.Error(err))
		}
	}
	a.DB = store.OpenAsync(cfg.DBPath,
		store.WithLogger(o.logger.Named("store")),
		store.WithNow(o.clock.Now))
	a.Settings = settings.NewStore(a.DB.Settings, o.logger.Named("settings"))

	// Blank drafts need the settings and the invoice count, so both are read
	// before the draft store starts.
	a.prefs = a.Settings.Load(ctx)
	a.refreshHistory(ctx)

	a.Drafts = draft.New(a.DB.Invoices,
		draft.WithClock(o.clock),
		draft.WithLogger(o.logger.Named("draft")),
		draft.WithAutosaveDelay(cfg.AutosaveDelay),
		draft.WithDefaults(a.blankInvoice))

	a.Profile = profile.New(a.DB.Senders, a.DB.Clients,
		profile.WithClock(o.clock),
		profile.WithLogger(o.logger.Named("profile")))
	if err := a.Profile.Init(ctx); err != nil {
		a.logger.Warn("failed to load profile", zap.Error(err))
	}

	a.Catalog = catalog.New(a.DB.ServiceItems,
		catalog.WithClock(o.clock),
		catalog.WithLogger(o.logger.Named("catalog")))

	a.Exporter = render.NewExporter(
		render.NewLogoResolver(cfg.LogoMaxWidth, o.logger.Named("logo")),
		o.logger.Named("render"))
	return a
}

// StorageErr returns the error the database failed to open with, if any.
func (a *App) StorageErr(ctx context.Context) error {
	return a.DB.Wait(ctx)
}

// Wait blocks until the draft store has finished loading.
func (a *App) Wait(ctx context.Context) error {
	return a.Drafts.WaitReady(ctx)
}

// Close writes a pending autosave and closes the database.
func (a *App) Close(ctx context.Context) error {
	flushErr := a.Drafts.Close(ctx)
	closeErr := a.DB.Close()
	return errors.Join(flushErr, closeErr)
}

// Now reads the application clock.
func (a *App) Now() time.Time {
	return a.clock.Now()
}

// Preferences returns the current settings.
func (a *App) Preferences() model.AppSettings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.prefs
}

// SavePreferences validates and stores st. Blank drafts created afterwards
// follow the new settings; the current draft is left alone.
func (a *App) SavePreferences(ctx context.Context, st model.AppSettings) (model.AppSettings, error) {
	saved, err := a.Settings.Save(ctx, st)
	if err != nil {
		return model.AppSettings{}, err
	}
	a.mu.Lock()
	a.prefs = saved
	a.mu.Unlock()
	return saved, nil
}

// NextNumber formats the number the next invoice should get.
func (a *App) NextNumber(now time.Time) string {
	cfg := a.Preferences().InvoiceNumberConfig
	return settings.FormatInvoiceNumber(cfg, int(a.history.Load())+1, now)
}

func (a *App) blankInvoice(now time.Time) model.Invoice {
	return settings.InvoiceDefaults(a.Preferences(), a.NextNumber)(now)
}

func (a *App) refreshHistory(ctx context.Context) {
	rows, err := a.DB.Invoices.GetAllFromIndex(ctx, store.IndexIsDraft, false, 0)
	if err != nil {
		a.logger.Warn("failed to count invoices", zap.Error(err))
		return
	}
	a.history.Store(int64(len(rows)))
}

// Promote moves the draft into history and starts a fresh draft numbered
// after it.
func (a *App) Promote(ctx context.Context) (model.InvoiceRecord, error) {
	a.history.Add(1)
	rec, err := a.Drafts.SaveInvoiceAndCreateNew(ctx)
	if err != nil {
		a.refreshHistory(ctx)
		return rec, err
	}
	return rec, nil
}

// DeleteInvoice removes a history invoice.
func (a *App) DeleteInvoice(ctx context.Context, id int64) error {
	if err := a.Drafts.DeleteFromHistory(ctx, id); err != nil {
		return err
	}
	a.refreshHistory(ctx)
	return nil
}

// ApplySender copies the current sender profile into the draft.
func (a *App) ApplySender() {
	snd := a.Profile.Sender()
	a.Drafts.Update(func(inv *model.Invoice) {
		inv.SenderData = &snd
		if snd.ID != 0 {
			id := snd.ID
			inv.SenderID = &id
		} else {
			inv.SenderID = nil
		}
		if inv.Terms == "" && snd.DefaultTerms != "" {
			inv.Terms = snd.DefaultTerms
		}
	})
}

// ApplyClient copies client id into the draft.
func (a *App) ApplyClient(ctx context.Context, id int64) error {
	c, err := a.Profile.Client(ctx, id)
	if err != nil {
		return err
	}
	a.Drafts.Update(func(inv *model.Invoice) {
		snapshot := c
		inv.ClientSnapshot = &snapshot
		cid := c.ID
		inv.ClientID = &cid
	})
	return nil
}

// UseService appends catalog item id to the draft as a line item.
func (a *App) UseService(ctx context.Context, id int64) error {
	item, err := a.Catalog.Get(ctx, id)
	if err != nil {
		return err
	}
	a.Drafts.AddLineItemFrom(catalog.LineItem(item))
	return nil
}

// Import validates an invoice document and opens it as the draft.
func (a *App) Import(name string, data []byte) (model.InvoiceRecord, error) {
	rec, err := importer.ValidateAt(name, data, a.clock.Now())
	if err != nil {
		return model.InvoiceRecord{}, err
	}
	a.Drafts.ImportAsDraft(rec)
	return rec, nil
}

// Export renders the draft. logo, or the sender profile's logo when nil, is
// attached to the sender block for this render only.
func (a *App) Export(ctx context.Context, format render.Format, logo *model.LogoRef, w io.Writer) error {
	inv := a.Drafts.Invoice()
	if logo == nil {
		logo = a.Profile.Sender().Logo
	}
	if logo != nil && inv.SenderData != nil {
		inv.SenderData.Logo = logo
	}
	if err := a.Exporter.Export(ctx, inv, totals.ForInvoice(inv), format, w); err != nil {
		return fmt.Errorf("export %s: %w", inv.Number, err)
	}
	return nil
}

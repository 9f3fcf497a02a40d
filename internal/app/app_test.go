package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/roach88/invoiceforge/internal/catalog"
	"github.com/roach88/invoiceforge/internal/config"
	"github.com/roach88/invoiceforge/internal/draft"
	"github.com/roach88/invoiceforge/internal/importer"
	"github.com/roach88/invoiceforge/internal/model"
	"github.com/roach88/invoiceforge/internal/render"
	"github.com/roach88/invoiceforge/internal/testutil"
)

var testStart = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "app.db")
	return cfg
}

func open(t *testing.T, cfg config.Config, clk *testutil.FakeClock) *App {
	t.Helper()
	ctx := context.Background()
	a := New(ctx, cfg, WithClock(clk), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, a.StorageErr(ctx))
	require.NoError(t, a.Wait(ctx))
	t.Cleanup(func() { a.Close(context.Background()) })
	return a
}

func TestNew_BlankDraftFollowsSettings(t *testing.T) {
	a := open(t, testConfig(t), testutil.NewFakeClock(testStart))

	inv := a.Drafts.Invoice()
	assert.Equal(t, "INV-001", inv.Number)
	assert.Equal(t, "USD", inv.Currency)
	require.NotNil(t, inv.DueDate)
	assert.Equal(t, testStart.AddDate(0, 0, 30), *inv.DueDate, "net 30 by default")
}

func TestPromote_NumbersFollowHistory(t *testing.T) {
	ctx := context.Background()
	a := open(t, testConfig(t), testutil.NewFakeClock(testStart))

	rec, err := a.Promote(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-001", rec.Number)
	assert.Equal(t, "INV-002", a.Drafts.Invoice().Number)

	_, err = a.Promote(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-003", a.Drafts.Invoice().Number)

	require.NoError(t, a.DeleteInvoice(ctx, rec.ID))
	assert.Equal(t, "INV-002", a.NextNumber(testStart))
}

func TestSavePreferences_AppliesToNextBlankDraft(t *testing.T) {
	ctx := context.Background()
	a := open(t, testConfig(t), testutil.NewFakeClock(testStart))

	st := a.Preferences()
	st.DefaultCurrency = "EUR"
	st.InvoiceNumberConfig = model.InvoiceNumberConfig{Prefix: "F", IncludeYear: true, Separator: "/", PadLength: 4}
	_, err := a.SavePreferences(ctx, st)
	require.NoError(t, err)

	assert.Equal(t, "USD", a.Drafts.Invoice().Currency, "current draft untouched")

	require.NoError(t, a.Drafts.ClearDraft(ctx))
	inv := a.Drafts.Invoice()
	assert.Equal(t, "EUR", inv.Currency)
	assert.Equal(t, "F/2025/0001", inv.Number)

	st.DefaultCurrency = "nope"
	_, err = a.SavePreferences(ctx, st)
	assert.Error(t, err)
	assert.Equal(t, "EUR", a.Preferences().DefaultCurrency)
}

func TestNew_CreatesDatabaseDirectory(t *testing.T) {
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "nested", "dir", "app.db")
	a := open(t, cfg, testutil.NewFakeClock(testStart))
	require.NoError(t, a.Drafts.SaveDraft(context.Background()))
	assert.FileExists(t, cfg.DBPath)
}

func TestClose_FlushesPendingAutosave(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	clk := testutil.NewFakeClock(testStart)

	a := New(ctx, cfg, WithClock(clk))
	require.NoError(t, a.Wait(ctx))
	a.Drafts.Update(func(inv *model.Invoice) { inv.Notes = "kept" })
	require.True(t, a.Drafts.SavePending())
	require.NoError(t, a.Close(ctx))

	b := open(t, cfg, clk)
	assert.Equal(t, "kept", b.Drafts.Invoice().Notes)
}

func TestApplySenderAndClient(t *testing.T) {
	ctx := context.Background()
	a := open(t, testConfig(t), testutil.NewFakeClock(testStart))

	_, err := a.Profile.SaveSender(ctx, func(s *model.Sender) {
		s.BusinessName = "Acme"
		s.DefaultTerms = "Net 15"
	})
	require.NoError(t, err)
	c, err := a.Profile.SaveClient(ctx, model.Client{Name: "Jane", Email: "jane@example.test"})
	require.NoError(t, err)

	a.Drafts.Update(func(inv *model.Invoice) { inv.Terms = "" })
	a.ApplySender()
	require.NoError(t, a.ApplyClient(ctx, c.ID))

	inv := a.Drafts.Invoice()
	require.NotNil(t, inv.SenderData)
	assert.Equal(t, "Acme", inv.SenderData.BusinessName)
	require.NotNil(t, inv.SenderID)
	assert.Equal(t, "Net 15", inv.Terms)
	require.NotNil(t, inv.ClientSnapshot)
	assert.Equal(t, "Jane", inv.ClientSnapshot.Name)
	assert.Equal(t, c.ID, *inv.ClientID)

	assert.Error(t, a.ApplyClient(ctx, 999))
}

func TestUseService(t *testing.T) {
	ctx := context.Background()
	a := open(t, testConfig(t), testutil.NewFakeClock(testStart))

	item, err := a.Catalog.Save(ctx, model.ServiceItem{Name: "Audit", DefaultRate: 800, DefaultUnit: model.UnitDay})
	require.NoError(t, err)
	require.NoError(t, a.UseService(ctx, item.ID))

	items := a.Drafts.Invoice().LineItems
	require.Len(t, items, 2)
	assert.Equal(t, "Audit", items[1].Description)
	assert.Equal(t, 800.0, items[1].Rate)

	assert.ErrorIs(t, a.UseService(ctx, 999), catalog.ErrNotFound)
}

func TestImport(t *testing.T) {
	a := open(t, testConfig(t), testutil.NewFakeClock(testStart))
	id := a.Drafts.Invoice().ID

	_, err := a.Import("doc.json", []byte(`{"number":"EXT-9","currency":"GBP","status":"paid","lineItems":[{"quantity":2,"rate":5}]}`))
	require.NoError(t, err)
	inv := a.Drafts.Invoice()
	assert.Equal(t, "EXT-9", inv.Number)
	assert.Equal(t, model.StatusDraft, inv.Status)
	assert.Equal(t, id, inv.ID)

	_, err = a.Import("bad.json", []byte(`{"lineItems":[]}`))
	var verr *importer.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "EXT-9", a.Drafts.Invoice().Number, "failed import leaves the draft")
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	a := open(t, testConfig(t), testutil.NewFakeClock(testStart))
	a.ApplySender()

	var buf bytes.Buffer
	require.NoError(t, a.Export(ctx, render.FormatPDF, nil, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestNew_UnopenableDatabaseFallsBack(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.DBPath = ""

	a := New(ctx, cfg, WithClock(testutil.NewFakeClock(testStart)))
	t.Cleanup(func() { a.Close(context.Background()) })
	require.NoError(t, a.Wait(ctx))

	assert.Error(t, a.StorageErr(ctx))
	assert.Equal(t, "INV-001", a.Drafts.Invoice().Number)
	assert.Error(t, a.Drafts.SaveDraft(ctx))
	_, err := a.Promote(ctx)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, draft.ErrNotFound)
}

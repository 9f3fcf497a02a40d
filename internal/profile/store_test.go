package profile

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/roach88/invoiceforge/internal/kvstore"
	"github.com/roach88/invoiceforge/internal/model"
	"github.com/roach88/invoiceforge/internal/store"
	"github.com/roach88/invoiceforge/internal/testutil"
)

var testStart = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestStore(t *testing.T, db *store.Store) (*Store, *testutil.FakeClock) {
	t.Helper()
	clk := testutil.NewFakeClock(testStart)
	return New(db.Senders, db.Clients, WithClock(clk), WithLogger(zaptest.NewLogger(t))), clk
}

func TestInit_EmptyDatabaseKeepsShell(t *testing.T) {
	s, _ := newTestStore(t, openTestDB(t))
	require.NoError(t, s.Init(context.Background()))

	snd := s.Sender()
	assert.Zero(t, snd.ID)
	assert.True(t, snd.IsDefault)
	assert.NotNil(t, snd.BankAccounts)
	assert.Empty(t, s.Clients())
	assert.False(t, s.Loading())
}

func TestLoadSender_PrefersDefault(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.Senders.Add(ctx, model.Sender{BusinessName: "First"})
	require.NoError(t, err)
	_, err = db.Senders.Add(ctx, model.Sender{BusinessName: "Default", IsDefault: true})
	require.NoError(t, err)
	_, err = db.Senders.Add(ctx, model.Sender{BusinessName: "Also default", IsDefault: true})
	require.NoError(t, err)

	s, _ := newTestStore(t, db)
	require.NoError(t, s.Init(ctx))
	assert.Equal(t, "Default", s.Sender().BusinessName)
}

func TestLoadSender_FallsBackToFirst(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.Senders.Add(ctx, model.Sender{BusinessName: "First"})
	require.NoError(t, err)
	_, err = db.Senders.Add(ctx, model.Sender{BusinessName: "Second"})
	require.NoError(t, err)

	s, _ := newTestStore(t, db)
	require.NoError(t, s.LoadSender(ctx))
	assert.Equal(t, "First", s.Sender().BusinessName)
}

func TestSaveSender_InsertThenUpdate(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	s, clk := newTestStore(t, db)

	first, err := s.SaveSender(ctx, func(snd *model.Sender) { snd.BusinessName = "Acme" })
	require.NoError(t, err)
	require.NotZero(t, first.ID)
	assert.Equal(t, testStart, first.CreatedAt)

	clk.Advance(time.Hour)
	second, err := s.SaveSender(ctx, func(snd *model.Sender) { snd.Email = "billing@acme.test" })
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, testStart, second.CreatedAt, "createdAt is set on first insert only")
	assert.Equal(t, testStart.Add(time.Hour), second.UpdatedAt)

	all, err := db.Senders.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Acme", all[0].BusinessName)
	assert.Equal(t, "billing@acme.test", all[0].Email)
}

func TestSaveSender_LogoStaysInMemory(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	s, _ := newTestStore(t, db)

	logo := &model.LogoRef{Source: "logo.png"}
	s.SetLogo(logo)
	saved, err := s.SaveSender(ctx, nil)
	require.NoError(t, err)
	assert.Same(t, logo, saved.Logo)

	stored, ok, err := db.Senders.Get(ctx, saved.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, stored.Logo)

	// Reloading keeps the volatile reference.
	require.NoError(t, s.LoadSender(ctx))
	assert.Same(t, logo, s.Sender().Logo)
}

func TestSaveSender_FailureKeepsState(t *testing.T) {
	s := New(failingSenders{}, nil, WithLogger(zaptest.NewLogger(t)))

	_, err := s.SaveSender(context.Background(), func(snd *model.Sender) { snd.BusinessName = "X" })
	require.ErrorIs(t, err, errBoom)
	assert.Empty(t, s.Sender().BusinessName)
}

func TestBankAccounts(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	s, _ := newTestStore(t, db)

	a := s.AddBankAccount()
	b := s.AddBankAccount()
	_, err := uuid.Parse(a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "USD", a.Currency)

	require.NoError(t, s.UpdateBankAccount(a.ID, func(acc *model.BankAccount) {
		acc.BankName = "First Bank"
		acc.ID = "hijacked"
	}))
	require.NoError(t, s.RemoveBankAccount(b.ID))
	assert.ErrorIs(t, s.RemoveBankAccount(b.ID), ErrNotFound)
	assert.ErrorIs(t, s.UpdateBankAccount("nope", func(*model.BankAccount) {}), ErrNotFound)

	saved, err := s.SaveSender(ctx, nil)
	require.NoError(t, err)
	require.Len(t, saved.BankAccounts, 1)
	assert.Equal(t, a.ID, saved.BankAccounts[0].ID)
	assert.Equal(t, "First Bank", saved.BankAccounts[0].BankName)
}

func TestClients_CRUD(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	s, clk := newTestStore(t, db)

	c, err := s.SaveClient(ctx, model.Client{Name: "Jane", Email: "jane@example.test"})
	require.NoError(t, err)
	require.NotZero(t, c.ID)
	assert.Equal(t, testStart, c.CreatedAt)
	require.Len(t, s.Clients(), 1)

	clk.Advance(time.Minute)
	c.Company = "Jane Co"
	updated, err := s.SaveClient(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, c.ID, updated.ID)
	assert.Equal(t, testStart, updated.CreatedAt)
	assert.Equal(t, testStart.Add(time.Minute), updated.UpdatedAt)

	got, err := s.Client(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Co", got.Company)

	byEmail, err := s.FindClientsByEmail(ctx, "jane@example.test")
	require.NoError(t, err)
	require.Len(t, byEmail, 1)

	require.NoError(t, s.DeleteClient(ctx, c.ID))
	assert.Empty(t, s.Clients())
	_, err = s.Client(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInit_FailureIsNotFatal(t *testing.T) {
	db := openTestDB(t)
	s := New(failingSenders{}, db.Clients, WithLogger(zaptest.NewLogger(t)))

	_, err := db.Clients.Add(context.Background(), model.Client{Name: "Still loads"})
	require.NoError(t, err)

	err = s.Init(context.Background())
	assert.ErrorIs(t, err, errBoom)
	assert.Len(t, s.Clients(), 1)
	assert.True(t, s.Sender().IsDefault)
}

var errBoom = errors.New("boom")

type failingSenders struct {
	kvstore.Collection[model.Sender]
}

func (failingSenders) GetAll(context.Context) ([]model.Sender, error) { return nil, errBoom }

func (failingSenders) Add(context.Context, model.Sender) (model.Sender, error) {
	return model.Sender{}, errBoom
}

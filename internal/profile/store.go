// Package profile manages the sender profile and the client list.
package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/invoiceforge/internal/clock"
	"github.com/roach88/invoiceforge/internal/kvstore"
	"github.com/roach88/invoiceforge/internal/model"
	"github.com/roach88/invoiceforge/internal/store"
)

// ErrNotFound indicates a missing client or bank account.
var ErrNotFound = errors.New("not found")

// Store holds the active sender and the loaded clients.
type Store struct {
	senders kvstore.Collection[model.Sender]
	clients kvstore.Collection[model.Client]
	clock   clock.Clock
	logger  *zap.Logger

	mu         sync.Mutex
	sender     model.Sender
	clientList []model.Client
	loading    bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock for timestamps.
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

// New returns a store holding an unsaved, empty default sender. Call Init
// to load stored data.
func New(senders kvstore.Collection[model.Sender], clients kvstore.Collection[model.Client], opts ...Option) *Store {
	s := &Store{
		senders: senders,
		clients: clients,
		clock:   clock.Real{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	now := s.clock.Now()
	s.sender = model.Sender{IsDefault: true, BankAccounts: []model.BankAccount{}, CreatedAt: now, UpdatedAt: now}
	s.clientList = []model.Client{}
	return s
}

// Init loads the sender and the clients concurrently. A failed load is
// logged and leaves that part as it was; the first failure is returned for
// callers that want to report it.
func (s *Store) Init(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	var g errgroup.Group
	g.Go(func() error { return s.LoadSender(ctx) })
	g.Go(func() error { return s.LoadClients(ctx) })
	return g.Wait()
}

// Loading reports whether Init is in progress.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}

// Sender returns a copy of the active sender.
func (s *Store) Sender() model.Sender {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sender.Clone()
}

// LoadSender picks the active sender: the first sender flagged isDefault,
// else the first sender, else the unsaved empty one already held.
func (s *Store) LoadSender(ctx context.Context) error {
	senders, err := s.senders.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to load sender", zap.Error(err))
		return fmt.Errorf("load sender: %w", err)
	}
	if len(senders) == 0 {
		return nil
	}

	chosen := senders[0]
	for _, snd := range senders {
		if snd.IsDefault {
			chosen = snd
			break
		}
	}
	if chosen.BankAccounts == nil {
		chosen.BankAccounts = []model.BankAccount{}
	}

	s.mu.Lock()
	chosen.Logo = s.sender.Logo
	s.sender = chosen
	s.mu.Unlock()
	return nil
}

// SaveSender applies edit to the active sender and stores it. The first save
// inserts the sender and sets createdAt; later saves replace it. edit may be
// nil to store pending in-memory changes such as bank accounts.
func (s *Store) SaveSender(ctx context.Context, edit func(snd *model.Sender)) (model.Sender, error) {
	now := s.clock.Now()

	s.mu.Lock()
	updated := s.sender.Clone()
	s.mu.Unlock()

	if edit != nil {
		edit(&updated)
	}
	updated.UpdatedAt = now

	var (
		saved model.Sender
		err   error
	)
	if updated.ID != 0 {
		saved, err = s.senders.Put(ctx, updated)
	} else {
		updated.CreatedAt = now
		saved, err = s.senders.Add(ctx, updated)
	}
	if err != nil {
		s.logger.Error("failed to save sender", zap.Int64("id", updated.ID), zap.Error(err))
		return model.Sender{}, fmt.Errorf("save sender: %w", err)
	}

	// The logo is never stored; keep the in-memory reference.
	saved.Logo = updated.Logo
	if saved.BankAccounts == nil {
		saved.BankAccounts = []model.BankAccount{}
	}

	s.mu.Lock()
	s.sender = saved
	s.mu.Unlock()
	return saved.Clone(), nil
}

// SetLogo replaces the sender's logo reference. It is held in memory only.
func (s *Store) SetLogo(ref *model.LogoRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sender.Logo = ref
}

// AddBankAccount appends an empty USD account with a fresh id to the active
// sender. The change is stored by the next SaveSender.
func (s *Store) AddBankAccount() model.BankAccount {
	acc := model.BankAccount{ID: uuid.NewString(), Currency: "USD"}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sender.BankAccounts = append(s.sender.BankAccounts, acc)
	return acc
}

// UpdateBankAccount applies edit to the account with the given id. The id
// itself cannot change.
func (s *Store) UpdateBankAccount(id string, edit func(acc *model.BankAccount)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sender.BankAccounts {
		if s.sender.BankAccounts[i].ID == id {
			edit(&s.sender.BankAccounts[i])
			s.sender.BankAccounts[i].ID = id
			return nil
		}
	}
	return fmt.Errorf("bank account %q: %w", id, ErrNotFound)
}

// RemoveBankAccount drops the account with the given id.
func (s *Store) RemoveBankAccount(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]model.BankAccount, 0, len(s.sender.BankAccounts))
	for _, acc := range s.sender.BankAccounts {
		if acc.ID != id {
			kept = append(kept, acc)
		}
	}
	if len(kept) == len(s.sender.BankAccounts) {
		return fmt.Errorf("bank account %q: %w", id, ErrNotFound)
	}
	s.sender.BankAccounts = kept
	return nil
}

// Clients returns a copy of the loaded clients.
func (s *Store) Clients() []model.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Client{}, s.clientList...)
}

// LoadClients reloads the client list.
func (s *Store) LoadClients(ctx context.Context) error {
	clients, err := s.clients.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to load clients", zap.Error(err))
		return fmt.Errorf("load clients: %w", err)
	}
	s.mu.Lock()
	s.clientList = clients
	s.mu.Unlock()
	return nil
}

// Client returns the stored client with the given id.
func (s *Store) Client(ctx context.Context, id int64) (model.Client, error) {
	c, ok, err := s.clients.Get(ctx, id)
	if err != nil {
		return model.Client{}, fmt.Errorf("get client %d: %w", id, err)
	}
	if !ok {
		return model.Client{}, fmt.Errorf("client %d: %w", id, ErrNotFound)
	}
	return c, nil
}

// SaveClient stores c, inserting it when it has no id, and reloads the list.
func (s *Store) SaveClient(ctx context.Context, c model.Client) (model.Client, error) {
	now := s.clock.Now()
	c.UpdatedAt = now

	var (
		saved model.Client
		err   error
	)
	if c.ID == 0 {
		c.CreatedAt = now
		saved, err = s.clients.Add(ctx, c)
	} else {
		saved, err = s.clients.Put(ctx, c)
	}
	if err != nil {
		s.logger.Error("failed to save client", zap.Int64("id", c.ID), zap.Error(err))
		return model.Client{}, fmt.Errorf("save client: %w", err)
	}

	if err := s.LoadClients(ctx); err != nil {
		return saved, err
	}
	return saved, nil
}

// DeleteClient removes a client and reloads the list. Invoices keep their
// client snapshot.
func (s *Store) DeleteClient(ctx context.Context, id int64) error {
	if err := s.clients.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete client", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("delete client %d: %w", id, err)
	}
	return s.LoadClients(ctx)
}

// FindClientsByEmail returns the stored clients with exactly this email.
func (s *Store) FindClientsByEmail(ctx context.Context, email string) ([]model.Client, error) {
	clients, err := s.clients.GetAllFromIndex(ctx, store.IndexEmail, email, 0)
	if err != nil {
		return nil, fmt.Errorf("find clients by email: %w", err)
	}
	return clients, nil
}

// Package memory provides an in-process implementation of repository.Store.
//
// Writes are serialized store-wide. WithTransaction holds the write lock for
// the whole callback and restores a snapshot when the callback fails, so a
// transaction either applies completely or not at all. Reads outside a
// transaction wait for a running transaction to finish and never observe its
// uncommitted writes.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"invoicer/internal/model"
	"invoicer/internal/repository"
)

// Ensure Store implements repository.Store
var _ repository.Store = (*Store)(nil)

type data struct {
	users     map[uuid.UUID]model.User
	settings  map[uuid.UUID]model.Settings
	clients   map[uuid.UUID]model.Client
	invoices  map[uuid.UUID]*model.Invoice
	payments  map[uuid.UUID]model.Payment
	sequences map[string]int64
}

func newData() data {
	return data{
		users:     make(map[uuid.UUID]model.User),
		settings:  make(map[uuid.UUID]model.Settings),
		clients:   make(map[uuid.UUID]model.Client),
		invoices:  make(map[uuid.UUID]*model.Invoice),
		payments:  make(map[uuid.UUID]model.Payment),
		sequences: make(map[string]int64),
	}
}

func (d data) clone() data {
	out := newData()
	for k, v := range d.users {
		out.users[k] = cloneUser(v)
	}
	for k, v := range d.settings {
		out.settings[k] = v
	}
	for k, v := range d.clients {
		out.clients[k] = v
	}
	for k, v := range d.invoices {
		out.invoices[k] = v.Clone()
	}
	for k, v := range d.payments {
		out.payments[k] = v
	}
	for k, v := range d.sequences {
		out.sequences[k] = v
	}
	return out
}

// Store keeps every entity in maps guarded by a single lock.
type Store struct {
	txMu sync.RWMutex
	mu   sync.RWMutex
	data data
	now  func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{data: newData(), now: time.Now}
}

func (s *Store) Users() repository.UserRepository { return &userRepository{store: s} }
func (s *Store) Settings() repository.SettingsRepository { return &settingsRepository{store: s} }
func (s *Store) Clients() repository.ClientRepository { return &clientRepository{store: s} }
func (s *Store) Invoices() repository.InvoiceRepository { return &invoiceRepository{store: s} }
func (s *Store) Payments() repository.PaymentRepository { return &paymentRepository{store: s} }
func (s *Store) Sequences() repository.SequenceRepository { return &sequenceRepository{store: s} }

// WithTransaction runs fn with exclusive write access and rolls back on error.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(ctx, &txStore{store: s}); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// write applies fn under the data lock. Outside a transaction it also takes
// the transaction lock so it cannot interleave with a running transaction.
func (s *Store) write(inTx bool, fn func(d *data) error) error {
	if !inTx {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.data)
}

// read applies fn under the data read lock. Outside a transaction it also
// takes the transaction lock shared, so it sees only committed state.
func (s *Store) read(inTx bool, fn func(d *data) error) error {
	if !inTx {
		s.txMu.RLock()
		defer s.txMu.RUnlock()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&s.data)
}

// txStore is handed to WithTransaction callbacks; its repositories assume the
// transaction lock is already held.
type txStore struct {
	store *Store
}

func (t *txStore) Users() repository.UserRepository {
	return &userRepository{store: t.store, inTx: true}
}

func (t *txStore) Settings() repository.SettingsRepository {
	return &settingsRepository{store: t.store, inTx: true}
}

func (t *txStore) Clients() repository.ClientRepository {
	return &clientRepository{store: t.store, inTx: true}
}

func (t *txStore) Invoices() repository.InvoiceRepository {
	return &invoiceRepository{store: t.store, inTx: true}
}

func (t *txStore) Payments() repository.PaymentRepository {
	return &paymentRepository{store: t.store, inTx: true}
}

func (t *txStore) Sequences() repository.SequenceRepository {
	return &sequenceRepository{store: t.store, inTx: true}
}

// WithTransaction joins the running transaction.
func (t *txStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	return fn(ctx, t)
}

func cloneUser(u model.User) model.User {
	if u.Roles != nil {
		roles := make([]string, len(u.Roles))
		copy(roles, u.Roles)
		u.Roles = roles
	}
	return u
}

func touch(createdAt, updatedAt *time.Time, now time.Time) {
	if createdAt != nil && createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}

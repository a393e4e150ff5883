package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate record")
)

// Store groups the repositories behind one persistence engine so that a
// single operation can span several of them inside a transaction.
type Store interface {
	Users() UserRepository
	Settings() SettingsRepository
	Clients() ClientRepository
	Invoices() InvoiceRepository
	Payments() PaymentRepository
	Sequences() SequenceRepository
	// WithTransaction executes fn against a store whose repositories share one transaction.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a GORM-backed store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository { return NewUserRepository(s.db) }
func (s *gormStore) Settings() SettingsRepository { return NewSettingsRepository(s.db) }
func (s *gormStore) Clients() ClientRepository { return NewClientRepository(s.db) }
func (s *gormStore) Invoices() InvoiceRepository { return NewInvoiceRepository(s.db) }
func (s *gormStore) Payments() PaymentRepository { return NewPaymentRepository(s.db) }
func (s *gormStore) Sequences() SequenceRepository { return NewSequenceRepository(s.db) }

// WithTransaction executes a function within a database transaction.
func (s *gormStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormStore{db: tx})
	})
}

// translate maps GORM errors onto the repository sentinels.
// The DB must be opened with TranslateError so duplicates surface as gorm.ErrDuplicatedKey.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

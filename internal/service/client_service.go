package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"invoicer/internal/auth"
	"invoicer/internal/errors"
	"invoicer/internal/model"
	"invoicer/internal/repository"
)

// ClientInput holds the writable fields of a client.
type ClientInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
	Notes   string
}

func (in ClientInput) validate() error {
	if isBlank(in.Name) {
		return errors.NewValidationError("name", "is required")
	}
	if normalizeEmail(in.Email) == "" {
		return errors.NewValidationError("email", "is required")
	}
	return nil
}

func (in ClientInput) apply(c *model.Client) {
	c.Name = strings.TrimSpace(in.Name)
	c.Email = normalizeEmail(in.Email)
	c.Phone = in.Phone
	c.Address = in.Address
	c.Notes = in.Notes
}

// ClientService manages the clients a user bills.
type ClientService interface {
	Create(ctx context.Context, p auth.Principal, in ClientInput) (*model.Client, error)
	Get(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Client, error)
	List(ctx context.Context, p auth.Principal) ([]model.Client, error)
	Update(ctx context.Context, p auth.Principal, id uuid.UUID, in ClientInput) (*model.Client, error)
	Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error
}

type clientService struct {
	store repository.Store
}

// NewClientService creates a new client service.
func NewClientService(store repository.Store) ClientService {
	return &clientService{store: store}
}

// Create adds a client. Email must be unique among the caller's clients.
func (s *clientService) Create(ctx context.Context, p auth.Principal, in ClientInput) (*model.Client, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	client := &model.Client{UserID: p.ID}
	in.apply(client)

	if err := s.store.Clients().Create(ctx, client); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.NewConflictError("client", "email", client.Email)
		}
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

// Get returns one of the caller's clients.
func (s *clientService) Get(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Client, error) {
	return findOwnedClient(ctx, s.store, p, id)
}

// List returns the caller's clients ordered by name.
func (s *clientService) List(ctx context.Context, p auth.Principal) ([]model.Client, error) {
	return s.store.Clients().ListByUser(ctx, p.ID)
}

// Update replaces the writable fields of one of the caller's clients.
// Invoices keep the client name they were issued with.
func (s *clientService) Update(ctx context.Context, p auth.Principal, id uuid.UUID, in ClientInput) (*model.Client, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	client, err := findOwnedClient(ctx, s.store, p, id)
	if err != nil {
		return nil, err
	}
	in.apply(client)

	if err := s.store.Clients().Update(ctx, client); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.NewConflictError("client", "email", client.Email)
		}
		return nil, fmt.Errorf("update client: %w", err)
	}
	return client, nil
}

// Delete removes one of the caller's clients. Its invoices are left untouched.
func (s *clientService) Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if _, err := findOwnedClient(ctx, s.store, p, id); err != nil {
		return err
	}
	if err := s.store.Clients().Delete(ctx, id); err != nil {
		return lookupError(err, "client", id)
	}
	return nil
}

// findOwnedClient loads a client and hides clients of other users behind NotFound.
func findOwnedClient(ctx context.Context, store repository.Store, p auth.Principal, id uuid.UUID) (*model.Client, error) {
	client, err := store.Clients().FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "client", id)
	}
	if client.UserID != p.ID {
		return nil, errors.NewNotFoundError("client", id.String())
	}
	return client, nil
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"invoicer/internal/model"
)

// ClientRepository defines client persistence operations.
type ClientRepository interface {
	Create(ctx context.Context, client *model.Client) error
	Update(ctx context.Context, client *model.Client) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error)
	FindByEmail(ctx context.Context, userID uuid.UUID, email string) (*model.Client, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Client, error)
}

type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a new client repository.
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

// Create creates a new client.
func (r *clientRepository) Create(ctx context.Context, client *model.Client) error {
	return translate(r.db.WithContext(ctx).Create(client).Error)
}

// Update updates an existing client.
func (r *clientRepository) Update(ctx context.Context, client *model.Client) error {
	return translate(r.db.WithContext(ctx).Save(client).Error)
}

// Delete removes a client. Invoices referencing it are left untouched.
func (r *clientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Client{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByID finds a client by ID.
func (r *clientRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	var client model.Client
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		return nil, translate(err)
	}
	return &client, nil
}

// FindByEmail finds a client of the given user by email.
func (r *clientRepository) FindByEmail(ctx context.Context, userID uuid.UUID, email string) (*model.Client, error) {
	var client model.Client
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND email = ?", userID, email).
		First(&client).Error; err != nil {
		return nil, translate(err)
	}
	return &client, nil
}

// ListByUser lists the clients owned by a user ordered by name.
func (r *clientRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Client, error) {
	var clients []model.Client
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

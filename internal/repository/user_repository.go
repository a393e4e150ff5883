package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"invoicer/internal/model"
)

// UserRepository stores accounts keyed by id. Email addresses are unique
// across all users and are compared exactly as stored.
type UserRepository interface {
	// Create assigns an id when the user has none. It returns ErrDuplicate
	// when the email is already registered.
	Create(ctx context.Context, user *model.User) error
	// Update overwrites every column of an existing user. It returns
	// ErrNotFound for an unknown id and ErrDuplicate when the new email
	// belongs to another user.
	Update(ctx context.Context, user *model.User) error
	// FindByID returns ErrNotFound for an unknown id.
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// FindByEmail returns ErrNotFound when no account uses email.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// List returns every account, oldest first.
	List(ctx context.Context) ([]model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns the GORM implementation of UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	tx := r.db.WithContext(ctx)
	var n int64
	if err := tx.Model(&model.User{}).Where("id = ?", user.ID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	// Save on an existing primary key is an UPDATE of all columns.
	return translate(tx.Save(user).Error)
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

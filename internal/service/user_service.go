package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"invoicer/internal/auth"
	"invoicer/internal/cache"
	"invoicer/internal/errors"
	"invoicer/internal/model"
	"invoicer/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// ProfileUpdate carries the profile fields a user may change. Nil fields are left as they are.
type ProfileUpdate struct {
	Name     *string
	Email    *string
	Password *string
}

// UserService exposes user profile operations.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, p auth.Principal) ([]model.User, error)
	UpdateProfile(ctx context.Context, p auth.Principal, update ProfileUpdate) (*model.User, error)
}

type userService struct {
	store      repository.Store
	cache      *cache.Client
	bcryptCost int
}

// NewUserService builds a UserService with store and cache.
func NewUserService(store repository.Store, cache *cache.Client, bcryptCost int) UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &userService{store: store, cache: cache, bcryptCost: bcryptCost}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id.String())
}

// GetUser returns a user by id, reading through the cache.
func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user", id)
	}

	_ = s.cache.SetJSON(ctx, s.cacheKey(id), user, userCacheTTL)
	return user, nil
}

// FindByEmail returns the user registered with email.
func (s *userService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	email = normalizeEmail(email)
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NewNotFoundError("user", email)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// ListUsers lists every user. Only administrators may call it.
func (s *userService) ListUsers(ctx context.Context, p auth.Principal) ([]model.User, error) {
	if !p.IsAdmin() {
		return nil, errors.NewAuthorizationError("admin role required")
	}
	return s.store.Users().List(ctx)
}

// UpdateProfile changes the caller's name, email or password.
func (s *userService) UpdateProfile(ctx context.Context, p auth.Principal, update ProfileUpdate) (*model.User, error) {
	user, err := s.store.Users().FindByID(ctx, p.ID)
	if err != nil {
		return nil, lookupError(err, "user", p.ID)
	}

	if update.Name != nil {
		if isBlank(*update.Name) {
			return nil, errors.NewValidationError("name", "must not be blank")
		}
		user.Name = *update.Name
	}
	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		if email == "" {
			return nil, errors.NewValidationError("email", "must not be blank")
		}
		user.Email = email
	}
	if update.Password != nil {
		if err := validatePassword(*update.Password); err != nil {
			return nil, err
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*update.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
	}

	if err := s.store.Users().Update(ctx, user); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.NewConflictError("user", "email", user.Email)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(user.ID))
	return user, nil
}

package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"invoicer/internal/auth"
	"invoicer/internal/errors"
	"invoicer/internal/model"
	"invoicer/internal/repository"
)

const minPasswordLength = 8

var (
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = stderrors.New("invalid email or password")
	// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
	ErrInvalidRefreshToken = stderrors.New("invalid or expired refresh token")
)

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, name, email, password string, roles ...string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, *model.User, error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, accessTokenID string, accessExpiresAt time.Time, refreshToken string) error
}

type authService struct {
	store      repository.Store
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	bcryptCost int
	log        *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store repository.Store, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface, bcryptCost int, log *zap.Logger) AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		store:      store,
		jwtService: jwtService,
		tokenStore: tokenStore,
		bcryptCost: bcryptCost,
		log:        named(log, "auth"),
	}
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return errors.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	return nil
}

// Register creates a user with a hashed password and default settings.
// Users get the user role unless roles are given.
func (s *authService) Register(ctx context.Context, name, email, password string, roles ...string) (*model.User, error) {
	email = normalizeEmail(email)
	if isBlank(name) {
		return nil, errors.NewValidationError("name", "is required")
	}
	if email == "" {
		return nil, errors.NewValidationError("email", "is required")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		roles = []string{model.RoleUser}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Roles:        roles,
	}

	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		return tx.Settings().Create(ctx, model.NewDefaultSettings(user.ID))
	})
	if err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.NewConflictError("user", "email", email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

// Login authenticates a user and returns access and refresh tokens.
func (s *authService) Login(ctx context.Context, email, password string) (*TokenPair, *model.User, error) {
	user, err := s.store.Users().FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	principal := auth.PrincipalFromUser(user)
	accessToken, err := s.jwtService.GenerateAccessToken(principal)
	if err != nil {
		return nil, nil, fmt.Errorf("generate access token: %w", err)
	}

	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(principal)
	if err != nil {
		return nil, nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, user.ID.String(), user.Email, s.jwtService.RefreshExpiry()); err != nil {
		return nil, nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, TokenType: "Bearer"}, user, nil
}

// RefreshToken validates a refresh token and returns a new access token
// carrying the user's current name, email and roles.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	storedUserID, storedEmail, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}
	if storedUserID != claims.UserID || storedEmail != claims.Email {
		return "", ErrInvalidRefreshToken
	}

	principal, err := claims.Principal()
	if err != nil {
		return "", ErrInvalidRefreshToken
	}
	user, err := s.store.Users().FindByID(ctx, principal.ID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidRefreshToken
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	accessToken, err := s.jwtService.GenerateAccessToken(auth.PrincipalFromUser(user))
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout blacklists the current access token until it expires and, when a
// refresh token is given, invalidates it.
func (s *authService) Logout(ctx context.Context, accessTokenID string, accessExpiresAt time.Time, refreshToken string) error {
	if accessTokenID != "" {
		if err := s.tokenStore.BlacklistAccessToken(ctx, accessTokenID, time.Until(accessExpiresAt)); err != nil {
			return fmt.Errorf("blacklist access token: %w", err)
		}
	}

	if refreshToken == "" {
		return nil
	}
	tokenID, err := s.jwtService.ExtractTokenID(refreshToken)
	if err != nil {
		return ErrInvalidRefreshToken
	}
	return s.tokenStore.DeleteRefreshToken(ctx, tokenID)
}

package auth

import (
	"context"
	"errors"
	"time"

	"invoicer/internal/cache"
)

// ErrTokenNotFound is returned for refresh tokens that were never issued,
// have expired or have been revoked.
var ErrTokenNotFound = errors.New("refresh token not found")

// TokenStoreInterface keeps issued refresh tokens and revoked access tokens.
type TokenStoreInterface interface {
	StoreRefreshToken(ctx context.Context, tokenID string, userID string, email string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (userID string, email string, err error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
	BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

// TokenStore keeps token state in Redis. Entries expire together with the
// token they describe. With a nil cache every lookup misses, so refresh tokens
// cannot be redeemed and access tokens are never reported as revoked.
type TokenStore struct {
	cache *cache.Client
}

var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a token store on top of c.
func NewTokenStore(c *cache.Client) *TokenStore {
	return &TokenStore{cache: c}
}

type refreshEntry struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func refreshKey(tokenID string) string { return "refresh_token:" + tokenID }
func revokedKey(tokenID string) string { return "blacklist:access_token:" + tokenID }

// StoreRefreshToken records an issued refresh token for ttl.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID string, email string, ttl time.Duration) error {
	return s.cache.SetJSON(ctx, refreshKey(tokenID), refreshEntry{UserID: userID, Email: email}, ttl)
}

// GetRefreshToken returns the owner of a live refresh token.
func (s *TokenStore) GetRefreshToken(ctx context.Context, tokenID string) (userID string, email string, err error) {
	var entry refreshEntry
	if !s.cache.GetJSON(ctx, refreshKey(tokenID), &entry) || entry.UserID == "" {
		return "", "", ErrTokenNotFound
	}
	return entry.UserID, entry.Email, nil
}

// DeleteRefreshToken revokes a refresh token.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return s.cache.Delete(ctx, refreshKey(tokenID))
}

// BlacklistAccessToken revokes an access token for the rest of its lifetime.
// Tokens that have already expired are not recorded.
func (s *TokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, revokedKey(tokenID), []byte("1"), ttl)
}

// IsAccessTokenBlacklisted reports whether an access token has been revoked.
// An unreachable cache reads as not revoked.
func (s *TokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	data, err := s.cache.Get(ctx, revokedKey(tokenID))
	if err != nil {
		return false, nil
	}
	return data != nil, nil
}

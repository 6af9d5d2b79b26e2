package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"

	"github.com/localspot/localspot/domain"
)

// validationCacheTTL bounds how stale a cached token validation may be.
// Revocation therefore takes effect within this window at worst.
const validationCacheTTL = 30 * time.Second

// TokenService issues and validates opaque session tokens. Raw values are
// persisted server-side; nothing about them is self-describing, so a request
// credential is only as good as the lookup.
type TokenService struct {
	repo     domain.SessionTokenRepository
	cache    *ttlcache.Cache[string, domain.Principal]
	tokenTTL time.Duration
}

// NewTokenService creates a new TokenService instance.
func NewTokenService(repo domain.SessionTokenRepository, tokenTTL time.Duration) *TokenService {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, domain.Principal](validationCacheTTL),
		ttlcache.WithDisableTouchOnHit[string, domain.Principal](),
	)
	go cache.Start()

	return &TokenService{
		repo:     repo,
		cache:    cache,
		tokenTTL: tokenTTL,
	}
}

// IssueToken creates and persists a new session token for the user.
func (s *TokenService) IssueToken(ctx context.Context, user *domain.User) (*domain.SessionToken, error) {
	now := time.Now().UTC()
	token := &domain.SessionToken{
		ID:         uuid.NewString(),
		TokenValue: uuid.NewString(),
		UserID:     user.ID,
		Role:       user.Role,
		ExpiresAt:  now.Add(s.tokenTTL),
		CreatedAt:  now,
		LastUsedAt: now,
	}

	if err := s.repo.StoreToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to store session token: %w", err)
	}
	return token, nil
}

// ValidateToken resolves a raw token value to the principal it was issued
// for. Expired and revoked tokens fail with domain.ErrSessionTokenRevoked.
func (s *TokenService) ValidateToken(ctx context.Context, tokenValue string) (*domain.Principal, error) {
	if item := s.cache.Get(tokenValue); item != nil {
		p := item.Value()
		return &p, nil
	}

	token, err := s.repo.GetToken(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, domain.ErrSessionTokenRevoked
		}
		return nil, fmt.Errorf("failed to look up session token: %w", err)
	}

	if token.Revoked || time.Now().After(token.ExpiresAt) {
		return nil, domain.ErrSessionTokenRevoked
	}

	principal := domain.Principal{ID: token.UserID, Role: token.Role}
	s.cache.Set(tokenValue, principal, validationCacheTTL)

	return &principal, nil
}

// RevokeToken invalidates a single session token (logout).
func (s *TokenService) RevokeToken(ctx context.Context, tokenValue string) error {
	s.cache.Delete(tokenValue)
	return s.repo.RevokeToken(ctx, tokenValue)
}

// RevokeUserTokens invalidates every session of a user, used when an admin
// locks the account.
func (s *TokenService) RevokeUserTokens(ctx context.Context, userID string) error {
	// Cached validations age out within validationCacheTTL.
	return s.repo.RevokeTokensForUser(ctx, userID)
}

// Close stops the validation cache's eviction goroutine.
func (s *TokenService) Close() {
	s.cache.Stop()
}

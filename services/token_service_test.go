package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/localspot/localspot/domain"
)

func TestIssueToken_PersistsOpaqueValue(t *testing.T) {
	repo := new(MockSessionTokenRepository)
	svc := NewTokenService(repo, time.Hour)
	defer svc.Close()

	repo.On("StoreToken", mock.Anything, mock.MatchedBy(func(tok *domain.SessionToken) bool {
		return tok.TokenValue != "" && tok.UserID == "u1" && tok.Role == domain.RoleUser
	})).Return(nil)

	token, err := svc.IssueToken(context.Background(), &domain.User{ID: "u1", Role: domain.RoleUser})

	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, time.Minute)
	repo.AssertExpectations(t)
}

func TestValidateToken_ResolvesPrincipal(t *testing.T) {
	repo := new(MockSessionTokenRepository)
	svc := NewTokenService(repo, time.Hour)
	defer svc.Close()

	repo.On("GetToken", mock.Anything, "raw-token").Return(&domain.SessionToken{
		TokenValue: "raw-token",
		UserID:     "u1",
		Role:       domain.RoleVendor,
		ExpiresAt:  time.Now().Add(time.Hour),
	}, nil).Once()

	principal, err := svc.ValidateToken(context.Background(), "raw-token")
	require.NoError(t, err)
	assert.Equal(t, "u1", principal.ID)
	assert.Equal(t, domain.RoleVendor, principal.Role)

	// Second validation is served from the cache, not the repository.
	principal, err = svc.ValidateToken(context.Background(), "raw-token")
	require.NoError(t, err)
	assert.Equal(t, "u1", principal.ID)
	repo.AssertExpectations(t)
}

func TestValidateToken_UnknownTokenIsRevoked(t *testing.T) {
	repo := new(MockSessionTokenRepository)
	svc := NewTokenService(repo, time.Hour)
	defer svc.Close()

	repo.On("GetToken", mock.Anything, "gone").Return(nil, domain.ErrTokenNotFound)

	_, err := svc.ValidateToken(context.Background(), "gone")
	assert.ErrorIs(t, err, domain.ErrSessionTokenRevoked)
}

func TestValidateToken_ExpiredAndRevoked(t *testing.T) {
	repo := new(MockSessionTokenRepository)
	svc := NewTokenService(repo, time.Hour)
	defer svc.Close()

	repo.On("GetToken", mock.Anything, "expired").Return(&domain.SessionToken{
		TokenValue: "expired",
		UserID:     "u1",
		ExpiresAt:  time.Now().Add(-time.Minute),
	}, nil)
	repo.On("GetToken", mock.Anything, "revoked").Return(&domain.SessionToken{
		TokenValue: "revoked",
		UserID:     "u1",
		Revoked:    true,
		ExpiresAt:  time.Now().Add(time.Hour),
	}, nil)

	_, err := svc.ValidateToken(context.Background(), "expired")
	assert.ErrorIs(t, err, domain.ErrSessionTokenRevoked)

	_, err = svc.ValidateToken(context.Background(), "revoked")
	assert.ErrorIs(t, err, domain.ErrSessionTokenRevoked)
}

func TestRevokeToken_DropsCachedValidation(t *testing.T) {
	repo := new(MockSessionTokenRepository)
	svc := NewTokenService(repo, time.Hour)
	defer svc.Close()

	repo.On("GetToken", mock.Anything, "raw-token").Return(&domain.SessionToken{
		TokenValue: "raw-token",
		UserID:     "u1",
		ExpiresAt:  time.Now().Add(time.Hour),
	}, nil).Once()
	repo.On("RevokeToken", mock.Anything, "raw-token").Return(nil)
	repo.On("GetToken", mock.Anything, "raw-token").Return(nil, domain.ErrTokenNotFound).Once()

	_, err := svc.ValidateToken(context.Background(), "raw-token")
	require.NoError(t, err)

	require.NoError(t, svc.RevokeToken(context.Background(), "raw-token"))

	_, err = svc.ValidateToken(context.Background(), "raw-token")
	assert.ErrorIs(t, err, domain.ErrSessionTokenRevoked)
	repo.AssertExpectations(t)
}

package domain

import (
	"context"
	"errors"
)

// Sentinel errors shared by all repository implementations. Callers branch
// with errors.Is; anything else is an infrastructure failure.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrDuplicateEmail      = errors.New("user with this email already exists")
	ErrBusinessNotFound    = errors.New("business not found")
	ErrDiscussionNotFound  = errors.New("discussion not found")
	ErrFavoriteNotFound    = errors.New("favorite not found")
	ErrDuplicateFavorite   = errors.New("business already favorited")
	ErrRequestNotFound     = errors.New("verification request not found")
	ErrTokenNotFound       = errors.New("token not found")
	ErrSessionTokenRevoked = errors.New("session token expired or revoked")
)

// UserRepository defines access to user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
	SetUserStatus(ctx context.Context, id string, status UserStatus) error
}

// BusinessRepository defines access to directory listings.
type BusinessRepository interface {
	CreateBusiness(ctx context.Context, b *Business) error
	GetBusinessByID(ctx context.Context, id string) (*Business, error)
	UpdateBusiness(ctx context.Context, b *Business) error
	ListBusinesses(ctx context.Context, filter BusinessFilter, offset, limit int) ([]*Business, error)
	MarkBusinessVerified(ctx context.Context, id, ownerID string) error
}

// DiscussionRepository defines access to threaded discussion posts.
type DiscussionRepository interface {
	CreateDiscussion(ctx context.Context, d *Discussion) error
	GetDiscussionByID(ctx context.Context, id string) (*Discussion, error)
	UpdateDiscussion(ctx context.Context, d *Discussion) error
	DeleteDiscussion(ctx context.Context, id string) error
	ListDiscussionsByBusiness(ctx context.Context, businessID string, offset, limit int) ([]*Discussion, error)
}

// FavoriteRepository defines access to user favorites.
type FavoriteRepository interface {
	AddFavorite(ctx context.Context, f *Favorite) error
	RemoveFavorite(ctx context.Context, userID, businessID string) error
	ListFavoritesByUser(ctx context.Context, userID string) ([]*Favorite, error)
}

// VerificationRequestRepository defines access to vendor verification
// requests.
type VerificationRequestRepository interface {
	CreateRequest(ctx context.Context, req *VerificationRequest) error
	GetRequestByID(ctx context.Context, id string) (*VerificationRequest, error)
	UpdateRequest(ctx context.Context, req *VerificationRequest) error
	ListRequestsByStatus(ctx context.Context, status VerificationRequestStatus, offset, limit int) ([]*VerificationRequest, error)
}

// EmailTokenRepository defines access to single-use email verification
// tokens.
type EmailTokenRepository interface {
	StoreToken(ctx context.Context, token *EmailVerificationToken) error
	// ConsumeToken atomically fetches and deletes an unexpired token,
	// returning ErrTokenNotFound when it is absent or expired.
	ConsumeToken(ctx context.Context, tokenValue string) (*EmailVerificationToken, error)
	DeleteTokensForUser(ctx context.Context, userID string) error
}

// SessionTokenRepository defines access to opaque session tokens.
type SessionTokenRepository interface {
	StoreToken(ctx context.Context, token *SessionToken) error
	GetToken(ctx context.Context, tokenValue string) (*SessionToken, error)
	RevokeToken(ctx context.Context, tokenValue string) error
	RevokeTokensForUser(ctx context.Context, userID string) error
}

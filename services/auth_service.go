package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/localspot/localspot/domain"
)

// Sentinel errors surfaced to the transport layer.
var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrAccountLocked        = errors.New("account is locked")
	ErrEmailNotVerified     = errors.New("email address not verified")
	ErrVerificationRequired = errors.New("verification token invalid or expired")
)

// AuthService implements registration, credential login, and the email
// verification lifecycle. Credential login refuses unverified accounts
// outright; the per-request gate in middleware covers sessions obtained
// through paths that do not enforce verification at login time.
type AuthService struct {
	users       domain.UserRepository
	emailTokens domain.EmailTokenRepository
	tokens      *TokenService
	hasher      PasswordHasher
	mailer      Mailer

	emailTokenTTL time.Duration
	publicURL     string
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users domain.UserRepository,
	emailTokens domain.EmailTokenRepository,
	tokens *TokenService,
	hasher PasswordHasher,
	mailer Mailer,
	emailTokenTTL time.Duration,
	publicURL string,
) *AuthService {
	return &AuthService{
		users:         users,
		emailTokens:   emailTokens,
		tokens:        tokens,
		hasher:        hasher,
		mailer:        mailer,
		emailTokenTTL: emailTokenTTL,
		publicURL:     publicURL,
	}
}

// Register creates an unverified account and mails a verification token.
func (s *AuthService) Register(ctx context.Context, email, password, displayName string, vendor bool) (*domain.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := domain.RoleUser
	if vendor {
		role = domain.RoleVendor
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		Role:         role,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if err := s.sendVerificationMail(ctx, user); err != nil {
		// The account exists; the user can request a resend.
		log.Error().Err(err).Str("user_id", user.ID).Msg("failed to send verification email")
	}

	return user, nil
}

// Login validates credentials and issues a session bundle. Unverified
// accounts are refused here already; see the middleware gate for the
// per-request enforcement.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.SessionBundle, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status == domain.UserStatusLocked {
		return nil, ErrAccountLocked
	}
	if !user.IsVerified() {
		return nil, ErrEmailNotVerified
	}

	return s.issueBundle(ctx, user)
}

// VerifyEmail consumes a single-use verification token and marks the account
// verified. Re-verifying an already verified account is a no-op.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenValue string) error {
	token, err := s.emailTokens.ConsumeToken(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return ErrVerificationRequired
		}
		return fmt.Errorf("failed to consume verification token: %w", err)
	}

	user, err := s.users.GetUserByID(ctx, token.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user for verification: %w", err)
	}

	if user.IsVerified() {
		return nil
	}

	user.MarkVerified(time.Now())
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}

	log.Info().Str("user_id", user.ID).Msg("email address verified")
	return nil
}

// ResendVerification issues a fresh token for an unverified account. It
// reports success for unknown addresses so the endpoint does not leak which
// emails are registered.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user.IsVerified() {
		return nil
	}

	if err := s.emailTokens.DeleteTokensForUser(ctx, user.ID); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to drop previous verification tokens")
	}

	return s.sendVerificationMail(ctx, user)
}

// CompleteOAuthLogin finds or creates the account for an externally
// authenticated identity and issues a session bundle. First login through
// the provider marks the email verified: the provider has already confirmed
// ownership of the address.
func (s *AuthService) CompleteOAuthLogin(ctx context.Context, email, displayName string) (*domain.SessionBundle, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		now := time.Now().UTC()
		user = &domain.User{
			Email:       email,
			DisplayName: displayName,
			Role:        domain.RoleUser,
			Status:      domain.UserStatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		user.MarkVerified(now)
		if err := s.users.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user from oauth profile: %w", err)
		}
		log.Info().Str("user_id", user.ID).Msg("user created from oauth login")
	case err != nil:
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if user.Status == domain.UserStatusLocked {
		return nil, ErrAccountLocked
	}

	if !user.IsVerified() {
		user.MarkVerified(time.Now())
		user.UpdatedAt = time.Now().UTC()
		if err := s.users.UpdateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to mark oauth user verified: %w", err)
		}
	}

	return s.issueBundle(ctx, user)
}

// Logout revokes the presented session token.
func (s *AuthService) Logout(ctx context.Context, tokenValue string) error {
	return s.tokens.RevokeToken(ctx, tokenValue)
}

func (s *AuthService) issueBundle(ctx context.Context, user *domain.User) (*domain.SessionBundle, error) {
	token, err := s.tokens.IssueToken(ctx, user)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user.LastLoginAt = &now
	user.UpdatedAt = now
	if err := s.users.UpdateUser(ctx, user); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login time")
	}

	return &domain.SessionBundle{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		AccessToken: token.TokenValue,
		TokenType:   "Bearer",
		ExpiresAt:   token.ExpiresAt,
	}, nil
}

func (s *AuthService) sendVerificationMail(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	token := &domain.EmailVerificationToken{
		ID:        uuid.NewString(),
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.emailTokenTTL),
		CreatedAt: now,
	}

	if err := s.emailTokens.StoreToken(ctx, token); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}

	link := fmt.Sprintf("%s/auth/verify-email?token=%s", s.publicURL, token.Token)
	body := fmt.Sprintf(
		"Welcome to Localspot!\r\n\r\nPlease confirm your email address by opening:\r\n%s\r\n\r\nThe link expires in %s.",
		link, s.emailTokenTTL,
	)

	return s.mailer.Send(ctx, user.Email, "Confirm your Localspot email address", body)
}

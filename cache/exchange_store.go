package cache

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/localspot/localspot/domain"
)

// ErrExchangeTokenNotFound is returned by Redeem for every non-redeemable
// token: never issued, expired, or consumed past the grace window. Callers
// treat all of these as the same retryable failure (restart the login flow);
// absence is expected traffic here, not an exceptional condition.
var ErrExchangeTokenNotFound = errors.New("exchange token not found")

// Default lifetimes for exchange tokens. The pending TTL is generous enough
// to survive slow browser redirects; the grace window lets a client that
// double-invokes the exchange call receive the same bundle instead of an
// error.
const (
	DefaultExchangeTTL   = 15 * time.Minute
	DefaultExchangeGrace = 60 * time.Second
)

// ExchangeStore bridges the server-side OAuth callback to the client's token
// exchange call. Issue binds a session bundle to a short-lived single-use
// opaque token; Redeem consumes it. A token redeems as a fresh grant exactly
// once; redemptions within the grace window after that return the same
// cached bundle.
type ExchangeStore interface {
	Issue(ctx context.Context, bundle *domain.SessionBundle) (string, error)
	Redeem(ctx context.Context, token string) (*domain.SessionBundle, error)
}

// NewExchangeToken generates a cryptographically random opaque token.
// 32 bytes of entropy, base64url without padding so it is safe in a redirect
// query parameter as-is.
func NewExchangeToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate exchange token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ValidateBundle rejects a valueless grant at issuance, so "issued but
// empty" can never be confused with "not found" at redemption time. Every
// ExchangeStore implementation calls it before storing.
func ValidateBundle(bundle *domain.SessionBundle) error {
	if bundle == nil || bundle.UserID == "" {
		return errors.New("exchange store: session bundle must carry a user identity")
	}
	if bundle.AccessToken == "" {
		return errors.New("exchange store: session bundle must carry an issued credential")
	}
	return nil
}

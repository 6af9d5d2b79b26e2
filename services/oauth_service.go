package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	googleoauth2 "golang.org/x/oauth2/google"

	"github.com/localspot/localspot/cache"
	"github.com/localspot/localspot/domain"
)

// GoogleUserInfoEndpoint is overridable in tests.
var GoogleUserInfoEndpoint = "https://www.googleapis.com/oauth2/v3/userinfo"

// googleUserInfo is the subset of the userinfo response we consume.
type googleUserInfo struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// OAuthService drives the Google sign-in flow: building the provider
// authorization URL, completing the code exchange at the callback, and
// bridging the result to the client through the exchange token store. The
// store is injected so single-instance deployments run in memory and
// clustered ones swap in Redis without touching this code.
type OAuthService struct {
	oauthConfig *oauth2.Config
	auth        *AuthService
	exchange    cache.ExchangeStore
}

// NewOAuthService creates a new OAuthService for Google sign-in.
func NewOAuthService(clientID, clientSecret, redirectURL string, auth *AuthService, exchange cache.ExchangeStore) *OAuthService {
	return &OAuthService{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     googleoauth2.Endpoint,
		},
		auth:     auth,
		exchange: exchange,
	}
}

// AuthURL returns the provider authorization URL for the given CSRF state.
func (s *OAuthService) AuthURL(state string) string {
	return s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// HandleCallback completes provider authentication for the authorization
// code and returns an exchange token for the browser redirect. The session
// bundle itself never appears in a URL; only the opaque reference does.
func (s *OAuthService) HandleCallback(ctx context.Context, code string) (string, error) {
	providerToken, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("provider code exchange failed: %w", err)
	}

	info, err := s.fetchUserInfo(ctx, providerToken)
	if err != nil {
		return "", err
	}
	if info.Email == "" {
		return "", fmt.Errorf("provider returned no email address")
	}

	bundle, err := s.auth.CompleteOAuthLogin(ctx, info.Email, info.Name)
	if err != nil {
		return "", err
	}

	return s.exchange.Issue(ctx, bundle)
}

// RedeemExchangeToken redeems the one-time token presented by the client
// after the redirect. cache.ErrExchangeTokenNotFound passes through for the
// handler to translate.
func (s *OAuthService) RedeemExchangeToken(ctx context.Context, token string) (*domain.SessionBundle, error) {
	return s.exchange.Redeem(ctx, token)
}

func (s *OAuthService) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := s.oauthConfig.Client(ctx, token)
	resp, err := client.Get(GoogleUserInfoEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("user info endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

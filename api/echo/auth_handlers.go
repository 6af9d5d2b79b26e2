//nolint:varnamelen
package echo

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/localspot/localspot/cache"
	"github.com/localspot/localspot/domain"
	apierrors "github.com/localspot/localspot/errors"
	"github.com/localspot/localspot/internal/metrics"
	"github.com/localspot/localspot/middleware"
	"github.com/localspot/localspot/services"
)

const oauthStateCookie = "oauth_state"

// AuthAPI serves registration, login, email verification, and the OAuth
// sign-in flow including the exchange endpoint.
type AuthAPI struct {
	auth        *services.AuthService
	oauth       *services.OAuthService
	tokens      *services.TokenService
	users       domain.UserRepository
	exchange    cache.ExchangeStore
	frontendURL string
}

// NewAuthAPI initializes the auth API.
func NewAuthAPI(
	auth *services.AuthService,
	oauth *services.OAuthService,
	tokens *services.TokenService,
	users domain.UserRepository,
	exchange cache.ExchangeStore,
	frontendURL string,
) *AuthAPI {
	return &AuthAPI{
		auth:        auth,
		oauth:       oauth,
		tokens:      tokens,
		users:       users,
		exchange:    exchange,
		frontendURL: frontendURL,
	}
}

// RegisterRoutes registers the auth routes.
func (a *AuthAPI) RegisterRoutes(e *echo.Echo) {
	e.POST("/auth/register", a.RegisterHandler)
	e.POST("/auth/login", a.LoginHandler)
	e.POST("/auth/verify-email", a.VerifyEmailHandler)
	e.GET("/auth/verify-email", a.VerifyEmailHandler) // mail clients follow links with GET
	e.POST("/auth/resend-verification", a.ResendVerificationHandler)

	e.GET("/auth/oauth/google", a.OAuthStartHandler)
	e.GET("/auth/oauth/google/callback", a.OAuthCallbackHandler)
	e.GET("/auth/oauth/exchange", a.ExchangeHandler)

	authed := e.Group("", middleware.Authenticate(a.tokens))
	authed.POST("/auth/logout", a.LogoutHandler)
	authed.GET("/auth/me", a.MeHandler)
}

// RegisterHandler creates an unverified account and mails a verification
// link.
func (a *AuthAPI) RegisterHandler(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierrors.NewBadRequest("Invalid request body"))
	}
	if req.Email == "" || len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, apierrors.NewBadRequest("Email and a password of at least 8 characters are required"))
	}

	user, err := a.auth.Register(c.Request().Context(), req.Email, req.Password, req.DisplayName, req.Vendor)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return c.JSON(http.StatusConflict, apierrors.NewConflict("An account with this email already exists"))
		}
		log.Error().Err(err).Msg("registration failed")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Registration failed"))
	}

	metrics.UserRegisteredTotal.Inc()
	return respond(c, http.StatusCreated, user)
}

// LoginHandler validates credentials and returns a session bundle.
func (a *AuthAPI) LoginHandler(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierrors.NewBadRequest("Invalid request body"))
	}

	bundle, err := a.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginFailureTotal.Inc()
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, apierrors.NewUnauthorized("Invalid email or password"))
		case errors.Is(err, services.ErrAccountLocked):
			return c.JSON(http.StatusForbidden, apierrors.NewForbidden("Account is locked"))
		case errors.Is(err, services.ErrEmailNotVerified):
			return c.JSON(http.StatusForbidden, apierrors.NewVerificationRequired())
		}
		log.Error().Err(err).Msg("login failed")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Login failed"))
	}

	metrics.LoginSuccessTotal.Inc()
	return respondOK(c, bundle)
}

// VerifyEmailHandler consumes a verification token.
func (a *AuthAPI) VerifyEmailHandler(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, apierrors.NewBadRequest("Missing verification token"))
	}

	if err := a.auth.VerifyEmail(c.Request().Context(), token); err != nil {
		if errors.Is(err, services.ErrVerificationRequired) {
			return c.JSON(http.StatusBadRequest, apierrors.NewBadRequest("Verification token not found or expired. Request a new verification email."))
		}
		log.Error().Err(err).Msg("email verification failed")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Verification failed"))
	}

	return respondOK(c, map[string]string{"message": "Email address verified"})
}

// ResendVerificationHandler issues a fresh verification token. Responds
// identically whether or not the address is registered.
func (a *AuthAPI) ResendVerificationHandler(c echo.Context) error {
	var req resendVerificationRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, apierrors.NewBadRequest("Email is required"))
	}

	if err := a.auth.ResendVerification(c.Request().Context(), req.Email); err != nil {
		log.Error().Err(err).Msg("resend verification failed")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Could not send verification email"))
	}

	return respondOK(c, map[string]string{"message": "If the address is registered and unverified, a new verification email was sent"})
}

// LogoutHandler revokes the presented session token.
func (a *AuthAPI) LogoutHandler(c echo.Context) error {
	tokenValue, _ := c.Get(middleware.AccessTokenContextKey).(string)
	if err := a.auth.Logout(c.Request().Context(), tokenValue); err != nil {
		log.Error().Err(err).Msg("logout failed")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Logout failed"))
	}
	return respondOK(c, map[string]string{"message": "Logged out"})
}

// MeHandler returns the caller's account record.
func (a *AuthAPI) MeHandler(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierrors.NewUnauthorized("Authentication required"))
	}

	user, err := a.users.GetUserByID(c.Request().Context(), principal.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, apierrors.NewNotFound("Account not found"))
		}
		log.Error().Err(err).Msg("account lookup failed")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Account lookup failed"))
	}

	return respondOK(c, user)
}

// OAuthStartHandler redirects the browser to the provider's consent screen.
func (a *AuthAPI) OAuthStartHandler(c echo.Context) error {
	state := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth/oauth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, a.oauth.AuthURL(state))
}

// OAuthCallbackHandler completes provider authentication and redirects the
// browser to the frontend carrying a one-time exchange token. Credentials
// themselves never travel in the URL; only the opaque reference does.
func (a *AuthAPI) OAuthCallbackHandler(c echo.Context) error {
	if errParam := c.QueryParam("error"); errParam != "" {
		return a.redirectWithError(c, http.StatusUnauthorized, "Provider sign-in was cancelled or failed")
	}

	stateCookie, err := c.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != c.QueryParam("state") {
		return a.redirectWithError(c, http.StatusBadRequest, "Invalid OAuth state")
	}

	code := c.QueryParam("code")
	if code == "" {
		return a.redirectWithError(c, http.StatusBadRequest, "Missing authorization code")
	}

	token, err := a.oauth.HandleCallback(c.Request().Context(), code)
	if err != nil {
		if errors.Is(err, services.ErrAccountLocked) {
			return a.redirectWithError(c, http.StatusForbidden, "Account is locked")
		}
		log.Error().Err(err).Msg("oauth callback failed")
		return a.redirectWithError(c, http.StatusInternalServerError, "Sign-in failed")
	}

	metrics.LoginSuccessTotal.Inc()
	metrics.ExchangeIssuedTotal.Inc()
	return c.Redirect(http.StatusFound, fmt.Sprintf("%s?code=%s", a.frontendURL, url.QueryEscape(token)))
}

// ExchangeHandler redeems the one-time exchange token for the session
// bundle. Duplicate calls within the grace window succeed with the same
// bundle; anything else is a retryable 400.
func (a *AuthAPI) ExchangeHandler(c echo.Context) error {
	token := c.QueryParam("code")
	if token == "" {
		return c.JSON(http.StatusBadRequest, apierrors.NewBadRequest("Missing exchange code"))
	}

	bundle, err := a.exchange.Redeem(c.Request().Context(), token)
	if err != nil {
		if errors.Is(err, cache.ErrExchangeTokenNotFound) {
			metrics.ExchangeMissTotal.Inc()
			// Both variants are the same retryable failure for the caller;
			// the wording only helps an operator reading logs or responses
			// tell a restart from an expired token.
			msg := "Login exchange code not found or expired. Please sign in again."
			if counter, ok := a.exchange.(interface{ Len() int }); ok && counter.Len() == 0 {
				msg = "No outstanding sign-ins; the server may have restarted. Please sign in again."
			}
			return c.JSON(http.StatusBadRequest, apierrors.NewBadRequest(msg))
		}
		log.Error().Err(err).Msg("exchange redemption failed")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Exchange failed"))
	}

	metrics.ExchangeRedeemedTotal.Inc()
	return respondOK(c, bundle)
}

func (a *AuthAPI) redirectWithError(c echo.Context, code int, message string) error {
	target := fmt.Sprintf("%s?status=error&message=%s&code=%d", a.frontendURL, url.QueryEscape(message), code)
	return c.Redirect(http.StatusFound, target)
}

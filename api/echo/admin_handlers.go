package echo

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/localspot/localspot/domain"
	apierrors "github.com/localspot/localspot/errors"
	"github.com/localspot/localspot/middleware"
	"github.com/localspot/localspot/services"
)

// AdminAPI serves the vendor verification queue and account moderation.
type AdminAPI struct {
	verifications *services.VerificationService
	tokens        *services.TokenService
	users         domain.UserRepository
}

// NewAdminAPI initializes the admin API.
func NewAdminAPI(verifications *services.VerificationService, tokens *services.TokenService, users domain.UserRepository) *AdminAPI {
	return &AdminAPI{
		verifications: verifications,
		tokens:        tokens,
		users:         users,
	}
}

// RegisterRoutes registers the admin and vendor verification routes.
func (aa *AdminAPI) RegisterRoutes(e *echo.Echo) {
	// Vendors file requests; filing is a community-class action and is
	// likewise restricted to verified accounts.
	vendor := e.Group("/verification-requests",
		middleware.Authenticate(aa.tokens),
		middleware.RequireVerifiedEmail(aa.users),
	)
	vendor.POST("", aa.SubmitRequestHandler)

	admin := e.Group("/admin",
		middleware.Authenticate(aa.tokens),
		middleware.RequireRole(domain.RoleAdmin),
	)
	admin.GET("/verification-requests", aa.ListPendingHandler)
	admin.POST("/verification-requests/:id/decision", aa.DecideHandler)
	admin.POST("/users/:id/lock", aa.LockUserHandler)
	admin.POST("/users/:id/unlock", aa.UnlockUserHandler)
}

// SubmitRequestHandler files a vendor's claim on a business.
func (aa *AdminAPI) SubmitRequestHandler(c echo.Context) error {
	principal, _ := middleware.GetPrincipal(c)

	var req verificationRequestBody
	if err := c.Bind(&req); err != nil || req.BusinessID == "" {
		return c.JSON(http.StatusBadRequest, apierrors.NewBadRequest("business_id is required"))
	}

	request, err := aa.verifications.SubmitRequest(c.Request().Context(), principal, req.BusinessID, req.Note)
	if err != nil {
		if errors.Is(err, domain.ErrBusinessNotFound) {
			return c.JSON(http.StatusNotFound, apierrors.NewNotFound("Business not found"))
		}
		log.Error().Err(err).Msg("failed to submit verification request")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Failed to submit verification request"))
	}
	return respond(c, http.StatusCreated, request)
}

// ListPendingHandler returns the admin queue of undecided requests.
func (aa *AdminAPI) ListPendingHandler(c echo.Context) error {
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	requests, err := aa.verifications.ListPending(c.Request().Context(), offset, limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list verification requests")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Failed to list verification requests"))
	}
	return respondOK(c, requests)
}

// DecideHandler approves or rejects a pending request.
func (aa *AdminAPI) DecideHandler(c echo.Context) error {
	principal, _ := middleware.GetPrincipal(c)

	var req verificationDecision
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierrors.NewBadRequest("Invalid request body"))
	}

	request, err := aa.verifications.Decide(c.Request().Context(), principal, c.Param("id"), req.Approve)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRequestNotFound):
			return c.JSON(http.StatusNotFound, apierrors.NewNotFound("Verification request not found"))
		case errors.Is(err, services.ErrRequestAlreadyDecided):
			return c.JSON(http.StatusConflict, apierrors.NewConflict("Verification request already decided"))
		}
		log.Error().Err(err).Msg("failed to decide verification request")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Failed to decide verification request"))
	}
	return respondOK(c, request)
}

// LockUserHandler locks an account and revokes its sessions.
func (aa *AdminAPI) LockUserHandler(c echo.Context) error {
	return aa.setUserStatus(c, domain.UserStatusLocked)
}

// UnlockUserHandler restores a locked account.
func (aa *AdminAPI) UnlockUserHandler(c echo.Context) error {
	return aa.setUserStatus(c, domain.UserStatusActive)
}

func (aa *AdminAPI) setUserStatus(c echo.Context, status domain.UserStatus) error {
	userID := c.Param("id")
	if err := aa.users.SetUserStatus(c.Request().Context(), userID, status); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, apierrors.NewNotFound("User not found"))
		}
		log.Error().Err(err).Msg("failed to change user status")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Failed to change user status"))
	}

	if status == domain.UserStatusLocked {
		if err := aa.tokens.RevokeUserTokens(c.Request().Context(), userID); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("failed to revoke sessions of locked user")
		}
	}

	return respondOK(c, map[string]string{"message": "User status updated"})
}

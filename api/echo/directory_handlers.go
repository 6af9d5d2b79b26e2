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

// DirectoryAPI serves the public directory and vendor listing management.
type DirectoryAPI struct {
	businesses *services.BusinessService
	tokens     *services.TokenService
}

// NewDirectoryAPI initializes the directory API.
func NewDirectoryAPI(businesses *services.BusinessService, tokens *services.TokenService) *DirectoryAPI {
	return &DirectoryAPI{businesses: businesses, tokens: tokens}
}

// RegisterRoutes registers the directory routes. Browsing is public;
// listing management requires authentication only (browse actions are not
// gated on email verification).
func (d *DirectoryAPI) RegisterRoutes(e *echo.Echo) {
	e.GET("/businesses", d.ListHandler)
	e.GET("/businesses/:id", d.GetHandler)

	authed := e.Group("/businesses", middleware.Authenticate(d.tokens))
	authed.POST("", d.CreateHandler)
	authed.PUT("/:id", d.UpdateHandler)
}

// ListHandler returns a page of listings.
func (d *DirectoryAPI) ListHandler(c echo.Context) error {
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	filter := domain.BusinessFilter{
		Query:        c.QueryParam("q"),
		Category:     c.QueryParam("category"),
		City:         c.QueryParam("city"),
		VerifiedOnly: c.QueryParam("verified") == "true",
	}

	businesses, err := d.businesses.ListBusinesses(c.Request().Context(), filter, offset, limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list businesses")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Failed to list businesses"))
	}
	return respondOK(c, businesses)
}

// GetHandler returns a single listing.
func (d *DirectoryAPI) GetHandler(c echo.Context) error {
	business, err := d.businesses.GetBusiness(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrBusinessNotFound) {
			return c.JSON(http.StatusNotFound, apierrors.NewNotFound("Business not found"))
		}
		log.Error().Err(err).Msg("failed to load business")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Failed to load business"))
	}
	return respondOK(c, business)
}

// CreateHandler creates a listing owned by the caller.
func (d *DirectoryAPI) CreateHandler(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierrors.NewUnauthorized("Authentication required"))
	}

	var req businessRequest
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return c.JSON(http.StatusBadRequest, apierrors.NewBadRequest("A business name is required"))
	}

	business, err := d.businesses.CreateBusiness(c.Request().Context(), principal, &domain.Business{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		City:        req.City,
		Address:     req.Address,
		Phone:       req.Phone,
		Website:     req.Website,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create business")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Failed to create business"))
	}
	return respond(c, http.StatusCreated, business)
}

// UpdateHandler applies edits to an owned listing.
func (d *DirectoryAPI) UpdateHandler(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierrors.NewUnauthorized("Authentication required"))
	}

	var req businessRequest
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return c.JSON(http.StatusBadRequest, apierrors.NewBadRequest("A business name is required"))
	}

	business, err := d.businesses.UpdateBusiness(c.Request().Context(), principal, &domain.Business{
		ID:          c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		City:        req.City,
		Address:     req.Address,
		Phone:       req.Phone,
		Website:     req.Website,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBusinessNotFound):
			return c.JSON(http.StatusNotFound, apierrors.NewNotFound("Business not found"))
		case errors.Is(err, services.ErrNotOwner):
			return c.JSON(http.StatusForbidden, apierrors.NewForbidden("You do not own this business"))
		}
		log.Error().Err(err).Msg("failed to update business")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Failed to update business"))
	}
	return respondOK(c, business)
}

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

// CommunityAPI serves discussions and favorites. Every mutation sits behind
// the email-verification gate; reading threads is public.
type CommunityAPI struct {
	discussions *services.DiscussionService
	favorites   *services.FavoriteService
	tokens      *services.TokenService
	users       domain.UserRepository
}

// NewCommunityAPI initializes the community API.
func NewCommunityAPI(
	discussions *services.DiscussionService,
	favorites *services.FavoriteService,
	tokens *services.TokenService,
	users domain.UserRepository,
) *CommunityAPI {
	return &CommunityAPI{
		discussions: discussions,
		favorites:   favorites,
		tokens:      tokens,
		users:       users,
	}
}

// RegisterRoutes registers the community routes.
func (ca *CommunityAPI) RegisterRoutes(e *echo.Echo) {
	e.GET("/businesses/:id/discussions", ca.ListDiscussionsHandler)

	gated := e.Group("",
		middleware.Authenticate(ca.tokens),
		middleware.RequireVerifiedEmail(ca.users),
	)
	gated.POST("/discussions", ca.CreateDiscussionHandler)
	gated.PUT("/discussions/:id", ca.UpdateDiscussionHandler)
	gated.DELETE("/discussions/:id", ca.DeleteDiscussionHandler)
	gated.GET("/favorites", ca.ListFavoritesHandler)
	gated.PUT("/favorites/:businessId", ca.AddFavoriteHandler)
	gated.DELETE("/favorites/:businessId", ca.RemoveFavoriteHandler)
}

// ListDiscussionsHandler returns a page of posts for a business.
func (ca *CommunityAPI) ListDiscussionsHandler(c echo.Context) error {
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	discussions, err := ca.discussions.ListDiscussions(c.Request().Context(), c.Param("id"), offset, limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list discussions")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Failed to list discussions"))
	}
	return respondOK(c, discussions)
}

// CreateDiscussionHandler posts a new discussion or reply.
func (ca *CommunityAPI) CreateDiscussionHandler(c echo.Context) error {
	principal, _ := middleware.GetPrincipal(c)

	var req discussionRequest
	if err := c.Bind(&req); err != nil || req.BusinessID == "" || req.Body == "" {
		return c.JSON(http.StatusBadRequest, apierrors.NewBadRequest("business_id and body are required"))
	}

	discussion, err := ca.discussions.CreateDiscussion(c.Request().Context(), principal, &domain.Discussion{
		BusinessID: req.BusinessID,
		ParentID:   req.ParentID,
		Title:      req.Title,
		Body:       req.Body,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBusinessNotFound):
			return c.JSON(http.StatusNotFound, apierrors.NewNotFound("Business not found"))
		case errors.Is(err, domain.ErrDiscussionNotFound):
			return c.JSON(http.StatusNotFound, apierrors.NewNotFound("Parent discussion not found"))
		}
		log.Error().Err(err).Msg("failed to create discussion")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Failed to create discussion"))
	}
	return respond(c, http.StatusCreated, discussion)
}

// UpdateDiscussionHandler edits the caller's own post.
func (ca *CommunityAPI) UpdateDiscussionHandler(c echo.Context) error {
	principal, _ := middleware.GetPrincipal(c)

	var req discussionUpdateRequest
	if err := c.Bind(&req); err != nil || req.Body == "" {
		return c.JSON(http.StatusBadRequest, apierrors.NewBadRequest("body is required"))
	}

	discussion, err := ca.discussions.UpdateDiscussion(c.Request().Context(), principal, c.Param("id"), req.Title, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDiscussionNotFound):
			return c.JSON(http.StatusNotFound, apierrors.NewNotFound("Discussion not found"))
		case errors.Is(err, services.ErrNotAuthor):
			return c.JSON(http.StatusForbidden, apierrors.NewForbidden("You are not the author of this discussion"))
		}
		log.Error().Err(err).Msg("failed to update discussion")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Failed to update discussion"))
	}
	return respondOK(c, discussion)
}

// DeleteDiscussionHandler removes the caller's own post (or any post for an
// admin).
func (ca *CommunityAPI) DeleteDiscussionHandler(c echo.Context) error {
	principal, _ := middleware.GetPrincipal(c)

	err := ca.discussions.DeleteDiscussion(c.Request().Context(), principal, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDiscussionNotFound):
			return c.JSON(http.StatusNotFound, apierrors.NewNotFound("Discussion not found"))
		case errors.Is(err, services.ErrNotAuthor):
			return c.JSON(http.StatusForbidden, apierrors.NewForbidden("You are not the author of this discussion"))
		}
		log.Error().Err(err).Msg("failed to delete discussion")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Failed to delete discussion"))
	}
	return respondOK(c, map[string]string{"message": "Discussion deleted"})
}

// ListFavoritesHandler returns the caller's saved businesses.
func (ca *CommunityAPI) ListFavoritesHandler(c echo.Context) error {
	principal, _ := middleware.GetPrincipal(c)

	businesses, err := ca.favorites.ListFavorites(c.Request().Context(), principal)
	if err != nil {
		log.Error().Err(err).Msg("failed to list favorites")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Failed to list favorites"))
	}
	return respondOK(c, businesses)
}

// AddFavoriteHandler saves a business for the caller. Saving twice conflicts.
func (ca *CommunityAPI) AddFavoriteHandler(c echo.Context) error {
	principal, _ := middleware.GetPrincipal(c)

	favorite, err := ca.favorites.AddFavorite(c.Request().Context(), principal, c.Param("businessId"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBusinessNotFound):
			return c.JSON(http.StatusNotFound, apierrors.NewNotFound("Business not found"))
		case errors.Is(err, domain.ErrDuplicateFavorite):
			return c.JSON(http.StatusConflict, apierrors.NewConflict("Business already favorited"))
		}
		log.Error().Err(err).Msg("failed to add favorite")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Failed to add favorite"))
	}
	return respond(c, http.StatusCreated, favorite)
}

// RemoveFavoriteHandler deletes the caller's favorite.
func (ca *CommunityAPI) RemoveFavoriteHandler(c echo.Context) error {
	principal, _ := middleware.GetPrincipal(c)

	if err := ca.favorites.RemoveFavorite(c.Request().Context(), principal, c.Param("businessId")); err != nil {
		if errors.Is(err, domain.ErrFavoriteNotFound) {
			return c.JSON(http.StatusNotFound, apierrors.NewNotFound("Favorite not found"))
		}
		log.Error().Err(err).Msg("failed to remove favorite")
		return c.JSON(http.StatusInternalServerError, apierrors.NewServerError("Failed to remove favorite"))
	}
	return respondOK(c, map[string]string{"message": "Favorite removed"})
}

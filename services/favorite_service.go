package services

import (
	"context"
	"fmt"
	"time"

	"github.com/localspot/localspot/domain"
)

// FavoriteService manages users' saved businesses.
type FavoriteService struct {
	favorites  domain.FavoriteRepository
	businesses domain.BusinessRepository
}

// NewFavoriteService creates a new FavoriteService.
func NewFavoriteService(favorites domain.FavoriteRepository, businesses domain.BusinessRepository) *FavoriteService {
	return &FavoriteService{favorites: favorites, businesses: businesses}
}

// AddFavorite saves a business for the user. Favoriting a business twice is
// reported as domain.ErrDuplicateFavorite by the repository.
func (s *FavoriteService) AddFavorite(ctx context.Context, user *domain.Principal, businessID string) (*domain.Favorite, error) {
	if _, err := s.businesses.GetBusinessByID(ctx, businessID); err != nil {
		return nil, err
	}

	f := &domain.Favorite{
		UserID:     user.ID,
		BusinessID: businessID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.favorites.AddFavorite(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// RemoveFavorite deletes the user's favorite for a business.
func (s *FavoriteService) RemoveFavorite(ctx context.Context, user *domain.Principal, businessID string) error {
	return s.favorites.RemoveFavorite(ctx, user.ID, businessID)
}

// ListFavorites returns the user's saved businesses, resolved to listings.
func (s *FavoriteService) ListFavorites(ctx context.Context, user *domain.Principal) ([]*domain.Business, error) {
	favorites, err := s.favorites.ListFavoritesByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	businesses := make([]*domain.Business, 0, len(favorites))
	for _, f := range favorites {
		b, err := s.businesses.GetBusinessByID(ctx, f.BusinessID)
		if err != nil {
			// Listing removed since it was favorited; skip it.
			continue
		}
		businesses = append(businesses, b)
	}
	return businesses, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/localspot/localspot/domain"
)

// ErrNotOwner is returned when a vendor touches a listing they do not own.
var ErrNotOwner = errors.New("not the owner of this business")

// BusinessService covers the directory surface: public browsing and vendor
// listing management.
type BusinessService struct {
	businesses domain.BusinessRepository
}

// NewBusinessService creates a new BusinessService.
func NewBusinessService(businesses domain.BusinessRepository) *BusinessService {
	return &BusinessService{businesses: businesses}
}

// ListBusinesses returns a page of listings matching the filter.
func (s *BusinessService) ListBusinesses(ctx context.Context, filter domain.BusinessFilter, offset, limit int) ([]*domain.Business, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.businesses.ListBusinesses(ctx, filter, offset, limit)
}

// GetBusiness returns a single listing.
func (s *BusinessService) GetBusiness(ctx context.Context, id string) (*domain.Business, error) {
	return s.businesses.GetBusinessByID(ctx, id)
}

// CreateBusiness creates a listing owned by the calling vendor.
func (s *BusinessService) CreateBusiness(ctx context.Context, owner *domain.Principal, b *domain.Business) (*domain.Business, error) {
	now := time.Now().UTC()
	b.OwnerID = owner.ID
	b.VerifiedAt = nil
	b.CreatedAt = now
	b.UpdatedAt = now

	if err := s.businesses.CreateBusiness(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create business: %w", err)
	}
	return b, nil
}

// UpdateBusiness applies vendor edits to an owned listing. Admins may edit
// any listing.
func (s *BusinessService) UpdateBusiness(ctx context.Context, caller *domain.Principal, b *domain.Business) (*domain.Business, error) {
	existing, err := s.businesses.GetBusinessByID(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if existing.OwnerID != caller.ID && caller.Role != domain.RoleAdmin {
		return nil, ErrNotOwner
	}

	existing.Name = b.Name
	existing.Description = b.Description
	existing.Category = b.Category
	existing.City = b.City
	existing.Address = b.Address
	existing.Phone = b.Phone
	existing.Website = b.Website
	existing.UpdatedAt = time.Now().UTC()

	if err := s.businesses.UpdateBusiness(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update business: %w", err)
	}
	return existing, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/localspot/localspot/domain"
)

// ErrNotAuthor is returned when a user edits or deletes someone else's post
// without the admin role.
var ErrNotAuthor = errors.New("not the author of this discussion")

// DiscussionService manages threaded discussion posts on business listings.
// All mutations sit behind the email-verification gate at the transport
// layer; this service only enforces authorship.
type DiscussionService struct {
	discussions domain.DiscussionRepository
	businesses  domain.BusinessRepository
}

// NewDiscussionService creates a new DiscussionService.
func NewDiscussionService(discussions domain.DiscussionRepository, businesses domain.BusinessRepository) *DiscussionService {
	return &DiscussionService{discussions: discussions, businesses: businesses}
}

// ListDiscussions returns a page of posts for a business.
func (s *DiscussionService) ListDiscussions(ctx context.Context, businessID string, offset, limit int) ([]*domain.Discussion, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.discussions.ListDiscussionsByBusiness(ctx, businessID, offset, limit)
}

// CreateDiscussion posts a new top-level discussion or a reply. Replies must
// reference an existing post on the same business.
func (s *DiscussionService) CreateDiscussion(ctx context.Context, author *domain.Principal, d *domain.Discussion) (*domain.Discussion, error) {
	if _, err := s.businesses.GetBusinessByID(ctx, d.BusinessID); err != nil {
		return nil, err
	}

	if d.ParentID != "" {
		parent, err := s.discussions.GetDiscussionByID(ctx, d.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.BusinessID != d.BusinessID {
			return nil, fmt.Errorf("parent discussion belongs to a different business")
		}
	}

	now := time.Now().UTC()
	d.AuthorID = author.ID
	d.CreatedAt = now
	d.UpdatedAt = now

	if err := s.discussions.CreateDiscussion(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create discussion: %w", err)
	}
	return d, nil
}

// UpdateDiscussion edits a post's body. Only the author may edit.
func (s *DiscussionService) UpdateDiscussion(ctx context.Context, caller *domain.Principal, id, title, body string) (*domain.Discussion, error) {
	existing, err := s.discussions.GetDiscussionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.AuthorID != caller.ID {
		return nil, ErrNotAuthor
	}

	existing.Title = title
	existing.Body = body
	existing.UpdatedAt = time.Now().UTC()

	if err := s.discussions.UpdateDiscussion(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update discussion: %w", err)
	}
	return existing, nil
}

// DeleteDiscussion removes a post. The author may delete their own; admins
// may delete any (moderation).
func (s *DiscussionService) DeleteDiscussion(ctx context.Context, caller *domain.Principal, id string) error {
	existing, err := s.discussions.GetDiscussionByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.AuthorID != caller.ID && caller.Role != domain.RoleAdmin {
		return ErrNotAuthor
	}
	return s.discussions.DeleteDiscussion(ctx, id)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/localspot/localspot/domain"
)

// ErrRequestAlreadyDecided is returned when an admin decides a request that
// is no longer pending.
var ErrRequestAlreadyDecided = errors.New("verification request already decided")

// VerificationService runs the vendor verification workflow: vendors claim a
// listing, admins approve or reject. Approval marks the business verified
// and attributes ownership to the vendor.
type VerificationService struct {
	requests   domain.VerificationRequestRepository
	businesses domain.BusinessRepository
}

// NewVerificationService creates a new VerificationService.
func NewVerificationService(requests domain.VerificationRequestRepository, businesses domain.BusinessRepository) *VerificationService {
	return &VerificationService{requests: requests, businesses: businesses}
}

// SubmitRequest files a vendor's claim on a business listing.
func (s *VerificationService) SubmitRequest(ctx context.Context, vendor *domain.Principal, businessID, note string) (*domain.VerificationRequest, error) {
	if _, err := s.businesses.GetBusinessByID(ctx, businessID); err != nil {
		return nil, err
	}

	req := &domain.VerificationRequest{
		BusinessID: businessID,
		VendorID:   vendor.ID,
		Status:     domain.VerificationPending,
		Note:       note,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.requests.CreateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create verification request: %w", err)
	}
	return req, nil
}

// ListPending returns a page of undecided requests for the admin queue.
func (s *VerificationService) ListPending(ctx context.Context, offset, limit int) ([]*domain.VerificationRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.requests.ListRequestsByStatus(ctx, domain.VerificationPending, offset, limit)
}

// Decide approves or rejects a pending request. Approval marks the business
// verified and records the vendor as its owner.
func (s *VerificationService) Decide(ctx context.Context, admin *domain.Principal, requestID string, approve bool) (*domain.VerificationRequest, error) {
	req, err := s.requests.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != domain.VerificationPending {
		return nil, ErrRequestAlreadyDecided
	}

	now := time.Now().UTC()
	req.DecidedBy = admin.ID
	req.DecidedAt = &now
	if approve {
		req.Status = domain.VerificationApproved
	} else {
		req.Status = domain.VerificationRejected
	}

	if err := s.requests.UpdateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to update verification request: %w", err)
	}

	if approve {
		if err := s.businesses.MarkBusinessVerified(ctx, req.BusinessID, req.VendorID); err != nil {
			return nil, fmt.Errorf("failed to mark business verified: %w", err)
		}
		log.Info().
			Str("business_id", req.BusinessID).
			Str("vendor_id", req.VendorID).
			Str("admin_id", admin.ID).
			Msg("business verified")
	}

	return req, nil
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/localspot/localspot/domain"
)

func TestSubmitRequest_ValidBusiness(t *testing.T) {
	requests := new(MockVerificationRequestRepository)
	businesses := new(MockBusinessRepository)
	svc := NewVerificationService(requests, businesses)

	businesses.On("GetBusinessByID", mock.Anything, "b1").Return(&domain.Business{ID: "b1"}, nil)
	requests.On("CreateRequest", mock.Anything, mock.MatchedBy(func(r *domain.VerificationRequest) bool {
		return r.BusinessID == "b1" && r.VendorID == "v1" && r.Status == domain.VerificationPending
	})).Return(nil)

	req, err := svc.SubmitRequest(context.Background(), &domain.Principal{ID: "v1", Role: domain.RoleVendor}, "b1", "this is my shop")

	require.NoError(t, err)
	assert.Equal(t, domain.VerificationPending, req.Status)
	requests.AssertExpectations(t)
}

func TestSubmitRequest_UnknownBusiness(t *testing.T) {
	requests := new(MockVerificationRequestRepository)
	businesses := new(MockBusinessRepository)
	svc := NewVerificationService(requests, businesses)

	businesses.On("GetBusinessByID", mock.Anything, "nope").Return(nil, domain.ErrBusinessNotFound)

	_, err := svc.SubmitRequest(context.Background(), &domain.Principal{ID: "v1"}, "nope", "")
	assert.ErrorIs(t, err, domain.ErrBusinessNotFound)
	requests.AssertNotCalled(t, "CreateRequest", mock.Anything, mock.Anything)
}

func TestDecide_ApproveMarksBusinessVerified(t *testing.T) {
	requests := new(MockVerificationRequestRepository)
	businesses := new(MockBusinessRepository)
	svc := NewVerificationService(requests, businesses)

	requests.On("GetRequestByID", mock.Anything, "r1").Return(&domain.VerificationRequest{
		ID:         "r1",
		BusinessID: "b1",
		VendorID:   "v1",
		Status:     domain.VerificationPending,
	}, nil)
	requests.On("UpdateRequest", mock.Anything, mock.MatchedBy(func(r *domain.VerificationRequest) bool {
		return r.Status == domain.VerificationApproved && r.DecidedBy == "admin-1" && r.DecidedAt != nil
	})).Return(nil)
	businesses.On("MarkBusinessVerified", mock.Anything, "b1", "v1").Return(nil)

	req, err := svc.Decide(context.Background(), &domain.Principal{ID: "admin-1", Role: domain.RoleAdmin}, "r1", true)

	require.NoError(t, err)
	assert.Equal(t, domain.VerificationApproved, req.Status)
	businesses.AssertExpectations(t)
}

func TestDecide_RejectLeavesBusinessAlone(t *testing.T) {
	requests := new(MockVerificationRequestRepository)
	businesses := new(MockBusinessRepository)
	svc := NewVerificationService(requests, businesses)

	requests.On("GetRequestByID", mock.Anything, "r1").Return(&domain.VerificationRequest{
		ID:         "r1",
		BusinessID: "b1",
		VendorID:   "v1",
		Status:     domain.VerificationPending,
	}, nil)
	requests.On("UpdateRequest", mock.Anything, mock.Anything).Return(nil)

	req, err := svc.Decide(context.Background(), &domain.Principal{ID: "admin-1"}, "r1", false)

	require.NoError(t, err)
	assert.Equal(t, domain.VerificationRejected, req.Status)
	businesses.AssertNotCalled(t, "MarkBusinessVerified", mock.Anything, mock.Anything, mock.Anything)
}

func TestDecide_AlreadyDecided(t *testing.T) {
	requests := new(MockVerificationRequestRepository)
	businesses := new(MockBusinessRepository)
	svc := NewVerificationService(requests, businesses)

	requests.On("GetRequestByID", mock.Anything, "r1").Return(&domain.VerificationRequest{
		ID:     "r1",
		Status: domain.VerificationApproved,
	}, nil)

	_, err := svc.Decide(context.Background(), &domain.Principal{ID: "admin-1"}, "r1", true)
	assert.ErrorIs(t, err, ErrRequestAlreadyDecided)
	requests.AssertNotCalled(t, "UpdateRequest", mock.Anything, mock.Anything)
}

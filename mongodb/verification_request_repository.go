package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/localspot/localspot/domain"
)

// VerificationRequestRepository implements
// domain.VerificationRequestRepository on MongoDB.
type VerificationRequestRepository struct {
	requests *mongo.Collection
}

// NewVerificationRequestRepository creates a new
// VerificationRequestRepository and ensures its indexes.
func NewVerificationRequestRepository(ctx context.Context, db *mongo.Database) (domain.VerificationRequestRepository, error) {
	repo := &VerificationRequestRepository{
		requests: db.Collection(VerificationRequestsCollection),
	}

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "vendor_id", Value: 1}}},
		{Keys: bson.D{{Key: "business_id", Value: 1}}},
	}
	if _, err := repo.requests.Indexes().CreateMany(ctx, indexModels); err != nil {
		log.Warn().Err(err).Msg("Failed to create verification request indexes")
	}

	return repo, nil
}

// CreateRequest inserts a vendor verification request.
func (r *VerificationRequestRepository) CreateRequest(ctx context.Context, req *domain.VerificationRequest) error {
	if req.ID == "" {
		req.ID = NewObjectID()
	}
	if _, err := r.requests.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("failed to insert verification request: %w", err)
	}
	return nil
}

// GetRequestByID retrieves a request by ID.
func (r *VerificationRequestRepository) GetRequestByID(ctx context.Context, id string) (*domain.VerificationRequest, error) {
	var req domain.VerificationRequest
	err := r.requests.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to find verification request: %w", err)
	}
	return &req, nil
}

// UpdateRequest replaces the stored request document.
func (r *VerificationRequestRepository) UpdateRequest(ctx context.Context, req *domain.VerificationRequest) error {
	res, err := r.requests.ReplaceOne(ctx, bson.M{"_id": req.ID}, req)
	if err != nil {
		return fmt.Errorf("failed to update verification request: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

// ListRequestsByStatus returns a page of requests in a given state, oldest
// first so the admin queue is fair.
func (r *VerificationRequestRepository) ListRequestsByStatus(ctx context.Context, status domain.VerificationRequestStatus, offset, limit int) ([]*domain.VerificationRequest, error) {
	opts := options.Find().
		SetSkip(int64(offset)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.requests.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list verification requests: %w", err)
	}
	defer cursor.Close(ctx)

	var results []*domain.VerificationRequest
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode verification requests: %w", err)
	}
	return results, nil
}

package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/localspot/localspot/domain"
)

// BusinessRepository implements domain.BusinessRepository on MongoDB.
type BusinessRepository struct {
	businesses *mongo.Collection
}

// NewBusinessRepository creates a new BusinessRepository and ensures its
// indexes, including the text index backing free-text search.
func NewBusinessRepository(ctx context.Context, db *mongo.Database) (domain.BusinessRepository, error) {
	repo := &BusinessRepository{
		businesses: db.Collection(BusinessesCollection),
	}
	if err := repo.createIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to create business indexes")
	}
	return repo, nil
}

func (r *BusinessRepository) createIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}},
		},
		{
			Keys: bson.D{{Key: "category", Value: 1}, {Key: "city", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "owner_id", Value: 1}},
		},
	}

	if _, err := r.businesses.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes for businesses collection: %w", err)
	}
	return nil
}

// CreateBusiness inserts a new listing.
func (r *BusinessRepository) CreateBusiness(ctx context.Context, b *domain.Business) error {
	if b.ID == "" {
		b.ID = NewObjectID()
	}
	if _, err := r.businesses.InsertOne(ctx, b); err != nil {
		return fmt.Errorf("failed to insert business: %w", err)
	}
	return nil
}

// GetBusinessByID retrieves a listing by ID.
func (r *BusinessRepository) GetBusinessByID(ctx context.Context, id string) (*domain.Business, error) {
	var b domain.Business
	err := r.businesses.FindOne(ctx, bson.M{"_id": id}).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBusinessNotFound
		}
		return nil, fmt.Errorf("failed to find business: %w", err)
	}
	return &b, nil
}

// UpdateBusiness replaces the stored listing document.
func (r *BusinessRepository) UpdateBusiness(ctx context.Context, b *domain.Business) error {
	res, err := r.businesses.ReplaceOne(ctx, bson.M{"_id": b.ID}, b)
	if err != nil {
		return fmt.Errorf("failed to update business: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrBusinessNotFound
	}
	return nil
}

// ListBusinesses returns a page of listings matching the filter, newest
// first. A free-text query uses the text index instead.
func (r *BusinessRepository) ListBusinesses(ctx context.Context, filter domain.BusinessFilter, offset, limit int) ([]*domain.Business, error) {
	query := bson.M{}
	if filter.Query != "" {
		query["$text"] = bson.M{"$search": filter.Query}
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.City != "" {
		query["city"] = filter.City
	}
	if filter.VerifiedOnly {
		query["verified_at"] = bson.M{"$ne": nil}
	}

	opts := options.Find().
		SetSkip(int64(offset)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.businesses.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	defer cursor.Close(ctx)

	var results []*domain.Business
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode businesses: %w", err)
	}
	return results, nil
}

// MarkBusinessVerified stamps the listing verified and attributes ownership
// to the vendor whose request was approved.
func (r *BusinessRepository) MarkBusinessVerified(ctx context.Context, id, ownerID string) error {
	update := bson.M{"$set": bson.M{
		"verified_at": time.Now().UTC(),
		"owner_id":    ownerID,
		"updated_at":  time.Now().UTC(),
	}}
	res, err := r.businesses.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to mark business verified: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrBusinessNotFound
	}
	return nil
}

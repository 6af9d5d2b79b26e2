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

// DiscussionRepository implements domain.DiscussionRepository on MongoDB.
type DiscussionRepository struct {
	discussions *mongo.Collection
}

// NewDiscussionRepository creates a new DiscussionRepository and ensures its
// indexes.
func NewDiscussionRepository(ctx context.Context, db *mongo.Database) (domain.DiscussionRepository, error) {
	repo := &DiscussionRepository{
		discussions: db.Collection(DiscussionsCollection),
	}

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "parent_id", Value: 1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}}},
	}
	if _, err := repo.discussions.Indexes().CreateMany(ctx, indexModels); err != nil {
		log.Warn().Err(err).Msg("Failed to create discussion indexes")
	}

	return repo, nil
}

// CreateDiscussion inserts a post.
func (r *DiscussionRepository) CreateDiscussion(ctx context.Context, d *domain.Discussion) error {
	if d.ID == "" {
		d.ID = NewObjectID()
	}
	if _, err := r.discussions.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("failed to insert discussion: %w", err)
	}
	return nil
}

// GetDiscussionByID retrieves a post by ID.
func (r *DiscussionRepository) GetDiscussionByID(ctx context.Context, id string) (*domain.Discussion, error) {
	var d domain.Discussion
	err := r.discussions.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrDiscussionNotFound
		}
		return nil, fmt.Errorf("failed to find discussion: %w", err)
	}
	return &d, nil
}

// UpdateDiscussion replaces the stored post document.
func (r *DiscussionRepository) UpdateDiscussion(ctx context.Context, d *domain.Discussion) error {
	res, err := r.discussions.ReplaceOne(ctx, bson.M{"_id": d.ID}, d)
	if err != nil {
		return fmt.Errorf("failed to update discussion: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrDiscussionNotFound
	}
	return nil
}

// DeleteDiscussion removes a post and its direct replies.
func (r *DiscussionRepository) DeleteDiscussion(ctx context.Context, id string) error {
	res, err := r.discussions.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete discussion: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrDiscussionNotFound
	}
	if _, err := r.discussions.DeleteMany(ctx, bson.M{"parent_id": id}); err != nil {
		log.Warn().Err(err).Str("discussion_id", id).Msg("failed to delete replies of removed discussion")
	}
	return nil
}

// ListDiscussionsByBusiness returns a page of posts for a business, oldest
// first so threads read top-down.
func (r *DiscussionRepository) ListDiscussionsByBusiness(ctx context.Context, businessID string, offset, limit int) ([]*domain.Discussion, error) {
	opts := options.Find().
		SetSkip(int64(offset)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.discussions.Find(ctx, bson.M{"business_id": businessID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list discussions: %w", err)
	}
	defer cursor.Close(ctx)

	var results []*domain.Discussion
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode discussions: %w", err)
	}
	return results, nil
}

package mongodb

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/localspot/localspot/domain"
)

// FavoriteRepository implements domain.FavoriteRepository on MongoDB.
type FavoriteRepository struct {
	favorites *mongo.Collection
}

// NewFavoriteRepository creates a new FavoriteRepository. The unique index
// on (user_id, business_id) enforces one favorite per pair.
func NewFavoriteRepository(ctx context.Context, db *mongo.Database) (domain.FavoriteRepository, error) {
	repo := &FavoriteRepository{
		favorites: db.Collection(FavoritesCollection),
	}

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "business_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := repo.favorites.Indexes().CreateMany(ctx, indexModels); err != nil {
		log.Warn().Err(err).Msg("Failed to create favorite indexes")
	}

	return repo, nil
}

// AddFavorite inserts a favorite, reporting duplicates as
// domain.ErrDuplicateFavorite.
func (r *FavoriteRepository) AddFavorite(ctx context.Context, f *domain.Favorite) error {
	if f.ID == "" {
		f.ID = NewObjectID()
	}
	if _, err := r.favorites.InsertOne(ctx, f); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateFavorite
		}
		return fmt.Errorf("failed to insert favorite: %w", err)
	}
	return nil
}

// RemoveFavorite deletes the favorite for a (user, business) pair.
func (r *FavoriteRepository) RemoveFavorite(ctx context.Context, userID, businessID string) error {
	res, err := r.favorites.DeleteOne(ctx, bson.M{"user_id": userID, "business_id": businessID})
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrFavoriteNotFound
	}
	return nil
}

// ListFavoritesByUser returns all favorites of a user, newest first.
func (r *FavoriteRepository) ListFavoritesByUser(ctx context.Context, userID string) ([]*domain.Favorite, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.favorites.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer cursor.Close(ctx)

	var results []*domain.Favorite
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode favorites: %w", err)
	}
	return results, nil
}

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

// EmailTokenRepository implements domain.EmailTokenRepository on MongoDB. A
// TTL index reaps expired tokens server-side; ConsumeToken additionally
// checks expiry so a token is never honored in the window before the reaper
// runs.
type EmailTokenRepository struct {
	tokens *mongo.Collection
}

// NewEmailTokenRepository creates a new EmailTokenRepository and ensures its
// indexes.
func NewEmailTokenRepository(ctx context.Context, db *mongo.Database) (domain.EmailTokenRepository, error) {
	repo := &EmailTokenRepository{
		tokens: db.Collection(EmailTokensCollection),
	}

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
	}
	if _, err := repo.tokens.Indexes().CreateMany(ctx, indexModels); err != nil {
		log.Warn().Err(err).Msg("Failed to create email token indexes")
	}

	return repo, nil
}

// StoreToken persists a verification token.
func (r *EmailTokenRepository) StoreToken(ctx context.Context, token *domain.EmailVerificationToken) error {
	if token.ID == "" {
		token.ID = NewObjectID()
	}
	if _, err := r.tokens.InsertOne(ctx, token); err != nil {
		return fmt.Errorf("failed to insert email token: %w", err)
	}
	return nil
}

// ConsumeToken atomically fetches and deletes an unexpired token. The
// find-and-delete keeps the token single-use even when two confirmation
// requests race.
func (r *EmailTokenRepository) ConsumeToken(ctx context.Context, tokenValue string) (*domain.EmailVerificationToken, error) {
	filter := bson.M{
		"token":      tokenValue,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}

	var token domain.EmailVerificationToken
	err := r.tokens.FindOneAndDelete(ctx, filter).Decode(&token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to consume email token: %w", err)
	}
	return &token, nil
}

// DeleteTokensForUser drops any outstanding tokens for a user, used before
// issuing a replacement.
func (r *EmailTokenRepository) DeleteTokensForUser(ctx context.Context, userID string) error {
	if _, err := r.tokens.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("failed to delete email tokens for user: %w", err)
	}
	return nil
}

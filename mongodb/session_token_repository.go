package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/localspot/localspot/cache"
	"github.com/localspot/localspot/domain"
)

// SessionTokenRepository implements domain.SessionTokenRepository on
// MongoDB. Raw token values are stored hashed; a leaked dump of this
// collection yields no usable credentials.
type SessionTokenRepository struct {
	tokens *mongo.Collection
}

// NewSessionTokenRepository creates a new SessionTokenRepository and ensures
// its indexes. The TTL index reaps expired sessions.
func NewSessionTokenRepository(ctx context.Context, db *mongo.Database) (domain.SessionTokenRepository, error) {
	repo := &SessionTokenRepository{
		tokens: db.Collection(SessionTokensCollection),
	}

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token_value", Value: 1}},
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
		log.Warn().Err(err).Msg("Failed to create session token indexes")
	}

	return repo, nil
}

// StoreToken persists a session token, hashing the raw value first.
func (r *SessionTokenRepository) StoreToken(ctx context.Context, token *domain.SessionToken) error {
	if token.ID == "" {
		token.ID = NewObjectID()
	}

	stored := *token
	stored.TokenValue = cache.HashToken(token.TokenValue)

	if _, err := r.tokens.InsertOne(ctx, &stored); err != nil {
		return fmt.Errorf("failed to insert session token: %w", err)
	}
	return nil
}

// GetToken looks up a session token by its raw value.
func (r *SessionTokenRepository) GetToken(ctx context.Context, tokenValue string) (*domain.SessionToken, error) {
	var token domain.SessionToken
	err := r.tokens.FindOne(ctx, bson.M{"token_value": cache.HashToken(tokenValue)}).Decode(&token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to find session token: %w", err)
	}
	return &token, nil
}

// RevokeToken marks a single session token revoked.
func (r *SessionTokenRepository) RevokeToken(ctx context.Context, tokenValue string) error {
	update := bson.M{"$set": bson.M{"revoked": true}}
	res, err := r.tokens.UpdateOne(ctx, bson.M{"token_value": cache.HashToken(tokenValue)}, update)
	if err != nil {
		return fmt.Errorf("failed to revoke session token: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTokenNotFound
	}
	return nil
}

// RevokeTokensForUser marks every session of a user revoked.
func (r *SessionTokenRepository) RevokeTokensForUser(ctx context.Context, userID string) error {
	update := bson.M{"$set": bson.M{"revoked": true}}
	res, err := r.tokens.UpdateMany(ctx, bson.M{"user_id": userID, "revoked": false}, update)
	if err != nil {
		return fmt.Errorf("failed to revoke session tokens for user: %w", err)
	}
	log.Debug().Str("user_id", userID).Int64("revoked", res.ModifiedCount).Msg("user sessions revoked")
	return nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/localspot/localspot/cache"
	"github.com/localspot/localspot/domain"
)

// redeemScript moves a pending grant into the grace key and returns its
// payload, or falls back to the grace key. Running it as one EVAL keeps the
// PENDING -> CONSUMED transition atomic across concurrent redeemers, the
// same contract the in-memory store guarantees under its mutex.
var redeemScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if v then
  redis.call('DEL', KEYS[1])
  redis.call('SET', KEYS[2], v, 'PX', ARGV[1])
  return v
end
return redis.call('GET', KEYS[2])
`)

// ExchangeStore implements cache.ExchangeStore on Redis, for deployments
// with more than one server instance behind a load balancer. Expiry is
// delegated to Redis key TTLs; no sweeper is needed.
type ExchangeStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	grace  time.Duration
}

// NewExchangeStore creates a Redis-backed exchange token store.
func NewExchangeStore(client *redis.Client, prefix string, ttl, grace time.Duration) *ExchangeStore {
	if ttl <= 0 {
		ttl = cache.DefaultExchangeTTL
	}
	if grace <= 0 {
		grace = cache.DefaultExchangeGrace
	}
	return &ExchangeStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		grace:  grace,
	}
}

func (s *ExchangeStore) pendingKey(token string) string {
	return fmt.Sprintf("%s:exchange:pending:%s", s.prefix, cache.HashToken(token))
}

func (s *ExchangeStore) graceKey(token string) string {
	return fmt.Sprintf("%s:exchange:grace:%s", s.prefix, cache.HashToken(token))
}

// Issue implements cache.ExchangeStore.
func (s *ExchangeStore) Issue(ctx context.Context, bundle *domain.SessionBundle) (string, error) {
	if err := cache.ValidateBundle(bundle); err != nil {
		return "", err
	}

	token, err := cache.NewExchangeToken()
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(bundle)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session bundle: %w", err)
	}

	if err := s.client.Set(ctx, s.pendingKey(token), payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store exchange token in redis: %w", err)
	}

	return token, nil
}

// Redeem implements cache.ExchangeStore.
func (s *ExchangeStore) Redeem(ctx context.Context, token string) (*domain.SessionBundle, error) {
	keys := []string{s.pendingKey(token), s.graceKey(token)}
	res, err := redeemScript.Run(ctx, s.client, keys, s.grace.Milliseconds()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cache.ErrExchangeTokenNotFound
		}
		return nil, fmt.Errorf("failed to redeem exchange token in redis: %w", err)
	}

	raw, ok := res.(string)
	if !ok || raw == "" {
		return nil, cache.ErrExchangeTokenNotFound
	}

	var bundle domain.SessionBundle
	if err := json.Unmarshal([]byte(raw), &bundle); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session bundle: %w", err)
	}
	return &bundle, nil
}

var _ cache.ExchangeStore = (*ExchangeStore)(nil)

package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localspot/localspot/domain"
)

func testBundle(userID string) *domain.SessionBundle {
	return &domain.SessionBundle{
		UserID:      userID,
		Email:       userID + "@example.com",
		Role:        domain.RoleUser,
		AccessToken: "access-" + userID,
		TokenType:   "Bearer",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, clock *fakeClock) *MemoryExchangeStore {
	t.Helper()
	store := NewMemoryExchangeStore(WithClock(clock.Now))
	t.Cleanup(store.Close)
	return store
}

func TestExchangeStore_SingleFreshRedemption(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newFakeClock())

	bundle := testBundle("u1")
	token, err := store.Issue(ctx, bundle)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := store.Redeem(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, bundle, got)
	assert.Equal(t, 0, store.Len(), "redeemed token must leave the pending set")
}

func TestExchangeStore_DuplicateRedemptionWithinGrace(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestStore(t, clock)

	bundle := testBundle("u1")
	token, err := store.Issue(ctx, bundle)
	require.NoError(t, err)

	first, err := store.Redeem(ctx, token)
	require.NoError(t, err)

	clock.Advance(5 * time.Second)

	second, err := store.Redeem(ctx, token)
	require.NoError(t, err, "duplicate redemption within grace must not fail")
	assert.Equal(t, first, second)
}

func TestExchangeStore_ConsumedTokenExpiresAfterGrace(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestStore(t, clock)

	token, err := store.Issue(ctx, testBundle("u1"))
	require.NoError(t, err)

	_, err = store.Redeem(ctx, token)
	require.NoError(t, err)

	clock.Advance(90 * time.Second)

	_, err = store.Redeem(ctx, token)
	assert.ErrorIs(t, err, ErrExchangeTokenNotFound)
}

func TestExchangeStore_ExpiryWithoutRedemption(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestStore(t, clock)

	token, err := store.Issue(ctx, testBundle("u1"))
	require.NoError(t, err)

	clock.Advance(16 * time.Minute)

	_, err = store.Redeem(ctx, token)
	assert.ErrorIs(t, err, ErrExchangeTokenNotFound)

	// The entry was dropped on access; a retry stays NOT_FOUND.
	_, err = store.Redeem(ctx, token)
	assert.ErrorIs(t, err, ErrExchangeTokenNotFound)
}

func TestExchangeStore_UnknownToken(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newFakeClock())

	_, err := store.Redeem(ctx, "never-issued")
	assert.ErrorIs(t, err, ErrExchangeTokenNotFound)
}

func TestExchangeStore_RejectsValuelessBundle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newFakeClock())

	_, err := store.Issue(ctx, nil)
	assert.Error(t, err)

	_, err = store.Issue(ctx, &domain.SessionBundle{UserID: "u1"})
	assert.Error(t, err, "bundle without credential must be rejected at issuance")
}

func TestExchangeStore_SweepDropsExpiredPending(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestStore(t, clock)

	_, err := store.Issue(ctx, testBundle("u1"))
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	clock.Advance(16 * time.Minute)
	store.sweep()

	assert.Equal(t, 0, store.Len())
}

func TestExchangeStore_ConcurrentRedemption(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newFakeClock())

	bundle := testBundle("u1")
	token, err := store.Issue(ctx, bundle)
	require.NoError(t, err)

	const callers = 16
	results := make([]*domain.SessionBundle, callers)
	errs := make([]error, callers)

	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer done.Done()
			start.Wait()
			results[i], errs[i] = store.Redeem(ctx, token)
		}(i)
	}
	start.Done()
	done.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i], "caller %d lost the race it must not lose", i)
		assert.Equal(t, bundle, results[i])
	}
}

func TestExchangeStore_TokensAreUnique(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newFakeClock())

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		token, err := store.Issue(ctx, testBundle("u1"))
		require.NoError(t, err)
		_, dup := seen[token]
		require.False(t, dup, "issued a duplicate token")
		seen[token] = struct{}{}
	}
}

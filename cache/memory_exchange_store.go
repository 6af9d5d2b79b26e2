package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog/log"

	"github.com/localspot/localspot/domain"
)

// pendingGrant is an issued, not yet redeemed exchange token entry.
type pendingGrant struct {
	bundle    *domain.SessionBundle
	issuedAt  time.Time
	expiresAt time.Time
}

// consumedGrant is a redeemed entry retained for the grace window.
type consumedGrant struct {
	bundle     *domain.SessionBundle
	consumedAt time.Time
}

// MemoryExchangeStore implements ExchangeStore with a mutex-guarded pending
// map and a ttlcache-backed grace cache for consumed entries. It is
// process-local and non-durable: a restart invalidates every outstanding
// token, which callers must treat as an expected failure mode.
type MemoryExchangeStore struct {
	mu      sync.Mutex
	pending map[string]pendingGrant

	// consumed holds redeemed bundles for the grace window so a duplicate
	// exchange call is served the same result instead of an error. The
	// grace decision itself uses s.now; ttlcache only bounds memory.
	consumed *ttlcache.Cache[string, consumedGrant]

	ttl   time.Duration
	grace time.Duration

	// now is swapped out in tests for a controllable clock.
	now func() time.Time

	done chan struct{}
}

// MemoryExchangeStoreOption configures a MemoryExchangeStore.
type MemoryExchangeStoreOption func(*MemoryExchangeStore)

// WithExchangeTTL overrides the pending-token lifetime.
func WithExchangeTTL(ttl time.Duration) MemoryExchangeStoreOption {
	return func(s *MemoryExchangeStore) { s.ttl = ttl }
}

// WithExchangeGrace overrides the post-redemption grace window.
func WithExchangeGrace(grace time.Duration) MemoryExchangeStoreOption {
	return func(s *MemoryExchangeStore) { s.grace = grace }
}

// WithClock injects the time source used for expiry decisions.
func WithClock(now func() time.Time) MemoryExchangeStoreOption {
	return func(s *MemoryExchangeStore) { s.now = now }
}

// NewMemoryExchangeStore creates an in-memory exchange token store and starts
// its background eviction. Close releases the background goroutines.
func NewMemoryExchangeStore(opts ...MemoryExchangeStoreOption) *MemoryExchangeStore {
	s := &MemoryExchangeStore{
		pending: make(map[string]pendingGrant),
		ttl:     DefaultExchangeTTL,
		grace:   DefaultExchangeGrace,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.consumed = ttlcache.New(
		ttlcache.WithTTL[string, consumedGrant](s.grace),
		ttlcache.WithDisableTouchOnHit[string, consumedGrant](),
	)
	go s.consumed.Start()
	go s.sweepLoop()

	return s
}

// Issue implements ExchangeStore.Issue. The bundle itself is never logged:
// it carries issued credentials.
func (s *MemoryExchangeStore) Issue(_ context.Context, bundle *domain.SessionBundle) (string, error) {
	if err := ValidateBundle(bundle); err != nil {
		return "", err
	}

	token, err := NewExchangeToken()
	if err != nil {
		return "", err
	}

	now := s.now()
	s.mu.Lock()
	s.pending[token] = pendingGrant{
		bundle:    bundle,
		issuedAt:  now,
		expiresAt: now.Add(s.ttl),
	}
	s.mu.Unlock()

	log.Debug().
		Str("user_id", bundle.UserID).
		Time("expires_at", now.Add(s.ttl)).
		Msg("exchange token issued")

	return token, nil
}

// Redeem implements ExchangeStore.Redeem. This is the single redemption
// algorithm; no other code path touches the maps. The whole decision runs
// under one lock so two concurrent redemptions of a fresh token observe
// exactly one PENDING -> CONSUMED transition and both receive the bundle.
func (s *MemoryExchangeStore) Redeem(_ context.Context, token string) (*domain.SessionBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if grant, ok := s.pending[token]; ok {
		delete(s.pending, token)
		if now.After(grant.expiresAt) {
			return nil, ErrExchangeTokenNotFound
		}
		s.consumed.Set(token, consumedGrant{bundle: grant.bundle, consumedAt: now}, s.grace)
		return grant.bundle, nil
	}

	if item := s.consumed.Get(token); item != nil {
		cg := item.Value()
		if now.After(cg.consumedAt.Add(s.grace)) {
			s.consumed.Delete(token)
			return nil, ErrExchangeTokenNotFound
		}
		return cg.bundle, nil
	}

	return nil, ErrExchangeTokenNotFound
}

// Len reports the number of outstanding (pending) tokens. The exchange
// handler uses it to distinguish "store empty, process likely restarted"
// from a plain miss in its error message.
func (s *MemoryExchangeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// sweep drops pending entries past their expiry. Redemption already checks
// expiry lazily; the sweep only bounds memory for tokens nobody redeems.
func (s *MemoryExchangeStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for token, grant := range s.pending {
		if now.After(grant.expiresAt) {
			delete(s.pending, token)
		}
	}
}

func (s *MemoryExchangeStore) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

// Close stops the background eviction goroutines.
func (s *MemoryExchangeStore) Close() {
	close(s.done)
	s.consumed.Stop()
}

var _ ExchangeStore = (*MemoryExchangeStore)(nil)

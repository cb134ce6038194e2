package catalog

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-round-service/internal/domain"
)

// Loader fetches question records from a backing store (files, Postgres).
type Loader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// Provider caches a built Index with a TTL so round starts do not re-read
// the backing store, while still picking up regenerated question sets.
// Concurrent rebuilds are deduplicated.
type Provider struct {
	loader Loader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	logger *slog.Logger

	mu        sync.RWMutex
	index     *Index
	expiresAt time.Time
}

func NewProvider(loader Loader, ttl time.Duration, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger,
	}
}

// Get returns the cached Index, rebuilding it when the TTL has lapsed. A
// rebuild failure keeps serving the previous index rather than dropping the
// catalog mid-game; only the very first load is allowed to fail.
func (p *Provider) Get(ctx context.Context) (*Index, error) {
	now := p.clock()

	p.mu.RLock()
	if p.index != nil && p.expiresAt.After(now) {
		idx := p.index
		p.mu.RUnlock()
		return idx, nil
	}
	stale := p.index
	p.mu.RUnlock()

	result, err, _ := p.sf.Do("catalog", func() (interface{}, error) {
		now := p.clock()
		p.mu.RLock()
		if p.index != nil && p.expiresAt.After(now) {
			idx := p.index
			p.mu.RUnlock()
			return idx, nil
		}
		p.mu.RUnlock()

		questions, err := p.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}
		// The index gets its own rand source; p.rnd stays private to the
		// provider so jitter draws never race concurrent picks.
		idx, err := New(questions, WithRand(rand.New(rand.NewSource(p.rnd.Int63()))), WithLogger(p.logger))
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		p.index = idx
		p.expiresAt = now.Add(p.ttlWithJitter())
		p.mu.Unlock()
		return idx, nil
	})
	if err != nil {
		if stale != nil {
			p.logger.Warn("catalog refresh failed, serving previous index", "error", err)
			return stale, nil
		}
		return nil, err
	}
	return result.(*Index), nil
}

// Catalog adapts Get to the read interface the round engine consumes.
func (p *Provider) Catalog(ctx context.Context) (Catalog, error) {
	return p.Get(ctx)
}

func (p *Provider) ttlWithJitter() time.Duration {
	if p.ttl <= 0 {
		return 0
	}
	// up to 10% jitter spreads refreshes across instances
	jitterMax := int64(p.ttl) / 10
	return p.ttl + time.Duration(p.rnd.Int63n(jitterMax+1))
}

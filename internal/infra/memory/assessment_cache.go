package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"assessment-engine/internal/app"
	"assessment-engine/internal/domain"

	"golang.org/x/sync/singleflight"
)

// AssessmentCache is a read-through TTL cache over an AssessmentRepository.
// List and write operations pass straight through; publishing invalidates
// the cached record so the leaderboard gate never reads a stale flag.
type AssessmentCache struct {
	inner app.AssessmentRepository
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedAssessment
}

type cachedAssessment struct {
	assessment domain.Assessment
	expiresAt  time.Time
}

func NewAssessmentCache(inner app.AssessmentRepository, ttl time.Duration) *AssessmentCache {
	return &AssessmentCache{
		inner: inner,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedAssessment),
	}
}

func (c *AssessmentCache) GetAssessment(ctx context.Context, id string) (domain.Assessment, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.assessment, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.assessment, nil
		}
		c.mu.RUnlock()

		a, err := c.inner.GetAssessment(ctx, id)
		if err != nil {
			return domain.Assessment{}, err
		}

		c.mu.Lock()
		c.cache[id] = cachedAssessment{
			assessment: a,
			expiresAt:  now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return a, nil
	})
	if err != nil {
		return domain.Assessment{}, err
	}
	return result.(domain.Assessment), nil
}

func (c *AssessmentCache) ListAssessments(ctx context.Context) ([]domain.Assessment, error) {
	return c.inner.ListAssessments(ctx)
}

func (c *AssessmentCache) CreateAssessment(ctx context.Context, a domain.Assessment) error {
	return c.inner.CreateAssessment(ctx, a)
}

func (c *AssessmentCache) MarkResultsPublished(ctx context.Context, id string) error {
	if err := c.inner.MarkResultsPublished(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.cache, id)
	c.mu.Unlock()
	return nil
}

func (c *AssessmentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

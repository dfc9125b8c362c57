package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"assessment-engine/internal/app"
	"assessment-engine/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// AssessmentCache caches assessment records in Redis (JSON blob per record)
// and falls back to the inner repository on a miss. Records are stored as:
// SET assessment:{id} {json} EX ttl
type AssessmentCache struct {
	client *redis.Client
	inner  app.AssessmentRepository
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewAssessmentCache(client *redis.Client, inner app.AssessmentRepository, ttl time.Duration) *AssessmentCache {
	return &AssessmentCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *AssessmentCache) GetAssessment(ctx context.Context, id string) (domain.Assessment, error) {
	key := c.key(id)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var a domain.Assessment
		if err := json.Unmarshal(raw, &a); err == nil {
			return a, nil
		}
		// A corrupt cache entry falls through to a reload.
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var a domain.Assessment
			if err := json.Unmarshal(raw, &a); err == nil {
				return a, nil
			}
		}

		a, err := c.inner.GetAssessment(ctx, id)
		if err != nil {
			return domain.Assessment{}, err
		}

		if data, err := json.Marshal(a); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
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

// MarkResultsPublished writes through and drops the cached record; the
// publish gate must never observe a stale flag.
func (c *AssessmentCache) MarkResultsPublished(ctx context.Context, id string) error {
	if err := c.inner.MarkResultsPublished(ctx, id); err != nil {
		return err
	}
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("invalidate assessment cache: %w", err)
	}
	return nil
}

func (c *AssessmentCache) key(id string) string {
	return "assessment:" + id
}

func (c *AssessmentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

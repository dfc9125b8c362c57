package redis

import (
	"context"
	"testing"
	"time"

	"assessment-engine/internal/domain"
	"assessment-engine/internal/infra/memory"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestAssessmentCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	inner := &countingRepo{Store: memory.NewStore()}
	ctx := context.Background()
	if err := inner.CreateAssessment(ctx, domain.Assessment{ID: "t1", Kind: domain.KindTest, Title: "T"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	cache := NewAssessmentCache(newClient(mr), inner, time.Minute)

	a, err := cache.GetAssessment(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if a.Title != "T" {
		t.Fatalf("unexpected record: %+v", a)
	}
	if inner.gets != 1 {
		t.Fatalf("expected inner called once, got %d", inner.gets)
	}

	// Second call should hit Redis, inner not incremented.
	if _, err := cache.GetAssessment(ctx, "t1"); err != nil {
		t.Fatalf("get 2: %v", err)
	}
	if inner.gets != 1 {
		t.Fatalf("expected cache hit, inner gets=%d", inner.gets)
	}
}

func TestAssessmentCacheInvalidatesOnPublish(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	inner := &countingRepo{Store: memory.NewStore()}
	ctx := context.Background()
	if err := inner.CreateAssessment(ctx, domain.Assessment{ID: "t1", Kind: domain.KindTest}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	cache := NewAssessmentCache(newClient(mr), inner, time.Minute)

	if _, err := cache.GetAssessment(ctx, "t1"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	if err := cache.MarkResultsPublished(ctx, "t1"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if mr.Exists("assessment:t1") {
		t.Fatalf("expected cache key invalidated on publish")
	}

	got, err := cache.GetAssessment(ctx, "t1")
	if err != nil {
		t.Fatalf("get after publish: %v", err)
	}
	if !got.ResultsPublished {
		t.Fatalf("cache served a stale publish flag")
	}
}

type countingRepo struct {
	*memory.Store
	gets int
}

func (r *countingRepo) GetAssessment(ctx context.Context, id string) (domain.Assessment, error) {
	r.gets++
	return r.Store.GetAssessment(ctx, id)
}

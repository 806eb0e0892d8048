package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/solatis/pricekeeper/internal/types"
)

type fakeLoader struct {
	mu    sync.Mutex
	calls int
	rules map[string][]types.PricingRule
	err   error
}

func (f *fakeLoader) ListActiveRulesForEvaluation(_ context.Context, tenantID string) ([]types.PricingRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]types.PricingRule(nil), f.rules[tenantID]...), nil
}

func (f *fakeLoader) set(tenantID string, rules ...types.PricingRule) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[tenantID] = rules
}

func newTestCache(loader Loader) (*Cache, *time.Time) {
	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	c := New(loader, 30*time.Second, nil, nil)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCache_LoadsOnceWithinTTL(t *testing.T) {
	loader := &fakeLoader{rules: map[string][]types.PricingRule{"t1": {{ID: "r1"}}}}
	c, now := newTestCache(loader)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rules, err := c.Rules(ctx, "t1")
		if err != nil {
			t.Fatalf("Rules() error = %v", err)
		}
		if len(rules) != 1 || rules[0].ID != "r1" {
			t.Errorf("Rules() = %v, want [r1]", rules)
		}
	}
	if loader.calls != 1 {
		t.Errorf("loader calls = %d, want 1", loader.calls)
	}

	*now = now.Add(31 * time.Second)
	if _, err := c.Rules(ctx, "t1"); err != nil {
		t.Fatalf("Rules() error = %v", err)
	}
	if loader.calls != 2 {
		t.Errorf("loader calls after ttl = %d, want 2", loader.calls)
	}
}

func TestCache_TenantsIsolated(t *testing.T) {
	loader := &fakeLoader{rules: map[string][]types.PricingRule{
		"t1": {{ID: "r1"}},
		"t2": {{ID: "r2"}, {ID: "r3"}},
	}}
	c, _ := newTestCache(loader)

	r1, _ := c.Rules(context.Background(), "t1")
	r2, _ := c.Rules(context.Background(), "t2")
	if len(r1) != 1 || len(r2) != 2 {
		t.Errorf("len(t1) = %d, len(t2) = %d, want 1 and 2", len(r1), len(r2))
	}
}

func TestCache_Invalidate(t *testing.T) {
	loader := &fakeLoader{rules: map[string][]types.PricingRule{"t1": {{ID: "r1"}}}}
	c, _ := newTestCache(loader)
	ctx := context.Background()

	before, _ := c.Rules(ctx, "t1")
	loader.set("t1", types.PricingRule{ID: "r1"}, types.PricingRule{ID: "r2"})
	c.Invalidate("t1")

	after, err := c.Rules(ctx, "t1")
	if err != nil {
		t.Fatalf("Rules() error = %v", err)
	}
	if len(after) != 2 {
		t.Errorf("len(Rules()) after Invalidate = %d, want 2", len(after))
	}
	if len(before) != 1 {
		t.Errorf("earlier snapshot changed: len = %d, want 1", len(before))
	}
}

func TestCache_StaleOnReloadFailure(t *testing.T) {
	loader := &fakeLoader{rules: map[string][]types.PricingRule{"t1": {{ID: "r1"}}}}
	c, now := newTestCache(loader)
	ctx := context.Background()

	if _, err := c.Rules(ctx, "t1"); err != nil {
		t.Fatalf("Rules() error = %v", err)
	}

	loader.err = errors.New("database is locked")
	*now = now.Add(time.Minute)

	rules, err := c.Rules(ctx, "t1")
	if err != nil {
		t.Fatalf("Rules() with stale entry error = %v, want nil", err)
	}
	if len(rules) != 1 {
		t.Errorf("len(Rules()) = %d, want stale 1", len(rules))
	}
}

func TestCache_ErrorWithoutSnapshot(t *testing.T) {
	loader := &fakeLoader{err: errors.New("connection refused")}
	c, _ := newTestCache(loader)

	if _, err := c.Rules(context.Background(), "t1"); err == nil {
		t.Errorf("Rules() error = nil, want error")
	}
}

// racingLoader invalidates the cache while a load is in flight.
type racingLoader struct {
	cache *Cache
	calls int
}

func (r *racingLoader) ListActiveRulesForEvaluation(_ context.Context, tenantID string) ([]types.PricingRule, error) {
	r.calls++
	if r.calls == 1 {
		r.cache.Invalidate(tenantID)
		return []types.PricingRule{{ID: "stale"}}, nil
	}
	return []types.PricingRule{{ID: "fresh"}}, nil
}

func TestCache_RacingInvalidateNotPublished(t *testing.T) {
	loader := &racingLoader{}
	c, _ := newTestCache(loader)
	loader.cache = c
	ctx := context.Background()

	if _, err := c.Rules(ctx, "t1"); err != nil {
		t.Fatalf("Rules() error = %v", err)
	}
	rules, err := c.Rules(ctx, "t1")
	if err != nil {
		t.Fatalf("Rules() error = %v", err)
	}
	if len(rules) != 1 || rules[0].ID != "fresh" {
		t.Errorf("Rules() = %v, want [fresh]", rules)
	}
}

// Package snapshot caches immutable per-tenant rule snapshots for evaluation.
package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/solatis/pricekeeper/internal/core/metrics"
	"github.com/solatis/pricekeeper/internal/types"
)

/*
 * Snapshot cache.
 *
 * Each evaluation must see one consistent rule list. The cache publishes a
 * freshly loaded slice per tenant and never mutates it afterwards, so
 * callers can read it without locks for the duration of a request.
 *
 * Lifecycle per tenant:
 *   1. Miss or entry older than ttl: reload from the Loader
 *   2. Admin write: Invalidate drops the entry and bumps the generation
 *   3. A reload that raced with Invalidate is not published
 *
 * A failed reload keeps serving the previous snapshot when one exists.
 */

// Loader reads the active rules of a tenant.
type Loader interface {
	ListActiveRulesForEvaluation(ctx context.Context, tenantID string) ([]types.PricingRule, error)
}

type entry struct {
	rules    []types.PricingRule
	loadedAt time.Time
}

// Cache holds per-tenant snapshots.
type Cache struct {
	loader  Loader
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu          sync.RWMutex
	entries     map[string]entry
	generations map[string]uint64
}

// New creates a cache reloading snapshots older than ttl.
func New(loader Loader, ttl time.Duration, logger *zap.Logger, m *metrics.Metrics) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		loader:      loader,
		ttl:         ttl,
		now:         time.Now,
		logger:      logger,
		metrics:     m,
		entries:     make(map[string]entry),
		generations: make(map[string]uint64),
	}
}

// Rules returns the current snapshot for tenantID.
// The returned slice is shared and must not be modified.
func (c *Cache) Rules(ctx context.Context, tenantID string) ([]types.PricingRule, error) {
	c.mu.RLock()
	e, ok := c.entries[tenantID]
	gen := c.generations[tenantID]
	c.mu.RUnlock()

	if ok && c.now().Sub(e.loadedAt) < c.ttl {
		return e.rules, nil
	}

	rules, err := c.loader.ListActiveRulesForEvaluation(ctx, tenantID)
	if err != nil {
		if ok {
			c.logger.Warn("snapshot reload failed, serving stale rules",
				zap.String("tenant_id", tenantID),
				zap.Time("loaded_at", e.loadedAt),
				zap.Error(err))
			return e.rules, nil
		}
		return nil, fmt.Errorf("failed to load rules snapshot: %w", err)
	}

	c.metrics.SnapshotReloaded()
	c.logger.Debug("rules snapshot loaded",
		zap.String("tenant_id", tenantID),
		zap.Int("rules", len(rules)))

	c.mu.Lock()
	if c.generations[tenantID] == gen {
		c.entries[tenantID] = entry{rules: rules, loadedAt: c.now()}
	}
	c.mu.Unlock()

	return rules, nil
}

// Invalidate drops the snapshot of tenantID; the next Rules call reloads.
func (c *Cache) Invalidate(tenantID string) {
	c.mu.Lock()
	delete(c.entries, tenantID)
	c.generations[tenantID]++
	c.mu.Unlock()
}

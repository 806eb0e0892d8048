// Package api provides the gRPC PricingAPI service: price evaluation for the
// booking flow and rule administration for the dashboard.
package api

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/solatis/pricekeeper/internal/core/metrics"
	"github.com/solatis/pricekeeper/internal/rules"
	"github.com/solatis/pricekeeper/internal/segments"
	"github.com/solatis/pricekeeper/internal/snapshot"
	"github.com/solatis/pricekeeper/internal/types"
)

// RuleStore is the rule persistence used by the admin methods.
// Implemented by *db.RuleStore.
type RuleStore interface {
	ListRules(ctx context.Context, tenantID string) ([]types.PricingRule, error)
	GetRule(ctx context.Context, tenantID string, id types.RuleID) (types.PricingRule, error)
	CreateRule(ctx context.Context, tenantID string, rule types.PricingRule) (types.PricingRule, error)
	UpdateRule(ctx context.Context, tenantID string, rule types.PricingRule) (types.PricingRule, error)
	SetRuleActive(ctx context.Context, tenantID string, id types.RuleID, active bool) (types.PricingRule, error)
}

// PricingAPIService implements PricingAPIServer.
// Thin orchestration layer delegating to snapshot, segments, rules and db.
type PricingAPIService struct {
	store    RuleStore
	cache    *snapshot.Cache
	resolver segments.Resolver
	engine   *rules.Engine
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// Deps groups the collaborators of PricingAPIService.
// Resolver, Metrics and Logger are optional.
type Deps struct {
	Store    RuleStore
	Cache    *snapshot.Cache
	Resolver segments.Resolver
	Engine   *rules.Engine
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// NewPricingAPIService creates service instance with dependencies.
func NewPricingAPIService(deps Deps) (*PricingAPIService, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if deps.Cache == nil {
		return nil, fmt.Errorf("cache cannot be nil")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}

	// No segment source: every Segment audience evaluates as non-member
	resolver := deps.Resolver
	if resolver == nil {
		resolver = segments.NewSet()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PricingAPIService{
		store:    deps.Store,
		cache:    deps.Cache,
		resolver: resolver,
		engine:   deps.Engine,
		metrics:  deps.Metrics,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// internal/rules/engine.go
package rules

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/solatis/pricekeeper/internal/types"
)

// Engine evaluates rule snapshots into price quotes.
// It holds no rule state; callers pass the snapshot on every call, so one
// Engine is safe for concurrent use across tenants.
type Engine struct {
	segments types.SegmentLookup
	scale    int32
}

// Option configures an Engine.
type Option func(*Engine)

// WithScale sets the currency scale of final prices.
func WithScale(scale int32) Option {
	return func(e *Engine) {
		e.scale = scale
	}
}

// WithSegmentLookup sets the default segment lookup.
func WithSegmentLookup(segments types.SegmentLookup) Option {
	return func(e *Engine) {
		e.segments = segments
	}
}

// NewEngine creates a new rules engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{scale: DefaultScale}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Scale returns the configured currency scale.
func (e *Engine) Scale() int32 {
	return e.scale
}

// WithSegments returns a copy of e that resolves segment membership with
// segments. Used for per-request membership sets.
func (e *Engine) WithSegments(segments types.SegmentLookup) *Engine {
	cp := *e
	cp.segments = segments
	return &cp
}

// Evaluate selects the winning rule for ctx and applies its action to
// basePrice. With no winner the quote carries the rounded base price, a
// zero discount and no applied rule.
func (e *Engine) Evaluate(rules []types.PricingRule, ctx types.EvaluationContext, basePrice decimal.Decimal, now time.Time) types.PriceQuote {
	original := RoundPrice(basePrice, e.scale)

	rule, ok := Select(rules, ctx, now, e.segments)
	if !ok {
		return types.PriceQuote{
			OriginalPrice:  original,
			FinalPrice:     original,
			DiscountAmount: decimal.Zero,
		}
	}

	final := Apply(rule.Action, basePrice, e.scale)
	return types.PriceQuote{
		OriginalPrice:   original,
		FinalPrice:      final,
		DiscountAmount:  original.Sub(final),
		AppliedRuleID:   rule.ID,
		AppliedRuleName: rule.Name,
	}
}

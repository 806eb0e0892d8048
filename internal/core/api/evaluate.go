package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/pricekeeper/internal/segments"
	"github.com/solatis/pricekeeper/internal/types"
)

// EvaluateRequest is the JSON shape of an Evaluate request.
type EvaluateRequest struct {
	ServiceID             string              `json:"service_id"`
	ClientID              string              `json:"client_id,omitempty"`
	At                    string              `json:"at,omitempty"` // RFC3339 with the business' offset; empty = now
	DaysSinceLastActivity *int                `json:"days_since_last_activity,omitempty"`
	RemainingSlots        *int                `json:"remaining_slots,omitempty"`
	MonthsAsClient        *int                `json:"months_as_client,omitempty"`
	BasePrice             decimal.NullDecimal `json:"base_price"`
}

// Quote is the JSON shape of an Evaluate response.
// Amounts are decimal strings fixed to the configured scale.
type Quote struct {
	OriginalPrice   string `json:"original_price"`
	FinalPrice      string `json:"final_price"`
	DiscountAmount  string `json:"discount_amount"`
	AppliedRuleID   string `json:"applied_rule_id,omitempty"`
	AppliedRuleName string `json:"applied_rule_name,omitempty"`
}

// NewQuote formats q at scale.
func NewQuote(q types.PriceQuote, scale int32) Quote {
	return Quote{
		OriginalPrice:   q.OriginalPrice.StringFixed(scale),
		FinalPrice:      q.FinalPrice.StringFixed(scale),
		DiscountAmount:  q.DiscountAmount.StringFixed(scale),
		AppliedRuleID:   string(q.AppliedRuleID),
		AppliedRuleName: q.AppliedRuleName,
	}
}

// Context validates the request and converts it to an EvaluationContext.
func (r *EvaluateRequest) Context() (types.EvaluationContext, error) {
	if r.ServiceID == "" {
		return types.EvaluationContext{}, errors.New("service_id required")
	}
	if !r.BasePrice.Valid {
		return types.EvaluationContext{}, errors.New("base_price required")
	}
	if r.BasePrice.Decimal.IsNegative() {
		return types.EvaluationContext{}, errors.New("base_price must not be negative")
	}

	ctx := types.EvaluationContext{
		ServiceID:             r.ServiceID,
		ClientID:              r.ClientID,
		DaysSinceLastActivity: r.DaysSinceLastActivity,
		RemainingSlots:        r.RemainingSlots,
		MonthsAsClient:        r.MonthsAsClient,
	}
	if r.At != "" {
		// time.Parse keeps the request's offset, so wall-clock conditions see
		// the business' local time
		at, err := time.Parse(time.RFC3339, r.At)
		if err != nil {
			return types.EvaluationContext{}, fmt.Errorf("at must be RFC3339: %w", err)
		}
		ctx.At = at
	}
	return ctx, nil
}

// Evaluate computes the price of one booking for the caller's tenant.
// No matching rule is not an error: the quote carries the base price.
func (s *PricingAPIService) Evaluate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	start := time.Now()
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}

	var req EvaluateRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, invalidArgument("malformed evaluate request: %v", err)
	}
	evalCtx, err := req.Context()
	if err != nil {
		return nil, invalidArgument("%v", err)
	}

	snapshot, err := s.cache.Rules(ctx, tenantID)
	if err != nil {
		return nil, statusError(err)
	}

	// Memberships are resolved once, before the engine runs, so evaluation
	// itself never blocks on Redis
	lookup := s.resolver.Resolve(ctx, evalCtx.ClientID, segments.ReferencedSegments(snapshot))

	quote := s.engine.WithSegments(lookup).Evaluate(snapshot, evalCtx, req.BasePrice.Decimal, s.now())
	s.metrics.ObserveEvaluation(tenantID, string(quote.AppliedRuleID), time.Since(start))

	s.logger.Debug("evaluated price",
		zap.String("tenant_id", tenantID),
		zap.String("service_id", evalCtx.ServiceID),
		zap.Int("rules", len(snapshot)),
		zap.String("applied_rule_id", string(quote.AppliedRuleID)),
		zap.String("final_price", quote.FinalPrice.String()))

	return encodeStruct(NewQuote(quote, s.engine.Scale()))
}

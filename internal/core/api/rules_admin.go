package api

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/pricekeeper/internal/rules"
	"github.com/solatis/pricekeeper/internal/types"
)

/*
 * Rule administration.
 *
 * Every write validates before touching storage and invalidates the
 * tenant's snapshot afterwards, so the next Evaluate reloads. Reads go to
 * the store directly and include inactive rules.
 */

// RuleList is the JSON shape of a ListRules response.
type RuleList struct {
	Rules []types.PricingRule `json:"rules"`
}

type ruleRef struct {
	ID       types.RuleID `json:"id"`
	IsActive *bool        `json:"is_active,omitempty"`
}

// ListRules returns every rule of the tenant, active or not.
func (s *PricingAPIService) ListRules(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.store.ListRules(ctx, tenantID)
	if err != nil {
		return nil, statusError(err)
	}
	if list == nil {
		list = []types.PricingRule{}
	}
	return encodeStruct(RuleList{Rules: list})
}

// GetRule returns one rule by id.
func (s *PricingAPIService) GetRule(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	ref, err := decodeRef(in)
	if err != nil {
		return nil, err
	}

	rule, err := s.store.GetRule(ctx, tenantID, ref.ID)
	if err != nil {
		return nil, statusError(err)
	}
	return encodeStruct(rule)
}

// CreateRule validates and stores a new rule. An empty id is replaced by a
// fresh UUIDv7.
func (s *PricingAPIService) CreateRule(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	rule, err := decodeRule(in)
	if err != nil {
		return nil, err
	}
	if rule.ID == "" {
		rule.ID = types.NewRuleID()
	}
	if err := rules.Validate(&rule); err != nil {
		return nil, statusError(err)
	}

	created, err := s.store.CreateRule(ctx, tenantID, rule)
	if err != nil {
		return nil, statusError(err)
	}
	s.cache.Invalidate(tenantID)

	s.logger.Info("created pricing rule",
		zap.String("tenant_id", tenantID),
		zap.String("rule_id", string(created.ID)),
		zap.Int("priority", created.Priority),
		zap.Bool("is_active", created.IsActive))
	return encodeStruct(created)
}

// UpdateRule validates and replaces an existing rule.
func (s *PricingAPIService) UpdateRule(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	rule, err := decodeRule(in)
	if err != nil {
		return nil, err
	}
	if err := rules.Validate(&rule); err != nil {
		return nil, statusError(err)
	}

	updated, err := s.store.UpdateRule(ctx, tenantID, rule)
	if err != nil {
		return nil, statusError(err)
	}
	s.cache.Invalidate(tenantID)

	s.logger.Info("updated pricing rule",
		zap.String("tenant_id", tenantID),
		zap.String("rule_id", string(updated.ID)))
	return encodeStruct(updated)
}

// SetRuleActive activates or deactivates a rule.
func (s *PricingAPIService) SetRuleActive(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	ref, err := decodeRef(in)
	if err != nil {
		return nil, err
	}
	if ref.IsActive == nil {
		return nil, invalidArgument("is_active required")
	}

	rule, err := s.store.SetRuleActive(ctx, tenantID, ref.ID, *ref.IsActive)
	if err != nil {
		return nil, statusError(err)
	}
	s.cache.Invalidate(tenantID)

	s.logger.Info("toggled pricing rule",
		zap.String("tenant_id", tenantID),
		zap.String("rule_id", string(rule.ID)),
		zap.Bool("is_active", rule.IsActive))
	return encodeStruct(rule)
}

func decodeRef(in *structpb.Struct) (ruleRef, error) {
	var ref ruleRef
	if err := decodeStruct(in, &ref); err != nil {
		return ruleRef{}, invalidArgument("malformed request: %v", err)
	}
	if ref.ID == "" {
		return ruleRef{}, invalidArgument("id required")
	}
	return ref, nil
}

// decodeRule reads a rule in codec form. Unknown kinds surface as
// validation errors; other decode failures are malformed input.
func decodeRule(in *structpb.Struct) (types.PricingRule, error) {
	var rule types.PricingRule
	err := decodeStruct(in, &rule)
	var verr *types.ValidationError
	switch {
	case err == nil:
		return rule, nil
	case errors.As(err, &verr):
		return types.PricingRule{}, statusError(verr)
	default:
		return types.PricingRule{}, invalidArgument("malformed rule: %v", err)
	}
}

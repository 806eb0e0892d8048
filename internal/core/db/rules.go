package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/solatis/pricekeeper/internal/types"
)

// RuleStore persists pricing rules per tenant.
//
// Conditions, action, audience and service ids are stored as JSON columns
// using the types codec. Rules are never deleted; deactivation keeps them
// available to historical analytics.
type RuleStore struct {
	queries *Queries
	now     func() time.Time
}

// NewRuleStore creates a rule store over queries.
func NewRuleStore(queries *Queries) *RuleStore {
	return &RuleStore{queries: queries, now: time.Now}
}

// ruleRow mirrors the pricing_rules table.
type ruleRow struct {
	RuleID               string    `db:"rule_id"`
	TenantID             string    `db:"tenant_id"`
	Name                 string    `db:"name"`
	Description          string    `db:"description"`
	IsActive             bool      `db:"is_active"`
	Priority             int       `db:"priority"`
	Conditions           string    `db:"conditions"`
	Action               string    `db:"action"`
	TargetAudience       string    `db:"target_audience"`
	ApplicableServiceIDs string    `db:"applicable_service_ids"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

func (r *ruleRow) toRule() (types.PricingRule, error) {
	conds, err := types.UnmarshalConditions([]byte(r.Conditions))
	if err != nil {
		return types.PricingRule{}, fmt.Errorf("rule %s: failed to decode conditions: %w", r.RuleID, err)
	}
	action, err := types.UnmarshalAction([]byte(r.Action))
	if err != nil {
		return types.PricingRule{}, fmt.Errorf("rule %s: failed to decode action: %w", r.RuleID, err)
	}
	audience, err := types.UnmarshalAudience([]byte(r.TargetAudience))
	if err != nil {
		return types.PricingRule{}, fmt.Errorf("rule %s: failed to decode audience: %w", r.RuleID, err)
	}
	var serviceIDs []string
	if err := json.Unmarshal([]byte(r.ApplicableServiceIDs), &serviceIDs); err != nil {
		return types.PricingRule{}, fmt.Errorf("rule %s: failed to decode service ids: %w", r.RuleID, err)
	}

	return types.PricingRule{
		ID:                   types.RuleID(r.RuleID),
		Name:                 r.Name,
		Description:          r.Description,
		IsActive:             r.IsActive,
		Priority:             r.Priority,
		Conditions:           conds,
		Action:               action,
		Audience:             audience,
		ApplicableServiceIDs: serviceIDs,
		CreatedAt:            r.CreatedAt.UTC(),
		UpdatedAt:            r.UpdatedAt.UTC(),
	}, nil
}

// encodedRule holds the JSON column values of a rule.
type encodedRule struct {
	conditions, action, audience, serviceIDs string
}

func encodeRule(rule *types.PricingRule) (encodedRule, error) {
	conds, err := types.MarshalConditions(rule.Conditions)
	if err != nil {
		return encodedRule{}, fmt.Errorf("failed to encode conditions: %w", err)
	}
	action, err := types.MarshalAction(rule.Action)
	if err != nil {
		return encodedRule{}, fmt.Errorf("failed to encode action: %w", err)
	}
	audience := rule.Audience
	if audience == nil {
		audience = types.AllClients{}
	}
	aud, err := types.MarshalAudience(audience)
	if err != nil {
		return encodedRule{}, fmt.Errorf("failed to encode audience: %w", err)
	}
	serviceIDs := rule.ApplicableServiceIDs
	if serviceIDs == nil {
		serviceIDs = []string{}
	}
	svc, err := json.Marshal(serviceIDs)
	if err != nil {
		return encodedRule{}, fmt.Errorf("failed to encode service ids: %w", err)
	}
	return encodedRule{
		conditions: string(conds),
		action:     string(action),
		audience:   string(aud),
		serviceIDs: string(svc),
	}, nil
}

// timestamp truncates to the precision both backends preserve.
func (s *RuleStore) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *RuleStore) selectRules(ctx context.Context, name string, args ...interface{}) ([]types.PricingRule, error) {
	var rows []ruleRow
	if err := s.queries.Select(ctx, name, &rows, args...); err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	rules := make([]types.PricingRule, 0, len(rows))
	for i := range rows {
		rule, err := rows[i].toRule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// ListActiveRulesForEvaluation returns the tenant's active rules ordered by
// (priority, id). The slice is freshly allocated per call.
func (s *RuleStore) ListActiveRulesForEvaluation(ctx context.Context, tenantID string) ([]types.PricingRule, error) {
	return s.selectRules(ctx, "list-active-rules", tenantID, true)
}

// ListRules returns every rule of the tenant, active or not.
func (s *RuleStore) ListRules(ctx context.Context, tenantID string) ([]types.PricingRule, error) {
	return s.selectRules(ctx, "list-rules", tenantID)
}

// GetRule returns one rule or types.ErrRuleNotFound.
func (s *RuleStore) GetRule(ctx context.Context, tenantID string, id types.RuleID) (types.PricingRule, error) {
	var row ruleRow
	err := s.queries.Get(ctx, "get-rule", &row, tenantID, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.PricingRule{}, fmt.Errorf("rule %s: %w", id, types.ErrRuleNotFound)
	}
	if err != nil {
		return types.PricingRule{}, fmt.Errorf("failed to get rule: %w", err)
	}
	return row.toRule()
}

// CreateRule inserts rule and returns it with timestamps set.
// Returns types.ErrDuplicateRule when the id is taken.
func (s *RuleStore) CreateRule(ctx context.Context, tenantID string, rule types.PricingRule) (types.PricingRule, error) {
	enc, err := encodeRule(&rule)
	if err != nil {
		return types.PricingRule{}, err
	}

	now := s.timestamp()
	_, err = s.queries.Exec(ctx, "insert-rule",
		string(rule.ID), tenantID, rule.Name, rule.Description, rule.IsActive, rule.Priority,
		enc.conditions, enc.action, enc.audience, enc.serviceIDs, now, now)
	if isUniqueViolation(err) {
		return types.PricingRule{}, fmt.Errorf("rule %s: %w", rule.ID, types.ErrDuplicateRule)
	}
	if err != nil {
		return types.PricingRule{}, fmt.Errorf("failed to insert rule: %w", err)
	}

	rule.CreatedAt = now
	rule.UpdatedAt = now
	return rule, nil
}

// UpdateRule replaces the mutable fields of an existing rule and bumps
// updated_at. created_at is preserved.
func (s *RuleStore) UpdateRule(ctx context.Context, tenantID string, rule types.PricingRule) (types.PricingRule, error) {
	enc, err := encodeRule(&rule)
	if err != nil {
		return types.PricingRule{}, err
	}

	res, err := s.queries.Exec(ctx, "update-rule",
		rule.Name, rule.Description, rule.IsActive, rule.Priority,
		enc.conditions, enc.action, enc.audience, enc.serviceIDs, s.timestamp(),
		tenantID, string(rule.ID))
	if err != nil {
		return types.PricingRule{}, fmt.Errorf("failed to update rule: %w", err)
	}
	if err := expectOneRow(res, rule.ID); err != nil {
		return types.PricingRule{}, err
	}

	return s.GetRule(ctx, tenantID, rule.ID)
}

// SetRuleActive toggles a rule. Deactivated rules stay stored.
func (s *RuleStore) SetRuleActive(ctx context.Context, tenantID string, id types.RuleID, active bool) (types.PricingRule, error) {
	res, err := s.queries.Exec(ctx, "set-rule-active", active, s.timestamp(), tenantID, string(id))
	if err != nil {
		return types.PricingRule{}, fmt.Errorf("failed to set rule active: %w", err)
	}
	if err := expectOneRow(res, id); err != nil {
		return types.PricingRule{}, err
	}

	return s.GetRule(ctx, tenantID, id)
}

func expectOneRow(res sql.Result, id types.RuleID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("rule %s: %w", id, types.ErrRuleNotFound)
	}
	return nil
}

// isUniqueViolation recognizes primary key and unique constraint errors
// from both drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

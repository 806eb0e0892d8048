package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/solatis/pricekeeper/internal/core/api"
	"github.com/solatis/pricekeeper/internal/core/config"
	"github.com/solatis/pricekeeper/internal/rules"
	"github.com/solatis/pricekeeper/internal/segments"
	"github.com/solatis/pricekeeper/internal/types"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Price one booking against a rules file",
	Long: `Evaluate a JSON array of pricing rules against one booking context and
print the resulting quote. No database or server is needed, so rule sets can
be tried before they are created.`,
	Example: `  pricekeeper simulate --rules rules.json --service svc-yoga --base-price 50 \
    --at 2025-06-10T12:00:00-03:00 --client c-17 --months-as-client 14 --segments vip`,
	RunE: runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.String("rules", "", "path to a JSON array of pricing rules")
	f.String("service", "", "service id being booked")
	f.String("client", "", "client id (empty = anonymous)")
	f.String("at", "", "booking time, RFC3339 with the gym's offset (default now)")
	f.String("base-price", "", "base price of the service")
	f.Int("days-inactive", 0, "days since the client's last activity")
	f.Int("remaining-slots", 0, "remaining capacity of the session")
	f.Int("months-as-client", 0, "client tenure in months")
	f.StringSlice("segments", nil, "segments the client belongs to")
	simulateCmd.MarkFlagRequired("rules")
	simulateCmd.MarkFlagRequired("service")
	simulateCmd.MarkFlagRequired("base-price")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	rulesPath, _ := flags.GetString("rules")

	ruleSet, err := loadRulesFile(rulesPath)
	if err != nil {
		return err
	}

	req := api.EvaluateRequest{}
	req.ServiceID, _ = flags.GetString("service")
	req.ClientID, _ = flags.GetString("client")
	req.At, _ = flags.GetString("at")
	basePrice, _ := flags.GetString("base-price")
	if req.BasePrice.Decimal, err = decimal.NewFromString(basePrice); err != nil {
		return fmt.Errorf("invalid --base-price: %w", err)
	}
	req.BasePrice.Valid = true

	// Unset metric flags stay nil: conditions needing them do not match
	optionalInt := func(name string) *int {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetInt(name)
		return &v
	}
	req.DaysSinceLastActivity = optionalInt("days-inactive")
	req.RemainingSlots = optionalInt("remaining-slots")
	req.MonthsAsClient = optionalInt("months-as-client")

	evalCtx, err := req.Context()
	if err != nil {
		return err
	}

	memberships := segments.NewSet()
	if evalCtx.HasClient() {
		ids, _ := flags.GetStringSlice("segments")
		for _, id := range ids {
			memberships.Add(id, evalCtx.ClientID)
		}
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	engine := rules.NewEngine(rules.WithScale(cfg.CurrencyScale), rules.WithSegmentLookup(memberships))
	quote := engine.Evaluate(ruleSet, evalCtx, req.BasePrice.Decimal, time.Now())

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(api.NewQuote(quote, engine.Scale()))
}

// loadRulesFile reads and validates a JSON array of rules.
func loadRulesFile(path string) ([]types.PricingRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var ruleSet []types.PricingRule
	if err := json.Unmarshal(data, &ruleSet); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	for i := range ruleSet {
		if err := rules.Validate(&ruleSet[i]); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, ruleSet[i].ID, err)
		}
	}
	return ruleSet, nil
}

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*PricingAPIConfig, error) {
	return LoadConfigWithFlags(configPath, nil)
}

// LoadConfigWithFlags is LoadConfig with command flags bound over the
// environment. Flags are bound by name: --port binds pricing_api.port.
func LoadConfigWithFlags(configPath string, flags *pflag.FlagSet) (*PricingAPIConfig, error) {
	v := viper.New()

	// Set defaults matching DefaultPricingAPIConfig
	def := DefaultPricingAPIConfig()
	v.SetDefault("pricing_api.host", def.Host)
	v.SetDefault("pricing_api.port", def.Port)
	v.SetDefault("pricing_api.request_timeout", def.RequestTimeout.String())
	v.SetDefault("pricing_api.snapshot_ttl", def.SnapshotTTL.String())
	v.SetDefault("pricing_api.currency_scale", def.CurrencyScale)
	v.SetDefault("pricing_api.metrics_addr", def.MetricsAddr)
	v.SetDefault("pricing_api.redis_addr", def.RedisAddr)
	v.SetDefault("pricing_api.redis_db", def.RedisDB)

	// Bind environment variables with PK_ prefix
	v.SetEnvPrefix("PK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for _, name := range []string{"host", "port", "metrics-addr", "redis-addr"} {
			if f := flags.Lookup(name); f != nil {
				key := "pricing_api." + strings.ReplaceAll(name, "-", "_")
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets must be environment-only per 12-factor principles
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &PricingAPIConfig{
		Host:           v.GetString("pricing_api.host"),
		Port:           v.GetInt("pricing_api.port"),
		RequestTimeout: v.GetDuration("pricing_api.request_timeout"),
		SnapshotTTL:    v.GetDuration("pricing_api.snapshot_ttl"),
		CurrencyScale:  v.GetInt32("pricing_api.currency_scale"),
		MetricsAddr:    v.GetString("pricing_api.metrics_addr"),
		RedisAddr:      v.GetString("pricing_api.redis_addr"),
		RedisDB:        v.GetInt("pricing_api.redis_db"),
		RedisPassword:  os.Getenv("PK_REDIS_PASSWORD"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range, positive durations and currency scale.
func validateConfig(cfg *PricingAPIConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.SnapshotTTL <= 0 {
		return fmt.Errorf("snapshot_ttl must be positive, got %v", cfg.SnapshotTTL)
	}
	if cfg.CurrencyScale < MinCurrencyScale || cfg.CurrencyScale > MaxCurrencyScale {
		return fmt.Errorf("currency_scale must be between %d and %d, got %d", MinCurrencyScale, MaxCurrencyScale, cfg.CurrencyScale)
	}
	if cfg.RedisDB < 0 {
		return fmt.Errorf("redis_db must be non-negative, got %d", cfg.RedisDB)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
// Only the config file is inspected; the same keys in the environment are fine.
func validateNoSecretsInConfig(v *viper.Viper) error {
	for _, key := range []string{"hmac_secret", "pricing_api.hmac_secret", "redis_password", "pricing_api.redis_password"} {
		if v.InConfig(key) {
			return fmt.Errorf("secrets not allowed in config files (use PK_HMAC_SECRET and PK_REDIS_PASSWORD environment variables)")
		}
	}
	return nil
}

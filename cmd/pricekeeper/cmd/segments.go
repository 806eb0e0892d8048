package cmd

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/solatis/pricekeeper/internal/core/config"
	"github.com/solatis/pricekeeper/internal/segments"
)

var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "Maintain client segment membership in Redis",
}

var segmentsAddCmd = &cobra.Command{
	Use:   "add <segment-id> <client-id>...",
	Short: "Add clients to a segment",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, closeFn, err := openResolver(cmd)
		if err != nil {
			return err
		}
		defer closeFn()
		return resolver.AddMembers(cmd.Context(), args[0], args[1:]...)
	},
}

var segmentsRemoveCmd = &cobra.Command{
	Use:   "remove <segment-id> <client-id>...",
	Short: "Remove clients from a segment",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, closeFn, err := openResolver(cmd)
		if err != nil {
			return err
		}
		defer closeFn()
		return resolver.RemoveMembers(cmd.Context(), args[0], args[1:]...)
	},
}

func init() {
	segmentsCmd.PersistentFlags().String("redis-addr", "", "Redis address (defaults to pricing_api.redis_addr)")
	segmentsCmd.AddCommand(segmentsAddCmd, segmentsRemoveCmd)
	rootCmd.AddCommand(segmentsCmd)
}

func openResolver(cmd *cobra.Command) (*segments.RedisResolver, func() error, error) {
	cfg, err := config.LoadConfigWithFlags(configFile, cmd.Flags())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.RedisAddr == "" {
		return nil, nil, fmt.Errorf("redis address required (--redis-addr or pricing_api.redis_addr)")
	}

	logger, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return segments.NewRedisResolver(client, logger, nil), client.Close, nil
}

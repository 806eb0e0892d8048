package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solatis/pricekeeper/internal/core/api"
	"github.com/solatis/pricekeeper/internal/core/auth"
	"github.com/solatis/pricekeeper/internal/core/config"
	"github.com/solatis/pricekeeper/internal/core/db"
	"github.com/solatis/pricekeeper/internal/core/metrics"
	"github.com/solatis/pricekeeper/internal/core/server"
	"github.com/solatis/pricekeeper/internal/rules"
	"github.com/solatis/pricekeeper/internal/segments"
	"github.com/solatis/pricekeeper/internal/snapshot"
)

const Version = "0.1.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start gRPC pricing API service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50061, "gRPC server port")
	serveCmd.Flags().String("metrics-addr", ":9464", "Prometheus metrics listen address (empty disables)")
	serveCmd.Flags().String("redis-addr", "", "Redis address for segment membership (empty disables)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.LoadConfigWithFlags(configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	database, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := requireMigrated(ctx, database); err != nil {
		return err
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no HMAC secrets configured (set PK_HMAC_SECRET environment variable)")
	}
	authenticator := auth.NewAuthenticator(secrets, queries, logger.Named("auth"))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	store := db.NewRuleStore(queries)
	cache := snapshot.New(store, cfg.SnapshotTTL, logger.Named("snapshot"), m)

	var resolver segments.Resolver
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()

		// Unreachable Redis is not fatal: segment rules degrade to non-member
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, segment audiences will not match", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		cancel()
		resolver = segments.NewRedisResolver(client, logger.Named("segments"), m)
	}

	service, err := api.NewPricingAPIService(api.Deps{
		Store:    store,
		Cache:    cache,
		Resolver: resolver,
		Engine:   rules.NewEngine(rules.WithScale(cfg.CurrencyScale)),
		Metrics:  m,
		Logger:   logger.Named("api"),
	})
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(cfg, service, authenticator, logger.Named("grpc"))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errChan := make(chan error, 2)

	var metricsServer *server.MetricsServer
	if cfg.MetricsAddr != "" {
		metricsServer = server.NewMetricsServer(cfg.MetricsAddr, m.Handler(), logger.Named("metrics"))
		go func() {
			errChan <- metricsServer.Start()
		}()
	}

	logger.Info("starting pricekeeper pricing API",
		zap.String("version", Version),
		zap.String("addr", cfg.Address()),
		zap.Int32("currency_scale", cfg.CurrencyScale),
		zap.Bool("redis_segments", resolver != nil))
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown failed", zap.Error(err))
		}
	}
	return grpcServer.Shutdown(shutdownCtx)
}

// requireMigrated refuses to serve against a schema with pending migrations.
func requireMigrated(ctx context.Context, database *sqlx.DB) error {
	statuses, err := db.MigrateStatus(ctx, database)
	if err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			return fmt.Errorf("migration %s not applied - run 'pricekeeper migrate up' first", s.ID)
		}
	}
	return nil
}

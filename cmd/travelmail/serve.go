package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"travelmail/internal/api"
	"travelmail/internal/config"
	"travelmail/internal/ingest"
	"travelmail/internal/logger"
	"travelmail/internal/merge"
	"travelmail/internal/pipeline"
	"travelmail/internal/registry"
	"travelmail/internal/storage"
)

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "", "YAML config file (default: built-in defaults plus environment)")
	_ = fs.Parse(args)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatalf("Config error: %v", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fatalf("Logger error: %v", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, log); err != nil {
		log.Error("serve failed", zap.Error(err))
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	policy, ok := merge.ParsePolicy(cfg.Pipeline.MergePolicy)
	if !ok {
		return fmt.Errorf("unknown merge policy %q", cfg.Pipeline.MergePolicy)
	}

	var regOpts []registry.Option
	if len(cfg.Pipeline.TrustedDomains) > 0 {
		regOpts = append(regOpts, registry.WithTrustedDomains(cfg.Pipeline.TrustedDomains))
	}
	reg, err := registry.New(registry.BuiltinDefinitions(), regOpts...)
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	p := pipeline.New(reg,
		pipeline.WithWorkers(cfg.Pipeline.Workers),
		pipeline.WithContextReweighting(cfg.Pipeline.ContextReweighting),
		pipeline.WithMergePolicy(policy),
		pipeline.WithSource("nats"),
		pipeline.WithDerivedIDs(),
		pipeline.WithLogger(log),
	)

	stores, err := storage.Open(ctx, storageConfig(cfg))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() { _ = stores.Close() }()

	nc, err := ingest.Connect(cfg.NATS.URL, "travelmail", log)
	if err != nil {
		return err
	}
	defer nc.Close()

	svcOpts := []ingest.Option{
		ingest.WithCandidateSink(stores.Review),
		ingest.WithPublisher(nc),
		ingest.WithLogger(log),
	}
	if stores.Audit != nil {
		svcOpts = append(svcOpts, ingest.WithAudit(stores.Audit))
	}
	if cfg.Redis.URL != "" {
		seen, err := ingest.DialSeenFilter(ctx, cfg.Redis.URL, cfg.Redis.KeyPrefix, cfg.Redis.TTL)
		if err != nil {
			// Redelivered emails are reprocessed without the filter.
			log.Warn("redis unavailable, processing without seen filter", zap.Error(err))
		} else {
			defer func() { _ = seen.Close() }()
			svcOpts = append(svcOpts, ingest.WithSeen(seen))
		}
	}

	svc := ingest.NewService(p, ingest.Config{
		SubjectIn:     cfg.NATS.SubjectIn,
		SubjectOut:    cfg.NATS.SubjectOut,
		Queue:         cfg.NATS.Queue,
		BatchSize:     cfg.NATS.BatchSize,
		FlushInterval: cfg.NATS.FlushInterval,
	}, svcOpts...)

	apiOpts := []api.Option{api.WithLogger(log)}
	if stores.Periods != nil {
		apiOpts = append(apiOpts, api.WithPeriodStore(stores.Periods))
	}
	if stores.Audit != nil {
		apiOpts = append(apiOpts, api.WithAuditStats(stores.Audit))
	}
	srv := api.NewServer(p, stores.Review, api.Config{
		Addr:            cfg.API.Addr,
		APIKeys:         cfg.API.APIKeys,
		RoundTripWindow: cfg.Pipeline.RoundTripWindow(),
	}, apiOpts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(gctx, nc) })
	g.Go(func() error { return srv.Run(gctx) })
	return g.Wait()
}

func storageConfig(cfg config.Config) storage.Config {
	sc := storage.Config{SQLitePath: cfg.SQLite.Path}
	if cfg.Postgres.Enabled {
		sc.Postgres = &storage.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
		}
	}
	if cfg.ClickHouse.Enabled {
		sc.ClickHouse = &storage.ClickHouseConfig{
			Host:     cfg.ClickHouse.Host,
			Port:     cfg.ClickHouse.Port,
			Database: cfg.ClickHouse.Database,
			User:     cfg.ClickHouse.User,
			Password: cfg.ClickHouse.Password,
		}
	}
	return sc
}

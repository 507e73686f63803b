package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/source"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/service"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/textsearch.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg); err != nil {
		slog.Error("indexer service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("indexer service stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	checker := health.NewChecker()

	var opts []service.Option
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, query caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			opts = append(opts, service.WithCache(cache.New(redisClient, cfg.Redis.CacheTTL)))
			checker.Register("redis", health.Ping(redisClient.Ping))
			slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}
	if cfg.Kafka.Enabled && cfg.Kafka.Topics.IndexComplete != "" {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
		defer producer.Close()
		opts = append(opts, service.WithPublisher(producer))
	}

	svc := service.New(cfg.Index, m, opts...)
	checker.Register("index", health.Condition(svc.Built, "index not built"))

	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port, reg, checker)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(shutdownCtx)
		}()
	}

	if err := initialLoad(ctx, cfg, svc); err != nil {
		return err
	}
	slog.Info("index ready", "documents", svc.Stats().NumDocuments, "terms", svc.Stats().NumTokens)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.RunSnapshots(gctx)
	})
	if cfg.Kafka.Enabled {
		c := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest, consumer.HandleMessage(svc, m))
		g.Go(func() error {
			return c.Start(gctx)
		})
		slog.Info("consuming ingest events",
			"topic", cfg.Kafka.Topics.DocumentIngest,
			"group", cfg.Kafka.ConsumerGroup,
		)
	}
	runErr := g.Wait()

	if cfg.Index.SnapshotPath != "" {
		if _, err := svc.Snapshot(); err != nil {
			slog.Error("final snapshot failed", "error", err)
		}
	}
	return runErr
}

// initialLoad restores the snapshot when one exists and otherwise builds
// from PostgreSQL when it is enabled.
func initialLoad(ctx context.Context, cfg *config.Config, svc *service.Service) error {
	if cfg.Index.SnapshotPath != "" {
		err := svc.Load(ctx, cfg.Index.SnapshotPath)
		if err == nil {
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading snapshot: %w", err)
		}
		slog.Info("no snapshot found", "path", cfg.Index.SnapshotPath)
	}
	if !cfg.Postgres.Enabled {
		return nil
	}

	var client *postgres.Client
	err := resilience.Retry(ctx, "postgres connect", resilience.DefaultRetryConfig(), func(ctx context.Context) error {
		var err error
		client, err = postgres.New(ctx, cfg.Postgres)
		return err
	})
	if err != nil {
		return err
	}
	defer client.Close()
	docs, err := source.NewPostgres(client).Load(ctx)
	if err != nil {
		return fmt.Errorf("loading documents: %w", err)
	}
	if err := svc.Add(docs...); err != nil {
		return err
	}
	svc.Build(ctx)
	return nil
}

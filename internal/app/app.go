// Package app assembles the hub from configuration. Both the worker and
// hubctl build on it so they share one set of stores and clients.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"hub/internal/actions"
	"hub/internal/clients/identity"
	"hub/internal/clients/jembi"
	"hub/internal/clients/stagebased"
	"hub/internal/pii"
	"hub/internal/pipeline"
	"hub/internal/pipeline/queue"
	"hub/internal/platform/config"
	"hub/internal/platform/kafka"
	"hub/internal/platform/metrics"
	"hub/internal/platform/postgres"
	"hub/internal/platform/redis"
	"hub/internal/ports"
	"hub/internal/records/store"
	"hub/internal/schedule"
	"hub/internal/submission"
	"hub/internal/validation"
	audit "hub/pkg/platform/audit"
	"hub/pkg/platform/audit/publishers/compliance"
	"hub/pkg/platform/audit/publishers/ops"
	auditmemory "hub/pkg/platform/audit/store/memory"
	auditpostgres "hub/pkg/platform/audit/store/postgres"
)

// recordStore is what the pipeline and hubctl need from the record store.
type recordStore interface {
	ports.RecordStore
	ports.RequestSink
}

// App holds the assembled pipeline and the resources it owns.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Records  ports.RecordStore
	Pipeline *pipeline.Orchestrator
	// Queue is nil unless Build was asked for one.
	Queue pipeline.Queue

	db     *sql.DB
	redis  *redis.Client
	kafka  *kgo.Client
	probes map[string]func(context.Context) error
}

// Options selects which optional parts Build wires.
type Options struct {
	// WithQueue connects the task queue. Consume additionally joins the
	// consumer group.
	WithQueue bool
	Consume   bool
}

// Build connects to every configured backend. Missing Postgres or Redis
// settings fall back to in-memory stores; a missing Kafka broker list falls
// back to an in-memory queue.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (_ *App, err error) {
	a := &App{Config: cfg, Logger: logger, probes: map[string]func(context.Context) error{}}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	m := metrics.New()

	a.db, err = postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	var records recordStore
	var auditStore audit.Store
	if a.db != nil {
		pg := store.NewPostgres(a.db)
		if err := pg.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate record store: %w", err)
		}
		records = pg
		auditStore = auditpostgres.New(a.db)
		a.probes["postgres"] = a.db.PingContext
	} else {
		logger.Warn("no postgres dsn configured, using in-memory record store")
		records = store.NewInMemoryStore()
		auditStore = auditmemory.NewInMemoryStore()
	}
	a.Records = records

	a.redis, err = redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	identities := identity.New(cfg.IdentityStore, identity.WithMetrics(m))
	subs := stagebased.New(cfg.StageBased, stagebased.WithMetrics(m))
	reporter := submission.WithRetry(
		jembi.New(cfg.Jembi, jembi.WithMetrics(m), jembi.WithLogger(logger)),
		submission.PolicyFromConfig(cfg.Retry),
	)

	var markers pipeline.Markers = pipeline.NewMemoryMarkers()
	var catalog ports.Catalog = subs
	if a.redis != nil {
		markers = pipeline.NewRedisMarkers(a.redis, cfg.StageMarkerTTL)
		catalog = schedule.NewCachedCatalog(subs, a.redis, cfg.CatalogCacheTTL,
			schedule.WithCacheLogger(logger), schedule.WithCacheMetrics(m))
		a.probes["redis"] = a.redis.Health
	} else {
		logger.Warn("no redis url configured, stage markers are kept in memory")
	}

	executor := actions.New(identities, subs, records, schedule.NewSequencer(catalog),
		actions.WithLogger(logger), actions.WithCatalog(catalog))
	submitter := submission.New(identities, records, reporter, submission.WithLogger(logger))
	a.Pipeline = pipeline.New(records, validation.New(), executor, submitter,
		pii.New(identities, pii.WithLogger(logger)),
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(pipeline.NewMetrics()),
		pipeline.WithMarkers(markers),
		pipeline.WithAudit(
			compliance.New(auditStore, compliance.WithLogger(logger), compliance.WithMetrics(compliance.NewMetrics())),
			ops.New(auditStore, ops.WithLogger(logger), ops.WithMetrics(ops.NewMetrics())),
		),
	)

	if opts.WithQueue {
		if err := a.connectQueue(ctx, opts.Consume); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *App) connectQueue(ctx context.Context, consume bool) error {
	if len(a.Config.Kafka.Brokers) == 0 {
		a.Logger.Warn("no kafka brokers configured, using in-memory task queue")
		a.Queue = queue.NewMemory(1024)
		return nil
	}
	client, err := kafka.NewClient(a.Config.Kafka, consume)
	if err != nil {
		return err
	}
	a.kafka = client
	if err := kafka.EnsureTopic(ctx, client, a.Config.Kafka); err != nil {
		return err
	}
	a.Queue = queue.NewKafka(client, a.Logger)
	a.probes["kafka"] = client.Ping
	return nil
}

// Probes returns one readiness check per connected backend.
func (a *App) Probes() map[string]func(context.Context) error {
	return a.probes
}

// Close releases every connection Build opened.
func (a *App) Close() {
	if a.kafka != nil {
		a.kafka.Close()
	}
	if mq, ok := a.Queue.(*queue.Memory); ok {
		mq.Close()
	}
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.Logger.Error("close resources", "error", err)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"hub/internal/app"
	"hub/internal/pipeline"
	"hub/internal/platform/config"
	"hub/internal/platform/httpserver"
	"hub/internal/platform/logger"
	"hub/internal/submission"
	httptransport "hub/internal/transport/http"
)

// main runs the pipeline worker and its admin server until SIGINT or SIGTERM.
func main() {
	configPath := flag.String("config", os.Getenv("HUB_CONFIG"), "path to YAML config file")
	flag.Parse()

	log := logger.New()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub, err := app.Build(ctx, cfg, log, app.Options{WithQueue: true, Consume: true})
	if err != nil {
		log.Error("build hub", "error", err)
		os.Exit(1)
	}
	defer hub.Close()

	worker := pipeline.NewWorker(hub.Pipeline, hub.Queue, log, cfg.TaskMaxAttempts,
		pipeline.WithBackoff(submission.PolicyFromConfig(cfg.Retry)))
	handler := httptransport.NewHandler(hub.Pipeline, hub.Queue, hub.Probes(), log)
	srv := httpserver.New(cfg.AdminAddr, httptransport.NewRouter(handler, cfg.AdminToken, log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting pipeline worker", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.ConsumerGroup)
		return worker.Run(gctx)
	})
	g.Go(func() error {
		log.Info("starting admin server", "addr", cfg.AdminAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker stopped", "error", err)
		os.Exit(1)
	}
	log.Info("worker stopped")
}

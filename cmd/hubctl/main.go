package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"hub/internal/app"
	"hub/internal/operator"
	"hub/internal/pipeline"
	"hub/internal/platform/config"
	"hub/internal/platform/logger"
	id "hub/pkg/domain"
	hubstrings "hub/pkg/platform/strings"
)

const usage = `usage: hubctl <command> [flags]

commands:
  resubmit-optouts        resubmit MomConnect optouts to Jembi
  resubmit-babyloss       resubmit loss switches to Jembi
  resubmit-registrations  resubmit registrations to Jembi
  process                 run records through the pipeline from validation

Run "hubctl <command> -h" for flags.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "hubctl:", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	since      string
	until      string
	source     string
	records    string
	enqueue    bool
	logLevel   string
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("missing command")
	}
	name, args := args[0], args[1:]

	var batch *operator.Batch
	switch name {
	case operator.Optouts.Name:
		batch = &operator.Optouts
	case operator.BabyLoss.Name:
		batch = &operator.BabyLoss
	case operator.Registrations.Name:
		batch = &operator.Registrations
	case "process":
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", name)
	}

	var opts options
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", os.Getenv("HUB_CONFIG"), "path to YAML config file")
	fs.StringVar(&opts.records, "record", "", "comma separated record ids")
	fs.BoolVar(&opts.enqueue, "enqueue", false, "hand tasks to the worker queue instead of running them inline")
	fs.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	if batch != nil {
		fs.StringVar(&opts.since, "since", "", "created_at lower bound (YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)")
		fs.StringVar(&opts.until, "until", "", "created_at upper bound, inclusive")
		fs.StringVar(&opts.source, "source", "", "limit to one source id")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	sel, err := selection(opts)
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(stderr, opts.logLevel)
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	hub, err := app.Build(ctx, cfg, log, app.Options{WithQueue: opts.enqueue})
	if err != nil {
		return err
	}
	defer hub.Close()

	runner := operator.NewRunner(hub.Records, hub.Pipeline, dispatcher(hub, opts.enqueue), log)
	if batch == nil {
		return process(ctx, runner, sel, log)
	}
	sum, err := runner.Run(ctx, *batch, sel)
	if err != nil {
		return err
	}
	log.Info("done", "command", name, "matched", sum.Matched, "resubmitted", sum.Resubmit, "failed", sum.Failed)
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d records failed", sum.Failed, sum.Matched)
	}
	return nil
}

func dispatcher(hub *app.App, enqueue bool) operator.Dispatcher {
	if enqueue {
		return func(ctx context.Context, task *pipeline.Task) error {
			return hub.Queue.Enqueue(ctx, *task)
		}
	}
	return hub.Pipeline.Drive
}

func process(ctx context.Context, runner *operator.Runner, sel operator.Selection, log *slog.Logger) error {
	if len(sel.IDs) == 0 {
		return errors.New("process needs one or more --record ids")
	}
	var errs []error
	for _, recordID := range sel.IDs {
		if err := runner.Process(ctx, recordID); err != nil {
			errs = append(errs, err)
			continue
		}
		log.Info("record processed", "record_id", recordID.String())
	}
	return errors.Join(errs...)
}

func selection(opts options) (operator.Selection, error) {
	var sel operator.Selection
	var err error
	if sel.Since, err = parseTime(opts.since); err != nil {
		return sel, fmt.Errorf("--since: %w", err)
	}
	if sel.Until, err = parseTime(opts.until); err != nil {
		return sel, fmt.Errorf("--until: %w", err)
	}
	if opts.source != "" {
		n, err := strconv.Atoi(opts.source)
		if err != nil {
			return sel, fmt.Errorf("--source: %w", err)
		}
		sel.SourceID = &n
	}
	for _, raw := range hubstrings.SplitList(opts.records, ",") {
		recordID, err := id.ParseRecordID(raw)
		if err != nil {
			return sel, fmt.Errorf("--record %q: %w", raw, err)
		}
		sel.IDs = append(sel.IDs, recordID)
	}
	return sel, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.DateTime, time.DateOnly, time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

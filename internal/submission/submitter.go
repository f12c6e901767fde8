package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hub/internal/ports"
	"hub/internal/records/models"
)

// Status is how a submission ended without error.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusSkipped   Status = "skipped"
)

// Result describes a completed submission step.
type Result struct {
	Status Status
	Reason string
}

// Submitter builds and posts reports.
type Submitter struct {
	builder  *Builder
	reporter ports.Reporter
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Submitter.
type Option func(*Submitter)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Submitter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock pins "today" for builders that depend on it.
func WithClock(now func() time.Time) Option {
	return func(s *Submitter) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a Submitter. reporter is usually a RetryingReporter around the
// Jembi client.
func New(identities ports.IdentityService, records ports.RecordStore, reporter ports.Reporter, opts ...Option) *Submitter {
	s := &Submitter{reporter: reporter, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.builder = NewBuilder(identities, records, s.now)
	return s
}

// Submit builds the family's payload for rec and posts it. Records the report
// cannot be built for are skipped. Any post failure is returned and the
// payload logged so an operator can resubmit.
func (s *Submitter) Submit(ctx context.Context, family Family, rec *models.Record) (*Result, error) {
	log := s.logger.With("record_id", rec.ID.String(), "family", string(family))

	payload, err := s.builder.Build(ctx, family, rec)
	switch {
	case errors.Is(err, ErrNoAuthority), errors.Is(err, ErrDataConsistency):
		log.WarnContext(ctx, "skipping submission", "error", err)
		return &Result{Status: StatusSkipped, Reason: err.Error()}, nil
	case err != nil:
		return nil, fmt.Errorf("build %s report for %s: %w", family, rec.ID, err)
	}

	if err := s.reporter.Post(ctx, family.Endpoint(), payload); err != nil {
		log.ErrorContext(ctx, "error when posting to jembi", "error", err, "payload", payload)
		return nil, fmt.Errorf("submit %s report for %s: %w", family, rec.ID, err)
	}
	log.InfoContext(ctx, "report submitted", "endpoint", family.Endpoint())
	return &Result{Status: StatusSubmitted}, nil
}

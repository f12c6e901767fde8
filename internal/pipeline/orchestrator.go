package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"hub/internal/actions"
	"hub/internal/pii"
	"hub/internal/ports"
	"hub/internal/records/models"
	"hub/internal/submission"
	"hub/internal/validation"
	id "hub/pkg/domain"
	audit "hub/pkg/platform/audit"
	"hub/pkg/platform/sentinel"
)

// ComplianceEmitter records events that must not be lost. An error fails the stage.
type ComplianceEmitter interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Tracker records best-effort progress events.
type Tracker interface {
	Track(ctx context.Context, event audit.Event)
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, audit.Event) error { return nil }

type noopTracker struct{}

func (noopTracker) Track(context.Context, audit.Event) {}

// Orchestrator runs pipeline stages.
type Orchestrator struct {
	records   ports.RecordStore
	validator *validation.Validator
	executor  *actions.Executor
	submitter *submission.Submitter
	pii       *pii.Manager
	markers   Markers

	compliance ComplianceEmitter
	tracker    Tracker
	metrics    *Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

func WithMarkers(m Markers) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.markers = m
		}
	}
}

// WithAudit routes compliance events to c and progress events to t.
func WithAudit(c ComplianceEmitter, t Tracker) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.compliance = c
		}
		if t != nil {
			o.tracker = t
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New builds an Orchestrator. Without WithMarkers, markers live in memory.
func New(records ports.RecordStore, validator *validation.Validator, executor *actions.Executor,
	submitter *submission.Submitter, lifecycle *pii.Manager, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		records:    records,
		validator:  validator,
		executor:   executor,
		submitter:  submitter,
		pii:        lifecycle,
		markers:    NewMemoryMarkers(),
		compliance: noopEmitter{},
		tracker:    noopTracker{},
		logger:     slog.Default(),
		tracer:     otel.Tracer("hub/pipeline"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process runs every stage for one record in-process and returns the first
// error. Validation rejections and aborted executions end the chain cleanly.
func (o *Orchestrator) Process(ctx context.Context, kind models.Kind, recordID id.RecordID) error {
	return o.Drive(ctx, &Task{RecordID: recordID, Kind: kind, Stage: StageValidate})
}

// Drive runs task and every task it chains to.
func (o *Orchestrator) Drive(ctx context.Context, task *Task) error {
	for task != nil {
		next, err := o.RunStage(ctx, *task)
		if err != nil {
			return err
		}
		task = next
	}
	return nil
}

// RunStage runs a single stage and returns the task to run next, or nil when
// the record is finished.
func (o *Orchestrator) RunStage(ctx context.Context, task Task) (next *Task, err error) {
	ctx, span := o.tracer.Start(ctx, "pipeline."+string(task.Stage), trace.WithAttributes(
		attribute.String("record.id", task.RecordID.String()),
		attribute.String("record.kind", string(task.Kind)),
		attribute.Int("task.attempt", task.Attempt),
	))
	start := o.now()
	defer func() {
		o.metrics.observeStage(task.Stage, o.now().Sub(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	rec, err := o.records.Get(ctx, task.RecordID)
	if err != nil {
		return nil, fmt.Errorf("load record %s: %w", task.RecordID, err)
	}
	if task.Kind != "" && task.Kind != rec.Kind {
		return nil, fmt.Errorf("%w: task %s, record %s", ErrKindMismatch, task.Kind, rec.Kind)
	}
	task.Kind = rec.Kind

	switch task.Stage {
	case StageValidate:
		return o.validate(ctx, task, rec)
	case StageExecute:
		return o.execute(ctx, task, rec)
	case StageSubmit:
		return o.submit(ctx, task, rec)
	case StageAnonymize:
		return o.anonymize(ctx, task, rec)
	default:
		return nil, fmt.Errorf("%w: unknown stage %q", sentinel.ErrInvalidState, task.Stage)
	}
}

func (o *Orchestrator) validate(ctx context.Context, task Task, rec *models.Record) (*Task, error) {
	if rec.Validated {
		return task.next(StageExecute, ""), nil
	}
	if rec.Kind == models.KindRegistration {
		if _, err := o.pii.ResolveRegistrant(ctx, rec); err != nil {
			return nil, err
		}
	}

	ok, problems := o.validator.Validate(rec)
	if !ok {
		if rec.Data == nil {
			rec.Data = map[string]any{}
		}
		rec.Data[models.FieldInvalidFields] = problems
		if err := o.records.Save(ctx, rec); err != nil {
			return nil, fmt.Errorf("save rejected record %s: %w", rec.ID, err)
		}
		o.metrics.incValidationFailure(string(rec.Kind))
		o.logger.InfoContext(ctx, "record failed validation",
			"record_id", rec.ID.String(), "kind", string(rec.Kind), "action", rec.Action, "invalid_fields", problems)
		o.track(ctx, rec, audit.EventRecordRejected, StageValidate, "rejected", fmt.Sprintf("%d problems", len(problems)))
		return nil, o.mark(ctx, rec.ID, func(m *Marker) { m.Stage = StageDone })
	}

	rec.Validated = true
	delete(rec.Data, models.FieldInvalidFields)
	if err := o.records.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save validated record %s: %w", rec.ID, err)
	}
	o.track(ctx, rec, audit.EventRecordValidated, StageValidate, "validated", "")
	return task.next(StageExecute, ""), o.mark(ctx, rec.ID, func(m *Marker) { m.Stage = StageExecute })
}

func (o *Orchestrator) execute(ctx context.Context, task Task, rec *models.Record) (*Task, error) {
	if !rec.Validated {
		return nil, fmt.Errorf("%w: record %s is not validated", sentinel.ErrInvalidState, rec.ID)
	}

	marker, seen, err := o.markers.Get(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	if seen && marker.Executed {
		o.logger.InfoContext(ctx, "record already executed, replaying outcome", "record_id", rec.ID.String())
		return afterExecute(task, &actions.Outcome{Submit: marker.Family, Aborted: marker.Aborted}), nil
	}

	outcome, err := o.executor.Execute(ctx, rec)
	if err != nil {
		return nil, err
	}
	err = o.mark(ctx, rec.ID, func(m *Marker) {
		m.Executed = true
		m.Family = outcome.Submit
		m.Aborted = outcome.Aborted
		m.Stage = afterExecute(task, outcome).Stage
	})
	if err != nil {
		return nil, err
	}

	if outcome.Aborted {
		o.track(ctx, rec, audit.EventExecutionAborted, StageExecute, "aborted", outcome.Message)
	} else {
		o.track(ctx, rec, audit.EventRecordExecuted, StageExecute, string(outcome.Submit), "")
	}
	return afterExecute(task, outcome), nil
}

// afterExecute chains to submit when the action produced a report and
// straight to anonymize otherwise.
func afterExecute(task Task, outcome *actions.Outcome) *Task {
	if outcome.Aborted || outcome.Submit == "" {
		return task.next(StageAnonymize, "")
	}
	return task.next(StageSubmit, outcome.Submit)
}

func (o *Orchestrator) submit(ctx context.Context, task Task, rec *models.Record) (*Task, error) {
	if task.Family == "" {
		return nil, fmt.Errorf("%w: submit task for %s has no report family", sentinel.ErrInvalidState, rec.ID)
	}

	result, err := o.submitter.Submit(ctx, task.Family, rec)
	if err != nil {
		if !Terminal(err) {
			return nil, err
		}
		o.metrics.incSubmission(string(task.Family), "failed")
		if emitErr := o.emit(ctx, rec, audit.EventSubmissionFailed, StageSubmit, string(task.Family), err.Error()); emitErr != nil {
			return nil, emitErr
		}
		if markErr := o.mark(ctx, rec.ID, func(m *Marker) { m.Stage = StageSubmit; m.Failed = true }); markErr != nil {
			return nil, markErr
		}
		return nil, err
	}

	o.metrics.incSubmission(string(task.Family), string(result.Status))
	action := audit.EventReportSubmitted
	if result.Status == submission.StatusSkipped {
		action = audit.EventReportSkipped
	}
	if err := o.emit(ctx, rec, action, StageSubmit, string(task.Family), result.Reason); err != nil {
		return nil, err
	}
	return task.next(StageAnonymize, ""), o.mark(ctx, rec.ID, func(m *Marker) {
		m.Stage = StageAnonymize
		m.Failed = false
	})
}

func (o *Orchestrator) anonymize(ctx context.Context, task Task, rec *models.Record) (*Task, error) {
	if err := o.pii.Anonymize(ctx, rec); err != nil {
		return nil, err
	}
	if err := o.records.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save anonymized record %s: %w", rec.ID, err)
	}
	if err := o.emit(ctx, rec, audit.EventRecordAnonymized, StageAnonymize, "", ""); err != nil {
		return nil, err
	}
	return nil, o.mark(ctx, rec.ID, func(m *Marker) { m.Stage = StageDone })
}

// Resubmit restores an anonymized record's PII, persists it, and returns the
// submit task that reports it again and then re-anonymizes it.
func (o *Orchestrator) Resubmit(ctx context.Context, recordID id.RecordID, family submission.Family) (*Task, error) {
	rec, err := o.records.Get(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("load record %s: %w", recordID, err)
	}
	restored, err := o.pii.Rehydrate(ctx, rec)
	if err != nil {
		return nil, err
	}
	if err := o.records.Save(ctx, restored); err != nil {
		return nil, fmt.Errorf("save rehydrated record %s: %w", recordID, err)
	}
	if err := o.emit(ctx, restored, audit.EventRecordRehydrated, StageSubmit, string(family), ""); err != nil {
		return nil, err
	}
	if err := o.emit(ctx, restored, audit.EventResubmitRequested, StageSubmit, string(family), ""); err != nil {
		return nil, err
	}
	return &Task{RecordID: recordID, Kind: restored.Kind, Stage: StageSubmit, Family: family}, nil
}

func (o *Orchestrator) mark(ctx context.Context, recordID id.RecordID, update func(m *Marker)) error {
	m, _, err := o.markers.Get(ctx, recordID)
	if err != nil {
		return err
	}
	update(&m)
	m.UpdatedAt = o.now()
	return o.markers.Put(ctx, recordID, m)
}

func (o *Orchestrator) event(rec *models.Record, action audit.AuditEvent, stage Stage, decision, reason string) audit.Event {
	return audit.Event{
		Timestamp:      o.now(),
		RecordID:       rec.ID,
		Kind:           string(rec.Kind),
		Action:         string(action),
		Stage:          string(stage),
		Decision:       decision,
		Reason:         reason,
		RegistrantHash: audit.HashRegistrant(rec.RegistrantID),
	}
}

func (o *Orchestrator) emit(ctx context.Context, rec *models.Record, action audit.AuditEvent, stage Stage, decision, reason string) error {
	if err := o.compliance.Emit(ctx, o.event(rec, action, stage, decision, reason)); err != nil {
		return fmt.Errorf("audit %s for %s: %w", action, rec.ID, err)
	}
	return nil
}

func (o *Orchestrator) track(ctx context.Context, rec *models.Record, action audit.AuditEvent, stage Stage, decision, reason string) {
	o.tracker.Track(ctx, o.event(rec, action, stage, decision, reason))
}

// Package operator implements the hubctl maintenance commands: bulk
// resubmission of reports that never reached Jembi, and manual processing of
// single records.
package operator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hub/internal/pipeline"
	"hub/internal/ports"
	"hub/internal/records/models"
	"hub/internal/submission"
	id "hub/pkg/domain"
)

// ErrNoSelection is returned when neither a complete window nor record ids were given.
var ErrNoSelection = errors.New("specify --since and --until, or one or more --record ids")

// Resubmitter restores PII on a record and returns its submit task.
type Resubmitter interface {
	Resubmit(ctx context.Context, recordID id.RecordID, family submission.Family) (*pipeline.Task, error)
}

// Dispatcher carries a task to completion, either inline or via the queue.
type Dispatcher func(ctx context.Context, task *pipeline.Task) error

// Selection narrows the records a command acts on. Since and Until bound
// created_at inclusively.
type Selection struct {
	Since    time.Time
	Until    time.Time
	SourceID *int
	IDs      []id.RecordID
}

// Validate requires either both window bounds or explicit ids.
func (s Selection) Validate() error {
	window := !s.Since.IsZero() && !s.Until.IsZero()
	if !window && len(s.IDs) == 0 {
		return ErrNoSelection
	}
	if window && s.Until.Before(s.Since) {
		return fmt.Errorf("--until %s is before --since %s", s.Until.Format(time.DateTime), s.Since.Format(time.DateTime))
	}
	return nil
}

// Batch is one resubmission command: which records it covers and which
// report family each gets.
type Batch struct {
	Name    string
	Kind    models.Kind
	Actions []string
	Family  func(rec *models.Record) submission.Family
}

// Optouts resubmits MomConnect optouts.
var Optouts = Batch{
	Name: "resubmit-optouts",
	Kind: models.KindChange,
	Actions: []string{
		string(models.ActionMomConnectLossOptout),
		string(models.ActionMomConnectNonlossOptout),
	},
	Family: func(*models.Record) submission.Family { return submission.FamilyOptout },
}

// BabyLoss resubmits loss switches.
var BabyLoss = Batch{
	Name: "resubmit-babyloss",
	Kind: models.KindChange,
	Actions: []string{
		string(models.ActionPMTCTLossSwitch),
		string(models.ActionMomConnectLossSwitch),
	},
	Family: func(*models.Record) submission.Family { return submission.FamilyBabyLoss },
}

// Registrations resubmits registrations of every type.
var Registrations = Batch{
	Name: "resubmit-registrations",
	Kind: models.KindRegistration,
	Family: func(rec *models.Record) submission.Family {
		return submission.RegistrationFamily(rec.RegType())
	},
}

// Summary counts what a batch did.
type Summary struct {
	Matched  int
	Resubmit int
	Failed   int
}

// Runner executes batches against the record store.
type Runner struct {
	records  ports.RecordStore
	pipeline Resubmitter
	dispatch Dispatcher
	logger   *slog.Logger
}

// NewRunner builds a Runner.
func NewRunner(records ports.RecordStore, pipeline Resubmitter, dispatch Dispatcher, logger *slog.Logger) *Runner {
	return &Runner{records: records, pipeline: pipeline, dispatch: dispatch, logger: logger}
}

// Run resubmits every validated record b and sel match. A failure on one
// record is logged and counted; the batch continues.
func (r *Runner) Run(ctx context.Context, b Batch, sel Selection) (Summary, error) {
	if err := sel.Validate(); err != nil {
		return Summary{}, err
	}
	validated := true
	recs, err := r.records.List(ctx, models.RecordFilter{
		Kind:      b.Kind,
		Actions:   b.Actions,
		IDs:       sel.IDs,
		Since:     sel.Since,
		Until:     sel.Until,
		SourceID:  sel.SourceID,
		Validated: &validated,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("%s: list records: %w", b.Name, err)
	}

	sum := Summary{Matched: len(recs)}
	r.logger.InfoContext(ctx, "resubmitting records", "command", b.Name, "count", len(recs))
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		family := b.Family(rec)
		log := r.logger.With("record_id", rec.ID.String(), "family", string(family))
		task, err := r.pipeline.Resubmit(ctx, rec.ID, family)
		if err == nil {
			err = r.dispatch(ctx, task)
		}
		if err != nil {
			sum.Failed++
			log.ErrorContext(ctx, "resubmission failed", "error", err)
			continue
		}
		sum.Resubmit++
		log.InfoContext(ctx, "record resubmitted")
	}
	return sum, nil
}

// Process runs a single record from validation onwards.
func (r *Runner) Process(ctx context.Context, recordID id.RecordID) error {
	rec, err := r.records.Get(ctx, recordID)
	if err != nil {
		return fmt.Errorf("process %s: %w", recordID, err)
	}
	return r.dispatch(ctx, &pipeline.Task{RecordID: rec.ID, Kind: rec.Kind, Stage: pipeline.StageValidate})
}

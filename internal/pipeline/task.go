// Package pipeline drives Registrations and Changes through
// validate, execute, submit and anonymize.
//
// Every stage receives only a Task naming the record and re-reads the record
// from the store, so a redelivered task always sees the latest state. Stages
// are chained by returning the next Task; the caller either runs it
// in-process (Process) or hands it to a Queue (Worker).
package pipeline

import (
	"errors"

	"hub/internal/actions"
	"hub/internal/clients/remote"
	"hub/internal/records/models"
	"hub/internal/submission"
	id "hub/pkg/domain"
	"hub/pkg/platform/sentinel"
)

// Stage names one step of the pipeline.
type Stage string

const (
	StageValidate  Stage = "validate"
	StageExecute   Stage = "execute"
	StageSubmit    Stage = "submit"
	StageAnonymize Stage = "anonymize"
	StageDone      Stage = "done"
)

// IsValid reports whether s is a stage a Task can carry.
func (s Stage) IsValid() bool {
	switch s {
	case StageValidate, StageExecute, StageSubmit, StageAnonymize:
		return true
	}
	return false
}

// Task is one unit of queued work. Family is set only for the submit stage.
type Task struct {
	RecordID id.RecordID       `json:"record_id"`
	Kind     models.Kind       `json:"kind"`
	Stage    Stage             `json:"stage"`
	Family   submission.Family `json:"family,omitempty"`
	Attempt  int               `json:"attempt"`
}

func (t Task) next(stage Stage, family submission.Family) *Task {
	return &Task{RecordID: t.RecordID, Kind: t.Kind, Stage: stage, Family: family}
}

// ErrDataConsistency means an upstream entity a stage needed was missing.
var ErrDataConsistency = submission.ErrDataConsistency

// ErrKindMismatch is returned when a task's kind disagrees with the stored record.
var ErrKindMismatch = errors.New("task kind does not match record")

// Terminal reports whether err halts the record for good. Anything else is
// worth redelivering. A record halted at submit keeps its PII so an operator
// can resubmit it.
func Terminal(err error) bool {
	switch {
	case err == nil:
		return false
	case remote.IsPermanent(err),
		errors.Is(err, submission.ErrRetriesExhausted),
		errors.Is(err, actions.ErrUnknownAction),
		errors.Is(err, actions.ErrUnsupportedRegistration),
		errors.Is(err, actions.ErrNoRegistrant),
		errors.Is(err, ErrKindMismatch),
		errors.Is(err, sentinel.ErrInvalidState),
		errors.Is(err, sentinel.ErrNotFound):
		return true
	}
	return false
}

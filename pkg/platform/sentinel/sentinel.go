package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and service clients return
// these (optionally wrapped) so the pipeline can decide whether to halt, skip
// or retry a stage.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record, identity or catalog entry does not exist
// - ErrConflict: a concurrent writer got there first
// - ErrInvalidState: record is in the wrong state for the requested stage
// - ErrUnavailable: backing service temporarily unavailable
//
// Validation failures are never errors; they are recorded on the record.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)

package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	id "hub/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and storage backends.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance: what was
	// reported to the compliance service and when PII left a record.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine pipeline progress useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted by the pipeline as a record moves through its stages.
// It carries no PII; the registrant is recorded only as a hash.
type Event struct {
	Category       EventCategory
	Timestamp      time.Time
	RecordID       id.RecordID
	Kind           string
	Action         string
	Stage          string
	Decision       string
	Reason         string
	RegistrantHash string
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRecord(ctx context.Context, recordID id.RecordID) ([]Event, error)
}

type AuditEvent string

const (
	EventRecordValidated   AuditEvent = "record_validated"
	EventRecordRejected    AuditEvent = "record_rejected"
	EventRecordExecuted    AuditEvent = "record_executed"
	EventExecutionAborted  AuditEvent = "execution_aborted"
	EventReportSubmitted   AuditEvent = "report_submitted"
	EventReportSkipped     AuditEvent = "report_skipped"
	EventSubmissionFailed  AuditEvent = "submission_failed"
	EventRecordAnonymized  AuditEvent = "record_anonymized"
	EventRecordRehydrated  AuditEvent = "record_rehydrated"
	EventResubmitRequested AuditEvent = "resubmit_requested"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventReportSubmitted:   CategoryCompliance,
	EventReportSkipped:     CategoryCompliance,
	EventSubmissionFailed:  CategoryCompliance,
	EventRecordAnonymized:  CategoryCompliance,
	EventRecordRehydrated:  CategoryCompliance,
	EventResubmitRequested: CategoryCompliance,

	EventRecordValidated:  CategoryOperations,
	EventRecordRejected:   CategoryOperations,
	EventRecordExecuted:   CategoryOperations,
	EventExecutionAborted: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// HashRegistrant returns the SHA-256 of a registrant id so events can be
// correlated per person without storing the id itself.
func HashRegistrant(registrantID string) string {
	if registrantID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(registrantID))
	return hex.EncodeToString(sum[:])
}

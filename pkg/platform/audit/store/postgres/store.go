package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "hub/pkg/domain"
	audit "hub/pkg/platform/audit"
)

// Store implements audit.Store on the pipeline_audit table.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts an audit event. The category is always derived from the
// action so callers cannot misfile an event.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := audit.AuditEvent(event.Action).Category()
	query := `
		INSERT INTO pipeline_audit (
			id, category, timestamp, record_id, kind, action,
			stage, decision, reason, registrant_hash
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		string(category),
		event.Timestamp,
		event.RecordID.String(),
		event.Kind,
		event.Action,
		event.Stage,
		event.Decision,
		event.Reason,
		event.RegistrantHash,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByRecord returns the events for one record, oldest first.
func (s *Store) ListByRecord(ctx context.Context, recordID id.RecordID) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, record_id, kind, action,
			   stage, decision, reason, registrant_hash
		FROM pipeline_audit
		WHERE record_id = $1
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, recordID.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, record_id, kind, action,
			   stage, decision, reason, registrant_hash
		FROM pipeline_audit
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			category string
			recordID string
			event    audit.Event
		)
		err := rows.Scan(
			&category,
			&event.Timestamp,
			&recordID,
			&event.Kind,
			&event.Action,
			&event.Stage,
			&event.Decision,
			&event.Reason,
			&event.RegistrantHash,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		if event.RecordID, err = id.ParseRecordID(recordID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

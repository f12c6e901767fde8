package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "hub/pkg/domain"
	audit "hub/pkg/platform/audit"
)

var auditCols = []string{"category", "timestamp", "record_id", "kind", "action", "stage", "decision", "reason", "registrant_hash"}

func TestStore_AppendDerivesCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	recID := id.NewRecordID()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO pipeline_audit`)).
		WithArgs(sqlmock.AnyArg(), "compliance", at, recID.String(), "change", "report_submitted",
			"submit", "optout", "", "h").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = New(db).Append(context.Background(), audit.Event{
		Category:       audit.CategoryOperations,
		Timestamp:      at,
		RecordID:       recID,
		Kind:           "change",
		Action:         string(audit.EventReportSubmitted),
		Stage:          "submit",
		Decision:       "optout",
		RegistrantHash: "h",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListByRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	recID := id.NewRecordID()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(auditCols).
		AddRow("operations", at, recID.String(), "registration", "record_validated", "validate", "", "", "h").
		AddRow("compliance", at.Add(time.Second), recID.String(), "registration", "record_anonymized", "anonymize", "", "", "h")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM pipeline_audit`)).
		WithArgs(recID.String()).
		WillReturnRows(rows)

	events, err := New(db).ListByRecord(context.Background(), recID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.CategoryOperations, events[0].Category)
	assert.Equal(t, recID, events[1].RecordID)
	assert.Equal(t, "anonymize", events[1].Stage)
	require.NoError(t, mock.ExpectationsWereMet())
}

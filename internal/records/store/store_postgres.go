package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"hub/internal/records/models"
	id "hub/pkg/domain"
	"hub/pkg/platform/sentinel"
)

//go:embed schema.sql
var Schema string

const uniqueViolation = "23505"

const recordColumns = `id, kind, action, registrant_id, data, validated, source_id, source_name, source_authority, created_at, updated_at`

// PostgresStore persists records and subscription requests in PostgreSQL.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgres constructs a PostgreSQL-backed record store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// Migrate applies the schema. Statements are idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply record schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, rec *models.Record) error {
	data, err := marshalData(rec.Data)
	if err != nil {
		return err
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
		uuid.UUID(rec.ID), string(rec.Kind), rec.Action, nullString(rec.RegistrantID), data,
		rec.Validated, rec.Source.ID, rec.Source.Name, string(rec.Source.Authority), created,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = $1`, uuid.UUID(recordID))
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find record by id: %w", err)
	}
	return rec, nil
}

// Save persists the mutable parts of a record: registrant, data and validated.
func (s *PostgresStore) Save(ctx context.Context, rec *models.Record) error {
	data, err := marshalData(rec.Data)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE records SET registrant_id = $2, data = $3, validated = $4, updated_at = $5
		WHERE id = $1`,
		uuid.UUID(rec.ID), nullString(rec.RegistrantID), data, rec.Validated, s.now(),
	)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.RecordFilter) ([]*models.Record, error) {
	query, args := buildListQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

func buildListQuery(f models.RecordFilter) (string, []any) {
	var where []string
	var args []any
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.Kind != "" {
		add("kind = ?", string(f.Kind))
	}
	if len(f.Actions) > 0 {
		add("action = ANY(?)", pq.Array(f.Actions))
	}
	if f.RegistrantID != "" {
		add("registrant_id = ?", f.RegistrantID)
	}
	if len(f.IDs) > 0 {
		ids := make([]string, len(f.IDs))
		for i, rid := range f.IDs {
			ids[i] = rid.String()
		}
		add("id = ANY(?::uuid[])", pq.Array(ids))
	}
	if !f.Since.IsZero() {
		add("created_at >= ?", f.Since)
	}
	if !f.Until.IsZero() {
		add("created_at <= ?", f.Until)
	}
	if f.SourceID != nil {
		add("source_id = ?", *f.SourceID)
	}
	if f.Validated != nil {
		add("validated = ?", *f.Validated)
	}

	query := `SELECT ` + recordColumns + ` FROM records`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	return query + ` ORDER BY created_at ASC`, args
}

func (s *PostgresStore) CreateRequest(ctx context.Context, req *models.SubscriptionRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = s.now()
	}
	var meta []byte
	if req.Metadata != nil {
		var err error
		if meta, err = json.Marshal(req.Metadata); err != nil {
			return fmt.Errorf("marshal request metadata: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscription_requests (id, identity, messageset, next_sequence_number, lang, schedule, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		req.ID, req.Identity, req.Messageset, req.NextSequenceNumber, req.Lang, req.Schedule, meta, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert subscription request: %w", err)
	}
	return nil
}

func (s *PostgresStore) HasRequest(ctx context.Context, identityID string, messageset int) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM subscription_requests WHERE identity = $1 AND messageset = $2)`,
		identityID, messageset,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check subscription request: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListRequests(ctx context.Context, identityID string) ([]*models.SubscriptionRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, identity, messageset, next_sequence_number, lang, schedule, metadata, created_at
		FROM subscription_requests WHERE ($1 = '' OR identity = $1) ORDER BY created_at ASC`,
		identityID,
	)
	if err != nil {
		return nil, fmt.Errorf("list subscription requests: %w", err)
	}
	defer rows.Close()

	var out []*models.SubscriptionRequest
	for rows.Next() {
		var r models.SubscriptionRequest
		var meta []byte
		if err := rows.Scan(&r.ID, &r.Identity, &r.Messageset, &r.NextSequenceNumber, &r.Lang, &r.Schedule, &meta, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription request: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &r.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal request metadata: %w", err)
			}
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		rec        models.Record
		rawID      uuid.UUID
		kind       string
		registrant sql.NullString
		data       []byte
		authority  string
	)
	err := row.Scan(&rawID, &kind, &rec.Action, &registrant, &data, &rec.Validated,
		&rec.Source.ID, &rec.Source.Name, &authority, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.ID = id.RecordID(rawID)
	rec.Kind = models.Kind(kind)
	rec.RegistrantID = registrant.String
	rec.Source.Authority = models.Authority(authority)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rec.Data); err != nil {
			return nil, fmt.Errorf("unmarshal record data: %w", err)
		}
	}
	if rec.Data == nil {
		rec.Data = map[string]any{}
	}
	return &rec, nil
}

func marshalData(data map[string]any) ([]byte, error) {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal record data: %w", err)
	}
	return raw, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/sheetdb/internal/core"
)

// DefaultListLimit caps List results when no limit is given.
const DefaultListLimit = 100

const createTable = `
CREATE TABLE IF NOT EXISTS record_audit_log (
	id          UUID PRIMARY KEY,
	action      TEXT        NOT NULL,
	severity    TEXT        NOT NULL,
	collection  TEXT        NOT NULL,
	record_id   TEXT,
	position    INTEGER,
	before_data JSONB,
	after_data  JSONB,
	ip_address  TEXT,
	user_agent  TEXT,
	request_id  TEXT,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS record_audit_log_collection_idx
	ON record_audit_log (collection, created_at DESC);`

// PostgresRecorder stores mutations in PostgreSQL.
type PostgresRecorder struct {
	pool  *pgxpool.Pool
	newID func() uuid.UUID
}

// NewPostgresRecorder creates a recorder on pool.
func NewPostgresRecorder(pool *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{pool: pool, newID: uuid.New}
}

// EnsureSchema creates the audit table if it does not exist.
func (r *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("create audit table: %w", err)
	}
	return nil
}

// RecordMutation inserts m.
func (r *PostgresRecorder) RecordMutation(ctx context.Context, m core.Mutation) error {
	entry := NewEntry(r.newID().String(), m)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	before, err := marshalRecord(entry.Before)
	if err != nil {
		return err
	}
	after, err := marshalRecord(entry.After)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO record_audit_log (
			id, action, severity, collection, record_id, position,
			before_data, after_data, ip_address, user_agent, request_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID,
		string(entry.Action),
		string(entry.Severity),
		entry.Collection.String(),
		toPgText(entry.RecordID),
		toPgInt4(entry.Position),
		before,
		after,
		toPgText(entry.IPAddress),
		toPgText(entry.UserAgent),
		toPgText(entry.RequestID),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListOptions filters List.
type ListOptions struct {
	Collection core.Collection
	Action     core.MutationAction
	RecordID   string
	Since      time.Time
	Until      time.Time
	Limit      int
	Offset     int
}

// List returns entries newest first.
func (r *PostgresRecorder) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}

	wb := NewWhereBuilder()
	wb.Add("collection", opts.Collection.String())
	wb.Add("action", string(opts.Action))
	wb.Add("record_id", opts.RecordID)
	wb.AddTimeRange("created_at", opts.Since, opts.Until)

	whereClause, args := wb.Build()
	query := `SELECT id, action, severity, collection, record_id, position,
		before_data, after_data, ip_address, user_agent, request_id, created_at
		FROM record_audit_log` + whereClause +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", wb.NextArgIndex(), wb.NextArgIndex()+1)
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func scanEntry(rows pgx.Rows) (Entry, error) {
	var (
		id         pgtype.UUID
		action     string
		severity   string
		collection string
		recordID   pgtype.Text
		position   pgtype.Int4
		before     []byte
		after      []byte
		ipAddress  pgtype.Text
		userAgent  pgtype.Text
		requestID  pgtype.Text
		createdAt  pgtype.Timestamptz
	)

	err := rows.Scan(
		&id, &action, &severity, &collection, &recordID, &position,
		&before, &after, &ipAddress, &userAgent, &requestID, &createdAt,
	)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		Action:     core.MutationAction(action),
		Severity:   Severity(severity),
		Collection: core.Collection(collection),
		RecordID:   recordID.String,
		Position:   int(position.Int32),
		IPAddress:  ipAddress.String,
		UserAgent:  userAgent.String,
		RequestID:  requestID.String,
		CreatedAt:  createdAt.Time,
	}
	if id.Valid {
		entry.ID = uuid.UUID(id.Bytes).String()
	}
	if before != nil {
		_ = json.Unmarshal(before, &entry.Before)
	}
	if after != nil {
		_ = json.Unmarshal(after, &entry.After)
	}
	return entry, nil
}

func marshalRecord(rec core.Record) ([]byte, error) {
	if rec == nil {
		return nil, nil
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal audit record: %w", err)
	}
	return b, nil
}

func toPgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func toPgInt4(n int) pgtype.Int4 {
	return pgtype.Int4{Int32: int32(n), Valid: n != 0}
}

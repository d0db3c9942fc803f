package core

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/JonMunkholm/sheetdb/internal/logging"
)

// Engine implements record CRUD over a tabular store.
//
// Every operation acquires its own connection, scans what it needs and
// releases the connection. No state is shared between calls, so concurrent
// calls are safe; see the package documentation for the races this allows
// against the store itself.
type Engine struct {
	connector Connector
	registry  *Registry
	recorder  MutationRecorder
	now       func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRegistry overrides the collection registry (default: [DefaultRegistry]).
func WithRegistry(r *Registry) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithRecorder reports committed mutations to r.
func WithRecorder(r MutationRecorder) EngineOption {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithClock overrides the clock used to timestamp mutations.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine on top of connector.
func NewEngine(connector Connector, opts ...EngineOption) *Engine {
	e := &Engine{
		connector: connector,
		registry:  DefaultRegistry(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the engine resolves collections with.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Backend names the store behind the engine, or "" if the connector does
// not describe itself.
func (e *Engine) Backend() string {
	if d, ok := e.connector.(Describer); ok {
		return d.Describe()
	}
	return ""
}

// scanResult is one full read of a collection.
type scanResult struct {
	schema  Schema
	records []Record
}

// GetAll returns every record of collection in store order.
// A collection without rows, header included, yields an empty slice.
func (e *Engine) GetAll(ctx context.Context, collection Collection) ([]Record, error) {
	const op = "getAll"

	if _, err := e.registry.Lookup(collection); err != nil {
		return nil, e.fail(ctx, op, collection, "", err)
	}

	var result scanResult
	err := e.withConn(ctx, func(conn Conn) error {
		var err error
		result, err = e.scan(ctx, conn, collection)
		return err
	})
	if err != nil {
		return nil, e.fail(ctx, op, collection, "", err)
	}

	logging.WithFields(ctx, "op", op, "collection", collection).
		Debug("records read", "count", len(result.records))
	return result.records, nil
}

// GetByID returns the first record whose identifier field equals id after
// normalization. A miss returns ok == false and a nil error.
func (e *Engine) GetByID(ctx context.Context, id any, collection Collection) (Record, bool, error) {
	const op = "getById"
	key := NormalizeID(id)

	field, err := e.registry.IdentifierField(collection)
	if err != nil {
		return nil, false, e.fail(ctx, op, collection, key, err)
	}

	var result scanResult
	err = e.withConn(ctx, func(conn Conn) error {
		var err error
		result, err = e.scan(ctx, conn, collection)
		return err
	})
	if err != nil {
		return nil, false, e.fail(ctx, op, collection, key, err)
	}

	logger := logging.WithFields(ctx, "op", op, "collection", collection, "id", key)
	idx := findIndex(result.records, field, id)
	if idx < 0 {
		logger.Debug("record not found")
		return nil, false, nil
	}

	logger.Debug("record found", "row", rowPosition(idx))
	return result.records[idx], true, nil
}

// Create appends rec as the last row, laid out in the current header order.
// It returns rec as provided; the store is not re-read. Uniqueness of the
// identifier is the caller's responsibility.
func (e *Engine) Create(ctx context.Context, rec Record, collection Collection) (Record, error) {
	const op = "create"

	def, err := e.registry.Lookup(collection)
	if err != nil {
		return nil, e.fail(ctx, op, collection, "", err)
	}
	key := ""
	if def.IDField != "" {
		key = rec[def.IDField]
	}

	err = e.withConn(ctx, func(conn Conn) error {
		schema, err := ResolveSchema(ctx, conn, collection)
		if err != nil {
			return err
		}
		return classify("appendRow", conn.AppendRow(ctx, string(collection), ToRow(schema, rec)))
	})
	if err != nil {
		return nil, e.fail(ctx, op, collection, key, err)
	}

	logging.WithFields(ctx, "op", op, "collection", collection, "id", key).Info("record created")
	e.record(ctx, Mutation{
		Action:     MutationCreate,
		Collection: collection,
		RecordID:   key,
		After:      rec.Clone(),
	})
	return rec, nil
}

// Update overwrites the row of the record matching id.
//
// The written row takes each header field from updates when present and from
// the scanned record otherwise, so a concurrent writer's change to other
// fields between the scan and the write is lost. The returned record is the
// scanned record merged with updates, not a re-read.
func (e *Engine) Update(ctx context.Context, id any, updates Record, collection Collection) (Record, error) {
	const op = "update"
	key := NormalizeID(id)

	field, err := e.registry.IdentifierField(collection)
	if err != nil {
		return nil, e.fail(ctx, op, collection, key, err)
	}

	var (
		scanned  Record
		position int
	)
	err = e.withConn(ctx, func(conn Conn) error {
		result, err := e.scan(ctx, conn, collection)
		if err != nil {
			return err
		}
		idx := findIndex(result.records, field, id)
		if idx < 0 {
			return ErrNotFound
		}
		scanned = result.records[idx]
		position = rowPosition(idx)

		schema, err := ResolveSchema(ctx, conn, collection)
		if err != nil {
			return err
		}
		row := mergeRow(schema, scanned, updates)
		return classify("writeRange", conn.WriteRange(ctx, string(collection), RowRange(position), [][]string{row}))
	})
	if err != nil {
		return nil, e.fail(ctx, op, collection, key, err)
	}

	merged := scanned.Merge(updates)
	logging.WithFields(ctx, "op", op, "collection", collection, "id", key).Info("record updated", "row", position)
	e.record(ctx, Mutation{
		Action:     MutationUpdate,
		Collection: collection,
		RecordID:   key,
		Position:   position,
		Before:     scanned,
		After:      merged.Clone(),
	})
	return merged, nil
}

// Delete removes the row of the record matching id. Every later row moves
// up by one position.
func (e *Engine) Delete(ctx context.Context, id any, collection Collection) error {
	const op = "delete"
	key := NormalizeID(id)

	field, err := e.registry.IdentifierField(collection)
	if err != nil {
		return e.fail(ctx, op, collection, key, err)
	}

	var (
		scanned  Record
		position int
	)
	err = e.withConn(ctx, func(conn Conn) error {
		result, err := e.scan(ctx, conn, collection)
		if err != nil {
			return err
		}
		idx := findIndex(result.records, field, id)
		if idx < 0 {
			return ErrNotFound
		}
		scanned = result.records[idx]
		position = rowPosition(idx)
		return classify("deleteRow", conn.DeleteRow(ctx, string(collection), position))
	})
	if err != nil {
		return e.fail(ctx, op, collection, key, err)
	}

	logging.WithFields(ctx, "op", op, "collection", collection, "id", key).Info("record deleted", "row", position)
	e.record(ctx, Mutation{
		Action:     MutationDelete,
		Collection: collection,
		RecordID:   key,
		Position:   position,
		Before:     scanned,
	})
	return nil
}

// Probe acquires a connection and reads the first cell of collection.
func (e *Engine) Probe(ctx context.Context, collection Collection) (ProbeResult, error) {
	const op = "probe"

	result := ProbeResult{Collection: collection}

	err := e.withConn(ctx, func(conn Conn) error {
		// Describe after connecting: backends learn their credential
		// method during Connect.
		result.Backend = e.Backend()
		rows, err := conn.ReadRange(ctx, string(collection), CellRange(FirstColumn, 1))
		if err != nil {
			return classify("readRange", err)
		}
		result.HasData = len(rows) > 0 && !isBlankRow(rows[0])
		return nil
	})
	if err != nil {
		result.Backend = e.Backend()
		return result, e.fail(ctx, op, collection, "", err)
	}

	result.CheckedAt = e.now().UTC()
	return result, nil
}

// Schema reads the current header of collection.
func (e *Engine) Schema(ctx context.Context, collection Collection) (Schema, error) {
	const op = "schema"

	var schema Schema
	err := e.withConn(ctx, func(conn Conn) error {
		var err error
		schema, err = ResolveSchema(ctx, conn, collection)
		return err
	})
	if err != nil {
		return nil, e.fail(ctx, op, collection, "", err)
	}
	return schema, nil
}

// Rows returns the raw rows of collection, header first. Trailing blank
// rows are dropped.
func (e *Engine) Rows(ctx context.Context, collection Collection) ([][]string, error) {
	const op = "rows"

	var rows [][]string
	err := e.withConn(ctx, func(conn Conn) error {
		var err error
		rows, err = conn.ReadRange(ctx, string(collection), FullRange())
		if err != nil {
			return classify("readRange", err)
		}
		return nil
	})
	if err != nil {
		return nil, e.fail(ctx, op, collection, "", err)
	}
	return TrimRows(rows), nil
}

// withConn acquires a connection, runs fn and always releases it.
func (e *Engine) withConn(ctx context.Context, fn func(Conn) error) error {
	conn, err := e.connector.Connect(ctx)
	if err != nil {
		return classify("connect", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			logging.FromContext(ctx).Warn("closing store connection", "error", cerr)
		}
	}()
	return fn(conn)
}

// scan reads the whole collection and maps every data row with the header
// captured by the same read.
func (e *Engine) scan(ctx context.Context, conn Conn, collection Collection) (scanResult, error) {
	rows, err := conn.ReadRange(ctx, string(collection), FullRange())
	if err != nil {
		return scanResult{}, classify("readRange", err)
	}
	if len(rows) == 0 {
		return scanResult{records: []Record{}}, nil
	}

	schema := Schema(rows[0])
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, ToRecord(schema, row))
	}
	return scanResult{schema: schema, records: records}, nil
}

// record forwards a committed mutation to the recorder. Recorder failures
// are logged and never undo or fail the mutation.
func (e *Engine) record(ctx context.Context, m Mutation) {
	if e.recorder == nil {
		return
	}
	m.At = e.now().UTC()
	m.Metadata = RequestMetadataFromContext(ctx)
	if err := e.recorder.RecordMutation(ctx, m); err != nil {
		logging.WithFields(ctx, "op", string(m.Action), "collection", m.Collection).
			Warn("recording mutation failed", "error", err)
	}
}

// fail wraps err with operation context and logs it.
func (e *Engine) fail(ctx context.Context, op string, collection Collection, id string, err error) error {
	level := slog.LevelError
	switch {
	case errors.Is(err, ErrNotFound):
		level = slog.LevelWarn
	case errors.Is(err, ErrUnknownCollection), errors.Is(err, ErrNoIdentifier):
		level = slog.LevelWarn
	case errors.Is(err, context.Canceled):
		level = slog.LevelInfo
	}

	logging.WithFields(ctx, "op", op, "collection", collection, "id", id).
		Log(ctx, level, "operation failed", "error", err)

	return &OpError{Op: op, Collection: collection, ID: id, Err: err}
}

// Package memory implements an in-memory tabular store with the positional
// semantics of a spreadsheet: rows are addressed by 1-based index, appends
// land after the last non-empty row and deletes shift later rows up.
//
// It backs the tests. Hooks let a test interleave operations between
// another operation's primitives, and injected failures simulate store
// outages.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JonMunkholm/sheetdb/internal/core"
)

// Primitive names passed to hooks and used with FailNext.
const (
	PrimitiveConnect    = "connect"
	PrimitiveReadRange  = "readRange"
	PrimitiveWriteRange = "writeRange"
	PrimitiveAppendRow  = "appendRow"
	PrimitiveDeleteRow  = "deleteRow"
)

// Hook runs before a primitive executes, without the store lock held.
type Hook func(ctx context.Context, primitive, collection string)

// Call records a primitive invocation.
type Call struct {
	Primitive  string
	Collection string
	Range      core.RangeSpec
	RowIndex   int
}

// Store is an in-memory implementation of core.Connector.
type Store struct {
	mu       sync.Mutex
	sheets   map[string][][]string
	failures map[string][]error
	calls    []Call
	open     int
	hook     Hook
}

// Option configures a Store.
type Option func(*Store)

// WithHook installs a hook invoked before every primitive.
func WithHook(h Hook) Option {
	return func(s *Store) {
		s.hook = h
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		sheets:   make(map[string][][]string),
		failures: make(map[string][]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed replaces the contents of collection. The first row is the header.
func (s *Store) Seed(collection string, rows ...[]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[collection] = copyRows(rows)
}

// Rows returns a copy of the raw rows of collection.
func (s *Store) Rows(collection string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRows(s.sheets[collection])
}

// FailNext makes the next call of primitive fail with err.
// Queued failures are consumed in order.
func (s *Store) FailNext(primitive string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[primitive] = append(s.failures[primitive], err)
}

// Calls returns the primitives invoked so far.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// OpenConns returns the number of connections not yet closed.
func (s *Store) OpenConns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Describe names the backend.
func (s *Store) Describe() string {
	return "memory"
}

// Connect returns a connection to the store.
func (s *Store) Connect(ctx context.Context) (core.Conn, error) {
	if err := s.before(ctx, Call{Primitive: PrimitiveConnect}); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.open++
	s.mu.Unlock()
	return &conn{store: s}, nil
}

// before runs the hook, records the call and pops an injected failure.
func (s *Store) before(ctx context.Context, call Call) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.hook != nil {
		s.hook(ctx, call.Primitive, call.Collection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	if queue := s.failures[call.Primitive]; len(queue) > 0 {
		s.failures[call.Primitive] = queue[1:]
		return queue[0]
	}
	return nil
}

type conn struct {
	store  *Store
	closed bool
}

func (c *conn) ReadRange(ctx context.Context, collection string, rng core.RangeSpec) ([][]string, error) {
	if err := c.store.before(ctx, Call{Primitive: PrimitiveReadRange, Collection: collection, Range: rng}); err != nil {
		return nil, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	return rng.Extract(c.store.sheets[collection]), nil
}

func (c *conn) WriteRange(ctx context.Context, collection string, rng core.RangeSpec, rows [][]string) error {
	if err := c.store.before(ctx, Call{Primitive: PrimitiveWriteRange, Collection: collection, Range: rng}); err != nil {
		return err
	}
	if rng.StartRow <= 0 {
		return fmt.Errorf("memory: write range %s has no start row", rng.A1(collection))
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	sheet := c.store.sheets[collection]
	startCol, endCol := rng.Columns()
	for i, row := range rows {
		pos := rng.StartRow + i
		if rng.EndRow > 0 && pos > rng.EndRow {
			break
		}
		for len(sheet) < pos {
			sheet = append(sheet, nil)
		}
		target := sheet[pos-1]
		for j, cell := range row {
			col := startCol + j
			if col > endCol {
				break
			}
			for len(target) <= col {
				target = append(target, "")
			}
			target[col] = cell
		}
		sheet[pos-1] = target
	}
	c.store.sheets[collection] = sheet
	return nil
}

func (c *conn) AppendRow(ctx context.Context, collection string, row []string) error {
	if err := c.store.before(ctx, Call{Primitive: PrimitiveAppendRow, Collection: collection}); err != nil {
		return err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	sheet := core.TrimRows(c.store.sheets[collection])
	c.store.sheets[collection] = append(sheet, append([]string(nil), row...))
	return nil
}

func (c *conn) DeleteRow(ctx context.Context, collection string, rowIndex int) error {
	if err := c.store.before(ctx, Call{Primitive: PrimitiveDeleteRow, Collection: collection, RowIndex: rowIndex}); err != nil {
		return err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	sheet := c.store.sheets[collection]
	if rowIndex < 1 || rowIndex > len(sheet) {
		return fmt.Errorf("memory: row %d out of range for %q (%d rows)", rowIndex, collection, len(sheet))
	}
	c.store.sheets[collection] = append(sheet[:rowIndex-1:rowIndex-1], sheet[rowIndex:]...)
	return nil
}

func (c *conn) Close() error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.store.open--
	return nil
}

func copyRows(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

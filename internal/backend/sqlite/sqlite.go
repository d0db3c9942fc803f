// Package sqlite implements the tabular store on a local SQLite database
// using pure-Go SQLite (modernc.org/sqlite).
//
// Each cell row is stored at its 1-based position within its collection, so
// the store keeps the positional semantics of a spreadsheet: appends land
// after the last non-empty row and deletes shift later rows up by one.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/sheetdb/internal/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS sheet_rows (
	collection TEXT    NOT NULL,
	position   INTEGER NOT NULL,
	cells      TEXT    NOT NULL,
	PRIMARY KEY (collection, position)
);`

// Store is a SQLite-backed implementation of core.Connector.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) a store at path.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	// One connection: SQLite has a single writer, and every connection to
	// ":memory:" would otherwise see its own empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Describe names the backend.
func (s *Store) Describe() string {
	return fmt.Sprintf("sqlite (%s)", s.path)
}

// Connect returns a connection sharing the store's database handle.
func (s *Store) Connect(ctx context.Context) (core.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &conn{db: s.db}, nil
}

// Replace overwrites every row of collection with rows, the first being
// the header.
func (s *Store) Replace(ctx context.Context, collection string, rows [][]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace %q: %w", collection, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sheet_rows WHERE collection = ?", collection); err != nil {
		return fmt.Errorf("clear %q: %w", collection, err)
	}
	for i, row := range rows {
		if err := putRow(ctx, tx, collection, i+1, row); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Collections lists the collections holding at least one row.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT collection FROM sheet_rows ORDER BY collection")
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

type conn struct {
	db *sql.DB
}

func (c *conn) ReadRange(ctx context.Context, collection string, rng core.RangeSpec) ([][]string, error) {
	query := "SELECT position, cells FROM sheet_rows WHERE collection = ? AND position >= ?"
	args := []any{collection, max(rng.StartRow, 1)}
	if rng.EndRow > 0 {
		query += " AND position <= ?"
		args = append(args, rng.EndRow)
	}
	query += " ORDER BY position"

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng.A1(collection), err)
	}
	defer rows.Close()

	var sheet [][]string
	for rows.Next() {
		var (
			pos   int
			cells string
		)
		if err := rows.Scan(&pos, &cells); err != nil {
			return nil, err
		}
		row, err := decodeCells(cells)
		if err != nil {
			return nil, fmt.Errorf("read %s row %d: %w", collection, pos, err)
		}
		for len(sheet) < pos {
			sheet = append(sheet, nil)
		}
		sheet[pos-1] = row
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rng.Extract(sheet), nil
}

func (c *conn) WriteRange(ctx context.Context, collection string, rng core.RangeSpec, rows [][]string) error {
	if rng.StartRow <= 0 {
		return fmt.Errorf("write range %s has no start row", rng.A1(collection))
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write %s: %w", rng.A1(collection), err)
	}
	defer tx.Rollback()

	startCol, endCol := rng.Columns()
	for i, values := range rows {
		pos := rng.StartRow + i
		if rng.EndRow > 0 && pos > rng.EndRow {
			break
		}

		current, err := getRow(ctx, tx, collection, pos)
		if err != nil {
			return err
		}
		for j, v := range values {
			col := startCol + j
			if col > endCol {
				break
			}
			for len(current) <= col {
				current = append(current, "")
			}
			current[col] = v
		}
		if err := putRow(ctx, tx, collection, pos, current); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (c *conn) AppendRow(ctx context.Context, collection string, row []string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append %q: %w", collection, err)
	}
	defer tx.Rollback()

	var last int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), 0) FROM sheet_rows WHERE collection = ? AND cells <> '[]'",
		collection,
	).Scan(&last)
	if err != nil {
		return fmt.Errorf("append %q: %w", collection, err)
	}

	if err := putRow(ctx, tx, collection, last+1, row); err != nil {
		return err
	}
	return tx.Commit()
}

func (c *conn) DeleteRow(ctx context.Context, collection string, rowIndex int) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete %q: %w", collection, err)
	}
	defer tx.Rollback()

	var last int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), 0) FROM sheet_rows WHERE collection = ?",
		collection,
	).Scan(&last)
	if err != nil {
		return fmt.Errorf("delete %q row %d: %w", collection, rowIndex, err)
	}
	if rowIndex < 1 || rowIndex > last {
		return fmt.Errorf("row %d out of range for %q (%d rows)", rowIndex, collection, last)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM sheet_rows WHERE collection = ? AND position = ?",
		collection, rowIndex,
	); err != nil {
		return fmt.Errorf("delete %q row %d: %w", collection, rowIndex, err)
	}

	// Shift through negative positions so no intermediate state collides
	// with the primary key.
	shifts := []string{
		"UPDATE sheet_rows SET position = -(position - 1) WHERE collection = ? AND position > ?",
		"UPDATE sheet_rows SET position = -position WHERE collection = ? AND position < 0",
	}
	if _, err := tx.ExecContext(ctx, shifts[0], collection, rowIndex); err != nil {
		return fmt.Errorf("shift %q rows: %w", collection, err)
	}
	if _, err := tx.ExecContext(ctx, shifts[1], collection); err != nil {
		return fmt.Errorf("shift %q rows: %w", collection, err)
	}

	return tx.Commit()
}

func (c *conn) Close() error {
	return nil
}

func getRow(ctx context.Context, tx *sql.Tx, collection string, pos int) ([]string, error) {
	var cells string
	err := tx.QueryRowContext(ctx,
		"SELECT cells FROM sheet_rows WHERE collection = ? AND position = ?",
		collection, pos,
	).Scan(&cells)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %q row %d: %w", collection, pos, err)
	}
	return decodeCells(cells)
}

func putRow(ctx context.Context, tx *sql.Tx, collection string, pos int, row []string) error {
	cells, err := json.Marshal(append([]string{}, core.TrimRow(row)...))
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sheet_rows (collection, position, cells) VALUES (?, ?, ?)
		ON CONFLICT (collection, position) DO UPDATE SET cells = excluded.cells`,
		collection, pos, string(cells),
	)
	if err != nil {
		return fmt.Errorf("write %q row %d: %w", collection, pos, err)
	}
	return nil
}

func decodeCells(s string) ([]string, error) {
	var cells []string
	if err := json.Unmarshal([]byte(s), &cells); err != nil {
		return nil, err
	}
	return cells, nil
}

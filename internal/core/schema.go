package core

import (
	"context"
	"strings"
)

// Schema is the ordered header of a collection at the time it was read.
// It is never cached: every operation reads its own.
type Schema []string

// Index returns the position of field in the schema, or -1.
func (s Schema) Index(field string) int {
	for i, f := range s {
		if f == field {
			return i
		}
	}
	return -1
}

// Missing returns the expected fields absent from the schema.
func (s Schema) Missing(expected []string) []string {
	var missing []string
	for _, f := range expected {
		if s.Index(f) < 0 {
			missing = append(missing, f)
		}
	}
	return missing
}

// ResolveSchema reads the header row of collection.
// Returns ErrEmptySchema if the collection has no header row.
func ResolveSchema(ctx context.Context, conn Conn, collection Collection) (Schema, error) {
	rows, err := conn.ReadRange(ctx, string(collection), HeaderRange())
	if err != nil {
		return nil, classify("readRange", err)
	}
	if len(rows) == 0 || isBlankRow(rows[0]) {
		return nil, ErrEmptySchema
	}
	return Schema(rows[0]), nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

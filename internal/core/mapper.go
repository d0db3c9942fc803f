package core

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ToRecord zips a row with a schema.
// Missing cells map to "", cells beyond the schema are ignored.
func ToRecord(schema Schema, row []string) Record {
	rec := make(Record, len(schema))
	for i, field := range schema {
		if i < len(row) {
			rec[field] = row[i]
		} else {
			rec[field] = ""
		}
	}
	return rec
}

// ToRow lays a record out in schema order.
// Fields absent from the record become "", fields outside the schema are dropped.
func ToRow(schema Schema, rec Record) []string {
	row := make([]string, len(schema))
	for i, field := range schema {
		row[i] = rec[field]
	}
	return row
}

// mergeRow builds the row written by an update: updates win, everything
// else comes from the scanned record, not from a fresh read.
func mergeRow(schema Schema, scanned, updates Record) []string {
	row := make([]string, len(schema))
	for i, field := range schema {
		if v, ok := updates[field]; ok {
			row[i] = v
		} else {
			row[i] = scanned[field]
		}
	}
	return row
}

// NormalizeID renders an identifier as the string it is compared by.
// Numeric and string identifiers compare equal when they print the same:
// 42, int64(42), 42.0 and "42" all normalize to "42".
func NormalizeID(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return string(v)
	case int:
		return strconv.FormatInt(int64(v), 10)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// findIndex returns the index of the first record whose field equals id
// after normalization, or -1.
func findIndex(records []Record, field string, id any) int {
	want := NormalizeID(id)
	for i, rec := range records {
		if NormalizeID(rec[field]) == want {
			return i
		}
	}
	return -1
}

// rowPosition converts an index into the scanned records to a 1-based row
// number: one for 1-based addressing, one for the header row.
func rowPosition(index int) int {
	return index + 2
}

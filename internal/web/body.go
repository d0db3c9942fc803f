package web

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/JonMunkholm/sheetdb/internal/core"
)

// MaxBodySize caps request bodies (1MB).
const MaxBodySize = 1 << 20

// readBody reads a JSON object body. An empty body reads as {}.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidRecord, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return []byte("{}"), nil
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return nil, fmt.Errorf("%w: body must be a JSON object", core.ErrInvalidRecord)
	}
	return body, nil
}

// recordFromJSON flattens a JSON object into a record. Every cell is text:
// strings are taken as is, booleans keep their JSON spelling, null becomes
// empty and nested values are stored as raw JSON. Numbers are written the
// way identifier normalization prints them, so 42.0 is stored as "42".
func recordFromJSON(body []byte) (core.Record, error) {
	rec := core.Record{}
	gjson.ParseBytes(body).ForEach(func(key, value gjson.Result) bool {
		rec[key.String()] = scalar(value)
		return true
	})
	if len(rec) == 0 {
		return nil, fmt.Errorf("%w: no fields given", core.ErrInvalidRecord)
	}
	return rec, nil
}

func scalar(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return v.Str
	case gjson.Number:
		// Integer literals are kept verbatim; they may exceed float64 precision.
		if isIntLiteral(v.Raw) {
			return v.Raw
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	default:
		return v.Raw
	}
}

func isIntLiteral(s string) bool {
	if len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

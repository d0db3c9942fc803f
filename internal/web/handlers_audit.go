package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/sheetdb/internal/audit"
	"github.com/JonMunkholm/sheetdb/internal/core"
)

const maxAuditPageSize = 500

// AuditLog lists stored audit entries.
type AuditLog interface {
	List(ctx context.Context, opts audit.ListOptions) ([]audit.Entry, error)
}

// handleAuditLog returns audit entries, newest first, filtered by the
// collection, action, recordId, from and to (YYYY-MM-DD) query parameters.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := audit.ListOptions{
		Collection: core.Collection(q.Get("collection")),
		Action:     core.MutationAction(q.Get("action")),
		RecordID:   q.Get("recordId"),
		Limit:      parseIntParam(r, "limit", audit.DefaultListLimit),
		Offset:     parseIntParam(r, "offset", 0),
	}
	if opts.Limit > maxAuditPageSize {
		opts.Limit = maxAuditPageSize
	}

	if opts.Collection != "" {
		if _, err := s.engine.Registry().Lookup(opts.Collection); err != nil {
			respondError(w, r, err)
			return
		}
	}
	if from := q.Get("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			opts.Since = t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			opts.Until = t.Add(24*time.Hour - time.Second)
		}
	}

	entries, err := s.auditLog.List(r.Context(), opts)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
		"limit":   opts.Limit,
		"offset":  opts.Offset,
	})
}

// parseIntParam reads a non-negative integer query parameter, falling back
// to def when it is missing or malformed.
func parseIntParam(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		return def
	}
	return v
}

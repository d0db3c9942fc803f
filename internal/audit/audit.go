// Package audit records committed record mutations.
//
// Recorders implement core.MutationRecorder. The engine reports every
// successful create, update and delete; a recorder failure is logged by the
// engine and never undoes the write.
package audit

import (
	"time"

	"github.com/JonMunkholm/sheetdb/internal/core"
)

// Severity represents the severity level of an audit entry.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Entry is a stored audit record.
type Entry struct {
	ID         string              `json:"id"`
	Action     core.MutationAction `json:"action"`
	Severity   Severity            `json:"severity"`
	Collection core.Collection     `json:"collection"`
	RecordID   string              `json:"recordId,omitempty"`
	Position   int                 `json:"position,omitempty"`
	Before     core.Record         `json:"before,omitempty"`
	After      core.Record         `json:"after,omitempty"`
	IPAddress  string              `json:"ipAddress,omitempty"`
	UserAgent  string              `json:"userAgent,omitempty"`
	RequestID  string              `json:"requestId,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
}

// severityOf grades a mutation: deletes are irreversible, appends are not
// destructive.
func severityOf(action core.MutationAction) Severity {
	switch action {
	case core.MutationDelete:
		return SeverityHigh
	case core.MutationUpdate:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// NewEntry builds an entry for m.
func NewEntry(id string, m core.Mutation) Entry {
	return Entry{
		ID:         id,
		Action:     m.Action,
		Severity:   severityOf(m.Action),
		Collection: m.Collection,
		RecordID:   m.RecordID,
		Position:   m.Position,
		Before:     m.Before,
		After:      m.After,
		IPAddress:  m.Metadata.IPAddress,
		UserAgent:  m.Metadata.UserAgent,
		RequestID:  m.Metadata.RequestID,
		CreatedAt:  m.At,
	}
}

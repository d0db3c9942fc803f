package core

import (
	"context"
	"time"
)

// Collection names a table (one sheet tab) in the tabular store.
type Collection string

// Collections known to the storefront.
const (
	Artesanos       Collection = "artesanos"
	Productos       Collection = "productos"
	Proyectos       Collection = "proyectos"
	Voluntarios     Collection = "voluntarios"
	ArticulosBlog   Collection = "articulosBlog"
	Consultas       Collection = "consultas"
	InformesAnuales Collection = "informesAnuales"
)

func (c Collection) String() string {
	return string(c)
}

// CollectionDefinition describes a registered collection.
type CollectionDefinition struct {
	Name    Collection
	Label   string   // Display name: "Productos"
	IDField string   // Identifier field; empty if the collection has none
	Fields  []string // Expected header, used for drift checks only
}

// Record maps field names to cell values for one non-header row.
type Record map[string]string

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge returns a copy of r overlaid with updates.
func (r Record) Merge(updates Record) Record {
	out := r.Clone()
	for k, v := range updates {
		out[k] = v
	}
	return out
}

// Connector acquires connections to the tabular store.
// Each engine operation acquires one connection and closes it when done.
type Connector interface {
	Connect(ctx context.Context) (Conn, error)
}

// Conn is a connection exposing the four store primitives.
//
// Row indexes and ranges are 1-based, as in A1 notation.
type Conn interface {
	// ReadRange returns the rows of the addressed range. Empty if no data.
	ReadRange(ctx context.Context, collection string, rng RangeSpec) ([][]string, error)

	// WriteRange overwrites the addressed range with rows.
	WriteRange(ctx context.Context, collection string, rng RangeSpec, rows [][]string) error

	// AppendRow inserts row after the last existing row.
	AppendRow(ctx context.Context, collection string, row []string) error

	// DeleteRow removes the row at rowIndex, shifting later rows up by one.
	DeleteRow(ctx context.Context, collection string, rowIndex int) error

	// Close releases the connection.
	Close() error
}

// Describer is implemented by connectors that can name their backend.
type Describer interface {
	Describe() string
}

// MutationAction identifies the kind of change reported to a recorder.
type MutationAction string

const (
	MutationCreate MutationAction = "create"
	MutationUpdate MutationAction = "update"
	MutationDelete MutationAction = "delete"
)

// Mutation describes a committed write.
type Mutation struct {
	Action     MutationAction
	Collection Collection
	RecordID   string
	Position   int    // Row written or removed; 0 for appends
	Before     Record // Scanned record; nil for creates
	After      Record // Resulting record as known client-side; nil for deletes
	At         time.Time
	Metadata   RequestMetadata
}

// MutationRecorder receives committed writes, e.g. for an audit trail.
type MutationRecorder interface {
	RecordMutation(ctx context.Context, m Mutation) error
}

// ProbeResult reports the outcome of a connectivity check.
type ProbeResult struct {
	Backend    string     `json:"backend"`
	Collection Collection `json:"collection"`
	HasData    bool       `json:"hasData"`
	CheckedAt  time.Time  `json:"checkedAt"`
}

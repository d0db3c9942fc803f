// Package core exposes a spreadsheet-like tabular store as a minimal record
// database.
//
// The package contains all adapter logic independent of the HTTP layer and of
// the concrete store. It can be used by web handlers, the sheetctl tool, or
// tests without modification.
//
// # Architecture
//
// The package is organized around four pieces:
//
//   - Collection Registry: a fixed table of collections and the identifier
//     field each one is looked up by. Unregistered collections fail with
//     [ErrUnknownCollection] instead of borrowing another collection's field.
//   - Schema: the header row of a collection, re-read on every operation.
//   - Record mapping: [ToRecord] and [ToRow] convert between positional rows
//     and field-name keyed records. All values are strings.
//   - Engine: the CRUD contract ([Engine.GetAll], [Engine.GetByID],
//     [Engine.Create], [Engine.Update], [Engine.Delete]) over a [Connector].
//
// # Collection Registry
//
// Collections are registered at init time using [Register]:
//
//	core.Register(core.CollectionDefinition{
//	    Name:    core.Productos,
//	    Label:   "Productos",
//	    IDField: "idProducto",
//	    Fields:  []string{"idProducto", "nombre", "stock", "categoria", "idArtesano"},
//	})
//
// # Positional Addressing
//
// The store has no record identity besides row position. A record found at
// index i of a scan lives at row i+2 (1-based rows, plus the header row).
// Update and Delete scan, compute that position, then write to it. Nothing
// checks that the position is still valid when the write lands:
//
//   - Lost update: two concurrent updates of the same record each merge into
//     their own scan; the last write wins in full.
//   - Position drift: a delete between another operation's scan and write
//     shifts rows up, so that write hits the wrong row.
//
// Both races are accepted behavior. Callers needing stronger guarantees must
// serialize writes per collection themselves.
//
// # Error Handling
//
// Every engine failure is returned as an [*OpError] carrying the operation,
// collection and identifier. The cause is one of [ErrNotFound],
// [ErrEmptySchema], [ErrUnknownCollection], [ErrNoIdentifier], an
// [*AuthError] or a [*RemoteError]. Use errors.Is / errors.As to inspect it and
// [MapError] to obtain a user-facing message with a support code.
//
// A lookup miss in [Engine.GetByID] is not an error: it returns ok == false.
package core

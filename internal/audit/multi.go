package audit

import (
	"context"

	"github.com/hashicorp/go-multierror"

	"github.com/JonMunkholm/sheetdb/internal/core"
)

// Multi fans a mutation out to several recorders.
type Multi []core.MutationRecorder

// RecordMutation forwards m to every recorder, even after a failure, and
// returns the combined errors.
func (m Multi) RecordMutation(ctx context.Context, mut core.Mutation) error {
	var result *multierror.Error
	for _, r := range m {
		if err := r.RecordMutation(ctx, mut); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Postgres returns the first PostgreSQL recorder of m, or nil.
func (m Multi) Postgres() *PostgresRecorder {
	for _, r := range m {
		if pg, ok := r.(*PostgresRecorder); ok {
			return pg
		}
	}
	return nil
}

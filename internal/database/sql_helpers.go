package database

import (
	"context"
	"database/sql"
	"errors"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// withDBContext runs fn under the default statement timeout.
func withDBContext(d *Database, ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := d.withTimeout(ctx, defaultDBTimeout)
	defer cancel()
	return fn(ctx)
}

// withDBContextResult is withDBContext for functions that return a value.
func withDBContextResult[T any](d *Database, ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := d.withTimeout(ctx, defaultDBTimeout)
	defer cancel()
	return fn(ctx)
}

// notFound converts sql.ErrNoRows into ErrNotFound and leaves other errors intact.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// toNullableArg converts a pointer to an interface{} suitable for SQL args.
// Returns nil if pointer is nil, otherwise returns the dereferenced value.
func toNullableArg[T any](v *T) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// boolToInt stores booleans the way sqlite expects them.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// execAffected runs a statement and reports how many rows it changed.
func (d *Database) execAffected(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := d.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package data

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/target/balancedesk/internal/domain/model"
)

// ErrNotFound is returned by ledger lookups that match nothing. It is model.ErrNotFound,
// so callers in the domain can test for it without importing this package.
var ErrNotFound = model.ErrNotFound

// ErrEmptyKey is returned by cache repositories for an empty key.
var ErrEmptyKey = errors.New("key cannot be empty")

// notFound wraps ErrNotFound with what was looked up.
func notFound(what, key string) error {
	return fmt.Errorf("%s %q: %w", what, key, ErrNotFound)
}

// isInvalidID reports whether err is Postgres rejecting a malformed UUID literal.
func isInvalidID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation
}

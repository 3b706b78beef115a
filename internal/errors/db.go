package errors

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Detail formats: `Key (cif)=(123) already exists.` and
// `Key (staff_id)=(...) is not present in table "staff".`
var (
	reDetailKey   = regexp.MustCompile(`Key \(([^)]+)\)=`)
	reDetailTable = regexp.MustCompile(`(?:is not present in|is still referenced from) table "?([^"\s]+)"?`)
)

// ledgerNouns names ledger tables in user-facing messages.
var ledgerNouns = map[string]string{
	"staff":                  "staff member",
	"customers":              "customer",
	"accounts":               "account",
	"account_daily_balances": "daily balance",
}

// MapDBError turns ledger store failures into AppErrors with user-facing
// messages. Errors that are not database errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrCodeTimeout, "The ledger did not respond in time. Please try again.")
	case errors.Is(err, context.Canceled):
		return Wrap(err, ErrCodeCanceled, "Request was canceled.")
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, sql.ErrNoRows):
		return Wrap(err, ErrCodeNotFound, "Record not found.")
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		e := Wrap(err, ErrCodeConflict, "A record with this value already exists.")
		e.Field = violatedColumn(pgErr)
		return e
	case pgerrcode.ForeignKeyViolation:
		return Wrap(err, ErrCodeForeignKey, foreignKeyMessage(pgErr))
	case pgerrcode.NotNullViolation, pgerrcode.CheckViolation:
		e := Wrap(err, ErrCodeValidation, "A value is missing or out of bounds.")
		e.Field = pgErr.ColumnName
		return e
	case pgerrcode.NumericValueOutOfRange:
		return Wrap(err, ErrCodeValidation, "Amount is out of range.")
	case pgerrcode.InvalidTextRepresentation:
		return Wrap(err, ErrCodeValidation, "Invalid identifier format.")
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
		return Wrap(err, ErrCodeUnavailable, "The ledger is busy. Please retry shortly.")
	default:
		return Wrap(err, ErrCodeInternal, "A database error occurred. Please try again.")
	}
}

func violatedColumn(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := reDetailKey.FindStringSubmatch(pgErr.Detail); m != nil {
		// Multi-column keys ("account_id, balance_date") name no single field.
		if !strings.Contains(m[1], ",") {
			return m[1]
		}
	}
	return ""
}

func foreignKeyMessage(pgErr *pgconn.PgError) string {
	table := pgErr.TableName
	if m := reDetailTable.FindStringSubmatch(pgErr.Detail); m != nil {
		table = m[1]
	}
	noun, ok := ledgerNouns[strings.ToLower(table)]
	if !ok {
		return "The referenced record does not exist or is still in use."
	}
	if strings.Contains(pgErr.Detail, "still referenced") {
		return "This record is still used by a " + noun + "."
	}
	return "The referenced " + noun + " does not exist."
}
